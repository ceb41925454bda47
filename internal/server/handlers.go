package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/spigell/skillmatch/internal/pipeline"
	"github.com/spigell/skillmatch/internal/profile"
	"github.com/spigell/skillmatch/internal/utils"
	"go.uber.org/zap"
)

const multipartMemory = 8 << 20

var errBadForm = errors.New("invalid form")

// handleBuild accepts a multipart form with an optional "resume" file, any number of "papers"
// files, an optional "about" text and "locations"/"workModes" overrides.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	req, err := s.buildRequest(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	res, err := s.builder.Build(r.Context(), req)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			s.logger.Error("building profile", zap.Error(err))
		}
		HandleError(w, err)
		return
	}

	JSON(w, http.StatusOK, res)
}

func (s *Server) buildRequest(r *http.Request) (pipeline.BuildRequest, error) {
	req := pipeline.BuildRequest{Session: SessionFrom(r.Context())}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return req, err
		}
		return req, fmt.Errorf("%w: %s", errBadForm, err)
	}
	form := r.MultipartForm

	if files := form.File["resume"]; len(files) > 0 {
		doc, err := readDocument(files[0])
		if err != nil {
			return req, err
		}
		req.Resume = &doc
	}

	for _, key := range []string{"papers", "paper"} {
		for _, header := range form.File[key] {
			doc, err := readDocument(header)
			if err != nil {
				return req, err
			}
			req.Papers = append(req.Papers, doc)
		}
	}

	req.About = r.FormValue("about")
	req.Overrides = profile.Overrides{
		Locations: utils.SplitList(form.Value["locations"]...),
		WorkModes: utils.SplitList(form.Value["workModes"]...),
	}

	return req, nil
}

func readDocument(header *multipart.FileHeader) (pipeline.Document, error) {
	file, err := header.Open()
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("%w: opening %s: %s", errBadForm, header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("%w: reading %s: %s", errBadForm, header.Filename, err)
	}

	return pipeline.Document{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// handleRecommend ranks the catalog for the session profile. The optional "limit" query
// parameter accepts a positive number, -1 or "all".
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	limit, err := pipeline.ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		HandleError(w, err)
		return
	}

	rec, err := s.recommender.Recommend(r.Context(), pipeline.RecommendRequest{
		Session: SessionFrom(r.Context()),
		Limit:   limit,
	})
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			s.logger.Error("recommending jobs", zap.Error(err))
		}
		HandleError(w, err)
		return
	}

	JSON(w, http.StatusOK, rec)
}
