// Package pipeline wires the profile build and the job recommendation flows.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/skillmatch/internal/chunker"
	"github.com/spigell/skillmatch/internal/extraction"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/profile"
	"github.com/spigell/skillmatch/internal/store"
	"github.com/spigell/skillmatch/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// ExcerptRunes bounds the text kept with each artifact.
	ExcerptRunes = 600

	DefaultConcurrency       = 3
	DefaultRequestsPerMinute = 30
)

// ErrNoDocuments is returned when a build has neither a resume nor a paper.
var ErrNoDocuments = errors.New("at least one document is required")

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	Extract(name, contentType string, data []byte) (string, error)
}

// Extractor reads skills and preferences out of one artifact's chunks.
type Extractor interface {
	Extract(ctx context.Context, in extraction.Input) extraction.Result
}

// Document is one uploaded file.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

func (d Document) title() string {
	name := filepath.Base(strings.TrimSpace(d.Name))
	if name == "." || name == "/" {
		return ""
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

type BuildRequest struct {
	Session   string
	Resume    *Document
	Papers    []Document
	About     string
	Overrides profile.Overrides
}

type BuildResult struct {
	Session   string             `json:"session"`
	Profile   *profile.Profile   `json:"profile"`
	Artifacts []profile.Artifact `json:"artifacts"`
	Parsed    int                `json:"parsed"`
	Malformed int                `json:"malformed"`
}

// BuildConfig bounds the extraction fan-out.
type BuildConfig struct {
	Resume            chunker.Config
	Paper             chunker.Config
	MaxSkills         int
	Concurrency       int
	RequestsPerMinute int
}

func (c BuildConfig) withDefaults() BuildConfig {
	c.Resume = c.Resume.WithDefaults(chunker.DefaultResumeConfig())
	c.Paper = c.Paper.WithDefaults(chunker.DefaultPaperConfig())
	if c.MaxSkills <= 0 {
		c.MaxSkills = profile.DefaultMaxSkills
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = DefaultRequestsPerMinute
	}
	return c
}

// Builder turns documents into a stored profile.
type Builder struct {
	cfg       BuildConfig
	text      TextExtractor
	extractor Extractor
	store     store.Store
	limiter   *rate.Limiter
	logger    *zap.Logger
}

func NewBuilder(cfg BuildConfig, text TextExtractor, extractor Extractor, st store.Store, log *zap.Logger) *Builder {
	cfg = cfg.withDefaults()
	return &Builder{
		cfg:       cfg,
		text:      text,
		extractor: extractor,
		store:     st,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.Concurrency),
		logger:    logger.OrNop(log),
	}
}

type prepared struct {
	artifact profile.Artifact
	chunks   []chunker.Chunk
}

// Build extracts every artifact concurrently and folds the results in artifact order,
// so the profile does not depend on completion order.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	if req.Resume == nil && len(req.Papers) == 0 {
		return nil, ErrNoDocuments
	}

	session := strings.TrimSpace(req.Session)
	if session == "" {
		session = store.DefaultSession
	}
	log := logger.WithSession(b.logger, session)

	items := make([]prepared, 0, len(req.Papers)+1)
	if req.Resume != nil {
		items = append(items, b.prepare(*req.Resume, profile.ResumeID, profile.ArtifactResume, b.cfg.Resume, log))
	}
	for i, paper := range req.Papers {
		items = append(items, b.prepare(paper, fmt.Sprintf("p%d", i+1), profile.ArtifactPaper, b.cfg.Paper, log))
	}

	about := strings.TrimSpace(req.About)
	results := make([]extraction.Result, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			if len(item.chunks) > 0 {
				if err := b.limiter.Wait(gCtx); err != nil {
					return fmt.Errorf("waiting for rate limiter: %w", err)
				}
			}
			in := extraction.Input{Artifact: item.artifact, Chunks: item.chunks}
			// The about text seeds the resume profile only.
			if item.artifact.Type == profile.ArtifactResume {
				in.About = about
			}
			results[i] = b.extractor.Extract(gCtx, in)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BuildResult{
		Session:   session,
		Profile:   profile.New(),
		Artifacts: make([]profile.Artifact, 0, len(items)),
	}
	for i, item := range items {
		result.Artifacts = append(result.Artifacts, item.artifact)
		if results[i].Status == extraction.Parsed {
			result.Parsed++
		} else {
			result.Malformed++
		}
		result.Profile.Absorb(results[i].Extracted, b.cfg.MaxSkills)
	}

	if result.Profile.About == "" {
		result.Profile.About = about
	}
	result.Profile.ApplyOverrides(req.Overrides)

	if err := b.store.Save(ctx, &store.Snapshot{
		Session:   session,
		Profile:   result.Profile,
		Artifacts: result.Artifacts,
		SavedAt:   time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	log.Info("profile built",
		zap.Int("artifacts", len(result.Artifacts)),
		zap.Int("parsed", result.Parsed),
		zap.Int("malformed", result.Malformed),
		zap.Int("skills", len(result.Profile.Skills)),
		zap.Int("projects", len(result.Profile.Projects)),
	)

	return result, nil
}

// prepare extracts text and chunks it. Unreadable documents keep an empty excerpt.
func (b *Builder) prepare(doc Document, id string, kind profile.ArtifactType, cfg chunker.Config, log *zap.Logger) prepared {
	text, err := b.text.Extract(doc.Name, doc.ContentType, doc.Data)
	if err != nil {
		log.Warn("text extraction failed", append(logger.ArtifactFields(id, string(kind)), zap.Error(err))...)
		text = ""
	}

	return prepared{
		artifact: profile.Artifact{
			ID:          id,
			Type:        kind,
			Title:       doc.title(),
			TextExcerpt: utils.TruncateRunes(text, ExcerptRunes),
		},
		chunks: cfg.Split(text, id),
	}
}
