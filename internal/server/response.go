package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spigell/skillmatch/internal/pipeline"
	"github.com/spigell/skillmatch/internal/store"
)

// ErrorResponse represents an error API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error JSON response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// statusFor maps pipeline errors to HTTP status codes. Input errors are client errors.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, pipeline.ErrNoDocuments),
		errors.Is(err, pipeline.ErrNoProfile),
		errors.Is(err, pipeline.ErrInvalidLimit),
		errors.Is(err, store.ErrInvalidSession),
		errors.Is(err, errBadForm):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes an appropriate error response based on the error type.
func HandleError(w http.ResponseWriter, err error) {
	Error(w, statusFor(err), err.Error())
}
