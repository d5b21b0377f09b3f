// Package server provides the HTTP surface for uploading company lists and following runs.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/talent-scout/internal/results"
)

// ErrRunInProgress is returned when an upload arrives while a run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// ErrBadUpload indicates the uploaded company list could not be read.
type ErrBadUpload struct {
	Message string
	Cause   error
}

func (e *ErrBadUpload) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bad upload: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("bad upload: %s", e.Message)
}

func (e *ErrBadUpload) Unwrap() error {
	return e.Cause
}

// ErrRateLimited indicates the client exceeded its request allowance.
type ErrRateLimited struct {
	RetryAfterSeconds int
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", e.RetryAfterSeconds)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var badUpload *ErrBadUpload
	var limited *ErrRateLimited
	switch {
	case errors.As(err, &badUpload), errors.Is(err, results.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, ErrRunInProgress):
		return http.StatusConflict
	case errors.As(err, &limited):
		return http.StatusTooManyRequests
	case errors.Is(err, results.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
