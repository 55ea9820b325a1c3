// ABOUTME: Maps go-openai client errors onto the shared BackendError type
// ABOUTME: Shared by chat generation and the embedding client for retry classification
package apierr

import (
	"errors"

	"github.com/harper/docqa/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// FromOpenAI converts a go-openai error into a *models.BackendError
// carrying the HTTP status when one is known.
func FromOpenAI(backend string, err error) error {
	if err == nil {
		return nil
	}

	var be *models.BackendError
	if errors.As(err, &be) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &models.BackendError{
			Backend:    backend,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &models.BackendError{
			Backend:    backend,
			StatusCode: reqErr.HTTPStatusCode,
			Body:       body,
			Err:        err,
		}
	}

	return &models.BackendError{Backend: backend, Err: err}
}

// IsRetryable reports whether err is a rate limit or server-side failure.
// Timeouts and client errors are not retried.
func IsRetryable(err error) bool {
	var be *models.BackendError
	if errors.As(err, &be) {
		return be.Retryable()
	}
	return false
}
