package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Resolution failures that are not outcomes. NotFound and NotAcceptable are
// regular results of a resolution and have no error form.
// Use errors.Is() to check against these.
var (
	// ErrConfiguration marks an operator mistake, such as a landing-page
	// template without its placeholder. Retrying cannot help.
	ErrConfiguration = errors.New("configuration error")

	// ErrUpstreamError marks a failed repository or media request, as opposed
	// to a successful lookup that found nothing.
	ErrUpstreamError = errors.New("upstream error")
)

// APIError is a classified failure with the HTTP status it renders as.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewConfigurationError reports an invalid setting. cause may be nil.
func NewConfigurationError(setting, reason string, cause error) *APIError {
	err := ErrConfiguration
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrConfiguration, cause)
	}
	return &APIError{
		Code:       "CONFIGURATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", setting, reason),
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUpstreamError reports a failed call to service.
func NewUpstreamError(service string, cause error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, cause),
	}
}

// NewInternalError hides an unclassified failure behind a generic message.
func NewInternalError(cause error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        cause,
	}
}
