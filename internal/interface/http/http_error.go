package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/paper-summarizer/pkg/errors"
)

const (
	codeRateLimited   = "rate_limited"
	msgInternal       = "Internal server error"
	msgInvalidBody    = "Invalid request body"
	msgTooManyRequest = "Too many requests"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

var codeStatus = map[string]int{
	apperrors.CodeInvalidInput:     http.StatusBadRequest,
	apperrors.CodeNotFound:         http.StatusNotFound,
	apperrors.CodeFetchFailed:      http.StatusInternalServerError,
	apperrors.CodeExtractionFailed: http.StatusInternalServerError,
	apperrors.CodeGenerationFailed: http.StatusInternalServerError,
	apperrors.CodeModelBusy:        http.StatusServiceUnavailable,
	apperrors.CodeInternal:         http.StatusInternalServerError,
}

// fromAppError converts a domain error. overrides replace the default status
// for specific codes.
func fromAppError(err error, overrides map[string]int) *HTTPError {
	code := apperrors.CodeOf(err)
	status, ok := overrides[code]
	if !ok {
		status, ok = codeStatus[code]
	}
	if !ok {
		status = http.StatusInternalServerError
	}
	message := msgInternal
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}
	return NewHTTPError(status, code, message, err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return fromAppError(err, nil)
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
