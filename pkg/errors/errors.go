package errors

import "errors"

// Codes forming the closed failure taxonomy shared by every handler.
const (
	CodeInvalidInput     = "invalid_input"
	CodeNotFound         = "not_found"
	CodeFetchFailed      = "fetch_failed"
	CodeExtractionFailed = "extraction_failed"
	CodeGenerationFailed = "generation_failed"
	CodeModelBusy        = "model_busy"
	CodeInternal         = "internal_error"
)

// ErrNotFound marks a remote resource that does not exist. Infra clients wrap
// it so domain services can map the failure without knowing the transport.
var ErrNotFound = errors.New("resource not found")

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the taxonomy code carried by err, or CodeInternal when err
// is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return CodeInternal
}
