package apperror

import (
	"errors"
	"net/http"
)

// Error kinds exposed to clients in the "error" field of the response envelope.
const (
	KindInvalidPayload          = "INVALID_PAYLOAD"
	KindInvalidTime             = "INVALID_TIME"
	KindInvalidTimeRange        = "INVALID_TIME_RANGE"
	KindInvalidStatus           = "INVALID_STATUS"
	KindInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	KindResourceNotFound        = "RESOURCE_NOT_FOUND"
	KindTimeConflict            = "TIME_CONFLICT"
	KindNotFound                = "NOT_FOUND"
	KindForbidden               = "FORBIDDEN"
	KindUnauthorized            = "UNAUTHORIZED"
	KindInvalidFileUpload       = "INVALID_FILE_UPLOAD"
	KindConflict                = "CONFLICT"
	KindSystemError             = "SYSTEM_ERROR"
)

// AppError is a custom error type that includes an HTTP status code and a machine-readable kind.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    string // Machine-readable error code (e.g., TIME_CONFLICT)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind, so that sentinel
// errors keep matching after being wrapped with extra context.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates a new AppError with a status code, kind and message.
func New(code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Internal wraps an unexpected infrastructure failure as SYSTEM_ERROR.
func Internal(err error, message string) *AppError {
	return Wrap(err, http.StatusInternalServerError, KindSystemError, message)
}

// KindOf returns the kind of err, or SYSTEM_ERROR if err is not an AppError.
func KindOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindSystemError
}
