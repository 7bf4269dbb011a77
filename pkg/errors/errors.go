package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrUnknownStudent   = errors.New("unknown student identifier")
	ErrIndexOutOfRange  = errors.New("node index out of range")
	ErrUnknownRun       = errors.New("unknown simulation run")
	ErrRunCompleted     = errors.New("simulation run already completed")
	ErrNoNetworkForDay  = errors.New("no contact network for day")
	ErrInvalidDuration  = errors.New("non-positive class duration")
	ErrRunExists        = errors.New("simulation run id already registered")
	ErrInternal         = errors.New("internal error")
	ErrTimeout          = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrUnknownRun),
		errors.Is(err, ErrUnknownStudent),
		errors.Is(err, ErrNoNetworkForDay):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidParameter),
		errors.Is(err, ErrIndexOutOfRange),
		errors.Is(err, ErrInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, ErrRunCompleted), errors.Is(err, ErrRunExists):
		return http.StatusConflict
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
