package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type ErrorCode string

const (
	CodeInternal   ErrorCode = "INTERNAL_ERROR"
	CodeValidation ErrorCode = "VALIDATION_ERROR"
	CodeNoData     ErrorCode = "NO_DATA"
	CodeRateLimit  ErrorCode = "RATE_LIMIT_EXCEEDED"
)

var statusByCode = map[ErrorCode]int{
	CodeInternal:   http.StatusInternalServerError,
	CodeValidation: http.StatusBadRequest,
	CodeNoData:     http.StatusUnprocessableEntity,
	CodeRateLimit:  http.StatusTooManyRequests,
}

// AppError is the error half of the JSON envelope every API and export
// route answers with.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails returns e with Details set, e.g. the offending query
// parameter.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func newError(code ErrorCode, message string, cause error) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError {
	return newError(CodeInternal, message, nil)
}

func InternalWrap(err error, message string) *AppError {
	return newError(CodeInternal, message, err)
}

// Validation reports an unknown filter dimension, grouping or measure.
func Validation(message string) *AppError {
	return newError(CodeValidation, message, nil)
}

// NoData reports an operation that needs at least one filtered row, such as
// an export, attempted on an empty selection.
func NoData(message string) *AppError {
	return newError(CodeNoData, message, nil)
}

func RateLimit(message string) *AppError {
	return newError(CodeRateLimit, message, nil)
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

// WriteError answers with the error envelope. Errors that are not an
// *AppError become a generic internal error with err kept as the cause.
// Client errors log at WARN, server errors at ERROR.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	appErr, ok := err.(*AppError)
	if !ok {
		appErr = InternalWrap(err, "An unexpected error occurred")
	}
	appErr.RequestID = requestID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	if encodeErr := json.NewEncoder(w).Encode(ErrorResponse{Error: appErr}); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	level := slog.LevelError
	if appErr.StatusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}

	logger.Log(context.Background(), level, "request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"details", appErr.Details,
		"status_code", appErr.StatusCode,
		"request_id", requestID,
		"cause", appErr.Cause,
	)
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(SuccessResponse{Data: data, Success: true})
}

// WriteSuccessWithHeaders sets headers, typically Cache-Control, before
// writing the success envelope.
func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}
