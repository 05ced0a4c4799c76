// Package errors provides standardized domain errors with codes for the StageUp media core.
//
// Usage:
//
//	// In services - return typed errors
//	if !result.Valid {
//	    return errors.InvalidFileType("declared type is not allowed")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrFileNotFound) {
//	    logger.Warn("file missing", "error", err)
//	    return err
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeFileTooLarge:
//	        ...
//	    case errors.CodeUploadFailed:
//	        ...
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Validation codes: bad input, recoverable by the user.
const (
	CodeInvalidFileType   Code = "INVALID_FILE_TYPE"
	CodeFileTooLarge      Code = "FILE_TOO_LARGE"
	CodeInvalidDimensions Code = "INVALID_DIMENSIONS"
	CodeCorruptedFile     Code = "CORRUPTED_FILE"
	CodeMaliciousContent  Code = "MALICIOUS_CONTENT"
)

// Upload codes: the operation did not complete; partial state is unusable.
const (
	CodeUploadFailed     Code = "UPLOAD_FAILED"
	CodeStorageFull      Code = "STORAGE_FULL"
	CodeProcessingFailed Code = "PROCESSING_FAILED"
)

// Access codes: expected, reportable read/delete failures.
const (
	CodeFileNotFound Code = "FILE_NOT_FOUND"
	CodeAccessDenied Code = "ACCESS_DENIED"
	CodeUnauthorized Code = "UNAUTHORIZED"
)

// System codes: deployment or environment problems, logged as operational signals.
const (
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeConfiguration      Code = "CONFIGURATION_ERROR"
	CodeNetwork            Code = "NETWORK_ERROR"
)

// Category groups codes for propagation policy decisions.
type Category string

// Error categories.
const (
	CategoryValidation Category = "validation"
	CategoryUpload     Category = "upload"
	CategoryAccess     Category = "access"
	CategorySystem     Category = "system"
)

// Category returns the taxonomy category for an error code.
func (c Code) Category() Category {
	switch c {
	case CodeInvalidFileType, CodeFileTooLarge, CodeInvalidDimensions, CodeCorruptedFile, CodeMaliciousContent:
		return CategoryValidation
	case CodeUploadFailed, CodeStorageFull, CodeProcessingFailed:
		return CategoryUpload
	case CodeFileNotFound, CodeAccessDenied, CodeUnauthorized:
		return CategoryAccess
	default:
		return CategorySystem
	}
}

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidFileType, CodeInvalidDimensions, CodeCorruptedFile, CodeMaliciousContent:
		return http.StatusBadRequest
	case CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeFileNotFound:
		return http.StatusNotFound
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeStorageFull:
		return http.StatusInsufficientStorage
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Category returns the taxonomy category for this error.
func (e *Error) Category() Category {
	return e.Code.Category()
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrInvalidFileType    = &Error{Code: CodeInvalidFileType, Message: "invalid file type"}
	ErrFileTooLarge       = &Error{Code: CodeFileTooLarge, Message: "file too large"}
	ErrInvalidDimensions  = &Error{Code: CodeInvalidDimensions, Message: "invalid dimensions"}
	ErrCorruptedFile      = &Error{Code: CodeCorruptedFile, Message: "corrupted file"}
	ErrMaliciousContent   = &Error{Code: CodeMaliciousContent, Message: "malicious content detected"}
	ErrUploadFailed       = &Error{Code: CodeUploadFailed, Message: "upload failed"}
	ErrStorageFull        = &Error{Code: CodeStorageFull, Message: "storage full"}
	ErrProcessingFailed   = &Error{Code: CodeProcessingFailed, Message: "processing failed"}
	ErrFileNotFound       = &Error{Code: CodeFileNotFound, Message: "file not found"}
	ErrAccessDenied       = &Error{Code: CodeAccessDenied, Message: "access denied"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrServiceUnavailable = &Error{Code: CodeServiceUnavailable, Message: "service unavailable"}
	ErrConfiguration      = &Error{Code: CodeConfiguration, Message: "configuration error"}
	ErrNetwork            = &Error{Code: CodeNetwork, Message: "network error"}
)

// Constructor functions for creating errors with custom messages.

// InvalidFileType creates an invalid file type error.
func InvalidFileType(msg string) *Error {
	return &Error{Code: CodeInvalidFileType, Message: msg}
}

// FileTooLarge creates a file too large error.
func FileTooLarge(msg string) *Error {
	return &Error{Code: CodeFileTooLarge, Message: msg}
}

// FileTooLargef creates a file too large error with formatted message.
func FileTooLargef(format string, args ...any) *Error {
	return &Error{Code: CodeFileTooLarge, Message: fmt.Sprintf(format, args...)}
}

// InvalidDimensions creates an invalid dimensions error.
func InvalidDimensions(msg string) *Error {
	return &Error{Code: CodeInvalidDimensions, Message: msg}
}

// InvalidDimensionsf creates an invalid dimensions error with formatted message.
func InvalidDimensionsf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidDimensions, Message: fmt.Sprintf(format, args...)}
}

// CorruptedFile creates a corrupted file error.
func CorruptedFile(msg string) *Error {
	return &Error{Code: CodeCorruptedFile, Message: msg}
}

// MaliciousContent creates a malicious content error.
func MaliciousContent(msg string) *Error {
	return &Error{Code: CodeMaliciousContent, Message: msg}
}

// ValidationFailed creates an invalid file type error carrying the full list
// of accumulated stage errors in Details.
func ValidationFailed(msg string, stageErrors []string) *Error {
	return &Error{Code: CodeInvalidFileType, Message: msg, Details: stageErrors}
}

// UploadFailed creates an upload failed error.
func UploadFailed(msg string) *Error {
	return &Error{Code: CodeUploadFailed, Message: msg}
}

// UploadFailedf creates an upload failed error with formatted message.
func UploadFailedf(format string, args ...any) *Error {
	return &Error{Code: CodeUploadFailed, Message: fmt.Sprintf(format, args...)}
}

// StorageFull creates a storage full error.
func StorageFull(msg string) *Error {
	return &Error{Code: CodeStorageFull, Message: msg}
}

// ProcessingFailed creates a processing failed error.
func ProcessingFailed(msg string) *Error {
	return &Error{Code: CodeProcessingFailed, Message: msg}
}

// NotFound creates a file not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeFileNotFound, Message: msg}
}

// NotFoundf creates a file not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeFileNotFound, Message: fmt.Sprintf(format, args...)}
}

// AccessDenied creates an access denied error.
func AccessDenied(msg string) *Error {
	return &Error{Code: CodeAccessDenied, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *Error {
	return &Error{Code: CodeServiceUnavailable, Message: msg}
}

// Configuration creates a configuration error.
func Configuration(msg string) *Error {
	return &Error{Code: CodeConfiguration, Message: msg}
}

// Configurationf creates a configuration error with formatted message.
func Configurationf(format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// Network creates a network error.
func Network(msg string) *Error {
	return &Error{Code: CodeNetwork, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
