package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes surfaced to clients. Provider-specific codes (wrong-password,
// user-not-found, user-disabled, invalid-email, ...) pass through verbatim
// in addition to these.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeFailedPrecondition = "FAILED_PRECONDITION"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnknown            = "UNKNOWN"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

func NewFailedPreconditionError(message string) *AppError {
	return &AppError{
		Code:    CodeFailedPrecondition,
		Message: message,
	}
}

func NewUnknownError(err error) *AppError {
	return &AppError{
		Code:    CodeUnknown,
		Message: "Unknown error",
		Err:     err,
	}
}

// NewProviderError wraps an error reported by an external service, keeping the
// provider's own categorical code so the view layer can map it to copy.
func NewProviderError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf extracts the error code from err, or CodeUnknown if it is not an AppError.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// StatusForError maps an AppError code to an HTTP status.
func StatusForError(err error) int {
	switch CodeOf(err) {
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeFailedPrecondition:
		return fiber.StatusConflict
	case "wrong-password", "user-disabled":
		return fiber.StatusUnauthorized
	case "user-not-found":
		return fiber.StatusNotFound
	case "invalid-email", "invalid-request":
		return fiber.StatusBadRequest
	case "email-already-in-use":
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
