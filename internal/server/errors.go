package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalidDate indicates a malformed or out-of-order date parameter
type ErrInvalidDate struct {
	Message string
}

func (e *ErrInvalidDate) Error() string {
	return e.Message
}

// ErrEventNotFound indicates the requested event does not exist
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e *ErrEventNotFound) Error() string {
	return fmt.Sprintf("event not found: %s", e.EventID)
}

// ErrClaimNotFound indicates the requested claim does not exist
type ErrClaimNotFound struct {
	ClaimID uuid.UUID
}

func (e *ErrClaimNotFound) Error() string {
	return fmt.Sprintf("claim not found: %s", e.ClaimID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// validationError converts a validator error into an ErrValidation naming
// the field that failed.
func validationError(err error) *ErrValidation {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) && len(fieldErrors) > 0 {
		fe := fieldErrors[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return &ErrValidation{Field: field, Message: field + " is required"}
		case "gte", "lte":
			return &ErrValidation{Field: field, Message: field + " must be between 0 and 1"}
		default:
			return &ErrValidation{Field: field, Message: "failed " + fe.Tag() + " validation"}
		}
	}
	return &ErrValidation{Field: "body", Message: "invalid request"}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrInvalidDate, *ErrValidation:
		return http.StatusBadRequest
	case *ErrEventNotFound, *ErrClaimNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
