package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("invoice_not_found")
	ErrClientNotFound    = errors.New("client_not_found")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrTerminalStatus    = errors.New("invoice_in_terminal_status")
	ErrDuplicateNumber   = errors.New("duplicate_invoice_number")
	ErrShareTokenUnknown = errors.New("unknown_share_token")
)

// FieldError ties a validation failure to the field that caused it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field failure from one validation
// pass so callers can report them all at once.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Append records a failure and returns the extended list.
func (e ValidationErrors) Append(field, message string) ValidationErrors {
	return append(e, FieldError{Field: field, Message: message})
}

// OrNil returns the collected errors as an error, or nil when empty.
func (e ValidationErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
