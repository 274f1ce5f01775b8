package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	backupdomain "github.com/invosync/invosync/internal/backup/domain"
	clientdomain "github.com/invosync/invosync/internal/client/domain"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
	"github.com/invosync/invosync/pkg/db"
)

type errorPayload struct {
	Type    string                     `json:"type"`
	Message string                     `json:"message"`
	Errors  []invoicedomain.FieldError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware turns errors recorded on the context into a
// single JSON error response after the handler chain finishes.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return invoicedomain.ValidationErrors{{Field: "request", Message: "invalid request"}}
}

func mapError(err error) (int, errorPayload) {
	var vErr invoicedomain.ValidationErrors
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []invoicedomain.FieldError{{Field: validationField(err), Message: err.Error()}},
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, invoicedomain.ErrTerminalStatus),
		errors.Is(err, invoicedomain.ErrDuplicateNumber):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, paymentdomain.ErrIssuerUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidStatus),
		errors.Is(err, paymentdomain.ErrInvalidMode),
		errors.Is(err, clientdomain.ErrInvalidID),
		errors.Is(err, clientdomain.ErrInvalidName),
		errors.Is(err, clientdomain.ErrInvalidEmail),
		errors.Is(err, backupdomain.ErrInvalidFilename):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrClientNotFound),
		errors.Is(err, invoicedomain.ErrShareTokenUnknown),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, backupdomain.ErrNotFound),
		db.IsNotFoundErr(err):
		return true
	default:
		return false
	}
}

func validationField(err error) string {
	switch {
	case errors.Is(err, paymentdomain.ErrInvalidMode):
		return "mode"
	case errors.Is(err, invoicedomain.ErrInvalidStatus):
		return "status"
	case errors.Is(err, clientdomain.ErrInvalidName):
		return "name"
	case errors.Is(err, clientdomain.ErrInvalidEmail):
		return "email"
	case errors.Is(err, backupdomain.ErrInvalidFilename):
		return "filename"
	case errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, clientdomain.ErrInvalidID):
		return "id"
	default:
		return "request"
	}
}
