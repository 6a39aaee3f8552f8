package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/princekumarofficial/assets-service/internal/assets"
	"github.com/princekumarofficial/assets-service/internal/auth"
)

type Response struct {
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

func RequestOK(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// StatusFor maps an ingestion error onto its HTTP status. Oversized payloads
// are reported as 400 like any other malformed upload.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, assets.ErrBadRequest), errors.Is(err, assets.ErrPayloadTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, assets.ErrUnauthorized),
		errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, assets.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, assets.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err in the error envelope with the status StatusFor picks.
// Server-side failures are reported without their internal detail.
func Error(w http.ResponseWriter, err error) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		return WriteJSON(w, status, GeneralError(errors.New(http.StatusText(status))))
	}
	return WriteJSON(w, status, GeneralError(err))
}
