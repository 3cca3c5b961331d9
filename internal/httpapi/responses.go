package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"PoopMatesServer/internal/domain"
)

type apiError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, apiError{Code: code, Message: message})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, messageResponse{Message: message})
}

// WriteDomainError maps domain errors to their HTTP status. Errors outside the
// domain taxonomy become a generic 500 without detail.
func WriteDomainError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, apiError{Code: "validation_error", Message: "invalid request", Fields: verr.Fields})
	case errors.Is(err, domain.ErrValidation):
		WriteError(w, http.StatusBadRequest, "validation_error", "invalid request")
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusBadRequest, "email_taken", "User already exists")
	case errors.Is(err, domain.ErrUsernameTaken):
		WriteError(w, http.StatusBadRequest, "username_taken", "User already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusBadRequest, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, domain.ErrInvalidToken):
		WriteError(w, http.StatusBadRequest, "invalid_token", "Invalid JWT. Please log in with un/pw.")
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "User not in the chat room")
	case errors.Is(err, domain.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "User not found")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Server error")
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrEmailTaken,
		domain.ErrUsernameTaken,
		domain.ErrInvalidCredentials,
		domain.ErrInvalidToken,
		domain.ErrUnauthorized,
		domain.ErrForbidden,
		domain.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError logs failures that will surface as a 500 and then writes the
// mapped response.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !isDomainError(err) {
		fields := []any{"operation", operationName(r), "err", err}
		if rid, ok := GetRequestID(r.Context()); ok {
			fields = append(fields, "request_id", rid)
		}
		a.logger.Error("request failed", fields...)
	}
	WriteDomainError(w, err)
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}
