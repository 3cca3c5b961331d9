package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"PoopMatesServer/internal/domain"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrEmailTaken, http.StatusBadRequest, "email_taken"},
		{domain.ErrUsernameTaken, http.StatusBadRequest, "username_taken"},
		{domain.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials"},
		{domain.ErrInvalidToken, http.StatusBadRequest, "invalid_token"},
		{domain.NewValidationError(map[string]string{"email": "required"}), http.StatusBadRequest, "validation_error"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{fmt.Errorf("get user by id: %w", domain.ErrNotFound), http.StatusNotFound, "not_found"},
		{errors.New("connection reset by peer"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteDomainError(rec, tt.err)

		if rec.Code != tt.status {
			t.Fatalf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
		var body apiError
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: decode: %v", tt.err, err)
		}
		if body.Code != tt.code || body.Message == "" {
			t.Fatalf("%v: unexpected body %+v", tt.err, body)
		}
	}
}

func TestWriteDomainErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, errors.New("pq: password authentication failed for user app"))

	var body apiError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Server error" {
		t.Fatalf("unexpected message: %q", body.Message)
	}
}
