package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"PoopMatesServer/internal/auth"
	"PoopMatesServer/internal/domain"
	"PoopMatesServer/internal/service"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (a *api) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRequest(req); err != nil {
		WriteDomainError(w, err)
		return
	}

	if _, err := a.authSvc.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		a.writeError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusCreated, "User registered successfully")
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserData domain.User `json:"userData"`
	Token    string      `json:"token"`
	Message  string      `json:"message"`
}

// handleLogin accepts either a still-valid token in the Authorization header
// (raw or "Bearer <token>"), which takes precedence, or email and password in
// the body.
func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	ipKey := "ip:" + clientIP(r)

	// Token refreshes only count against the limit when they fail.
	if token := auth.StripBearer(r.Header.Get("Authorization")); token != "" {
		if a.loginLimiter.Blocked(ipKey, now) {
			WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
			return
		}
		sess, err := a.authSvc.LoginWithToken(r.Context(), token)
		if err != nil {
			a.loginLimiter.Fail(ipKey, now)
			if errors.Is(err, domain.ErrInvalidCredentials) {
				err = domain.ErrInvalidToken
			}
			a.writeError(w, r, err)
			return
		}
		writeSession(w, sess)
		return
	}

	if !a.loginLimiter.Allow(ipKey, now) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	var req loginRequest
	if _, err := decodeJSONAllowEmpty(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRequest(req); err != nil {
		WriteDomainError(w, err)
		return
	}

	if !a.loginLimiter.Allow("login:"+strings.ToLower(req.Email), now) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	sess, err := a.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeSession(w, sess)
}

type externalLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

func (a *api) handleLoginGoogle(w http.ResponseWriter, r *http.Request) {
	a.handleExternalLogin(w, r, a.authSvc.LoginWithGoogle)
}

func (a *api) handleLoginApple(w http.ResponseWriter, r *http.Request) {
	a.handleExternalLogin(w, r, a.authSvc.LoginWithApple)
}

func (a *api) handleExternalLogin(w http.ResponseWriter, r *http.Request, login func(context.Context, string) (service.Session, error)) {
	if !a.loginLimiter.Allow("ip:"+clientIP(r), time.Now()) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
		return
	}

	var req externalLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	req.IDToken = strings.TrimSpace(req.IDToken)
	if err := validateRequest(req); err != nil {
		WriteDomainError(w, err)
		return
	}

	sess, err := login(r.Context(), req.IDToken)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeSession(w, sess)
}

func writeSession(w http.ResponseWriter, sess service.Session) {
	WriteJSON(w, http.StatusOK, loginResponse{
		UserData: sess.User,
		Token:    sess.Token,
		Message:  "User logged in successfully",
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
