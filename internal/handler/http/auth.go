package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/service"
)

// AuthHandler handles the login and sign-up forms.
type AuthHandler struct {
	session *service.SessionService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(session *service.SessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		session: session,
		logger:  logger,
	}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req backend.Credentials
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := h.session.Authenticate(r.Context(), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusOK, sess)
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req backend.Registration
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.session.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, r, http.StatusCreated, map[string]string{"message": msg})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.session.Logout(r.Context()))
}

// GetSession handles GET /api/v1/auth/session
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.session.Current())
}
