package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/storage"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/validator"
)

// AuthBackend is the part of the shop backend that handles accounts.
type AuthBackend interface {
	Login(ctx context.Context, creds backend.Credentials) (backend.Tokens, error)
	Register(ctx context.Context, form backend.Registration) (string, error)
}

// Session is the public view of the shopper's session. The token itself is
// never serialized.
type Session struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
}

// SessionService owns the shopper's access token.
type SessionService struct {
	store  *storage.Store
	auth   AuthBackend
	logger *slog.Logger

	mu     sync.RWMutex
	token  string
	userID string
}

// NewSessionService creates a signed-out session.
func NewSessionService(store *storage.Store, auth AuthBackend, logger *slog.Logger) *SessionService {
	return &SessionService{
		store:  store,
		auth:   auth,
		logger: logger,
	}
}

// Rehydrate restores the session persisted by a previous run.
func (s *SessionService) Rehydrate(ctx context.Context) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.store.LoadString(ctx, storage.KeyToken)
	if !ok || token == "" {
		s.token, s.userID = "", ""
		return s.sessionLocked()
	}
	s.token = token
	s.userID = userIDFromToken(token)
	if s.userID == "" {
		if id, ok := s.store.LoadString(ctx, storage.KeyUserID); ok {
			s.userID = id
		}
	}
	return s.sessionLocked()
}

// Login stores token as the current session. The token is not validated.
func (s *SessionService) Login(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return s.Current(), apperrors.InvalidInput("token is required")
	}

	s.mu.Lock()
	s.token = token
	s.userID = userIDFromToken(token)
	s.store.SaveString(ctx, storage.KeyToken, token)
	if s.userID != "" {
		s.store.SaveString(ctx, storage.KeyUserID, s.userID)
	} else {
		s.store.Remove(ctx, storage.KeyUserID)
	}
	sess := s.sessionLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "shopper logged in", slog.String("user_id", sess.UserID))
	notify.Success(ctx, "Login successful!")
	return sess, nil
}

// Logout clears the session.
func (s *SessionService) Logout(ctx context.Context) Session {
	sess := s.clear(ctx)
	s.logger.InfoContext(ctx, "shopper logged out")
	notify.Success(ctx, "Logged out!")
	return sess
}

// Invalidate clears a session the backend no longer accepts.
func (s *SessionService) Invalidate(ctx context.Context) Session {
	sess := s.clear(ctx)
	s.logger.WarnContext(ctx, "session rejected by backend, signed out")
	notify.Error(ctx, "Your session has expired, please log in again.")
	return sess
}

// Authenticate exchanges credentials with the backend and starts a session
// with the returned access token.
func (s *SessionService) Authenticate(ctx context.Context, creds backend.Credentials) (Session, error) {
	if err := validator.Validate(creds); err != nil {
		return s.Current(), err
	}

	tokens, err := s.auth.Login(ctx, creds)
	if err != nil {
		appErr := authFailed("LOGIN_FAILED", "login failed", err)
		notify.Error(ctx, appErr.Message)
		return s.Current(), appErr
	}
	return s.Login(ctx, tokens.Access)
}

// Register creates an account on the backend and returns its message.
func (s *SessionService) Register(ctx context.Context, form backend.Registration) (string, error) {
	if err := validator.Validate(form); err != nil {
		return "", err
	}

	msg, err := s.auth.Register(ctx, form)
	if err != nil {
		appErr := authFailed("REGISTRATION_FAILED", "registration failed", err)
		notify.Error(ctx, appErr.Message)
		return "", appErr
	}
	if msg == "" {
		msg = "Registration successful, please log in."
	}
	s.logger.InfoContext(ctx, "account registered", slog.String("username", form.Username))
	notify.Success(ctx, msg)
	return msg, nil
}

// Token returns the current access token, "" when signed out.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// UserID returns the user id derived from the token, "" when unknown.
func (s *SessionService) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Current returns the public session view.
func (s *SessionService) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionLocked()
}

func (s *SessionService) clear(ctx context.Context) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.userID = "", ""
	s.store.Remove(ctx, storage.KeyToken)
	s.store.Remove(ctx, storage.KeyUserID)
	return s.sessionLocked()
}

func (s *SessionService) sessionLocked() Session {
	return Session{Authenticated: s.token != "", UserID: s.userID}
}

// userIDFromToken reads the user id claim of a JWT without verifying it.
// Opaque tokens yield "".
func userIDFromToken(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, key := range []string{"user_id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// authFailed maps a rejected login or sign-up to a client error carrying the
// backend's own message. Backend outages stay upstream errors.
func authFailed(code, fallback string, err error) *apperrors.AppError {
	var se *httpclient.StatusError
	if errors.As(err, &se) && httpclient.IsClientError(se.Status) {
		msg := se.Detail
		if msg == "" {
			msg = fallback
		}
		status := se.Status
		if status != http.StatusUnauthorized && status != http.StatusForbidden {
			status = http.StatusBadRequest
		}
		return &apperrors.AppError{
			Code:    code,
			Message: msg,
			Status:  status,
			Err:     err,
		}
	}
	return apperrors.Upstream(code, fmt.Sprintf("%s, the shop backend is unavailable", fallback), err)
}
