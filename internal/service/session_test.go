package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/backend"
	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/storage"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/validator"
)

func newTestSessionService(auth AuthBackend) (*SessionService, *storage.Store) {
	store, _ := newTestStore()
	return NewSessionService(store, auth, newTestLogger()), store
}

func TestUserIDFromToken(t *testing.T) {
	assert.Equal(t, "17", userIDFromToken(signedToken(t, jwt.MapClaims{"user_id": 17})))
	assert.Equal(t, "abc", userIDFromToken(signedToken(t, jwt.MapClaims{"user_id": "abc", "sub": "x"})))
	assert.Equal(t, "sub-1", userIDFromToken(signedToken(t, jwt.MapClaims{"sub": "sub-1"})))
	assert.Equal(t, "", userIDFromToken(signedToken(t, jwt.MapClaims{"exp": 1})))
	assert.Equal(t, "", userIDFromToken("opaque-token"))
}

// ============================================================================
// Login / Logout
// ============================================================================

func TestSessionService_LoginPersistsToken(t *testing.T) {
	svc, store := newTestSessionService(nil)
	ctx, rec := notify.NewContext(context.Background())
	token := signedToken(t, jwt.MapClaims{"user_id": 42})

	sess, err := svc.Login(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, Session{Authenticated: true, UserID: "42"}, sess)
	assert.Equal(t, token, svc.Token())

	raw, ok := store.LoadString(ctx, storage.KeyToken)
	require.True(t, ok)
	assert.Equal(t, token, raw, "the token is stored as a plain string")
	id, ok := store.LoadString(ctx, storage.KeyUserID)
	require.True(t, ok)
	assert.Equal(t, "42", id)

	require.Len(t, rec.Notices(), 1)
	assert.Equal(t, "Login successful!", rec.Notices()[0].Message)
}

func TestSessionService_LoginOpaqueToken(t *testing.T) {
	svc, store := newTestSessionService(nil)
	ctx := context.Background()

	sess, err := svc.Login(ctx, "opaque")
	require.NoError(t, err)
	assert.True(t, sess.Authenticated)
	assert.Empty(t, sess.UserID)
	_, ok := store.LoadString(ctx, storage.KeyUserID)
	assert.False(t, ok)
}

func TestSessionService_LoginEmptyToken(t *testing.T) {
	svc, store := newTestSessionService(nil)
	ctx := context.Background()

	_, err := svc.Login(ctx, "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	_, ok := store.LoadString(ctx, storage.KeyToken)
	assert.False(t, ok)
}

func TestSessionService_LogoutClearsPersistedKey(t *testing.T) {
	svc, store := newTestSessionService(nil)
	ctx, rec := notify.NewContext(context.Background())

	_, err := svc.Login(ctx, signedToken(t, jwt.MapClaims{"user_id": 1}))
	require.NoError(t, err)

	sess := svc.Logout(ctx)
	assert.False(t, sess.Authenticated)
	assert.Empty(t, svc.Token())
	_, ok := store.LoadString(ctx, storage.KeyToken)
	assert.False(t, ok)
	_, ok = store.LoadString(ctx, storage.KeyUserID)
	assert.False(t, ok)
	assert.Equal(t, "Logged out!", rec.Notices()[1].Message)
}

func TestSessionService_Invalidate(t *testing.T) {
	svc, store := newTestSessionService(nil)
	ctx, rec := notify.NewContext(context.Background())

	_, _ = svc.Login(ctx, "tok")
	svc.Invalidate(ctx)

	assert.Empty(t, svc.Token())
	_, ok := store.LoadString(ctx, storage.KeyToken)
	assert.False(t, ok)
	assert.Equal(t, notify.LevelError, rec.Notices()[1].Level)
}

func TestSessionService_Rehydrate(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	first := NewSessionService(store, nil, newTestLogger())
	token := signedToken(t, jwt.MapClaims{"sub": "9"})
	_, _ = first.Login(ctx, token)

	second := NewSessionService(store, nil, newTestLogger())
	sess := second.Rehydrate(ctx)
	assert.Equal(t, Session{Authenticated: true, UserID: "9"}, sess)
	assert.Equal(t, token, second.Token())

	first.Logout(ctx)
	third := NewSessionService(store, nil, newTestLogger())
	assert.False(t, third.Rehydrate(ctx).Authenticated)
}

func TestSessionService_RehydrateFallsBackToStoredUserID(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()
	store.SaveString(ctx, storage.KeyToken, "opaque")
	store.SaveString(ctx, storage.KeyUserID, "5")

	svc := NewSessionService(store, nil, newTestLogger())
	assert.Equal(t, Session{Authenticated: true, UserID: "5"}, svc.Rehydrate(ctx))
}

// ============================================================================
// Authenticate / Register
// ============================================================================

func TestSessionService_Authenticate(t *testing.T) {
	auth := new(mockAuthBackend)
	svc, _ := newTestSessionService(auth)
	ctx := context.Background()
	creds := backend.Credentials{Email: "ann@example.com", Password: "secret"}
	token := signedToken(t, jwt.MapClaims{"user_id": 3})

	auth.On("Login", mock.Anything, creds).Return(backend.Tokens{Access: token}, nil)

	sess, err := svc.Authenticate(ctx, creds)
	require.NoError(t, err)
	assert.Equal(t, Session{Authenticated: true, UserID: "3"}, sess)
	assert.Equal(t, token, svc.Token())
	auth.AssertExpectations(t)
}

func TestSessionService_Authenticate_Rejected(t *testing.T) {
	auth := new(mockAuthBackend)
	svc, _ := newTestSessionService(auth)
	ctx, rec := notify.NewContext(context.Background())
	creds := backend.Credentials{Email: "ann@example.com", Password: "wrong"}

	auth.On("Login", mock.Anything, creds).Return(backend.Tokens{}, &httpclient.StatusError{
		Service: backend.ServiceName,
		Status:  http.StatusUnauthorized,
		Detail:  "No active account found with the given credentials",
	})

	sess, err := svc.Authenticate(ctx, creds)
	require.Error(t, err)
	assert.False(t, sess.Authenticated)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "LOGIN_FAILED", appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "No active account found with the given credentials", appErr.Message)
	assert.Equal(t, appErr.Message, rec.Notices()[0].Message)
}

func TestSessionService_Authenticate_BackendDown(t *testing.T) {
	auth := new(mockAuthBackend)
	svc, _ := newTestSessionService(auth)
	creds := backend.Credentials{Email: "ann@example.com", Password: "x"}

	auth.On("Login", mock.Anything, creds).Return(backend.Tokens{}, errors.New("connection refused"))

	_, err := svc.Authenticate(context.Background(), creds)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestSessionService_Authenticate_InvalidForm(t *testing.T) {
	auth := new(mockAuthBackend)
	svc, _ := newTestSessionService(auth)

	_, err := svc.Authenticate(context.Background(), backend.Credentials{Email: "not-an-email"})
	var valErr *validator.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Contains(t, valErr.Fields(), "email")
	assert.Contains(t, valErr.Fields(), "password")
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestSessionService_Register(t *testing.T) {
	auth := new(mockAuthBackend)
	svc, _ := newTestSessionService(auth)
	ctx, rec := notify.NewContext(context.Background())
	form := backend.Registration{Username: "ann", Email: "ann@example.com", PhoneNumber: "555", Password: "pw"}

	auth.On("Register", mock.Anything, form).Return("User registered successfully", nil)

	msg, err := svc.Register(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", msg)
	assert.Equal(t, msg, rec.Notices()[0].Message)
	assert.False(t, svc.Current().Authenticated, "registering does not sign in")
}

func TestSessionService_Register_Conflict(t *testing.T) {
	auth := new(mockAuthBackend)
	svc, _ := newTestSessionService(auth)
	form := backend.Registration{Username: "ann", Email: "ann@example.com", PhoneNumber: "555", Password: "pw"}

	auth.On("Register", mock.Anything, form).Return("", &httpclient.StatusError{
		Service: backend.ServiceName,
		Status:  http.StatusBadRequest,
		Detail:  "email: user with this email already exists.",
	})

	_, err := svc.Register(context.Background(), form)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "REGISTRATION_FAILED", appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "email: user with this email already exists.", appErr.Message)
}
