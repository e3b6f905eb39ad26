package http_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/tokenauth/token-service/internal/api/http"
	"github.com/tokenauth/token-service/internal/api/http/handlers"
	"github.com/tokenauth/token-service/internal/auth"
	"github.com/tokenauth/token-service/internal/config"
	"github.com/tokenauth/token-service/internal/domain"
	"github.com/tokenauth/token-service/internal/events"
	"github.com/tokenauth/token-service/internal/observability"
	"github.com/tokenauth/token-service/internal/service"
)

type userStore struct {
	mu    sync.Mutex
	users []*domain.User
}

func (s *userStore) Create(_ context.Context, user *domain.User, _ []domain.Authority) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return domain.ErrUserExists
		}
	}
	user.ID = strconv.Itoa(len(s.users) + 1)
	s.users = append(s.users, user)
	return nil
}

func (s *userStore) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (s *userStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Email != nil && strings.EqualFold(*u.Email, email) })
}

func (s *userStore) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Username == username })
}

func (s *userStore) Authorities(context.Context, string) ([]domain.Authority, error) {
	return []domain.Authority{domain.AuthorityUser}, nil
}

func (s *userStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (s *userStore) find(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newApp(t *testing.T, deps map[string]handlers.Pinger) (*fiber.App, *observability.Metrics) {
	t.Helper()
	users := &userStore{}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	principals := service.NewPrincipalService(users, nil, logger)
	secret := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("r", 32)))
	tokens, err := auth.NewTokenService(secret, users, principals)
	require.NoError(t, err)

	authService := service.NewAuthService(config.Config{Auth: config.AuthConfig{BcryptCost: 4}}, service.AuthDependencies{
		UserRepo:   users,
		Tokens:     tokens,
		Principals: principals,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("token-service", "test", deps),
		Auth:           handlers.NewAuthHandler(authService),
		Account:        handlers.NewAccountHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, dispatcher),
	})
	return app, metrics
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func field(t *testing.T, m map[string]any, path ...string) any {
	t.Helper()
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		require.True(t, ok, "expected object at %q", key)
		cur = obj[key]
	}
	return cur
}

func TestSignUpSignInFlow(t *testing.T) {
	app, metrics := newApp(t, nil)

	status, body := call(t, app, http.MethodPost, "/auth/signup", "", map[string]string{
		"phoneOrEmail": "Kim@Example.com",
		"name":         "Kim Minsu",
		"username":     "kim",
		"password":     "password123",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "kim", field(t, body, "data", "username"))
	assert.Equal(t, "kim@example.com", field(t, body, "data", "email"))

	status, body = call(t, app, http.MethodPost, "/auth/signin", "", map[string]string{
		"phoneOrEmail": "Kim@Example.com",
		"password":     "password123",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bearer", field(t, body, "data", "token_type"))
	token, _ := field(t, body, "data", "token").(string)
	require.NotEmpty(t, token)

	status, body = call(t, app, http.MethodGet, "/auth/authenticated", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, field(t, body, "data", "authenticated"))

	status, body = call(t, app, http.MethodGet, "/account/principal", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "kim", field(t, body, "data", "username"))
	assert.Equal(t, []any{"ROLE_USER"}, field(t, body, "data", "authorities"))

	status, body = call(t, app, http.MethodPost, "/account/password", token, map[string]string{
		"currentPassword": "wrong-password",
		"newPassword":     "new-password-456",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", field(t, body, "error", "code"))

	status, body = call(t, app, http.MethodPost, "/account/password", token, map[string]string{
		"currentPassword": "password123",
		"newPassword":     "new-password-456",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "password_changed", field(t, body, "data", "status"))

	status, _ = call(t, app, http.MethodPost, "/auth/signin", "", map[string]string{
		"phoneOrEmail": "kim",
		"password":     "new-password-456",
	})
	assert.Equal(t, http.StatusOK, status)

	assert.Equal(t, int64(2), metrics.Snapshot().Requests["/auth/signin|POST|200"])
}

func TestAuthErrors(t *testing.T) {
	app, metrics := newApp(t, nil)

	status, body := call(t, app, http.MethodGet, "/account/principal", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", field(t, body, "error", "code"))

	status, body = call(t, app, http.MethodGet, "/auth/authenticated", "garbage", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, field(t, body, "data", "authenticated"))

	status, body = call(t, app, http.MethodPost, "/auth/signin", "", map[string]string{
		"phoneOrEmail": "nobody",
		"password":     "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", field(t, body, "error", "code"))

	status, body = call(t, app, http.MethodPost, "/auth/signup", "", map[string]string{
		"phoneOrEmail": "kim@example.com",
		"username":     "kim",
		"password":     "short",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", field(t, body, "error", "code"))
	assert.Equal(t, "min", field(t, body, "error", "details", "password"))
	assert.Equal(t, "required", field(t, body, "error", "details", "name"))

	assert.Equal(t, int64(1), metrics.Snapshot().Errors["/account/principal|GET|UNAUTHORIZED"])
}

func TestHealth(t *testing.T) {
	app, _ := newApp(t, map[string]handlers.Pinger{"postgres": pinger{}})
	status, body := call(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = call(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", field(t, body, "dependencies", "postgres"))

	app, _ = newApp(t, map[string]handlers.Pinger{"redis": pinger{err: errors.New("connection refused")}})
	status, body = call(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "connection refused", field(t, body, "error", "details", "redis"))
}
