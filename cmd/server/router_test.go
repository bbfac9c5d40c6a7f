package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"phone_auth/internal/metrics"
	"phone_auth/internal/model"
	"phone_auth/internal/repository"
	"phone_auth/internal/service"
	"phone_auth/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*model.User
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Phone]; ok {
		return repository.ErrDuplicatePhone
	}
	r.nextID++
	user.ID = r.nextID
	user.Role = model.RoleUser
	stored := *user
	r.users[user.Phone] = &stored
	return nil
}

func (r *memUserRepo) FindByPhone(_ context.Context, phone string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[phone]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, db stubPinger) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	logs := new(bytes.Buffer)
	logger := slog.New(slog.NewJSONHandler(logs, nil))
	jwtUtil := utils.NewJWTUtil("test-secret", 24*time.Hour)
	repo := &memUserRepo{users: map[string]*model.User{}}
	svc := service.NewAuthService(repo, utils.NewPasswordHasher(bcrypt.MinCost, 4), jwtUtil, logger)

	return newRouter(routerDeps{
		logger:      logger,
		authService: svc,
		jwtUtil:     jwtUtil,
		metrics:     metrics.New(),
		db:          db,
		corsOrigins: []string{"http://localhost:5173"},
	}), logs
}

func send(t *testing.T, r http.Handler, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestRouter_RegisterLoginLogoutFlow(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})

	status, body := send(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","phone":"9876543210","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "User registered successfully", body["message"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "Ann", user["name"])
	assert.Equal(t, "9876543210", user["phone"])
	assert.NotContains(t, user, "passwordHash")

	status, body = send(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Bob","phone":"9876543210","password":"other"}`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "phone already registered", body["error"])

	status, body = send(t, router, http.MethodPost, "/api/auth/login",
		`{"phone":"9876543210","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, status)
	token := body["token"].(string)
	assert.Equal(t, "user", body["user"].(map[string]any)["role"])

	status, body = send(t, router, http.MethodGet, "/api/auth/me", "", token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ann", body["user"].(map[string]any)["name"])

	status, body = send(t, router, http.MethodPost, "/api/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", body["message"])
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})
	status, _ := send(t, router, http.MethodPost, "/api/auth/register",
		`{"name":"Ann","phone":"9876543210","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, status)

	wrongPassword, body1 := send(t, router, http.MethodPost, "/api/auth/login",
		`{"phone":"9876543210","password":"wrong"}`, "")
	unknownPhone, body2 := send(t, router, http.MethodPost, "/api/auth/login",
		`{"phone":"0000000000","password":"secret1"}`, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword)
	assert.Equal(t, wrongPassword, unknownPhone)
	assert.Equal(t, body1, body2)
}

func TestRouter_RegisterValidation(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"missing name", `{"phone":"9876543210","password":"secret1"}`, "missing fields"},
		{"short phone", `{"name":"Ann","phone":"12345","password":"secret1"}`, "invalid phone format"},
		{"letters in phone", `{"name":"Ann","phone":"98765abcde","password":"secret1"}`, "invalid phone format"},
		{"malformed json", `{"name":"Ann"`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := send(t, router, http.MethodPost, "/api/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.wantErr, body["error"])
		})
	}
}

func TestRouter_RequestIDInResponseAndLogs(t *testing.T) {
	router, logs := newTestRouter(t, stubPinger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
	assert.Contains(t, logs.String(), `"request_id":"req-42"`)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{err: errors.New("connection refused")})

	status, body := send(t, router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["db"])

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "phone_auth_http_request_duration_seconds")
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})

	status, body := send(t, router, http.MethodGet, "/api/v1/transactions", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not found", body["error"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
