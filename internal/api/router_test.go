package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/config"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	jwtManager := auth.NewJWTManager("router-test-secret", time.Hour, "campus-events")
	cfg := config.Config{
		Environment: "test",
		RateLimit: config.RateLimitConfig{
			PublicPerMinute:  600,
			StudentPerMinute: 600,
			LoginPerMinute:   600,
		},
		CORS: config.CORSConfig{AllowAllOrigins: true},
	}
	return Deps{
		Config:        cfg,
		Logger:        zerolog.Nop(),
		JWT:           jwtManager,
		Users:         users.NewService(nil, jwtManager),
		Events:        events.NewService(nil),
		Registrations: registrations.NewService(nil, nil),
		Version:       "test",
		GitCommit:     "none",
	}
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := NewRouter(testDeps(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")

	// No pool wired in tests, so readiness must report unavailable.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := NewRouter(testDeps(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := NewRouter(testDeps(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/auth/login", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Equal(t, "POST", rec.Header().Get("Allow"))
}

func TestRouterProtectedRoutesRequireToken(t *testing.T) {
	router := NewRouter(testDeps(t))

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/events"},
		{http.MethodPut, "/api/events/1"},
		{http.MethodDelete, "/api/events/1"},
		{http.MethodPost, "/api/events/1/register"},
		{http.MethodPost, "/api/events/1/unregister"},
		{http.MethodGet, "/api/events/1/registrations"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/users/me/registrations"},
	}
	for _, tc := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterAdminRoutesRejectStudents(t *testing.T) {
	deps := testDeps(t)
	router := NewRouter(deps)

	token, err := deps.JWT.Generate(42, "student", "Student", "student@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterSecurityHeaders(t *testing.T) {
	router := NewRouter(testDeps(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
