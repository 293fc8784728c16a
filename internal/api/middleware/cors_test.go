package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campus-events/server/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCORSAllowsWhitelistedOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://portal.campus.edu"}}
	handler := CORS(cfg, zerolog.Nop())(noopHandler())

	request := httptest.NewRequest("GET", "/api/events", nil)
	request.Header.Set("Origin", "https://portal.campus.edu")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.Equal(t, "https://portal.campus.edu", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://portal.campus.edu"}}
	handler := CORS(cfg, zerolog.Nop())(noopHandler())

	request := httptest.NewRequest("GET", "/api/events", nil)
	request.Header.Set("Origin", "https://evil.example")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowAllReflectsOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowAllOrigins: true}
	handler := CORS(cfg, zerolog.Nop())(noopHandler())

	request := httptest.NewRequest("GET", "/api/events", nil)
	request.Header.Set("Origin", "http://localhost:5173")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.Equal(t, "http://localhost:5173", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	cfg := config.CORSConfig{AllowAllOrigins: true}
	handler := CORS(cfg, zerolog.Nop())(noopHandler())

	request := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	request.Header.Set("Origin", "http://localhost:5173")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.NotEmpty(t, recorder.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSSkipsSameOrigin(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://portal.campus.edu"}}
	handler := CORS(cfg, zerolog.Nop())(noopHandler())

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/events", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDGeneratedAndEchoed(t *testing.T) {
	var captured string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	})
	handler := CorrelationID(zerolog.Nop())(inner)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/events", nil))

	require.NotEmpty(t, captured)
	require.Equal(t, captured, recorder.Header().Get("X-Request-ID"))
}

func TestCorrelationIDHonorsIncomingHeader(t *testing.T) {
	var captured string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	})
	handler := CorrelationID(zerolog.Nop())(inner)

	request := httptest.NewRequest("GET", "/api/events", nil)
	request.Header.Set("X-Request-ID", "upstream-id-42")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.Equal(t, "upstream-id-42", captured)
}
