package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/campus-events/server/internal/api"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/config"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/campus-events/server/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type testEnv struct {
	Context       context.Context
	Pool          *pgxpool.Pool
	Server        *httptest.Server
	Users         *users.Service
	Events        *events.Service
	Registrations *registrations.Service
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("campus_events"),
		tcpostgres.WithUsername("campus"),
		tcpostgres.WithPassword("campus_dev"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrationsPath := filepath.Join(projectRoot(t), "internal", "storage", "postgres", "migrations")
	require.NoError(t, migrateWithRetry(dbURL, migrationsPath, 10*time.Second))

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo, err := postgres.NewRepository(pool)
	require.NoError(t, err)

	jwtManager := auth.NewJWTManager("test-secret-32-bytes-minimum----", time.Hour, "campus-events")
	usersService := users.NewService(repo.Users(), jwtManager)
	eventsService := events.NewService(repo.Events())
	registrationsService := registrations.NewService(repo.Registrations(), nil)

	router := api.NewRouter(api.Deps{
		Config:        testConfig(dbURL),
		Logger:        zerolog.New(io.Discard),
		Pool:          pool,
		JWT:           jwtManager,
		Users:         usersService,
		Events:        eventsService,
		Registrations: registrationsService,
		Version:       "test",
		GitCommit:     "none",
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{
		Context:       ctx,
		Pool:          pool,
		Server:        server,
		Users:         usersService,
		Events:        eventsService,
		Registrations: registrationsService,
	}
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1",
		},
		Database: config.DatabaseConfig{
			URL:            dbURL,
			MaxConnections: 5,
			MaxIdle:        2,
		},
		Auth: config.AuthConfig{
			JWTSecret: "test-secret-32-bytes-minimum----",
			JWTExpiry: time.Hour,
			Issuer:    "campus-events",
		},
		RateLimit: config.RateLimitConfig{
			PublicPerMinute:  1000,
			StudentPerMinute: 1000,
			LoginPerMinute:   1000,
			AdminPerMinute:   0,
		},
		CORS: config.CORSConfig{AllowAllOrigins: true},
		Logging: config.LoggingConfig{
			Level:  "debug",
			Format: "json",
		},
		Environment: "test",
	}
}

func projectRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func migrateWithRetry(databaseURL string, migrationsPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := postgres.MigrateUp(databaseURL, migrationsPath); err != nil {
			if time.Now().After(deadline) {
				return err
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}
		return nil
	}
}

// doJSON sends a request with an optional bearer token and decodes the
// JSON response body.
func doJSON(t *testing.T, env *testEnv, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(env.Context, method, env.Server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.Server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

// signupUser creates an account over the API and returns its token.
func signupUser(t *testing.T, env *testEnv, name, email, role string) string {
	t.Helper()

	status, resp := doJSON(t, env, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "secret1",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, status, "signup %s: %v", email, resp)

	token, ok := resp["token"].(string)
	require.True(t, ok, "signup response missing token: %v", resp)
	return token
}

// seedAdmin provisions an admin through the startup bootstrap path and
// logs it in over the API.
func seedAdmin(t *testing.T, env *testEnv) string {
	t.Helper()

	require.NoError(t, env.Users.EnsureDefaultAdmin(env.Context, "Admin", "admin@campus.example", "admin-secret"))
	status, resp := doJSON(t, env, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "admin@campus.example",
		"password": "admin-secret",
	})
	require.Equal(t, http.StatusOK, status, "admin login: %v", resp)

	token, ok := resp["token"].(string)
	require.True(t, ok)
	return token
}

// createEvent provisions an event through the admin API and returns its id.
func createEvent(t *testing.T, env *testEnv, adminToken string, capacity int) int64 {
	t.Helper()

	status, resp := doJSON(t, env, http.MethodPost, "/api/events", adminToken, map[string]any{
		"title":           "Autumn Hackathon",
		"description":     "A weekend of building things with free pizza.",
		"category":        "technology",
		"location":        "Engineering Building",
		"date":            time.Now().Add(14 * 24 * time.Hour).Format("2006-01-02"),
		"time":            "09:00",
		"maxParticipants": capacity,
	})
	require.Equal(t, http.StatusCreated, status, "create event: %v", resp)

	id, ok := resp["id"].(float64)
	require.True(t, ok, "create event response missing id: %v", resp)
	return int64(id)
}

func eventPath(eventID int64, suffix string) string {
	return fmt.Sprintf("/api/events/%d%s", eventID, suffix)
}
