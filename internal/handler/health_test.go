package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkHealth(t *testing.T, h *HealthHandler) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/status", nil), rec)

	require.NoError(t, h.CheckHealth(c))
	return rec, decode[map[string]any](t, rec)
}

func TestCheckHealth_MemoryDriver(t *testing.T) {
	rec, body := checkHealth(t, NewHealthHandler(newTestServer()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["driver"])
	assert.Equal(t, "test", body["environment"])
	assert.Empty(t, body["checks"], "no database to check")
}

func TestCheckHealth_RedisDownIsNotCritical(t *testing.T) {
	s := newTestServer()
	s.Config.Observability.HealthChecks.Timeout = 200 * time.Millisecond
	s.Redis = redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = s.Redis.Close() })

	rec, body := checkHealth(t, NewHealthHandler(s))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok)
	redisCheck, ok := checks["redis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unhealthy", redisCheck["status"])
	assert.NotEmpty(t, redisCheck["error"])
}

func TestCheckHealth_DisabledChecks(t *testing.T) {
	s := newTestServer()
	s.Config.Observability.HealthChecks.Enabled = false
	s.Redis = redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = s.Redis.Close() })

	_, body := checkHealth(t, NewHealthHandler(s))
	assert.Empty(t, body["checks"])
}
