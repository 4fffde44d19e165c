package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

func TestNewLoggerFormats(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "debug", Format: "console", Service: "helpdesk", Env: "test"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "bogus"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = NewLogger(config.LoggerConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, 2*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 4*time.Millisecond)
	m.RecordError("/tickets", "POST", "FORBIDDEN")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/tickets|GET|200"])
	assert.InDelta(t, 3.0, snap.AvgDurationMS["/tickets|GET|200"], 0.001)
	assert.Equal(t, int64(1), snap.Errors["/tickets|POST|FORBIDDEN"])

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, 0)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	m := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/tickets/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	assert.Equal(t, int64(1), m.Snapshot().Requests["/tickets/:id|GET|204"])
}
