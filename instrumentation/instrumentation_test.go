package instrumentation_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/mcp-token-proxy/instrumentation"
	"github.com/stretchr/testify/require"
)

func TestNewDisabled(t *testing.T) {
	inst, err := instrumentation.New(instrumentation.Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, inst.Enabled())
	require.Nil(t, inst.MetricsHandler())
	require.NotNil(t, inst.Metrics())
	require.NotNil(t, inst.Tracer("auth"))

	// recording on no-op instruments must not panic
	inst.Metrics().RecordGrant(context.Background(), "refresh_token", instrumentation.ResultSuccess, time.Millisecond)
	require.NoError(t, inst.Shutdown(context.Background()))
}

func TestMetricsHandlerExposesGrantCounter(t *testing.T) {
	inst, err := instrumentation.New(instrumentation.Config{
		Enabled:        true,
		ServiceName:    "test-proxy",
		ServiceVersion: "1.0.0",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = inst.Shutdown(context.Background()) })

	inst.Metrics().RecordGrant(context.Background(), "authorization_code", instrumentation.ResultSuccess, 5*time.Millisecond)
	inst.Metrics().RecordRateLimitExceeded(context.Background(), "/oauth/token")

	handler := inst.MetricsHandler()
	require.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "proxy_token_grants")
	require.Contains(t, string(body), `grant_type="authorization_code"`)
	require.Contains(t, string(body), "proxy_ratelimit_exceeded")
}

func TestShutdownIsIdempotent(t *testing.T) {
	inst, err := instrumentation.New(instrumentation.Config{Enabled: true})
	require.NoError(t, err)
	require.NoError(t, inst.Shutdown(context.Background()))
	require.NoError(t, inst.Shutdown(context.Background()))
}
