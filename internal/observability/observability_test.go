package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesAlertCollectors(t *testing.T) {
	AlertsCreated().WithLabelValues("attendance_low", "critical").Inc()
	AlertTransitions().WithLabelValues("resolved").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `alerts_created_total{alert_type="attendance_low",severity="critical"}`)
	require.Contains(t, string(body), `alert_transitions_total{to="resolved"}`)
}

func TestCorrelationIDContext(t *testing.T) {
	require.Empty(t, CorrelationID(context.Background()))

	ctx := WithCorrelationID(context.Background(), "  sweep-1 ")
	require.Equal(t, "sweep-1", CorrelationID(ctx))

	require.Equal(t, ctx, WithCorrelationID(ctx, " "))
	require.Equal(t, "sweep-1", CorrelationID(WithCorrelationID(ctx, "")))
}
