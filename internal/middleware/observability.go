package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarwatch-api/internal/observability"
)

const apiPrefix = "/api/v2"

// slowRequestThreshold marks requests worth a warning even when they succeed; alert generation
// over a large foundation is the usual culprit.
const slowRequestThreshold = 2 * time.Second

// Observability records Prometheus request metrics and one structured log line per foundation
// API request. Health and metrics endpoints are left out.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if !strings.HasPrefix(c.Path(), apiPrefix) {
			return err
		}

		elapsed := time.Since(start)
		route := routeTemplate(c)
		method := c.Method()
		status := c.Response().StatusCode()
		statusLabel := strconv.Itoa(status)

		observability.APIRequests().WithLabelValues(method, route, statusLabel).Inc()
		observability.APILatency().WithLabelValues(method, route).Observe(elapsed.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.APIErrors().WithLabelValues(method, route, statusLabel).Inc()
		}

		event := logger.Info()
		message := "request completed"
		switch {
		case status >= fiber.StatusInternalServerError:
			event, message = logger.Error(), "request failed"
		case status >= fiber.StatusBadRequest:
			event, message = logger.Warn(), "request rejected"
		case elapsed >= slowRequestThreshold:
			event, message = logger.Warn(), "slow request"
		}

		event.
			Str("correlation_id", GetCorrelationID(c)).
			Uint("foundation_id", FoundationID(c)).
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Msg(message)

		return err
	}
}

func routeTemplate(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}
