package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarwatch-api/internal/config"
	"github.com/noah-isme/scholarwatch-api/internal/handler"
	"github.com/noah-isme/scholarwatch-api/internal/middleware"
	"github.com/noah-isme/scholarwatch-api/internal/router"
)

func TestRegisterExposesHealthAndMetrics(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "ScholarWatch API"}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ScholarWatch API", resp.Header.Get("X-Application"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFoundationRoutesRequireToken(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "ScholarWatch API"}, router.Dependencies{
		PerformanceAlertHandler: handler.NewPerformanceAlertHandler(nil, nil, nil, zerolog.Nop()),
		JWTMiddleware:           middleware.JWTProtected("secret"),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/foundations/1/alerts", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
