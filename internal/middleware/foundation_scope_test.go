package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarwatch-api/internal/middleware"
)

func scopedApp(locals map[string]interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		for key, value := range locals {
			c.Locals(key, value)
		}
		return c.Next()
	})
	app.Get("/foundations/:foundationID/alerts", middleware.FoundationScope("foundationID"), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"foundation": middleware.FoundationID(c)})
	})
	return app
}

func TestFoundationScopeAllowsMatchingClaim(t *testing.T) {
	app := scopedApp(map[string]interface{}{"user_id": uint(10), "user_role": "staff", "foundation_id": uint(3)})

	resp := perform(t, app, "/foundations/3/alerts")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestFoundationScopeHidesOtherFoundations(t *testing.T) {
	app := scopedApp(map[string]interface{}{"user_id": uint(10), "user_role": "admin", "foundation_id": uint(3)})

	resp := perform(t, app, "/foundations/4/alerts")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestFoundationScopeAllowsPlatformRole(t *testing.T) {
	app := scopedApp(map[string]interface{}{"user_id": uint(1), "user_role": "Platform"})

	resp := perform(t, app, "/foundations/8/alerts")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestFoundationScopeRequiresUser(t *testing.T) {
	app := scopedApp(nil)

	resp := perform(t, app, "/foundations/3/alerts")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestFoundationScopeRejectsInvalidIdentifier(t *testing.T) {
	app := scopedApp(map[string]interface{}{"user_id": uint(1), "user_role": "platform"})

	resp := perform(t, app, "/foundations/abc/alerts")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func perform(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
