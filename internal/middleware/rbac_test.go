package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRequireRoleAllowsAuthorizedRoles(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_role", "Staff")
		return c.Next()
	})
	app.Use(RequireRole(RoleAdmin, RoleStaff))
	app.Get("/rules", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/rules", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireRoleRejectsUnauthorizedRoles(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_role", "beneficiary")
		return c.Next()
	})
	app.Use(RequireRole(RoleAdmin, RoleStaff))
	app.Get("/rules", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/rules", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireRoleListsAllowedRolesOnRejection(t *testing.T) {
	app := fiber.New()
	app.Use(RequireRole(RoleAdmin, " staff ", RoleAdmin))
	app.Get("/rules", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rules", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	var payload struct {
		Success bool `json:"success"`
		Details struct {
			AllowedRoles []string `json:"allowed_roles"`
		} `json:"details"`
	}
	decodeBody(t, resp, &payload)
	require.False(t, payload.Success)
	require.Equal(t, []string{"admin", "staff"}, payload.Details.AllowedRoles)
}
