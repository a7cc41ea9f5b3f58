package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scholarwatch-api/internal/utils"
)

const foundationLocal = "foundation_id"

// Roles recognised by the foundation API.
const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RolePlatform = "platform"
)

// FoundationScope binds the request to the foundation named by the route parameter. Callers
// must carry a matching foundation claim; the platform role may act on any foundation. A
// mismatch is reported as not found so foundation ids cannot be probed.
func FoundationScope(param string) fiber.Handler {
	if strings.TrimSpace(param) == "" {
		param = "foundationID"
	}

	return func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		requested, err := strconv.ParseUint(strings.TrimSpace(c.Params(param)), 10, 64)
		if err != nil || requested == 0 {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid foundation identifier", nil)
		}

		if userRole(c) != RolePlatform {
			claimed, ok := c.Locals(foundationLocal).(uint)
			if !ok || uint64(claimed) != requested {
				return utils.Fail(c, fiber.StatusNotFound, "foundation not found", nil)
			}
		}

		c.Locals(foundationLocal, uint(requested))
		return c.Next()
	}
}

// FoundationID returns the foundation bound by FoundationScope, or zero.
func FoundationID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(foundationLocal).(uint); ok {
		return id
	}
	return 0
}
