package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "scholarwatch-test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestJWTProtectedExposesFoundationClaims(t *testing.T) {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user":       c.Locals("user_id"),
			"role":       c.Locals("user_role"),
			"foundation": FoundationID(c),
		})
	})

	token := signedToken(t, jwt.MapClaims{
		"sub":           "12",
		"role":          "Admin",
		"foundation_id": float64(3),
		"exp":           time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		User       uint   `json:"user"`
		Role       string `json:"role"`
		Foundation uint   `json:"foundation"`
	}
	decodeBody(t, resp, &payload)
	require.Equal(t, uint(12), payload.User)
	require.Equal(t, "admin", payload.Role)
	require.Equal(t, uint(3), payload.Foundation)
}

func TestJWTProtectedRejectsInvalidTokens(t *testing.T) {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"bad signature":  "Bearer " + mustSign(t, "other-secret"),
		"expired":        "Bearer " + signedToken(t, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Hour).Unix()}),
		"empty bearer":   "Bearer   ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func mustSign(t *testing.T, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestIdentityFromClaims(t *testing.T) {
	identity := identityFromClaims(jwt.MapClaims{
		"user_id": "41",
		"roles":   []interface{}{"", " Platform "},
		"fid":     float64(9),
	})
	require.Equal(t, Identity{UserID: 41, Role: RolePlatform, FoundationID: 9}, identity)

	identity = identityFromClaims(jwt.MapClaims{"sub": float64(1.5), "foundation_id": "x"})
	require.Equal(t, Identity{}, identity)
}

func TestRateLimitRejectsAfterBudget(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(5))
		return c.Next()
	})
	app.Post("/generate", RateLimit("generate", 2, time.Minute, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/generate", nil), -1)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	require.Equal(t, []int{fiber.StatusOK, fiber.StatusOK, fiber.StatusTooManyRequests}, statuses)
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
