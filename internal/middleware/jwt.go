package middleware

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/scholarwatch-api/internal/utils"
)

const bearerScheme = "bearer "

var (
	userIDClaims       = []string{"sub", "user_id", "id"}
	foundationIDClaims = []string{"foundation_id", "fid"}
	roleClaims         = []string{"role", "roles"}
)

// Identity is the caller resolved from a bearer token.
type Identity struct {
	UserID       uint
	Role         string
	FoundationID uint
}

// JWTProtected validates HMAC-signed bearer tokens and stores the caller's identity as the
// user_id, user_role and foundation_id request locals read by RequireRole and FoundationScope.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(30*time.Second),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "invalid token", nil)
		}

		identity := identityFromClaims(claims)
		if identity.UserID > 0 {
			c.Locals("user_id", identity.UserID)
		}
		if identity.Role != "" {
			c.Locals("user_role", identity.Role)
		}
		if identity.FoundationID > 0 {
			c.Locals(foundationLocal, identity.FoundationID)
		}

		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("authorization header missing")
	}
	if len(header) < len(bearerScheme) || !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return "", fmt.Errorf("invalid authorization header")
	}
	token := strings.TrimSpace(header[len(bearerScheme):])
	if token == "" {
		return "", fmt.Errorf("invalid token")
	}
	return token, nil
}

func identityFromClaims(claims jwt.MapClaims) Identity {
	return Identity{
		UserID:       firstIDClaim(claims, userIDClaims...),
		Role:         firstRoleClaim(claims, roleClaims...),
		FoundationID: firstIDClaim(claims, foundationIDClaims...),
	}
}

// firstIDClaim returns the first positive identifier among keys, or 0.
func firstIDClaim(claims jwt.MapClaims, keys ...string) uint {
	for _, key := range keys {
		if id, ok := claimID(claims[key]); ok && id > 0 {
			return id
		}
	}
	return 0
}

func claimID(value interface{}) (uint, bool) {
	switch v := value.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return 0, false
		}
		return uint(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return uint(parsed), true
	default:
		return 0, false
	}
}

// firstRoleClaim accepts a single role string or a list, in which case the first non-empty
// entry wins.
func firstRoleClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if role := strings.ToLower(strings.TrimSpace(v)); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					if role := strings.ToLower(strings.TrimSpace(s)); role != "" {
						return role
					}
				}
			}
		}
	}
	return ""
}
