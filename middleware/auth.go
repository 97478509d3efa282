// middleware/auth.go
package middleware

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"questify/models"
)

const (
	localUserID    = "user_id"
	localUserRoles = "user_roles"
)

// UserContextMiddleware extracts user identity and roles set by Gateway.
// Requests without X-User-ID are rejected.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID: request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			r = strings.TrimSpace(r)
			if r != "" {
				roles = append(roles, r)
			}
		}

		c.Locals(localUserID, userID)
		c.Locals(localUserRoles, roles)
		return c.Next()
	}
}

// UserID returns the caller set by UserContextMiddleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

func Roles(c *fiber.Ctx) []string {
	roles, _ := c.Locals(localUserRoles).([]string)
	return roles
}

// RoleLookup returns the role stored for a user.
type RoleLookup func(ctx context.Context, userID string) (models.Role, error)

// RequireRole lets the request through when the gateway roles include role,
// or else when lookup reports it for the caller.
func RequireRole(role models.Role, lookup RoleLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, r := range Roles(c) {
			if strings.EqualFold(r, string(role)) {
				return c.Next()
			}
		}
		if lookup != nil {
			stored, err := lookup(c.UserContext(), UserID(c))
			if err == nil && stored == role {
				return c.Next()
			}
		}
		log.Printf("🚫 [USER_CTX] %s lacks role %s for %s", UserID(c), role, c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "forbidden: " + string(role) + " role required",
		})
	}
}
