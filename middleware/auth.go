// middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"pingpair/utils"
)

// Locals keys set by UserContextMiddleware
const (
	UserIDKey    = "user_id"
	UserNameKey  = "user_name"
	UserRolesKey = "user_roles"
)

// UserContextMiddleware extracts user identity and roles set by Gateway.
// Every route it guards requires X-User-ID.
func UserContextMiddleware(log *utils.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			log.Warn("❌ [USER_CTX] X-User-ID required but missing", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.TrimSpace(r); r != "" {
				roles = append(roles, r)
			}
		}

		// Attach to ctx for handlers
		c.Locals(UserIDKey, userID)
		c.Locals(UserNameKey, strings.TrimSpace(c.Get("X-User-Name")))
		c.Locals(UserRolesKey, roles)

		log.Debug("👤 [USER_CTX] user context attached", "user_id", userID, "roles", roles, "path", c.Path())
		return c.Next()
	}
}

// RequireRole rejects requests whose X-User-Roles does not contain role.
// Must run after UserContextMiddleware.
func RequireRole(role string, log *utils.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals(UserRolesKey).([]string)
		for _, r := range roles {
			if strings.EqualFold(r, role) {
				return c.Next()
			}
		}
		log.Warn("⛔ [USER_CTX] role required", "role", role, "user_id", UserID(c), "path", c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": role + " role required",
		})
	}
}

// UserID returns the id attached by UserContextMiddleware, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}

// UserName returns the display name forwarded by the Gateway, or "".
func UserName(c *fiber.Ctx) string {
	name, _ := c.Locals(UserNameKey).(string)
	return name
}
