package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questify/models"
)

func newApp(lookup RoleLookup) *fiber.App {
	app := fiber.New()
	app.Use(GatewayAuthMiddleware("secret"))
	app.Use(UserContextMiddleware())
	app.Get("/who", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": UserID(c), "roles": Roles(c)})
	})
	app.Get("/admin", RequireRole(models.RoleAdmin, lookup), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestGatewayAndUserContext(t *testing.T) {
	app := newApp(nil)

	tests := []struct {
		name   string
		auth   string
		user   string
		status int
	}{
		{name: "no token", user: "u1", status: fiber.StatusUnauthorized},
		{name: "wrong token", auth: "Bearer nope", user: "u1", status: fiber.StatusUnauthorized},
		{name: "no user", auth: "Bearer secret", status: fiber.StatusUnauthorized},
		{name: "bearer", auth: "Bearer secret", user: "u1", status: fiber.StatusOK},
		{name: "raw token", auth: "secret", user: "u1", status: fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/who", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			if tt.user != "" {
				req.Header.Set("X-User-ID", tt.user)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequireRole(t *testing.T) {
	lookup := func(_ context.Context, userID string) (models.Role, error) {
		switch userID {
		case "stored-admin":
			return models.RoleAdmin, nil
		case "broken":
			return "", errors.New("db down")
		}
		return models.RoleUser, nil
	}
	app := newApp(lookup)

	tests := []struct {
		name   string
		user   string
		roles  string
		status int
	}{
		{name: "header role", user: "u1", roles: "user, admin", status: fiber.StatusOK},
		{name: "stored role", user: "stored-admin", status: fiber.StatusOK},
		{name: "plain user", user: "u1", roles: "user", status: fiber.StatusForbidden},
		{name: "lookup failure", user: "broken", status: fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			req.Header.Set("Authorization", "Bearer secret")
			req.Header.Set("X-User-ID", tt.user)
			if tt.roles != "" {
				req.Header.Set("X-User-Roles", tt.roles)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
