package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"questify/middleware"
	"questify/models"
	"questify/services"
)

func SetupAdminRoutes(app *fiber.App, svc Services) {
	lookup := func(ctx context.Context, userID string) (models.Role, error) {
		p, err := svc.Users.Get(ctx, userID)
		if err != nil {
			return "", err
		}
		return p.Role, nil
	}
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireRole(models.RoleAdmin, lookup))

	// Users
	admin.Get("/users", func(c *fiber.Ctx) error {
		out, err := svc.Users.List(c.UserContext(), queryInt(c, "page", 1), queryInt(c, "size", 0))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	})

	admin.Patch("/users/:id/role", func(c *fiber.Ctx) error {
		var req struct {
			Role models.Role `json:"role"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		p, err := svc.Users.SetRole(c.UserContext(), c.Params("id"), req.Role)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	})

	admin.Post("/users/:id/xp", func(c *fiber.Ctx) error {
		var req struct {
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		if req.Reason == "" {
			req.Reason = "admin_grant:" + middleware.UserID(c)
		}
		res, err := svc.Progression.GrantXP(c.UserContext(), c.Params("id"), req.XP, req.Reason)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	admin.Post("/users/:id/daily-reset", func(c *fiber.Ctx) error {
		if err := svc.Progression.ResetDailyXP(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	admin.Post("/daily-reset", func(c *fiber.Ctx) error {
		n, err := svc.Progression.ResetAllDailyXP(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"reset": n})
	})

	admin.Post("/users/:id/badges/evaluate", func(c *fiber.Ctx) error {
		awarded, err := svc.Badges.EvaluateAndAwardBadges(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"awarded": awarded})
	})

	// Badge definitions
	admin.Get("/badges", func(c *fiber.Ctx) error {
		out, err := svc.Badges.List(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	})
	admin.Post("/badges", func(c *fiber.Ctx) error {
		var req services.BadgeInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		b, err := svc.Badges.Create(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	})
	admin.Put("/badges/:id", func(c *fiber.Ctx) error {
		var req services.BadgeInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		b, err := svc.Badges.Update(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(b)
	})
	admin.Delete("/badges/:id", func(c *fiber.Ctx) error {
		if err := svc.Badges.Delete(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	if svc.Catalog != nil {
		setupCatalogAdmin(admin, svc.Catalog)
	}

	if svc.Reports != nil {
		admin.Get("/reports/users", func(c *fiber.Ctx) error {
			st, err := svc.Reports.UserStats(c.UserContext(), svc.Progression.Now())
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(st)
		})
		admin.Get("/reports/missions", func(c *fiber.Ctx) error {
			st, err := svc.Reports.MissionCompletionStats(c.UserContext())
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(st)
		})
	}
}
