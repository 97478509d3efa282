// handlers/progression_routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"questify/middleware"
	"questify/services"
)

// Services bundles what the routes call. Catalog and Reports need postgres
// and may be nil, in which case their routes are not registered.
type Services struct {
	Progression *services.ProgressionService
	Badges      *services.BadgeService
	Missions    *services.MissionService
	Users       *services.UserService
	Leaderboard *services.LeaderboardService
	Catalog     *services.CatalogService
	Reports     *services.ReportService
}

// ensureProfile creates the caller's profile on first sight. The gateway may
// pass the display name in X-Username.
func ensureProfile(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := users.Ensure(c.UserContext(), middleware.UserID(c), c.Get("X-Username")); err != nil {
			return respondError(c, err)
		}
		return c.Next()
	}
}

func SetupProgressionRoutes(app *fiber.App, svc Services) {
	// 🔐 every route below needs the gateway's user context
	me := app.Group("/me", middleware.UserContextMiddleware(), ensureProfile(svc.Users))

	me.Get("/", func(c *fiber.Ctx) error {
		overview, err := svc.Users.Overview(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(overview)
	})

	me.Patch("/", func(c *fiber.Ctx) error {
		var req services.ProfileUpdate
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		p, err := svc.Users.Update(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	})

	// Activity tick: extends or resets the daily streak.
	me.Post("/activity", func(c *fiber.Ctx) error {
		streak, err := svc.Progression.UpdateStreak(c.UserContext(), middleware.UserID(c), svc.Progression.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"streak_days": streak})
	})

	me.Get("/activity", func(c *fiber.Ctx) error {
		feed, err := svc.Users.ActivityFeed(c.UserContext(), middleware.UserID(c), queryInt(c, "limit", 0))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(feed)
	})

	me.Get("/badges", func(c *fiber.Ctx) error {
		badges, err := svc.Users.Badges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(badges)
	})

	me.Post("/badges/evaluate", func(c *fiber.Ctx) error {
		awarded, err := svc.Badges.EvaluateAndAwardBadges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"awarded": awarded})
	})

	me.Get("/progress", func(c *fiber.Ctx) error {
		rows, err := svc.Missions.ListProgress(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(rows)
	})

	missions := app.Group("/missions", middleware.UserContextMiddleware(), ensureProfile(svc.Users))

	missions.Get("/:id/status", func(c *fiber.Ctx) error {
		status, err := svc.Missions.Status(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"mission_id": c.Params("id"), "status": status})
	})

	missions.Post("/:id/progress", func(c *fiber.Ctx) error {
		var req services.ProgressInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		res, err := svc.Missions.UpdateProgress(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	if svc.Catalog != nil {
		missions.Get("/:id/questions", func(c *fiber.Ctx) error {
			m, err := svc.Catalog.GetMission(c.UserContext(), c.Params("id"))
			if err != nil {
				return respondError(c, err)
			}
			if !m.Published {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
			}
			qs, err := svc.Catalog.ListQuestions(c.UserContext(), m.ID)
			if err != nil {
				return respondError(c, err)
			}
			return c.JSON(qs)
		})
	}

	app.Get("/leaderboard", middleware.UserContextMiddleware(), func(c *fiber.Ctx) error {
		board, err := svc.Leaderboard.Board(c.UserContext(), c.Query("period", services.PeriodAllTime),
			svc.Progression.Now(), queryInt(c, "limit", 0))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(board)
	})
}
