package handlers

import (
	"github.com/gofiber/fiber/v2"

	"questify/middleware"
	"questify/services"
)

// SetupCatalogRoutes registers the learner-facing catalog reads.
func SetupCatalogRoutes(app *fiber.App, catalog *services.CatalogService) {
	if catalog == nil {
		return
	}
	tracks := app.Group("/tracks", middleware.UserContextMiddleware())

	tracks.Get("/", func(c *fiber.Ctx) error {
		out, err := catalog.ListTracks(c.UserContext(), true)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	})

	tracks.Get("/:id/missions", func(c *fiber.Ctx) error {
		t, err := catalog.GetTrack(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		out, err := catalog.ListMissions(c.UserContext(), t.ID, true)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	})
}

// setupCatalogAdmin registers CRUD for tracks, missions, questions and
// content on an admin group.
func setupCatalogAdmin(admin fiber.Router, catalog *services.CatalogService) {
	// Tracks
	admin.Get("/tracks", func(c *fiber.Ctx) error {
		out, err := catalog.ListTracks(c.UserContext(), false)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	})
	admin.Post("/tracks", func(c *fiber.Ctx) error {
		var req services.TrackInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		t, err := catalog.CreateTrack(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})
	admin.Put("/tracks/:id", func(c *fiber.Ctx) error {
		var req services.TrackInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		t, err := catalog.UpdateTrack(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(t)
	})
	admin.Delete("/tracks/:id", func(c *fiber.Ctx) error {
		if err := catalog.DeleteTrack(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Missions
	admin.Get("/missions", func(c *fiber.Ctx) error {
		out, err := catalog.ListMissions(c.UserContext(), c.Query("track_id"), false)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	})
	admin.Post("/missions", func(c *fiber.Ctx) error {
		var req services.MissionInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		m, err := catalog.CreateMission(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	})
	admin.Put("/missions/:id", func(c *fiber.Ctx) error {
		var req services.MissionInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		m, err := catalog.UpdateMission(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(m)
	})
	admin.Delete("/missions/:id", func(c *fiber.Ctx) error {
		if err := catalog.DeleteMission(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Questions
	admin.Get("/missions/:id/questions", func(c *fiber.Ctx) error {
		out, err := catalog.ListQuestions(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	})
	admin.Post("/questions", func(c *fiber.Ctx) error {
		var req services.QuestionInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		q, err := catalog.CreateQuestion(c.UserContext(), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(q)
	})
	admin.Put("/questions/:id", func(c *fiber.Ctx) error {
		var req services.QuestionInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		q, err := catalog.UpdateQuestion(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(q)
	})
	admin.Delete("/questions/:id", func(c *fiber.Ctx) error {
		if err := catalog.DeleteQuestion(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Learning content
	admin.Get("/content", func(c *fiber.Ctx) error {
		out, err := catalog.ListContent(c.UserContext(), c.Query("track_id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	})
	admin.Post("/content", func(c *fiber.Ctx) error {
		var req services.ContentInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		item, err := catalog.CreateContent(c.UserContext(), middleware.UserID(c), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(item)
	})
	admin.Put("/content/:id", func(c *fiber.Ctx) error {
		var req services.ContentInput
		if err := c.BodyParser(&req); err != nil {
			return badJSON(c, err)
		}
		item, err := catalog.UpdateContent(c.UserContext(), c.Params("id"), req)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(item)
	})
	admin.Delete("/content/:id", func(c *fiber.Ctx) error {
		if err := catalog.DeleteContent(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
