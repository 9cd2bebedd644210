package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tutorplatform/lesson_service/handlers"
	"github.com/tutorplatform/lesson_service/middleware"
)

func LessonRoutes(app *fiber.App, h *handlers.LessonHandler) {
	api := app.Group("/api/v1")

	lessons := api.Group("/lessons", middleware.Identity())
	lessons.Post("", h.CreateLesson)
	lessons.Get("", h.ListLessons)
	lessons.Get("/:id", h.GetLesson)
	lessons.Put("/:id", h.UpdateLesson)
	lessons.Post("/:id/complete", h.CompleteLesson)
	lessons.Post("/:id/cancel", h.CancelLesson)
	lessons.Get("/:id/join-url", h.GetJoinURL)
}
