package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tutorplatform/lesson_service/models"
	"github.com/tutorplatform/lesson_service/services"
)

var validate = validator.New()

type LessonHandler struct {
	svc *services.LessonService
}

func NewLessonHandler(svc *services.LessonService) *LessonHandler {
	return &LessonHandler{svc: svc}
}

func caller(c *fiber.Ctx) services.Caller {
	return services.Caller{
		ID:   c.Locals("callerID").(uint64),
		Role: c.Locals("callerRole").(models.Role),
	}
}

func lessonID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error_code": "INVALID_INPUT", "error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).
			JSON(fiber.Map{"error_code": "NOT_FOUND", "error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).
			JSON(fiber.Map{"error_code": "FORBIDDEN", "error": err.Error()})
	case errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error_code": "INVALID_STATE", "error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error_code": "CONFLICT", "error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).
		JSON(fiber.Map{"error_code": "INTERNAL", "error": "Something went wrong"})
}

func (h *LessonHandler) CreateLesson(c *fiber.Ctx) error {
	var req services.CreateLessonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	lesson, err := h.svc.Create(c.UserContext(), req, caller(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(lesson)
}

func (h *LessonHandler) GetLesson(c *fiber.Ctx) error {
	id, err := lessonID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	lesson, err := h.svc.Get(c.UserContext(), id, caller(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(lesson)
}

func (h *LessonHandler) ListLessons(c *fiber.Ctx) error {
	var filter services.ListLessonsFilter

	if raw := c.Query("student_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student_id filter"})
		}
		filter.StudentID = &v
	}
	if raw := c.Query("tutor_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid tutor_id filter"})
		}
		filter.TutorID = &v
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseLessonStatus(raw)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
		}
		filter.Status = &status
	}
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date filter, expected YYYY-MM-DD"})
		}
		filter.Date = &d
	}

	lessons, err := h.svc.List(c.UserContext(), filter, caller(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(lessons)
}

func (h *LessonHandler) UpdateLesson(c *fiber.Ctx) error {
	id, err := lessonID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	var patch services.UpdateLessonRequest
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	lesson, err := h.svc.Update(c.UserContext(), id, patch, caller(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(lesson)
}

func (h *LessonHandler) CompleteLesson(c *fiber.Ctx) error {
	id, err := lessonID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	lesson, err := h.svc.Complete(c.UserContext(), id, caller(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(lesson)
}

func (h *LessonHandler) CancelLesson(c *fiber.Ctx) error {
	id, err := lessonID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	lesson, err := h.svc.Cancel(c.UserContext(), id, c.Query("reason"), caller(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(lesson)
}

func (h *LessonHandler) GetJoinURL(c *fiber.Ctx) error {
	id, err := lessonID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	joinURL, err := h.svc.JoinURL(c.UserContext(), id, caller(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"join_url": joinURL})
}
