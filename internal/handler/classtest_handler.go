package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/service"
	"github.com/noah-isme/cams-go-api/internal/utils"
)

// ClassTestHandler wires class-test and mark HTTP routes.
type ClassTestHandler struct {
	service service.ClassTestService
	logger  zerolog.Logger
}

// NewClassTestHandler constructs the handler.
func NewClassTestHandler(service service.ClassTestService, logger zerolog.Logger) *ClassTestHandler {
	return &ClassTestHandler{
		service: service,
		logger:  logger.With().Str("component", "classtest_handler").Logger(),
	}
}

// Register attaches class-test endpoints.
func (h *ClassTestHandler) Register(courses fiber.Router, tests fiber.Router) {
	courses.Get("/:id/class-tests", h.list)
	courses.Post("/:id/class-tests", h.create)

	tests.Get("/:ctId", h.get)
	tests.Patch("/:ctId", h.update)
	tests.Delete("/:ctId", h.delete)
	tests.Get("/:ctId/marks", h.listMarks)
	tests.Put("/:ctId/marks", h.batchMarks)
}

func (h *ClassTestHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	tests, err := h.service.ListByCourse(c.Context(), courseID)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "class tests retrieved", tests)
}

func (h *ClassTestHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ClassTestCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ct, err := h.service.Create(c.Context(), courseID, userEmailFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class test created", ct)
}

func (h *ClassTestHandler) get(c *fiber.Ctx) error {
	ctID, err := parseUintParam(c, "ctId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ct, err := h.service.Get(c.Context(), ctID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class test retrieved", ct)
}

func (h *ClassTestHandler) update(c *fiber.Ctx) error {
	ctID, err := parseUintParam(c, "ctId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ClassTestUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	ct, err := h.service.Update(c.Context(), ctID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class test updated", ct)
}

func (h *ClassTestHandler) delete(c *fiber.Ctx) error {
	ctID, err := parseUintParam(c, "ctId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), ctID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class test deleted", fiber.Map{"id": ctID})
}

func (h *ClassTestHandler) listMarks(c *fiber.Ctx) error {
	ctID, err := parseUintParam(c, "ctId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	marks, err := h.service.ListMarks(c.Context(), ctID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "marks retrieved", marks)
}

func (h *ClassTestHandler) batchMarks(c *fiber.Ctx) error {
	ctID, err := parseUintParam(c, "ctId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.BatchMarksRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	marks, err := h.service.BatchUpdateMarks(c.Context(), ctID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "marks replaced", marks)
}

func (h *ClassTestHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassTestNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class test not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrClassTestNameEmpty),
		errors.Is(err, service.ErrAbsentWithMarks),
		errors.Is(err, service.ErrMarkForUnenrolled),
		errors.Is(err, service.ErrMarkRosterIncomplete),
		errors.Is(err, service.ErrInvalidClassTestDate):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *ClassTestHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
