package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/repository"
	"github.com/noah-isme/cams-go-api/internal/service"
	"github.com/noah-isme/cams-go-api/internal/utils"
)

// EnrollmentHandler wires enrollment-range and roster HTTP routes.
type EnrollmentHandler struct {
	service service.EnrollmentService
	logger  zerolog.Logger
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(service service.EnrollmentService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		logger:  logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches enrollment endpoints to the course-scoped group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Get("/:id/ranges", h.list)
	router.Post("/:id/ranges", h.create)
	router.Patch("/:id/ranges/:rangeId", h.update)
	router.Delete("/:id/ranges/:rangeId", h.delete)
	router.Get("/:id/roster", h.roster)
}

func (h *EnrollmentHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ranges, err := h.service.ListRanges(c.Context(), courseID)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "enrollment ranges retrieved", ranges)
}

func (h *EnrollmentHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RangeCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rng, err := h.service.AddRange(c.Context(), courseID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrollment range created", rng)
}

func (h *EnrollmentHandler) update(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	rangeID, err := parseUintParam(c, "rangeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RangeUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rng, err := h.service.UpdateRange(c.Context(), courseID, rangeID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollment range updated", rng)
}

func (h *EnrollmentHandler) delete(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	rangeID, err := parseUintParam(c, "rangeId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.RemoveRange(c.Context(), courseID, rangeID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollment range deleted", fiber.Map{"id": rangeID})
}

func (h *EnrollmentHandler) roster(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	section := c.Query("section")
	if section != "" {
		students, err := h.service.SectionRoster(c.Context(), courseID, section)
		if err != nil {
			return h.internalError(c, err)
		}
		return utils.SendSuccess(c, "section roster retrieved", dto.NewRosterResponse(students))
	}

	students, err := h.service.Roster(c.Context(), courseID)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "course roster retrieved", dto.NewRosterResponse(students))
}

func (h *EnrollmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	var conflict *repository.RangeConflictError
	switch {
	case errors.As(err, &conflict):
		return utils.SendError(c, fiber.StatusConflict, conflict.Error())
	case errors.Is(err, service.ErrRangeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "enrollment range not found")
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrInvalidRangeBounds):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *EnrollmentHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
