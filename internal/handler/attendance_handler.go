package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/repository"
	"github.com/noah-isme/cams-go-api/internal/service"
	"github.com/noah-isme/cams-go-api/internal/utils"
)

// AttendanceHandler wires attendance HTTP routes.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches attendance endpoints to the course-scoped group.
func (h *AttendanceHandler) Register(router fiber.Router) {
	router.Get("/:id/attendance", h.list)
	router.Post("/:id/attendance", h.take)
	router.Patch("/:id/attendance/:sessionId", h.update)
	router.Get("/:id/attendance/students/:studentId", h.studentPercentage)
}

func (h *AttendanceHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	sessions, err := h.service.CourseAttendance(c.Context(), courseID, c.Query("section"))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "attendance sessions retrieved", sessions)
}

func (h *AttendanceHandler) take(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.TakeAttendanceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.TakeAttendance(c.Context(), courseID, userEmailFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance recorded", session)
}

func (h *AttendanceHandler) update(c *fiber.Ctx) error {
	if _, err := parseUintParam(c, "id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	sessionID, err := parseUintParam(c, "sessionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpdateAttendanceRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.UpdateAttendance(c.Context(), sessionID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "attendance updated", session)
}

func (h *AttendanceHandler) studentPercentage(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseInt64Param(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	section := strings.TrimSpace(c.Query("section"))
	if section == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "section query parameter required")
	}

	result, err := h.service.PercentageForStudent(c.Context(), courseID, studentID, section)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "attendance percentage computed", result)
}

func (h *AttendanceHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, repository.ErrDuplicateSession):
		return utils.SendError(c, fiber.StatusConflict, "attendance already recorded for this section and date; edit the existing session instead")
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "attendance session not found")
	case errors.Is(err, service.ErrUnknownStudent),
		errors.Is(err, service.ErrMissingStudent),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrEmptySection),
		errors.Is(err, service.ErrInvalidSessionDate):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *AttendanceHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
