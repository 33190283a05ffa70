package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cams-go-api/internal/service"
	"github.com/noah-isme/cams-go-api/internal/utils"
)

// DashboardHandler serves the course and student dashboards.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// RegisterCourse attaches the course dashboard endpoint.
func (h *DashboardHandler) RegisterCourse(router fiber.Router) {
	router.Get("/:id/dashboard", h.courseDashboard)
}

// RegisterStudent attaches the student dashboard endpoint.
func (h *DashboardHandler) RegisterStudent(router fiber.Router) {
	router.Get("/dashboard/:studentId", h.studentDashboard)
}

func (h *DashboardHandler) courseDashboard(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	dashboard, err := h.service.CourseDashboard(c.Context(), courseID)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "course not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "course dashboard retrieved", dashboard)
}

func (h *DashboardHandler) studentDashboard(c *fiber.Ctx) error {
	studentID, err := parseInt64Param(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	dashboard, err := h.service.StudentDashboard(c.Context(), studentID)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "student dashboard retrieved", dashboard)
}

func (h *DashboardHandler) internalError(c *fiber.Ctx, err error) error {
	h.logger.Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
