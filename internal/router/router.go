package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/cams-go-api/internal/config"
	"github.com/noah-isme/cams-go-api/internal/handler"
	"github.com/noah-isme/cams-go-api/internal/middleware"
	"github.com/noah-isme/cams-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler     *handler.CourseHandler
	EnrollmentHandler *handler.EnrollmentHandler
	AttendanceHandler *handler.AttendanceHandler
	ClassTestHandler  *handler.ClassTestHandler
	ReportHandler     *handler.ReportHandler
	DashboardHandler  *handler.DashboardHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	teacherWrites := middleware.RequireRoleForWrites(middleware.RoleTeacher)

	courses := app.Group("/api/v2/courses", jwtMiddleware, teacherWrites)

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(courses)
	}

	if deps.EnrollmentHandler != nil {
		deps.EnrollmentHandler.Register(courses)
	}

	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(courses)
	}

	if deps.ClassTestHandler != nil {
		tests := app.Group("/api/v2/class-tests", jwtMiddleware, teacherWrites)
		deps.ClassTestHandler.Register(courses, tests)
	}

	if deps.ReportHandler != nil {
		// Report building walks every session and mark in a course, so cap bursts.
		reports := app.Group("/api/v2/courses", jwtMiddleware, middleware.RateLimit("report", 10, time.Minute))
		deps.ReportHandler.Register(reports)
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterCourse(courses)

		student := app.Group("/api/v2/students", jwtMiddleware)
		deps.DashboardHandler.RegisterStudent(student)
	}
}
