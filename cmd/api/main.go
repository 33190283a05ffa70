package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/cams-go-api/internal/config"
	"github.com/noah-isme/cams-go-api/internal/database"
	"github.com/noah-isme/cams-go-api/internal/handler"
	"github.com/noah-isme/cams-go-api/internal/middleware"
	"github.com/noah-isme/cams-go-api/internal/models"
	"github.com/noah-isme/cams-go-api/internal/repository"
	"github.com/noah-isme/cams-go-api/internal/router"
	"github.com/noah-isme/cams-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Course{}, &models.EnrollmentRange{}, &models.AttendanceSession{}, &models.ClassTest{}, &models.Mark{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	classTestRepo := repository.NewClassTestRepository(db)

	events := service.NewEventPublisher(natsConn, "", logger)

	courseService := service.NewCourseService(courseRepo, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, validate, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, enrollmentRepo, events, validate, logger)
	classTestService := service.NewClassTestService(classTestRepo, courseRepo, enrollmentRepo, events, validate, logger)
	reportService := service.NewReportService(courseRepo, enrollmentRepo, attendanceRepo, classTestRepo, logger)
	dashboardService := service.NewDashboardService(courseRepo, enrollmentRepo, attendanceRepo, classTestRepo, redisClient, cfg.DashboardCacheTTL, logger)

	courseHandler := handler.NewCourseHandler(courseService, logger)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, logger)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, logger)
	classTestHandler := handler.NewClassTestHandler(classTestService, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:     courseHandler,
		EnrollmentHandler: enrollmentHandler,
		AttendanceHandler: attendanceHandler,
		ClassTestHandler:  classTestHandler,
		ReportHandler:     reportHandler,
		DashboardHandler:  dashboardHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
