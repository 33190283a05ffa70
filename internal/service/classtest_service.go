package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/models"
	"github.com/noah-isme/cams-go-api/internal/repository"
)

// ErrClassTestNotFound indicates the class test does not exist.
var ErrClassTestNotFound = errors.New("class test not found")

// ErrClassTestNameEmpty indicates the name is empty after sanitization.
var ErrClassTestNameEmpty = errors.New("class test name must not be empty")

// ErrInvalidClassTestDate indicates the submitted date is not RFC 3339.
var ErrInvalidClassTestDate = errors.New("invalid class test date")

// ErrAbsentWithMarks indicates a mark record with status=absent carries marks.
var ErrAbsentWithMarks = errors.New("absent mark must not carry marks obtained")

// ErrMarkForUnenrolled indicates a mark record for a student outside the
// course's enrollment ranges.
var ErrMarkForUnenrolled = errors.New("mark submitted for a student not enrolled in the course")

// ErrMarkRosterIncomplete indicates the batch omits an enrolled student.
// Batch mark updates are full-roster replaces; an omitted student would lose
// their previous mark.
var ErrMarkRosterIncomplete = errors.New("mark roster must cover every enrolled student")

// ClassTestService manages class tests and their mark rosters.
type ClassTestService interface {
	Create(ctx context.Context, courseID uint, createdBy string, payload dto.ClassTestCreateRequest) (dto.ClassTestResponse, error)
	Get(ctx context.Context, ctID uint) (dto.ClassTestResponse, error)
	ListByCourse(ctx context.Context, courseID uint) ([]dto.ClassTestResponse, error)
	Update(ctx context.Context, ctID uint, payload dto.ClassTestUpdateRequest) (dto.ClassTestResponse, error)
	Delete(ctx context.Context, ctID uint) error
	BatchUpdateMarks(ctx context.Context, ctID uint, payload dto.BatchMarksRequest) ([]dto.MarkResponse, error)
	ListMarks(ctx context.Context, ctID uint) ([]dto.MarkResponse, error)
}

type classTestService struct {
	tests       repository.ClassTestRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	events      EventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewClassTestService constructs the class-test service.
func NewClassTestService(tests repository.ClassTestRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) ClassTestService {
	return &classTestService{
		tests:       tests,
		courses:     courses,
		enrollments: enrollments,
		events:      events,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "classtest_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/cams-go-api/internal/service/classtest"),
	}
}

func (s *classTestService) Create(ctx context.Context, courseID uint, createdBy string, payload dto.ClassTestCreateRequest) (dto.ClassTestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassTestResponse{}, err
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	if name == "" {
		return dto.ClassTestResponse{}, ErrClassTestNameEmpty
	}

	date, err := time.Parse(time.RFC3339, payload.Date)
	if err != nil {
		return dto.ClassTestResponse{}, fmt.Errorf("%w: %v", ErrInvalidClassTestDate, err)
	}

	// The course may have been deleted concurrently; never persist an orphan test.
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassTestResponse{}, ErrCourseNotFound
		}
		return dto.ClassTestResponse{}, err
	}

	ct := models.ClassTest{
		CourseID:    courseID,
		Name:        name,
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		TotalMarks:  payload.TotalMarks,
		Date:        date,
		IsPublished: false,
		CreatedBy:   createdBy,
	}

	if err := s.tests.Create(ctx, &ct); err != nil {
		return dto.ClassTestResponse{}, err
	}

	s.logger.Info().Uint("course_id", courseID).Uint("ct_id", ct.ID).Msg("class test created")

	return dto.NewClassTestResponse(ct), nil
}

func (s *classTestService) Get(ctx context.Context, ctID uint) (dto.ClassTestResponse, error) {
	ct, err := s.tests.GetByID(ctx, ctID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassTestResponse{}, ErrClassTestNotFound
		}
		return dto.ClassTestResponse{}, err
	}

	return dto.NewClassTestResponse(ct), nil
}

func (s *classTestService) ListByCourse(ctx context.Context, courseID uint) ([]dto.ClassTestResponse, error) {
	tests, err := s.tests.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewClassTestResponseSlice(tests), nil
}

func (s *classTestService) Update(ctx context.Context, ctID uint, payload dto.ClassTestUpdateRequest) (dto.ClassTestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassTestResponse{}, err
	}

	ct, err := s.tests.GetByID(ctx, ctID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassTestResponse{}, ErrClassTestNotFound
		}
		return dto.ClassTestResponse{}, err
	}

	wasPublished := ct.IsPublished

	if payload.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*payload.Name))
		if name == "" {
			return dto.ClassTestResponse{}, ErrClassTestNameEmpty
		}
		ct.Name = name
	}
	if payload.Description != nil {
		ct.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}
	if payload.TotalMarks != nil {
		ct.TotalMarks = *payload.TotalMarks
	}
	if payload.Date != nil {
		date, err := time.Parse(time.RFC3339, *payload.Date)
		if err != nil {
			return dto.ClassTestResponse{}, fmt.Errorf("%w: %v", ErrInvalidClassTestDate, err)
		}
		ct.Date = date
	}
	if payload.IsPublished != nil {
		ct.IsPublished = *payload.IsPublished
	}

	if err := s.tests.UpdateWithClamp(ctx, &ct); err != nil {
		return dto.ClassTestResponse{}, err
	}

	if !wasPublished && ct.IsPublished {
		s.events.Publish(CourseEvent{
			Type:     "ct.published",
			CourseID: ct.CourseID,
			EntityID: ct.ID,
		})
	}

	return dto.NewClassTestResponse(ct), nil
}

func (s *classTestService) Delete(ctx context.Context, ctID uint) error {
	if err := s.tests.DeleteCascade(ctx, ctID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassTestNotFound
		}
		return err
	}

	return nil
}

// BatchUpdateMarks replaces the complete mark roster of a class test. The
// submitted records must cover exactly the course's enrolled students; marks
// outside [0, totalMarks] are clamped, absent records must carry no marks.
func (s *classTestService) BatchUpdateMarks(ctx context.Context, ctID uint, payload dto.BatchMarksRequest) ([]dto.MarkResponse, error) {
	ctx, span := s.tracer.Start(ctx, "classtest.batch_marks", trace.WithAttributes(
		attribute.Int64("classtest.id", int64(ctID)),
		attribute.Int("classtest.records", len(payload.Records)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return nil, err
	}

	ct, err := s.tests.GetByID(ctx, ctID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassTestNotFound
		}
		span.RecordError(err)
		return nil, err
	}

	ranges, err := s.enrollments.ListByCourse(ctx, ct.CourseID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	enrolled := make(map[int64]struct{})
	for _, student := range ExpandRanges(ranges) {
		enrolled[student.StudentID] = struct{}{}
	}

	marks := make([]models.Mark, 0, len(payload.Records))
	seen := make(map[int64]struct{}, len(payload.Records))
	for _, record := range payload.Records {
		if _, ok := enrolled[record.StudentID]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrMarkForUnenrolled, record.StudentID)
		}
		seen[record.StudentID] = struct{}{}

		mark := models.Mark{
			ClassTestID: ct.ID,
			CourseID:    ct.CourseID,
			StudentID:   record.StudentID,
			Status:      models.MarkStatus(record.Status),
		}

		switch mark.Status {
		case models.MarkStatusAbsent:
			if record.MarksObtained != nil {
				return nil, fmt.Errorf("%w: %d", ErrAbsentWithMarks, record.StudentID)
			}
		case models.MarkStatusPresent:
			if record.MarksObtained != nil {
				clamped := clampMarks(*record.MarksObtained, ct.TotalMarks)
				mark.MarksObtained = &clamped
			}
		}

		marks = append(marks, mark)
	}

	for studentID := range enrolled {
		if _, ok := seen[studentID]; !ok {
			span.SetStatus(codes.Error, "roster_incomplete")
			return nil, fmt.Errorf("%w: %d", ErrMarkRosterIncomplete, studentID)
		}
	}

	if err := s.tests.ReplaceMarks(ctx, ct.ID, marks); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace_failed")
		return nil, err
	}

	s.logger.Info().
		Uint("ct_id", ct.ID).
		Uint("course_id", ct.CourseID).
		Int("marks", len(marks)).
		Msg("mark roster replaced")

	return dto.NewMarkResponseSlice(marks), nil
}

func (s *classTestService) ListMarks(ctx context.Context, ctID uint) ([]dto.MarkResponse, error) {
	if _, err := s.tests.GetByID(ctx, ctID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassTestNotFound
		}
		return nil, err
	}

	marks, err := s.tests.ListMarks(ctx, ctID)
	if err != nil {
		return nil, err
	}

	return dto.NewMarkResponseSlice(marks), nil
}

func clampMarks(value float64, totalMarks int) float64 {
	if value < 0 {
		return 0
	}
	if max := float64(totalMarks); value > max {
		return max
	}
	return value
}
