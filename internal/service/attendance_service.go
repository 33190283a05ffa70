package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/models"
	"github.com/noah-isme/cams-go-api/internal/repository"
)

// ErrSessionNotFound indicates the attendance session does not exist.
var ErrSessionNotFound = errors.New("attendance session not found")

// ErrInvalidSessionDate indicates the submitted session date cannot be parsed.
var ErrInvalidSessionDate = errors.New("invalid session date")

// ErrUnknownStudent indicates a submitted status keyed by an ID outside the
// section's enrollment ranges.
var ErrUnknownStudent = errors.New("status submitted for a student not enrolled in the section")

// ErrMissingStudent indicates the statuses map does not cover every enrolled
// student of the section.
var ErrMissingStudent = errors.New("status missing for an enrolled student")

// ErrInvalidStatus indicates a status value other than present/absent.
var ErrInvalidStatus = errors.New("status must be present or absent")

// ErrEmptySection indicates the section has no enrollment ranges to take
// attendance against.
var ErrEmptySection = errors.New("section has no enrolled students")

const sessionDateLayout = "2006-01-02"

// AttendanceService records attendance sessions and computes attendance
// percentages.
type AttendanceService interface {
	TakeAttendance(ctx context.Context, courseID uint, recordedBy string, payload dto.TakeAttendanceRequest) (dto.AttendanceSessionResponse, error)
	UpdateAttendance(ctx context.Context, sessionID uint, payload dto.UpdateAttendanceRequest) (dto.AttendanceSessionResponse, error)
	CourseAttendance(ctx context.Context, courseID uint, section string) ([]dto.AttendanceSessionResponse, error)
	PercentageForStudent(ctx context.Context, courseID uint, studentID int64, section string) (dto.StudentAttendanceResponse, error)
	PercentageAcrossCourse(ctx context.Context, courseID uint) (float64, error)
	ClassesHeld(ctx context.Context, courseID uint) (int, error)
}

type attendanceService struct {
	sessions    repository.AttendanceRepository
	enrollments repository.EnrollmentRepository
	events      EventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(sessions repository.AttendanceRepository, enrollments repository.EnrollmentRepository, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) AttendanceService {
	return &attendanceService{
		sessions:    sessions,
		enrollments: enrollments,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "attendance_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/cams-go-api/internal/service/attendance"),
	}
}

func (s *attendanceService) TakeAttendance(ctx context.Context, courseID uint, recordedBy string, payload dto.TakeAttendanceRequest) (dto.AttendanceSessionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.take", trace.WithAttributes(
		attribute.Int64("attendance.course_id", int64(courseID)),
		attribute.String("attendance.section", payload.Section),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.AttendanceSessionResponse{}, err
	}

	date, err := time.Parse(sessionDateLayout, payload.Date)
	if err != nil {
		return dto.AttendanceSessionResponse{}, fmt.Errorf("%w: %v", ErrInvalidSessionDate, err)
	}

	section := strings.TrimSpace(payload.Section)
	ranges, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		span.RecordError(err)
		return dto.AttendanceSessionResponse{}, err
	}

	var sectionRanges []models.EnrollmentRange
	for _, rng := range ranges {
		if rng.Section == section {
			sectionRanges = append(sectionRanges, rng)
		}
	}
	enrolled := ExpandRanges(sectionRanges)
	if len(enrolled) == 0 {
		return dto.AttendanceSessionResponse{}, ErrEmptySection
	}

	statuses, err := validateRosterCoverage(payload.Statuses, enrolled)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "roster_mismatch")
		return dto.AttendanceSessionResponse{}, err
	}

	session := models.AttendanceSession{
		CourseID:        courseID,
		Section:         section,
		Date:            date,
		SessionKey:      models.SessionKey(courseID, section, date),
		StudentStatuses: statuses,
		RecordedBy:      recordedBy,
	}

	if err := s.sessions.Create(ctx, &session); err != nil {
		if errors.Is(err, repository.ErrDuplicateSession) {
			span.SetStatus(codes.Error, "duplicate_session")
		} else {
			span.RecordError(err)
		}
		return dto.AttendanceSessionResponse{}, err
	}

	s.logger.Info().
		Uint("course_id", courseID).
		Str("section", section).
		Str("date", payload.Date).
		Int("students", len(enrolled)).
		Msg("attendance session recorded")

	s.events.Publish(CourseEvent{
		Type:     "attendance.recorded",
		CourseID: courseID,
		Section:  section,
		EntityID: session.ID,
	})

	return dto.NewAttendanceSessionResponse(session), nil
}

func (s *attendanceService) UpdateAttendance(ctx context.Context, sessionID uint, payload dto.UpdateAttendanceRequest) (dto.AttendanceSessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AttendanceSessionResponse{}, err
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceSessionResponse{}, ErrSessionNotFound
		}
		return dto.AttendanceSessionResponse{}, err
	}

	// Corrections replace statuses for the roster captured at session
	// creation; enrollment changes made since do not rewrite history.
	recorded := make([]models.EnrolledStudent, 0, len(session.StudentStatuses))
	for key := range session.StudentStatuses {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		recorded = append(recorded, models.EnrolledStudent{StudentID: id, Section: session.Section})
	}

	statuses, err := validateRosterCoverage(payload.Statuses, recorded)
	if err != nil {
		return dto.AttendanceSessionResponse{}, err
	}

	session.StudentStatuses = statuses
	if err := s.sessions.UpdateStatuses(ctx, &session); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttendanceSessionResponse{}, ErrSessionNotFound
		}
		return dto.AttendanceSessionResponse{}, err
	}

	return dto.NewAttendanceSessionResponse(session), nil
}

func (s *attendanceService) CourseAttendance(ctx context.Context, courseID uint, section string) ([]dto.AttendanceSessionResponse, error) {
	sessions, err := s.sessions.ListByCourse(ctx, courseID, section)
	if err != nil {
		return nil, err
	}

	return dto.NewAttendanceSessionResponseSlice(sessions), nil
}

// PercentageForStudent computes the share of the student's section sessions
// with a present status. A student's ID appears only in sessions of their own
// section; aggregating against another section would skew the result.
func (s *attendanceService) PercentageForStudent(ctx context.Context, courseID uint, studentID int64, section string) (dto.StudentAttendanceResponse, error) {
	sessions, err := s.sessions.ListByCourse(ctx, courseID, section)
	if err != nil {
		return dto.StudentAttendanceResponse{}, err
	}

	held, present := presenceCounts(sessions, studentID)

	return dto.StudentAttendanceResponse{
		StudentID:    studentID,
		Section:      section,
		SessionsHeld: held,
		Present:      present,
		Percentage:   percentage(present, held),
	}, nil
}

// PercentageAcrossCourse averages per-student percentages without weighting.
// Used for dashboard summaries only, never for individual grades.
func (s *attendanceService) PercentageAcrossCourse(ctx context.Context, courseID uint) (float64, error) {
	ranges, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	students := ExpandRanges(ranges)
	if len(students) == 0 {
		return 0, nil
	}

	sessions, err := s.sessions.ListByCourse(ctx, courseID, "")
	if err != nil {
		return 0, err
	}

	bySection := make(map[string][]models.AttendanceSession)
	for _, session := range sessions {
		bySection[session.Section] = append(bySection[session.Section], session)
	}

	var total float64
	for _, student := range students {
		held, present := presenceCounts(bySection[student.Section], student.StudentID)
		total += percentage(present, held)
	}

	return total / float64(len(students)), nil
}

// ClassesHeld counts classes for the whole course as the maximum session
// count of any single section. Sections run in parallel, so summing across
// sections would overcount.
func (s *attendanceService) ClassesHeld(ctx context.Context, courseID uint) (int, error) {
	sessions, err := s.sessions.ListByCourse(ctx, courseID, "")
	if err != nil {
		return 0, err
	}

	counts := make(map[string]int)
	held := 0
	for _, session := range sessions {
		counts[session.Section]++
		if counts[session.Section] > held {
			held = counts[session.Section]
		}
	}

	return held, nil
}

func presenceCounts(sessions []models.AttendanceSession, studentID int64) (held, present int) {
	for _, session := range sessions {
		held++
		if status, ok := session.StatusFor(studentID); ok && status == models.AttendanceStatusPresent {
			present++
		}
	}
	return held, present
}

func percentage(present, held int) float64 {
	if held == 0 {
		return 0
	}
	return float64(present) / float64(held) * 100
}

// validateRosterCoverage checks that statuses cover exactly the enrolled IDs
// and carry only supported values.
func validateRosterCoverage(statuses map[string]string, enrolled []models.EnrolledStudent) (datatypes.JSONMap, error) {
	expected := make(map[string]struct{}, len(enrolled))
	for _, student := range enrolled {
		expected[strconv.FormatInt(student.StudentID, 10)] = struct{}{}
	}

	for key, value := range statuses {
		if _, ok := expected[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStudent, key)
		}
		if !models.AttendanceStatus(value).Valid() {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidStatus, key, value)
		}
	}
	for key := range expected {
		if _, ok := statuses[key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingStudent, key)
		}
	}

	result := make(datatypes.JSONMap, len(statuses))
	for key, value := range statuses {
		result[key] = value
	}

	return result, nil
}
