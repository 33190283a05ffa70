package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/models"
	"github.com/noah-isme/cams-go-api/internal/repository"
)

// ErrRangeNotFound indicates the enrollment range does not exist in the course.
var ErrRangeNotFound = errors.New("enrollment range not found")

// ErrInvalidRangeBounds indicates startId exceeds endId.
var ErrInvalidRangeBounds = errors.New("range start must not exceed range end")

// ErrStudentNotEnrolled indicates no enrollment range covers the student ID.
var ErrStudentNotEnrolled = errors.New("student is not enrolled in the course")

// ExpandRanges derives the enrolled-student set from enrollment ranges,
// ascending by student ID across all ranges combined. Ranges never overlap
// within a course, so each ID maps to exactly one section.
func ExpandRanges(ranges []models.EnrollmentRange) []models.EnrolledStudent {
	var students []models.EnrolledStudent
	for _, rng := range ranges {
		for id := rng.StartID; id <= rng.EndID; id++ {
			students = append(students, models.EnrolledStudent{StudentID: id, Section: rng.Section})
		}
	}

	sort.Slice(students, func(i, j int) bool {
		return students[i].StudentID < students[j].StudentID
	})

	return students
}

// EnrollmentService manages section-based enrollment ranges and the derived
// student roster.
type EnrollmentService interface {
	AddRange(ctx context.Context, courseID uint, payload dto.RangeCreateRequest) (dto.RangeResponse, error)
	UpdateRange(ctx context.Context, courseID, rangeID uint, payload dto.RangeUpdateRequest) (dto.RangeResponse, error)
	RemoveRange(ctx context.Context, courseID, rangeID uint) error
	ListRanges(ctx context.Context, courseID uint) ([]dto.RangeResponse, error)
	Roster(ctx context.Context, courseID uint) ([]models.EnrolledStudent, error)
	SectionRoster(ctx context.Context, courseID uint, section string) ([]models.EnrolledStudent, error)
	SectionOf(ctx context.Context, courseID uint, studentID int64) (string, error)
}

type enrollmentService struct {
	repo      repository.EnrollmentRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo repository.EnrollmentRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		courses:   courses,
		validator: validate,
		logger:    logger.With().Str("component", "enrollment_service").Logger(),
	}
}

func (s *enrollmentService) AddRange(ctx context.Context, courseID uint, payload dto.RangeCreateRequest) (dto.RangeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RangeResponse{}, err
	}
	if payload.StartID > payload.EndID {
		return dto.RangeResponse{}, ErrInvalidRangeBounds
	}

	// The course may have been deleted concurrently; never persist an orphan range.
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RangeResponse{}, ErrCourseNotFound
		}
		return dto.RangeResponse{}, err
	}

	rng := models.EnrollmentRange{
		CourseID: courseID,
		Section:  strings.TrimSpace(payload.Section),
		StartID:  payload.StartID,
		EndID:    payload.EndID,
	}

	if err := s.repo.CreateValidated(ctx, &rng); err != nil {
		var conflict *repository.RangeConflictError
		if errors.As(err, &conflict) {
			s.logger.Info().
				Uint("course_id", courseID).
				Int64("start_id", payload.StartID).
				Int64("end_id", payload.EndID).
				Msg("enrollment range rejected: overlap")
		}
		return dto.RangeResponse{}, err
	}

	return dto.NewRangeResponse(rng), nil
}

func (s *enrollmentService) UpdateRange(ctx context.Context, courseID, rangeID uint, payload dto.RangeUpdateRequest) (dto.RangeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RangeResponse{}, err
	}

	rng, err := s.repo.GetByID(ctx, rangeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RangeResponse{}, ErrRangeNotFound
		}
		return dto.RangeResponse{}, err
	}
	if rng.CourseID != courseID {
		return dto.RangeResponse{}, ErrRangeNotFound
	}

	if payload.Section != nil {
		rng.Section = strings.TrimSpace(*payload.Section)
	}
	if payload.StartID != nil {
		rng.StartID = *payload.StartID
	}
	if payload.EndID != nil {
		rng.EndID = *payload.EndID
	}
	if rng.StartID > rng.EndID {
		return dto.RangeResponse{}, ErrInvalidRangeBounds
	}

	if err := s.repo.UpdateValidated(ctx, &rng); err != nil {
		return dto.RangeResponse{}, err
	}

	return dto.NewRangeResponse(rng), nil
}

// RemoveRange deletes the range unconditionally. Existing attendance sessions
// and marks are historical snapshots and stand untouched.
func (s *enrollmentService) RemoveRange(ctx context.Context, courseID, rangeID uint) error {
	rng, err := s.repo.GetByID(ctx, rangeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRangeNotFound
		}
		return err
	}
	if rng.CourseID != courseID {
		return ErrRangeNotFound
	}

	if err := s.repo.Delete(ctx, rangeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRangeNotFound
		}
		return err
	}

	return nil
}

func (s *enrollmentService) ListRanges(ctx context.Context, courseID uint) ([]dto.RangeResponse, error) {
	ranges, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewRangeResponseSlice(ranges), nil
}

func (s *enrollmentService) Roster(ctx context.Context, courseID uint) ([]models.EnrolledStudent, error) {
	ranges, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return ExpandRanges(ranges), nil
}

func (s *enrollmentService) SectionRoster(ctx context.Context, courseID uint, section string) ([]models.EnrolledStudent, error) {
	ranges, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	var filtered []models.EnrollmentRange
	for _, rng := range ranges {
		if rng.Section == section {
			filtered = append(filtered, rng)
		}
	}

	return ExpandRanges(filtered), nil
}

func (s *enrollmentService) SectionOf(ctx context.Context, courseID uint, studentID int64) (string, error) {
	ranges, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return "", err
	}

	for _, rng := range ranges {
		if rng.Contains(studentID) {
			return rng.Section, nil
		}
	}

	return "", ErrStudentNotEnrolled
}
