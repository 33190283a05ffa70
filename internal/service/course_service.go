package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/models"
	"github.com/noah-isme/cams-go-api/internal/repository"
)

// ErrCourseNotFound indicates the course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// ErrCourseCodeTaken indicates another course already uses the code.
var ErrCourseCodeTaken = errors.New("course code already in use")

// ErrNotCourseMember indicates the acting teacher is not a member of the course.
var ErrNotCourseMember = errors.New("teacher is not a member of the course")

// ErrNotCourseOwner indicates an owner-only action was attempted by a member.
var ErrNotCourseOwner = errors.New("only the course owner may perform this action")

// CourseService manages courses and teacher membership.
type CourseService interface {
	Create(ctx context.Context, createdBy string, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Get(ctx context.Context, id uint) (dto.CourseResponse, error)
	ListForTeacher(ctx context.Context, email string) ([]dto.CourseResponse, error)
	Update(ctx context.Context, id uint, actor string, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint, actor string) error
	Join(ctx context.Context, code, email string) (dto.CourseResponse, error)
	RequireMember(ctx context.Context, id uint, email string) (models.Course, error)
}

type courseService struct {
	repo      repository.CourseRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) Create(ctx context.Context, createdBy string, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course := models.Course{
		Code:        strings.ToUpper(strings.TrimSpace(payload.Code)),
		Name:        strings.TrimSpace(s.sanitizer.Sanitize(payload.Name)),
		Batch:       payload.Batch,
		Credit:      payload.Credit,
		IsSessional: payload.IsSessional,
		BestCTCount: payload.BestCTCount,
		CreatedBy:   createdBy,
	}
	if err := course.SetTeachers([]string{createdBy}); err != nil {
		return dto.CourseResponse{}, err
	}

	if err := s.repo.Create(ctx, &course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CourseResponse{}, ErrCourseCodeTaken
		}
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", course.ID).Str("code", course.Code).Msg("course created")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Get(ctx context.Context, id uint) (dto.CourseResponse, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) ListForTeacher(ctx context.Context, email string) ([]dto.CourseResponse, error) {
	courses, err := s.repo.ListByTeacher(ctx, email)
	if err != nil {
		return nil, err
	}

	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Update(ctx context.Context, id uint, actor string, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.RequireMember(ctx, id, actor)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if payload.Name != nil {
		course.Name = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Name))
	}
	if payload.Batch != nil {
		course.Batch = *payload.Batch
	}
	if payload.Credit != nil {
		course.Credit = *payload.Credit
	}
	if payload.IsSessional != nil {
		course.IsSessional = *payload.IsSessional
	}
	if payload.BestCTCount != nil {
		course.BestCTCount = payload.BestCTCount
	}

	if err := s.repo.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

// Delete removes the course and cascades to its enrollments, sessions, class
// tests and marks. Owner-only.
func (s *courseService) Delete(ctx context.Context, id uint, actor string) error {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	if course.CreatedBy != actor {
		return ErrNotCourseOwner
	}

	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.logger.Info().Uint("course_id", id).Str("actor", actor).Msg("course deleted with cascade")

	return nil
}

// Join adds a teacher to an existing course by its code.
func (s *courseService) Join(ctx context.Context, code, email string) (dto.CourseResponse, error) {
	course, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseResponse{}, ErrCourseNotFound
		}
		return dto.CourseResponse{}, err
	}

	if course.HasTeacher(email) {
		return dto.NewCourseResponse(course), nil
	}

	if err := course.SetTeachers(append(course.Teachers(), email)); err != nil {
		return dto.CourseResponse{}, err
	}
	if err := s.repo.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

// RequireMember loads the course and verifies the teacher's membership.
func (s *courseService) RequireMember(ctx context.Context, id uint, email string) (models.Course, error) {
	course, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	if !course.HasTeacher(email) {
		return models.Course{}, ErrNotCourseMember
	}

	return course, nil
}
