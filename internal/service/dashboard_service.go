package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/models"
	"github.com/noah-isme/cams-go-api/internal/repository"
)

// DashboardService produces aggregated course and student summaries.
type DashboardService interface {
	CourseDashboard(ctx context.Context, courseID uint) (dto.CourseDashboardResponse, error)
	StudentDashboard(ctx context.Context, studentID int64) (dto.StudentDashboardResponse, error)
}

type dashboardService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	sessions    repository.AttendanceRepository
	tests       repository.ClassTestRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(courses repository.CourseRepository, enrollments repository.EnrollmentRepository, sessions repository.AttendanceRepository, tests repository.ClassTestRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		courses:     courses,
		enrollments: enrollments,
		sessions:    sessions,
		tests:       tests,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *dashboardService) CourseDashboard(ctx context.Context, courseID uint) (dto.CourseDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:course:%d", courseID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.CourseDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("course_id", courseID).Msg("course dashboard cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read course dashboard cache")
		}
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseDashboardResponse{}, ErrCourseNotFound
		}
		return dto.CourseDashboardResponse{}, err
	}

	ranges, err := s.enrollments.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.CourseDashboardResponse{}, err
	}
	students := ExpandRanges(ranges)

	sessions, err := s.sessions.ListByCourse(ctx, courseID, "")
	if err != nil {
		return dto.CourseDashboardResponse{}, err
	}

	bySection := make(map[string][]models.AttendanceSession)
	sectionCounts := make(map[string]int)
	classesHeld := 0
	for _, session := range sessions {
		bySection[session.Section] = append(bySection[session.Section], session)
		sectionCounts[session.Section]++
		if sectionCounts[session.Section] > classesHeld {
			classesHeld = sectionCounts[session.Section]
		}
	}

	var average float64
	if len(students) > 0 {
		var total float64
		for _, student := range students {
			held, present := presenceCounts(bySection[student.Section], student.StudentID)
			total += percentage(present, held)
		}
		average = total / float64(len(students))
	}

	upcoming, err := s.tests.ListUpcoming(ctx, courseID, s.now())
	if err != nil {
		return dto.CourseDashboardResponse{}, err
	}

	response := dto.CourseDashboardResponse{
		CourseID:          course.ID,
		CourseCode:        course.Code,
		ClassesHeld:       classesHeld,
		StudentCount:      len(students),
		AveragePercentage: average,
		UpcomingTests:     dto.NewClassTestResponseSlice(upcoming),
	}

	s.storeCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) StudentDashboard(ctx context.Context, studentID int64) (dto.StudentDashboardResponse, error) {
	ranges, err := s.enrollments.ListContaining(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := dto.StudentDashboardResponse{
		StudentID: studentID,
		Courses:   make([]dto.StudentCourseSummary, 0, len(ranges)),
	}

	for _, rng := range ranges {
		course, err := s.courses.GetByID(ctx, rng.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return dto.StudentDashboardResponse{}, err
		}

		sessions, err := s.sessions.ListByCourse(ctx, course.ID, rng.Section)
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}
		held, present := presenceCounts(sessions, studentID)

		marks, err := s.tests.ListMarksByCourse(ctx, course.ID)
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}
		published, err := s.tests.ListPublishedByCourse(ctx, course.ID)
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}
		totals := make(map[uint]int, len(published))
		for _, ct := range published {
			totals[ct.ID] = ct.TotalMarks
		}

		var percentages []float64
		for _, mark := range marks {
			if mark.StudentID != studentID {
				continue
			}
			total, ok := totals[mark.ClassTestID]
			if !ok {
				// Unpublished tests stay invisible to students.
				continue
			}
			if pct, graded := mark.Percentage(total); graded {
				percentages = append(percentages, pct)
			}
		}

		upcoming, err := s.tests.ListUpcoming(ctx, course.ID, s.now())
		if err != nil {
			return dto.StudentDashboardResponse{}, err
		}

		response.Courses = append(response.Courses, dto.StudentCourseSummary{
			CourseID:             course.ID,
			CourseCode:           course.Code,
			CourseName:           course.Name,
			Section:              rng.Section,
			AttendancePercentage: percentage(present, held),
			BestCTAveragePercent: BestKAverage(percentages, course.BestCTCount),
			UpcomingTests:        dto.NewClassTestResponseSlice(upcoming),
		})
	}

	return response, nil
}

func (s *dashboardService) storeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
	}
}
