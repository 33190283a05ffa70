package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/models"
)

type dashboardFixture struct {
	svc         DashboardService
	courses     *memoryCourseRepo
	enrollments *memoryEnrollmentRepo
	sessions    *memoryAttendanceRepo
	tests       *memoryClassTestRepo
	mini        *miniredis.Miniredis
}

func newDashboardFixture(t *testing.T) dashboardFixture {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	fx := dashboardFixture{
		courses:     newMemoryCourseRepo(),
		enrollments: newMemoryEnrollmentRepo(),
		sessions:    newMemoryAttendanceRepo(),
		tests:       newMemoryClassTestRepo(),
		mini:        mini,
	}
	fx.svc = NewDashboardService(fx.courses, fx.enrollments, fx.sessions, fx.tests, redisClient, time.Minute, zerolog.Nop())
	return fx
}

func (fx dashboardFixture) seedCourse(t *testing.T, code string, bestCT *int) models.Course {
	t.Helper()

	course := models.Course{
		Code:        code,
		Name:        "Course " + code,
		Batch:       2021,
		Credit:      3.0,
		BestCTCount: bestCT,
		CreatedBy:   "owner@example.edu",
	}
	require.NoError(t, course.SetTeachers([]string{"owner@example.edu"}))
	require.NoError(t, fx.courses.Create(context.Background(), &course))
	return course
}

func (fx dashboardFixture) seedSession(t *testing.T, courseID uint, section, date string, statuses map[string]interface{}) {
	t.Helper()

	day, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)

	session := models.AttendanceSession{
		CourseID:        courseID,
		Section:         section,
		Date:            day,
		SessionKey:      models.SessionKey(courseID, section, day),
		StudentStatuses: datatypes.JSONMap(statuses),
		RecordedBy:      "owner@example.edu",
	}
	require.NoError(t, fx.sessions.Create(context.Background(), &session))
}

func TestCourseDashboardAggregates(t *testing.T) {
	fx := newDashboardFixture(t)
	course := fx.seedCourse(t, "CSE-2101", nil)

	rng := models.EnrollmentRange{CourseID: course.ID, Section: "A", StartID: 101, EndID: 102}
	require.NoError(t, fx.enrollments.CreateValidated(context.Background(), &rng))

	fx.seedSession(t, course.ID, "A", "2026-03-02", map[string]interface{}{"101": "present", "102": "absent"})
	fx.seedSession(t, course.ID, "A", "2026-03-04", map[string]interface{}{"101": "present", "102": "present"})

	upcoming := models.ClassTest{
		CourseID:    course.ID,
		Name:        "CT-9",
		TotalMarks:  10,
		Date:        time.Now().Add(48 * time.Hour),
		IsPublished: true,
		CreatedBy:   "owner@example.edu",
	}
	require.NoError(t, fx.tests.Create(context.Background(), &upcoming))

	dashboard, err := fx.svc.CourseDashboard(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, "CSE-2101", dashboard.CourseCode)
	require.Equal(t, 2, dashboard.ClassesHeld)
	require.Equal(t, 2, dashboard.StudentCount)
	require.InDelta(t, 75, dashboard.AveragePercentage, 1e-9)
	require.Len(t, dashboard.UpcomingTests, 1)
}

func TestCourseDashboardServesFromCache(t *testing.T) {
	fx := newDashboardFixture(t)
	course := fx.seedCourse(t, "CSE-2101", nil)

	first, err := fx.svc.CourseDashboard(context.Background(), course.ID)
	require.NoError(t, err)
	require.True(t, fx.mini.Exists("dashboard:course:1"))

	// new data behind the cache must not show until the TTL expires
	rng := models.EnrollmentRange{CourseID: course.ID, Section: "A", StartID: 101, EndID: 110}
	require.NoError(t, fx.enrollments.CreateValidated(context.Background(), &rng))

	cached, err := fx.svc.CourseDashboard(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, first.StudentCount, cached.StudentCount)

	fx.mini.FastForward(2 * time.Minute)

	fresh, err := fx.svc.CourseDashboard(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, 10, fresh.StudentCount)
}

func TestCourseDashboardUnknownCourse(t *testing.T) {
	fx := newDashboardFixture(t)

	_, err := fx.svc.CourseDashboard(context.Background(), 404)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestStudentDashboardSpansCourses(t *testing.T) {
	fx := newDashboardFixture(t)
	ctx := context.Background()

	bestCT := 1
	first := fx.seedCourse(t, "CSE-2101", &bestCT)
	second := fx.seedCourse(t, "CSE-2102", nil)

	for _, seed := range []struct {
		courseID uint
		section  string
	}{
		{first.ID, "A"},
		{second.ID, "B"},
	} {
		rng := models.EnrollmentRange{CourseID: seed.courseID, Section: seed.section, StartID: 101, EndID: 110}
		require.NoError(t, fx.enrollments.CreateValidated(ctx, &rng))
	}

	fx.seedSession(t, first.ID, "A", "2026-03-02", map[string]interface{}{"101": "present"})
	fx.seedSession(t, first.ID, "A", "2026-03-04", map[string]interface{}{"101": "absent"})

	ct := models.ClassTest{
		CourseID:    first.ID,
		Name:        "CT-1",
		TotalMarks:  10,
		Date:        time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		IsPublished: true,
		CreatedBy:   "owner@example.edu",
	}
	require.NoError(t, fx.tests.Create(ctx, &ct))
	require.NoError(t, fx.tests.ReplaceMarks(ctx, ct.ID, []models.Mark{
		{ClassTestID: ct.ID, CourseID: first.ID, StudentID: 101, Status: models.MarkStatusPresent, MarksObtained: float64Ptr(6)},
	}))

	draft := models.ClassTest{
		CourseID:    first.ID,
		Name:        "CT-2 draft",
		TotalMarks:  10,
		Date:        time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		IsPublished: false,
		CreatedBy:   "owner@example.edu",
	}
	require.NoError(t, fx.tests.Create(ctx, &draft))
	require.NoError(t, fx.tests.ReplaceMarks(ctx, draft.ID, []models.Mark{
		{ClassTestID: draft.ID, CourseID: first.ID, StudentID: 101, Status: models.MarkStatusPresent, MarksObtained: float64Ptr(10)},
	}))

	dashboard, err := fx.svc.StudentDashboard(ctx, 101)
	require.NoError(t, err)
	require.Equal(t, int64(101), dashboard.StudentID)
	require.Len(t, dashboard.Courses, 2)

	var summary dto.StudentCourseSummary
	for _, course := range dashboard.Courses {
		if course.CourseCode == "CSE-2101" {
			summary = course
		}
	}
	require.Equal(t, "CSE-2101", summary.CourseCode)
	require.Equal(t, "A", summary.Section)
	require.InDelta(t, 50, summary.AttendancePercentage, 1e-9)
	// draft marks stay invisible, so only the published 60% counts
	require.InDelta(t, 60, summary.BestCTAveragePercent, 1e-9)
}

func TestStudentDashboardNoEnrollments(t *testing.T) {
	fx := newDashboardFixture(t)

	dashboard, err := fx.svc.StudentDashboard(context.Background(), 999)
	require.NoError(t, err)
	require.Empty(t, dashboard.Courses)
}
