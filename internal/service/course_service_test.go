package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/dto"
	"github.com/noah-isme/cams-go-api/internal/models"
)

type memoryCourseRepo struct {
	courses map[uint]models.Course
	nextID  uint
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{
		courses: make(map[uint]models.Course),
		nextID:  1,
	}
}

func (m *memoryCourseRepo) Create(ctx context.Context, course *models.Course) error {
	for _, existing := range m.courses {
		if existing.Code == course.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	course.ID = m.nextID
	course.CreatedAt = time.Now()
	course.UpdatedAt = time.Now()
	m.courses[course.ID] = *course
	m.nextID++
	return nil
}

func (m *memoryCourseRepo) GetByID(ctx context.Context, id uint) (models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (m *memoryCourseRepo) GetByCode(ctx context.Context, code string) (models.Course, error) {
	for _, course := range m.courses {
		if course.Code == code {
			return course, nil
		}
	}
	return models.Course{}, gorm.ErrRecordNotFound
}

func (m *memoryCourseRepo) ListByTeacher(ctx context.Context, email string) ([]models.Course, error) {
	var results []models.Course
	for _, course := range m.courses {
		if course.HasTeacher(email) {
			results = append(results, course)
		}
	}
	return results, nil
}

func (m *memoryCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	course.UpdatedAt = time.Now()
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourseRepo) DeleteCascade(ctx context.Context, id uint) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

func newCourseServiceForTest() (CourseService, *memoryCourseRepo) {
	repo := newMemoryCourseRepo()
	svc := NewCourseService(repo, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	return svc, repo
}

func validCourse() dto.CourseCreateRequest {
	return dto.CourseCreateRequest{
		Code:   "cse-2101",
		Name:   "Structured Programming",
		Batch:  2021,
		Credit: 3.0,
	}
}

func TestCreateCourseUppercasesCode(t *testing.T) {
	svc, _ := newCourseServiceForTest()

	created, err := svc.Create(context.Background(), "owner@example.edu", validCourse())
	require.NoError(t, err)
	require.Equal(t, "CSE-2101", created.Code)
	require.Equal(t, "owner@example.edu", created.CreatedBy)
	require.Contains(t, created.Teachers, "owner@example.edu")
}

func TestCreateCourseRejectsDuplicateCode(t *testing.T) {
	svc, _ := newCourseServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner@example.edu", validCourse())
	require.NoError(t, err)

	payload := validCourse()
	payload.Code = strings.ToUpper(payload.Code)
	_, err = svc.Create(ctx, "other@example.edu", payload)
	require.ErrorIs(t, err, ErrCourseCodeTaken)
}

func TestCreateCourseValidatesCredit(t *testing.T) {
	svc, _ := newCourseServiceForTest()

	payload := validCourse()
	payload.Credit = 0
	_, err := svc.Create(context.Background(), "owner@example.edu", payload)
	require.Error(t, err)
}

func TestUpdateCourseRequiresMembership(t *testing.T) {
	svc, _ := newCourseServiceForTest()
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner@example.edu", validCourse())
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.Update(ctx, created.ID, "stranger@example.edu", dto.CourseUpdateRequest{Name: &name})
	require.ErrorIs(t, err, ErrNotCourseMember)

	updated, err := svc.Update(ctx, created.ID, "owner@example.edu", dto.CourseUpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
}

func TestJoinCourseAddsTeacher(t *testing.T) {
	svc, _ := newCourseServiceForTest()
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner@example.edu", validCourse())
	require.NoError(t, err)

	joined, err := svc.Join(ctx, "cse-2101", "second@example.edu")
	require.NoError(t, err)
	require.Equal(t, created.ID, joined.ID)
	require.Contains(t, joined.Teachers, "second@example.edu")

	// joining twice is a no-op
	again, err := svc.Join(ctx, "CSE-2101", "second@example.edu")
	require.NoError(t, err)
	require.Len(t, again.Teachers, len(joined.Teachers))

	name := "Co-taught"
	_, err = svc.Update(ctx, created.ID, "second@example.edu", dto.CourseUpdateRequest{Name: &name})
	require.NoError(t, err)
}

func TestJoinCourseUnknownCode(t *testing.T) {
	svc, _ := newCourseServiceForTest()

	_, err := svc.Join(context.Background(), "NOPE-404", "second@example.edu")
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestDeleteCourseOwnerOnly(t *testing.T) {
	svc, _ := newCourseServiceForTest()
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner@example.edu", validCourse())
	require.NoError(t, err)

	_, err = svc.Join(ctx, "CSE-2101", "second@example.edu")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, created.ID, "second@example.edu"), ErrNotCourseOwner)
	require.NoError(t, svc.Delete(ctx, created.ID, "owner@example.edu"))

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestListForTeacherIncludesJoinedCourses(t *testing.T) {
	svc, _ := newCourseServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner@example.edu", validCourse())
	require.NoError(t, err)

	second := validCourse()
	second.Code = "CSE-2102"
	_, err = svc.Create(ctx, "other@example.edu", second)
	require.NoError(t, err)

	_, err = svc.Join(ctx, "CSE-2102", "owner@example.edu")
	require.NoError(t, err)

	courses, err := svc.ListForTeacher(ctx, "owner@example.edu")
	require.NoError(t, err)
	require.Len(t, courses, 2)
}
