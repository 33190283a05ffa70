package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/models"
)

func markPtr(v float64) *float64 {
	return &v
}

func seedClassTest(t *testing.T, repo ClassTestRepository, courseID uint, name string, totalMarks int, published bool, date time.Time) models.ClassTest {
	t.Helper()

	ct := models.ClassTest{
		CourseID:    courseID,
		Name:        name,
		TotalMarks:  totalMarks,
		Date:        date,
		IsPublished: published,
		CreatedBy:   "teacher@example.edu",
	}
	require.NoError(t, repo.Create(context.Background(), &ct))
	return ct
}

func TestClassTestRepositoryListPublishedByCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassTestRepository(db)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	seedClassTest(t, repo, 1, "CT-1", 20, true, base)
	seedClassTest(t, repo, 1, "CT-2 draft", 20, false, base.Add(24*time.Hour))
	seedClassTest(t, repo, 2, "other course", 20, true, base)

	published, err := repo.ListPublishedByCourse(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, "CT-1", published[0].Name)
}

func TestClassTestRepositoryListUpcoming(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassTestRepository(db)

	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	seedClassTest(t, repo, 1, "past", 20, true, now.Add(-48*time.Hour))
	seedClassTest(t, repo, 1, "future", 20, true, now.Add(48*time.Hour))
	seedClassTest(t, repo, 1, "future draft", 20, false, now.Add(72*time.Hour))

	upcoming, err := repo.ListUpcoming(context.Background(), 1, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	require.Equal(t, "future", upcoming[0].Name)
}

func TestClassTestRepositoryReplaceMarksIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassTestRepository(db)
	ctx := context.Background()

	ct := seedClassTest(t, repo, 1, "CT-1", 20, true, time.Now())

	first := []models.Mark{
		{ClassTestID: ct.ID, CourseID: 1, StudentID: 101, Status: models.MarkStatusPresent, MarksObtained: markPtr(12)},
		{ClassTestID: ct.ID, CourseID: 1, StudentID: 102, Status: models.MarkStatusAbsent},
	}
	require.NoError(t, repo.ReplaceMarks(ctx, ct.ID, first))

	second := []models.Mark{
		{ClassTestID: ct.ID, CourseID: 1, StudentID: 101, Status: models.MarkStatusPresent, MarksObtained: markPtr(15)},
		{ClassTestID: ct.ID, CourseID: 1, StudentID: 102, Status: models.MarkStatusPresent, MarksObtained: markPtr(8)},
	}
	require.NoError(t, repo.ReplaceMarks(ctx, ct.ID, second))

	marks, err := repo.ListMarks(ctx, ct.ID)
	require.NoError(t, err)
	require.Len(t, marks, 2)
	require.InDelta(t, 15, *marks[0].MarksObtained, 1e-9)
	require.Equal(t, models.MarkStatusPresent, marks[1].Status)
}

func TestClassTestRepositoryUpdateWithClampLowersStoredMarks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassTestRepository(db)
	ctx := context.Background()

	ct := seedClassTest(t, repo, 1, "CT-1", 20, true, time.Now())
	require.NoError(t, repo.ReplaceMarks(ctx, ct.ID, []models.Mark{
		{ClassTestID: ct.ID, CourseID: 1, StudentID: 101, Status: models.MarkStatusPresent, MarksObtained: markPtr(18)},
		{ClassTestID: ct.ID, CourseID: 1, StudentID: 102, Status: models.MarkStatusPresent, MarksObtained: markPtr(9)},
		{ClassTestID: ct.ID, CourseID: 1, StudentID: 103, Status: models.MarkStatusAbsent},
	}))

	ct.TotalMarks = 10
	require.NoError(t, repo.UpdateWithClamp(ctx, &ct))

	marks, err := repo.ListMarks(ctx, ct.ID)
	require.NoError(t, err)
	require.Len(t, marks, 3)
	require.InDelta(t, 10, *marks[0].MarksObtained, 1e-9)
	require.InDelta(t, 9, *marks[1].MarksObtained, 1e-9)
	require.Nil(t, marks[2].MarksObtained)
}

func TestClassTestRepositoryDeleteCascadeRemovesMarks(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassTestRepository(db)
	ctx := context.Background()

	ct := seedClassTest(t, repo, 1, "CT-1", 20, true, time.Now())
	require.NoError(t, repo.ReplaceMarks(ctx, ct.ID, []models.Mark{
		{ClassTestID: ct.ID, CourseID: 1, StudentID: 101, Status: models.MarkStatusPresent, MarksObtained: markPtr(12)},
	}))

	require.NoError(t, repo.DeleteCascade(ctx, ct.ID))

	_, err := repo.GetByID(ctx, ct.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	marks, err := repo.ListMarks(ctx, ct.ID)
	require.NoError(t, err)
	require.Empty(t, marks)
}

func TestClassTestRepositoryDeleteCascadeMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewClassTestRepository(db)

	require.ErrorIs(t, repo.DeleteCascade(context.Background(), 404), gorm.ErrRecordNotFound)
}
