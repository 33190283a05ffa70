package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.EnrollmentRange{},
		&models.AttendanceSession{},
		&models.ClassTest{},
		&models.Mark{},
	))
	return db
}

func TestEnrollmentRepositoryCreateValidatedRejectsOverlap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	first := models.EnrollmentRange{CourseID: 1, Section: "A", StartID: 2101001, EndID: 2101030}
	require.NoError(t, repo.CreateValidated(ctx, &first))

	overlapping := models.EnrollmentRange{CourseID: 1, Section: "B", StartID: 2101025, EndID: 2101035}
	err := repo.CreateValidated(ctx, &overlapping)

	var conflict *RangeConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, first.StartID, conflict.Conflicting.StartID)

	// the failed transaction must not leave a row behind
	ranges, listErr := repo.ListByCourse(ctx, 1)
	require.NoError(t, listErr)
	require.Len(t, ranges, 1)
}

func TestEnrollmentRepositoryCreateValidatedScopedToCourse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	first := models.EnrollmentRange{CourseID: 1, Section: "A", StartID: 100, EndID: 200}
	require.NoError(t, repo.CreateValidated(ctx, &first))

	other := models.EnrollmentRange{CourseID: 2, Section: "A", StartID: 100, EndID: 200}
	require.NoError(t, repo.CreateValidated(ctx, &other))
}

func TestEnrollmentRepositoryUpdateValidatedExcludesSelf(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	rng := models.EnrollmentRange{CourseID: 1, Section: "A", StartID: 1, EndID: 10}
	require.NoError(t, repo.CreateValidated(ctx, &rng))

	// growing the same range must not conflict with itself
	rng.EndID = 15
	require.NoError(t, repo.UpdateValidated(ctx, &rng))

	other := models.EnrollmentRange{CourseID: 1, Section: "B", StartID: 20, EndID: 30}
	require.NoError(t, repo.CreateValidated(ctx, &other))

	rng.EndID = 25
	err := repo.UpdateValidated(ctx, &rng)
	var conflict *RangeConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestEnrollmentRepositoryListByCourseOrdersByStart(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	second := models.EnrollmentRange{CourseID: 1, Section: "B", StartID: 50, EndID: 60}
	require.NoError(t, repo.CreateValidated(ctx, &second))
	first := models.EnrollmentRange{CourseID: 1, Section: "A", StartID: 1, EndID: 10}
	require.NoError(t, repo.CreateValidated(ctx, &first))

	ranges, err := repo.ListByCourse(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	require.Equal(t, int64(1), ranges[0].StartID)
	require.Equal(t, int64(50), ranges[1].StartID)
}

func TestEnrollmentRepositoryListContaining(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEnrollmentRepository(db)
	ctx := context.Background()

	inFirst := models.EnrollmentRange{CourseID: 1, Section: "A", StartID: 100, EndID: 110}
	require.NoError(t, repo.CreateValidated(ctx, &inFirst))
	inSecond := models.EnrollmentRange{CourseID: 2, Section: "C", StartID: 90, EndID: 105}
	require.NoError(t, repo.CreateValidated(ctx, &inSecond))
	unrelated := models.EnrollmentRange{CourseID: 3, Section: "A", StartID: 500, EndID: 600}
	require.NoError(t, repo.CreateValidated(ctx, &unrelated))

	ranges, err := repo.ListContaining(ctx, 101)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	require.Equal(t, uint(1), ranges[0].CourseID)
	require.Equal(t, uint(2), ranges[1].CourseID)
}

func TestEnrollmentRepositoryDeleteMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEnrollmentRepository(db)

	require.ErrorIs(t, repo.Delete(context.Background(), 404), gorm.ErrRecordNotFound)
}
