package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/cams-go-api/internal/models"
)

func newSession(courseID uint, section, date string) models.AttendanceSession {
	day, _ := time.Parse("2006-01-02", date)
	return models.AttendanceSession{
		CourseID:        courseID,
		Section:         section,
		Date:            day,
		SessionKey:      models.SessionKey(courseID, section, day),
		StudentStatuses: datatypes.JSONMap{"101": "present", "102": "absent"},
		RecordedBy:      "teacher@example.edu",
	}
}

func TestAttendanceRepositoryCreateRejectsDuplicateKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	first := newSession(1, "A", "2026-03-02")
	require.NoError(t, repo.Create(ctx, &first))

	duplicate := newSession(1, "A", "2026-03-02")
	require.ErrorIs(t, repo.Create(ctx, &duplicate), ErrDuplicateSession)

	otherSection := newSession(1, "B", "2026-03-02")
	require.NoError(t, repo.Create(ctx, &otherSection))

	otherDay := newSession(1, "A", "2026-03-03")
	require.NoError(t, repo.Create(ctx, &otherDay))
}

func TestAttendanceRepositoryListByCourseFiltersSection(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	later := newSession(1, "A", "2026-03-09")
	require.NoError(t, repo.Create(ctx, &later))
	earlier := newSession(1, "A", "2026-03-02")
	require.NoError(t, repo.Create(ctx, &earlier))
	other := newSession(1, "B", "2026-03-02")
	require.NoError(t, repo.Create(ctx, &other))

	all, err := repo.ListByCourse(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	sectionA, err := repo.ListByCourse(ctx, 1, "A")
	require.NoError(t, err)
	require.Len(t, sectionA, 2)
	require.True(t, sectionA[0].Date.Before(sectionA[1].Date), "expected sessions ordered by date")
}

func TestAttendanceRepositoryUpdateStatusesPersists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()

	session := newSession(1, "A", "2026-03-02")
	require.NoError(t, repo.Create(ctx, &session))

	session.StudentStatuses = datatypes.JSONMap{"101": "absent", "102": "absent"}
	require.NoError(t, repo.UpdateStatuses(ctx, &session))

	stored, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	status, ok := stored.StatusFor(101)
	require.True(t, ok)
	require.Equal(t, models.AttendanceStatusAbsent, status)
}

func TestAttendanceRepositoryUpdateStatusesMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceRepository(db)

	ghost := newSession(1, "A", "2026-03-02")
	ghost.ID = 404
	require.Error(t, repo.UpdateStatuses(context.Background(), &ghost))
}
