package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/models"
)

// ErrDuplicateSession indicates an attendance session already exists for the
// same (course, section, day) natural key.
var ErrDuplicateSession = errors.New("attendance session already recorded")

// AttendanceRepository defines persistence operations for attendance sessions.
type AttendanceRepository interface {
	Create(ctx context.Context, session *models.AttendanceSession) error
	GetByID(ctx context.Context, id uint) (models.AttendanceSession, error)
	ListByCourse(ctx context.Context, courseID uint, section string) ([]models.AttendanceSession, error)
	UpdateStatuses(ctx context.Context, session *models.AttendanceSession) error
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository instantiates a GORM-backed repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Create inserts the session. The unique index on session_key makes the
// duplicate check a conditional insert rather than a read-then-write, so two
// concurrent takes for the same key cannot both succeed.
func (r *attendanceRepository) Create(ctx context.Context, session *models.AttendanceSession) error {
	err := r.db.WithContext(ctx).Create(session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateSession
		}
		return err
	}

	return nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id uint) (models.AttendanceSession, error) {
	var session models.AttendanceSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return models.AttendanceSession{}, err
	}

	return session, nil
}

func (r *attendanceRepository) ListByCourse(ctx context.Context, courseID uint, section string) ([]models.AttendanceSession, error) {
	query := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if section != "" {
		query = query.Where("section = ?", section)
	}

	var sessions []models.AttendanceSession
	if err := query.Order("date ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}

// UpdateStatuses replaces studentStatuses only. Identity, date and section
// never change after a session is recorded.
func (r *attendanceRepository) UpdateStatuses(ctx context.Context, session *models.AttendanceSession) error {
	result := r.db.WithContext(ctx).
		Model(&models.AttendanceSession{}).
		Where("id = ?", session.ID).
		Update("student_statuses", session.StudentStatuses)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
