package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/models"
)

// RangeConflictError reports the existing range that blocks an enrollment
// range create or update.
type RangeConflictError struct {
	Conflicting models.EnrollmentRange
}

func (e *RangeConflictError) Error() string {
	return fmt.Sprintf("range overlaps existing enrollment [%d, %d] in section %s",
		e.Conflicting.StartID, e.Conflicting.EndID, e.Conflicting.Section)
}

// EnrollmentRepository defines persistence operations for enrollment ranges.
// Creates and updates run the no-overlap check inside the same transaction as
// the write, so a conflicting concurrent insert cannot slip between check and
// persist.
type EnrollmentRepository interface {
	ListByCourse(ctx context.Context, courseID uint) ([]models.EnrollmentRange, error)
	ListContaining(ctx context.Context, studentID int64) ([]models.EnrollmentRange, error)
	GetByID(ctx context.Context, id uint) (models.EnrollmentRange, error)
	CreateValidated(ctx context.Context, rng *models.EnrollmentRange) error
	UpdateValidated(ctx context.Context, rng *models.EnrollmentRange) error
	Delete(ctx context.Context, id uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates a GORM-backed repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.EnrollmentRange, error) {
	var ranges []models.EnrollmentRange
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("start_id ASC").
		Find(&ranges).Error
	if err != nil {
		return nil, err
	}

	return ranges, nil
}

// ListContaining returns every range, across courses, covering the student ID.
func (r *enrollmentRepository) ListContaining(ctx context.Context, studentID int64) ([]models.EnrollmentRange, error) {
	var ranges []models.EnrollmentRange
	err := r.db.WithContext(ctx).
		Where("start_id <= ? AND end_id >= ?", studentID, studentID).
		Order("course_id ASC").
		Find(&ranges).Error
	if err != nil {
		return nil, err
	}

	return ranges, nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.EnrollmentRange, error) {
	var rng models.EnrollmentRange
	if err := r.db.WithContext(ctx).First(&rng, id).Error; err != nil {
		return models.EnrollmentRange{}, err
	}

	return rng, nil
}

func (r *enrollmentRepository) CreateValidated(ctx context.Context, rng *models.EnrollmentRange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkOverlap(tx, *rng, 0); err != nil {
			return err
		}
		return tx.Create(rng).Error
	})
}

func (r *enrollmentRepository) UpdateValidated(ctx context.Context, rng *models.EnrollmentRange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkOverlap(tx, *rng, rng.ID); err != nil {
			return err
		}
		return tx.Save(rng).Error
	})
}

func (r *enrollmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.EnrollmentRange{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// checkOverlap scans every range of the course regardless of section.
// excludeID skips the range being updated.
func checkOverlap(tx *gorm.DB, candidate models.EnrollmentRange, excludeID uint) error {
	query := tx.Where("course_id = ?", candidate.CourseID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var existing []models.EnrollmentRange
	if err := query.Find(&existing).Error; err != nil {
		return err
	}

	for _, other := range existing {
		if candidate.Overlaps(other) {
			return &RangeConflictError{Conflicting: other}
		}
	}

	return nil
}
