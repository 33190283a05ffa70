package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/cams-go-api/internal/models"
)

// ClassTestRepository defines persistence operations for class tests and marks.
type ClassTestRepository interface {
	Create(ctx context.Context, ct *models.ClassTest) error
	GetByID(ctx context.Context, id uint) (models.ClassTest, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.ClassTest, error)
	ListPublishedByCourse(ctx context.Context, courseID uint) ([]models.ClassTest, error)
	ListUpcoming(ctx context.Context, courseID uint, after time.Time) ([]models.ClassTest, error)
	UpdateWithClamp(ctx context.Context, ct *models.ClassTest) error
	DeleteCascade(ctx context.Context, id uint) error
	ReplaceMarks(ctx context.Context, ctID uint, marks []models.Mark) error
	ListMarks(ctx context.Context, ctID uint) ([]models.Mark, error)
	ListMarksByCourse(ctx context.Context, courseID uint) ([]models.Mark, error)
}

type classTestRepository struct {
	db *gorm.DB
}

// NewClassTestRepository instantiates a GORM-backed repository.
func NewClassTestRepository(db *gorm.DB) ClassTestRepository {
	return &classTestRepository{db: db}
}

func (r *classTestRepository) Create(ctx context.Context, ct *models.ClassTest) error {
	return r.db.WithContext(ctx).Create(ct).Error
}

func (r *classTestRepository) GetByID(ctx context.Context, id uint) (models.ClassTest, error) {
	var ct models.ClassTest
	if err := r.db.WithContext(ctx).First(&ct, id).Error; err != nil {
		return models.ClassTest{}, err
	}

	return ct, nil
}

func (r *classTestRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.ClassTest, error) {
	var tests []models.ClassTest
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("date ASC").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}

	return tests, nil
}

func (r *classTestRepository) ListPublishedByCourse(ctx context.Context, courseID uint) ([]models.ClassTest, error) {
	var tests []models.ClassTest
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND is_published = ?", courseID, true).
		Order("date ASC").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}

	return tests, nil
}

func (r *classTestRepository) ListUpcoming(ctx context.Context, courseID uint, after time.Time) ([]models.ClassTest, error) {
	var tests []models.ClassTest
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND is_published = ? AND date > ?", courseID, true, after).
		Order("date ASC").
		Find(&tests).Error
	if err != nil {
		return nil, err
	}

	return tests, nil
}

// UpdateWithClamp saves the class test and, in the same transaction, re-clamps
// stored marks that exceed a lowered totalMarks so marks never exceed the
// current maximum.
func (r *classTestRepository) UpdateWithClamp(ctx context.Context, ct *models.ClassTest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(ct).Error; err != nil {
			return err
		}
		return tx.Model(&models.Mark{}).
			Where("class_test_id = ? AND marks_obtained > ?", ct.ID, ct.TotalMarks).
			Update("marks_obtained", float64(ct.TotalMarks)).Error
	})
}

func (r *classTestRepository) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_test_id = ?", id).Delete(&models.Mark{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.ClassTest{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ReplaceMarks overwrites the full mark roster of a class test atomically.
// The replace-all contract keeps repeated submissions idempotent and avoids
// partial-update drift between concurrent graders.
func (r *classTestRepository) ReplaceMarks(ctx context.Context, ctID uint, marks []models.Mark) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("class_test_id = ?", ctID).Delete(&models.Mark{}).Error; err != nil {
			return err
		}
		if len(marks) == 0 {
			return nil
		}
		return tx.Create(&marks).Error
	})
}

func (r *classTestRepository) ListMarks(ctx context.Context, ctID uint) ([]models.Mark, error) {
	var marks []models.Mark
	err := r.db.WithContext(ctx).
		Where("class_test_id = ?", ctID).
		Order("student_id ASC").
		Find(&marks).Error
	if err != nil {
		return nil, err
	}

	return marks, nil
}

func (r *classTestRepository) ListMarksByCourse(ctx context.Context, courseID uint) ([]models.Mark, error) {
	var marks []models.Mark
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("student_id ASC").
		Find(&marks).Error
	if err != nil {
		return nil, err
	}

	return marks, nil
}
