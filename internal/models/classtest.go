package models

import "time"

// ClassTest represents a graded short assessment within a course.
type ClassTest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"index;not null" json:"course_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	TotalMarks  int       `gorm:"not null" json:"total_marks"`
	Date        time.Time `gorm:"not null" json:"date"`
	IsPublished bool      `gorm:"default:false" json:"is_published"`
	CreatedBy   string    `gorm:"size:255;not null" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Marks []Mark `json:"-"`
}

// IsUpcoming returns true when the test is published and not yet held.
func (ct ClassTest) IsUpcoming(reference time.Time) bool {
	return ct.IsPublished && ct.Date.After(reference)
}

// MarkStatus captures whether a student sat a class test.
type MarkStatus string

const (
	MarkStatusPresent MarkStatus = "present"
	MarkStatusAbsent  MarkStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s MarkStatus) Valid() bool {
	return s == MarkStatusPresent || s == MarkStatusAbsent
}

// Mark stores one student's result for one class test. A mark with
// status=absent never carries MarksObtained.
type Mark struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ClassTestID   uint       `gorm:"uniqueIndex:idx_ct_student;not null" json:"class_test_id"`
	CourseID      uint       `gorm:"index;not null" json:"course_id"`
	StudentID     int64      `gorm:"uniqueIndex:idx_ct_student;not null" json:"student_id"`
	Status        MarkStatus `gorm:"size:16;not null" json:"status"`
	MarksObtained *float64   `json:"marks_obtained,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Percentage returns the mark as a percentage of the test total. The second
// return is false for absent or not-yet-graded marks, which must be excluded
// from averages rather than counted as zero.
func (m Mark) Percentage(totalMarks int) (float64, bool) {
	if m.Status != MarkStatusPresent || m.MarksObtained == nil || totalMarks <= 0 {
		return 0, false
	}
	return *m.MarksObtained / float64(totalMarks) * 100, true
}
