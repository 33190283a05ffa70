package models

import "time"

// EnrollmentRange declares a contiguous block of student IDs enrolled in one
// section of a course. The enrolled-student set is derived from these ranges
// at read time; no per-student row is persisted.
type EnrollmentRange struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"index;not null" json:"course_id"`
	Section   string    `gorm:"size:16;not null" json:"section"`
	StartID   int64     `gorm:"not null" json:"start_id"`
	EndID     int64     `gorm:"not null" json:"end_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Overlaps reports whether two inclusive ID ranges intersect.
func (r EnrollmentRange) Overlaps(other EnrollmentRange) bool {
	return r.StartID <= other.EndID && other.StartID <= r.EndID
}

// Contains reports whether the student ID falls inside the range.
func (r EnrollmentRange) Contains(studentID int64) bool {
	return studentID >= r.StartID && studentID <= r.EndID
}

// Size returns the number of student IDs covered by the range.
func (r EnrollmentRange) Size() int64 {
	return r.EndID - r.StartID + 1
}

// EnrolledStudent is the derived identity of one student within a course.
type EnrolledStudent struct {
	StudentID int64  `json:"student_id"`
	Section   string `json:"section"`
}
