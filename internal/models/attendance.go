package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// AttendanceStatus represents the per-student status inside a session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent:
		return true
	default:
		return false
	}
}

// AttendanceSession records one attendance-taking event for a course section
// on a calendar day. Identity is the natural key (course, section, day); the
// unique index on SessionKey turns duplicate takes into conditional-insert
// conflicts instead of read-then-write races.
type AttendanceSession struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	CourseID        uint              `gorm:"index;not null" json:"course_id"`
	Section         string            `gorm:"size:16;not null" json:"section"`
	Date            time.Time         `gorm:"not null" json:"date"`
	SessionKey      string            `gorm:"size:128;uniqueIndex;not null" json:"-"`
	StudentStatuses datatypes.JSONMap `gorm:"type:json" json:"student_statuses"`
	RecordedBy      string            `gorm:"size:255;not null" json:"recorded_by"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// SessionKey derives the natural key for a session at day granularity.
func SessionKey(courseID uint, section string, date time.Time) string {
	return fmt.Sprintf("%d:%s:%s", courseID, section, date.Format("2006-01-02"))
}

// StatusFor returns the recorded status for a student ID, if any.
func (s AttendanceSession) StatusFor(studentID int64) (AttendanceStatus, bool) {
	raw, ok := s.StudentStatuses[fmt.Sprintf("%d", studentID)]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	if !ok {
		return "", false
	}
	return AttendanceStatus(value), true
}
