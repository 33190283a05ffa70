package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Course represents a taught course owning enrollments, sessions and class tests.
type Course struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Code          string         `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	Batch         int            `gorm:"not null" json:"batch"`
	Credit        float64        `gorm:"not null" json:"credit"`
	IsSessional   bool           `gorm:"default:false" json:"is_sessional"`
	BestCTCount   *int           `json:"best_ct_count,omitempty"`
	CreatedBy     string         `gorm:"size:255;not null" json:"created_by"`
	TeacherEmails datatypes.JSON `gorm:"type:json" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	Ranges     []EnrollmentRange `json:"-"`
	ClassTests []ClassTest       `json:"-"`
}

// SetTeachers stores the member teacher emails as a JSON column.
func (c *Course) SetTeachers(emails []string) error {
	if emails == nil {
		emails = []string{}
	}
	data, err := json.Marshal(emails)
	if err != nil {
		return err
	}
	c.TeacherEmails = datatypes.JSON(data)
	return nil
}

// Teachers returns the member teacher emails stored on the course.
func (c Course) Teachers() []string {
	if len(c.TeacherEmails) == 0 {
		return []string{}
	}
	var emails []string
	if err := json.Unmarshal(c.TeacherEmails, &emails); err != nil {
		return []string{}
	}
	return emails
}

// HasTeacher reports whether the given email is a member of the course.
func (c Course) HasTeacher(email string) bool {
	if email == c.CreatedBy {
		return true
	}
	for _, member := range c.Teachers() {
		if member == email {
			return true
		}
	}
	return false
}
