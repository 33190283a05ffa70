package dto

import (
	"time"

	"github.com/noah-isme/cams-go-api/internal/models"
)

// RangeCreateRequest declares one enrollment range for a course section.
type RangeCreateRequest struct {
	Section string `json:"section" validate:"required,min=1,max=16"`
	StartID int64  `json:"start_id" validate:"required,gt=0"`
	EndID   int64  `json:"end_id" validate:"required,gt=0"`
}

// RangeUpdateRequest updates an existing enrollment range.
type RangeUpdateRequest struct {
	Section *string `json:"section" validate:"omitempty,min=1,max=16"`
	StartID *int64  `json:"start_id" validate:"omitempty,gt=0"`
	EndID   *int64  `json:"end_id" validate:"omitempty,gt=0"`
}

// RangeResponse is the serialized enrollment range.
type RangeResponse struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	Section   string    `json:"section"`
	StartID   int64     `json:"start_id"`
	EndID     int64     `json:"end_id"`
	Students  int64     `json:"students"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRangeResponse converts a model into a DTO.
func NewRangeResponse(model models.EnrollmentRange) RangeResponse {
	return RangeResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		Section:   model.Section,
		StartID:   model.StartID,
		EndID:     model.EndID,
		Students:  model.Size(),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewRangeResponseSlice converts a slice of models into DTOs.
func NewRangeResponseSlice(ranges []models.EnrollmentRange) []RangeResponse {
	responses := make([]RangeResponse, 0, len(ranges))
	for _, r := range ranges {
		responses = append(responses, NewRangeResponse(r))
	}

	return responses
}

// RosterEntry is one derived enrolled student.
type RosterEntry struct {
	StudentID int64  `json:"student_id"`
	Section   string `json:"section"`
}

// NewRosterResponse converts expanded enrollments into DTOs.
func NewRosterResponse(students []models.EnrolledStudent) []RosterEntry {
	entries := make([]RosterEntry, 0, len(students))
	for _, s := range students {
		entries = append(entries, RosterEntry{StudentID: s.StudentID, Section: s.Section})
	}

	return entries
}
