package dto

import (
	"time"

	"github.com/noah-isme/cams-go-api/internal/models"
)

// ClassTestCreateRequest describes the payload for creating a class test.
type ClassTestCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	TotalMarks  int    `json:"total_marks" validate:"required,gt=0"`
	Date        string `json:"date" validate:"required"`
}

// ClassTestUpdateRequest describes a partial class-test update.
type ClassTestUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	TotalMarks  *int    `json:"total_marks" validate:"omitempty,gt=0"`
	Date        *string `json:"date"`
	IsPublished *bool   `json:"is_published"`
}

// MarkRecord is one roster entry in a batch mark submission. Absent students
// must not carry marks; present marks are clamped into [0, totalMarks], so
// out-of-range values are not a validation failure.
type MarkRecord struct {
	StudentID     int64    `json:"student_id" validate:"required,gt=0"`
	Status        string   `json:"status" validate:"required,oneof=present absent"`
	MarksObtained *float64 `json:"marks_obtained"`
}

// BatchMarksRequest replaces the full mark roster of a class test. Partial
// rosters drop the omitted students' previous marks; callers must always
// submit every enrolled student.
type BatchMarksRequest struct {
	Records []MarkRecord `json:"records" validate:"required,min=1,dive"`
}

// ClassTestResponse is the serialized class test.
type ClassTestResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TotalMarks  int       `json:"total_marks"`
	Date        time.Time `json:"date"`
	IsPublished bool      `json:"is_published"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewClassTestResponse converts a model into a DTO.
func NewClassTestResponse(model models.ClassTest) ClassTestResponse {
	return ClassTestResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		Name:        model.Name,
		Description: model.Description,
		TotalMarks:  model.TotalMarks,
		Date:        model.Date,
		IsPublished: model.IsPublished,
		CreatedBy:   model.CreatedBy,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewClassTestResponseSlice converts a slice of models into DTOs.
func NewClassTestResponseSlice(tests []models.ClassTest) []ClassTestResponse {
	responses := make([]ClassTestResponse, 0, len(tests))
	for _, ct := range tests {
		responses = append(responses, NewClassTestResponse(ct))
	}

	return responses
}

// MarkResponse is the serialized mark row.
type MarkResponse struct {
	StudentID     int64    `json:"student_id"`
	Status        string   `json:"status"`
	MarksObtained *float64 `json:"marks_obtained,omitempty"`
}

// NewMarkResponseSlice converts marks into DTOs.
func NewMarkResponseSlice(marks []models.Mark) []MarkResponse {
	responses := make([]MarkResponse, 0, len(marks))
	for _, mark := range marks {
		responses = append(responses, MarkResponse{
			StudentID:     mark.StudentID,
			Status:        string(mark.Status),
			MarksObtained: mark.MarksObtained,
		})
	}

	return responses
}
