package dto

import (
	"time"

	"github.com/noah-isme/cams-go-api/internal/models"
)

// TakeAttendanceRequest records one session for a course section on a day.
// Statuses must cover exactly the section's enrolled student IDs.
type TakeAttendanceRequest struct {
	Section  string            `json:"section" validate:"required,min=1,max=16"`
	Date     string            `json:"date" validate:"required"`
	Statuses map[string]string `json:"statuses" validate:"required,min=1"`
}

// UpdateAttendanceRequest replaces the statuses of an existing session.
type UpdateAttendanceRequest struct {
	Statuses map[string]string `json:"statuses" validate:"required,min=1"`
}

// AttendanceSessionResponse is the serialized session.
type AttendanceSessionResponse struct {
	ID         uint              `json:"id"`
	CourseID   uint              `json:"course_id"`
	Section    string            `json:"section"`
	Date       string            `json:"date"`
	Statuses   map[string]string `json:"statuses"`
	RecordedBy string            `json:"recorded_by"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewAttendanceSessionResponse converts a model into a DTO.
func NewAttendanceSessionResponse(model models.AttendanceSession) AttendanceSessionResponse {
	statuses := make(map[string]string, len(model.StudentStatuses))
	for id, raw := range model.StudentStatuses {
		if value, ok := raw.(string); ok {
			statuses[id] = value
		}
	}

	return AttendanceSessionResponse{
		ID:         model.ID,
		CourseID:   model.CourseID,
		Section:    model.Section,
		Date:       model.Date.Format("2006-01-02"),
		Statuses:   statuses,
		RecordedBy: model.RecordedBy,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

// NewAttendanceSessionResponseSlice converts a slice of models into DTOs.
func NewAttendanceSessionResponseSlice(sessions []models.AttendanceSession) []AttendanceSessionResponse {
	responses := make([]AttendanceSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, NewAttendanceSessionResponse(session))
	}

	return responses
}

// StudentAttendanceResponse reports one student's attendance percentage.
type StudentAttendanceResponse struct {
	StudentID    int64   `json:"student_id"`
	Section      string  `json:"section"`
	SessionsHeld int     `json:"sessions_held"`
	Present      int     `json:"present"`
	Percentage   float64 `json:"percentage"`
}
