package dto

import (
	"time"

	"github.com/noah-isme/cams-go-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Code        string  `json:"code" validate:"required,min=2,max=64"`
	Name        string  `json:"name" validate:"required,min=2,max=255"`
	Batch       int     `json:"batch" validate:"required,gte=1990,lte=2100"`
	Credit      float64 `json:"credit" validate:"required,gt=0,lte=10"`
	IsSessional bool    `json:"is_sessional"`
	BestCTCount *int    `json:"best_ct_count" validate:"omitempty,gt=0"`
}

// CourseUpdateRequest describes a partial course update.
type CourseUpdateRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=255"`
	Batch       *int     `json:"batch" validate:"omitempty,gte=1990,lte=2100"`
	Credit      *float64 `json:"credit" validate:"omitempty,gt=0,lte=10"`
	IsSessional *bool    `json:"is_sessional"`
	BestCTCount *int     `json:"best_ct_count" validate:"omitempty,gt=0"`
}

// CourseResponse is the serialized representation returned to API clients.
type CourseResponse struct {
	ID          uint      `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Batch       int       `json:"batch"`
	Credit      float64   `json:"credit"`
	IsSessional bool      `json:"is_sessional"`
	BestCTCount *int      `json:"best_ct_count,omitempty"`
	CreatedBy   string    `json:"created_by"`
	Teachers    []string  `json:"teachers"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		Code:        model.Code,
		Name:        model.Name,
		Batch:       model.Batch,
		Credit:      model.Credit,
		IsSessional: model.IsSessional,
		BestCTCount: model.BestCTCount,
		CreatedBy:   model.CreatedBy,
		Teachers:    model.Teachers(),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}
