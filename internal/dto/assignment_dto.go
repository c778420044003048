package dto

import (
	"time"

	"github.com/noah-isme/edumate-go-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	Title          string  `json:"title" validate:"required,min=3,max=255"`
	Description    string  `json:"description" validate:"required,min=10"`
	Subject        string  `json:"subject" validate:"omitempty,oneof=mathematics science"`
	ExpectedAnswer string  `json:"expected_answer" validate:"max=2000"`
	DueDate        *string `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// AssignmentFilter describes query string filters for listing assignments.
type AssignmentFilter struct {
	Search   string `query:"search"`
	Subject  string `query:"subject" validate:"omitempty,oneof=mathematics science"`
	Topic    string `query:"topic"`
	Sort     string `query:"sort"`
	Page     int    `query:"page" validate:"gte=0"`
	PageSize int    `query:"page_size" validate:"gte=0,lte=100"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID             uint       `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Subject        string     `json:"subject"`
	ExpectedAnswer string     `json:"expected_answer,omitempty"`
	DueDate        *time.Time `json:"due_date"`
	Topic          string     `json:"topic"`
	Difficulty     int        `json:"difficulty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AssignmentContextResponse is the topic and difficulty used for feature extraction.
type AssignmentContextResponse struct {
	AssignmentID  uint   `json:"assignment_id"`
	Topic         string `json:"topic"`
	Difficulty    int    `json:"difficulty"`
	ExpectedSteps int    `json:"expected_steps"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:             model.ID,
		Title:          model.Title,
		Description:    model.Description,
		Subject:        model.Subject,
		ExpectedAnswer: model.ExpectedAnswer,
		DueDate:        model.DueDate,
		Topic:          model.Topic,
		Difficulty:     model.Difficulty,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
