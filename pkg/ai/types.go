package ai

import (
	"context"
	"errors"
)

// ErrEmptyComment is returned when the model answers without a usable comment.
var ErrEmptyComment = errors.New("model returned an empty comment")

// CommentInput carries what the model needs to write a teacher comment.
type CommentInput struct {
	Subject        string
	Topic          string
	Difficulty     int
	AssignmentText string
	Submission     string
	PredictedGrade string
	RubricPoints   int
	CriteriaMet    []string
	CriteriaMissed []string
	Improvements   []string
}

// CommentGenerator writes a short teacher comment for a graded submission.
type CommentGenerator interface {
	GenerateComment(ctx context.Context, input CommentInput) (string, error)
	Model() string
}
