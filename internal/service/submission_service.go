package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/dto"
	"github.com/noah-isme/edumate-go-api/internal/grading/features"
	"github.com/noah-isme/edumate-go-api/internal/grading/feedback"
	"github.com/noah-isme/edumate-go-api/internal/grading/prediction"
	"github.com/noah-isme/edumate-go-api/internal/grading/topic"
	"github.com/noah-isme/edumate-go-api/internal/models"
	"github.com/noah-isme/edumate-go-api/internal/observability"
	"github.com/noah-isme/edumate-go-api/internal/repository"
	"github.com/noah-isme/edumate-go-api/pkg/ai"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrStudentNotFound indicates the submitting student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidSubmissionFile rejects uploads that are not readable plain text.
	ErrInvalidSubmissionFile = errors.New("submission file must be a plain text file")
	// ErrEmptyFeedback rejects teacher feedback that is empty once sanitised.
	ErrEmptyFeedback = errors.New("feedback text is empty")
)

const (
	maxSubmissionFileBytes = 1 << 20
	historyLimit           = 20
	commentTimeout         = 10 * time.Second
	gradeModelName         = "EduMate_GradeModel"
	teacherFeedbackModel   = "EduMate_TeacherFeedback_v2"
)

// AssignmentContextProvider resolves the cached topic and difficulty of an assignment.
type AssignmentContextProvider interface {
	Context(ctx context.Context, id uint) (dto.AssignmentContextResponse, error)
}

// SubmissionService orchestrates submission workflows.
type SubmissionService interface {
	Submit(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResultResponse, error)
	SubmitFile(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResultResponse, error)
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Feedback(ctx context.Context, id uint) (dto.SubmissionFeedbackResponse, error)
	SaveFeedback(ctx context.Context, id uint, payload dto.SaveFeedbackRequest) (dto.AIFeedbackResponse, error)
}

// SubmissionDependencies groups the collaborators of the submission service.
type SubmissionDependencies struct {
	Submissions repository.SubmissionRepository
	Assignments repository.AssignmentRepository
	Students    repository.StudentRepository
	Results     repository.AIResultRepository
	Contexts    AssignmentContextProvider
	Registry    *prediction.Registry
	Comments    ai.CommentGenerator
	Publisher   ScoreEventPublisher
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	students    repository.StudentRepository
	results     repository.AIResultRepository
	contexts    AssignmentContextProvider
	registry    *prediction.Registry
	comments    ai.CommentGenerator
	publisher   ScoreEventPublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(deps SubmissionDependencies, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = NewNoopScoreEventPublisher()
	}

	return &submissionService{
		submissions: deps.Submissions,
		assignments: deps.Assignments,
		students:    deps.Students,
		results:     deps.Results,
		contexts:    deps.Contexts,
		registry:    deps.Registry,
		comments:    deps.Comments,
		publisher:   publisher,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/edumate-go-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		AssignmentID: filter.AssignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) SubmitFile(ctx context.Context, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResultResponse, error) {
	if file == nil {
		return dto.SubmissionResultResponse{}, fmt.Errorf("%w: file is required", ErrInvalidSubmissionFile)
	}

	text, err := readTextFile(file)
	if err != nil {
		return dto.SubmissionResultResponse{}, err
	}

	payload.Text = text
	return s.Submit(ctx, payload)
}

// Submit stores the answer and runs the grading pipeline over it.
func (s *submissionService) Submit(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int("submission.assignment_id", int(payload.AssignmentID)),
		attribute.Int("submission.student_id", int(payload.StudentID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResultResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment_lookup_failed")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResultResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResultResponse{}, err
	}

	exists, err := s.students.Exists(ctx, payload.StudentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "student_lookup_failed")
		return dto.SubmissionResultResponse{}, err
	}
	if !exists {
		span.SetStatus(codes.Error, "student_not_found")
		return dto.SubmissionResultResponse{}, ErrStudentNotFound
	}

	assignmentCtx, err := s.contexts.Context(ctx, assignment.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "context_lookup_failed")
		return dto.SubmissionResultResponse{}, err
	}

	submission, err := s.submissions.Latest(ctx, assignment.ID, payload.StudentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResultResponse{}, err
	}

	// A resubmission replaces the previous answer and its teacher review.
	submittedAt := s.now().UTC()
	submission.AssignmentID = assignment.ID
	submission.StudentID = payload.StudentID
	submission.Text = payload.Text
	submission.StartedAt = payload.StartedAt
	submission.SubmittedAt = &submittedAt
	submission.IsLate = assignment.IsPastDue(submittedAt)
	submission.TeacherFeedback = ""
	span.SetAttributes(
		attribute.Bool("submission.resubmitted", submission.ID != 0),
		attribute.Bool("submission.late", submission.IsLate),
	)

	history, err := s.submissions.PriorTexts(ctx, submission.StudentID, submission.ID, historyLimit)
	if err != nil {
		s.logger.Warn().Err(err).Uint("student_id", submission.StudentID).Msg("failed to load submission history")
		history = nil
	}

	vector := features.Build(features.Input{
		Text:           submission.Text,
		Description:    assignment.Description,
		ExpectedAnswer: assignment.ExpectedAnswer,
		Context: topic.Context{
			Topic:      topic.Topic(assignmentCtx.Topic),
			Difficulty: assignmentCtx.Difficulty,
		},
		StartedAt:   submission.StartedAt,
		SubmittedAt: submission.SubmittedAt,
		History:     history,
	})

	result, predictErr := s.predict(vector)
	grade := prediction.GradeOrSentinel(result, predictErr)
	rubricPoints := int(vector.Value(features.RubricPoints))
	criteria := feedback.EvaluateCriteria(vector)

	submission.Status = models.SubmissionStatusScored
	submission.PredictedGrade = grade
	submission.RubricPoints = rubricPoints

	score := s.buildScore(vector, result, predictErr)
	comment := s.teacherComment(ctx, assignment, submission, assignmentCtx, criteria)

	if err := s.results.SaveScored(ctx, &submission, &score, &comment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result_persist_failed")
		return dto.SubmissionResultResponse{}, err
	}
	span.SetAttributes(attribute.Int("submission.id", int(submission.ID)))

	if err := s.publisher.Publish(ctx, ScoreEvent{
		Type:         EventSubmissionScored,
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Grade:        grade,
		Score:        score.PredictedScore,
		Band:         grade,
		RubricPoints: rubricPoints,
		ModelVersion: score.ModelVersion,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish score event")
	}

	span.SetAttributes(attribute.String("submission.grade", grade))
	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("grade", grade).
		Int("rubric_points", rubricPoints).
		Bool("late", submission.IsLate).
		Msg("submission scored")

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResultResponse{}, err
	}

	return dto.SubmissionResultResponse{
		Submission: dto.NewSubmissionResponse(created),
		Score:      dto.NewAIScoreResponse(score),
		Feedback:   dto.NewAIFeedbackResponse(comment),
		Criteria:   criteria,
	}, nil
}

func (s *submissionService) predict(vector features.Vector) (prediction.Result, error) {
	if s.registry == nil {
		return prediction.Result{}, prediction.ErrModelUnavailable
	}

	predictor, err := s.registry.Predictor()
	if err != nil {
		observability.GradePredictions().WithLabelValues("unavailable").Inc()
		return prediction.Result{}, err
	}

	result, err := predictor.Predict(vector.Map())
	if err != nil {
		observability.GradePredictions().WithLabelValues("failed").Inc()
		s.logger.Warn().Err(err).Msg("grade prediction failed, storing sentinel grade")
		return prediction.Result{}, err
	}

	observability.GradePredictions().WithLabelValues(result.Grade).Inc()
	return result, nil
}

func (s *submissionService) buildScore(vector features.Vector, result prediction.Result, predictErr error) models.AIScore {
	points := vector.Value(features.RubricPoints)
	score := models.AIScore{
		PredictedScore: &points,
		PredictedBand:  prediction.GradeOrSentinel(result, predictErr),
		Confidence:     result.Confidence,
		ModelVersion:   result.ModelVersion,
		ModelUsed:      gradeModelName,
		AnalysisData:   datatypes.JSONMap(vector.Map()),
		PredictedAt:    s.now().UTC(),
	}

	if predictErr != nil {
		score.Reason = fmt.Sprintf("grade unavailable: %v", predictErr)
	} else {
		score.Reason = fmt.Sprintf("predicted by grade model %s", result.ModelVersion)
	}

	return score
}

func (s *submissionService) teacherComment(ctx context.Context, assignment models.Assignment, submission models.Submission, assignmentCtx dto.AssignmentContextResponse, criteria feedback.Criteria) models.AIFeedback {
	record := models.AIFeedback{
		FeedbackText:           feedback.DefaultTeacherComment,
		FeedbackType:           models.FeedbackTypeTeacherComment,
		CriteriaMet:            dto.JoinCriteria(criteria.Met),
		CriteriaMissed:         dto.JoinCriteria(criteria.Missed),
		ImprovementSuggestions: dto.JoinSuggestions(criteria.Improvements),
		ModelUsed:              teacherFeedbackModel,
	}

	if s.comments == nil {
		return record
	}

	commentCtx, cancel := context.WithTimeout(ctx, commentTimeout)
	defer cancel()

	comment, err := s.comments.GenerateComment(commentCtx, ai.CommentInput{
		Subject:        assignment.Subject,
		Topic:          assignmentCtx.Topic,
		Difficulty:     assignmentCtx.Difficulty,
		AssignmentText: assignment.Description,
		Submission:     submission.Text,
		PredictedGrade: submission.PredictedGrade,
		RubricPoints:   submission.RubricPoints,
		CriteriaMet:    criteria.Met,
		CriteriaMissed: criteria.Missed,
		Improvements:   criteria.Improvements,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("teacher comment generation failed, using default")
		return record
	}

	record.FeedbackText = comment
	record.ModelUsed = s.comments.Model()
	return record
}

func (s *submissionService) Feedback(ctx context.Context, id uint) (dto.SubmissionFeedbackResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionFeedbackResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionFeedbackResponse{}, err
	}

	response := dto.SubmissionFeedbackResponse{
		SubmissionID:   submission.ID,
		PredictedGrade: submission.PredictedGrade,
		Feedback:       []dto.AIFeedbackResponse{},
	}

	score, err := s.results.LatestScore(ctx, submission.ID)
	switch {
	case err == nil:
		converted := dto.NewAIScoreResponse(score)
		response.Score = &converted
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.SubmissionFeedbackResponse{}, err
	}

	entries, err := s.results.ListFeedback(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionFeedbackResponse{}, err
	}
	for _, entry := range entries {
		response.Feedback = append(response.Feedback, dto.NewAIFeedbackResponse(entry))
	}

	return response, nil
}

func (s *submissionService) SaveFeedback(ctx context.Context, id uint, payload dto.SaveFeedbackRequest) (dto.AIFeedbackResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AIFeedbackResponse{}, err
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(payload.FeedbackText))
	if text == "" {
		return dto.AIFeedbackResponse{}, ErrEmptyFeedback
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AIFeedbackResponse{}, ErrSubmissionNotFound
		}
		return dto.AIFeedbackResponse{}, err
	}

	record := models.AIFeedback{
		SubmissionID: submission.ID,
		FeedbackText: text,
		FeedbackType: models.FeedbackTypeTeacherSaved,
	}
	if err := s.results.CreateFeedback(ctx, &record); err != nil {
		return dto.AIFeedbackResponse{}, err
	}

	submission.TeacherFeedback = text
	submission.Status = models.SubmissionStatusReviewed
	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.AIFeedbackResponse{}, err
	}

	if err := s.publisher.Publish(ctx, ScoreEvent{
		Type:         EventFeedbackSaved,
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Grade:        submission.PredictedGrade,
		RubricPoints: submission.RubricPoints,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish feedback event")
	}

	s.logger.Info().Uint("submission_id", submission.ID).Msg("teacher feedback saved")
	return dto.NewAIFeedbackResponse(record), nil
}

func readTextFile(file *multipart.FileHeader) (string, error) {
	if file.Size > maxSubmissionFileBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidSubmissionFile, maxSubmissionFileBytes)
	}

	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(io.LimitReader(reader, maxSubmissionFileBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) > maxSubmissionFileBytes {
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidSubmissionFile, maxSubmissionFileBytes)
	}

	detected := mimetype.Detect(content)
	if !isTextMIME(detected) || !utf8.Valid(content) {
		return "", fmt.Errorf("%w: got %s", ErrInvalidSubmissionFile, detected.String())
	}

	return strings.TrimPrefix(string(content), "\ufeff"), nil
}

// isTextMIME accepts text/plain and every detected refinement of it, such as
// text/csv for answers laid out in comma separated columns.
func isTextMIME(detected *mimetype.MIME) bool {
	for mime := detected; mime != nil; mime = mime.Parent() {
		if strings.HasPrefix(mime.String(), "text/") {
			return true
		}
	}
	return false
}
