package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/dto"
	"github.com/noah-isme/edumate-go-api/internal/grading/feedback"
	"github.com/noah-isme/edumate-go-api/internal/grading/prediction"
	"github.com/noah-isme/edumate-go-api/internal/models"
	"github.com/noah-isme/edumate-go-api/internal/repository"
	"github.com/noah-isme/edumate-go-api/pkg/ai"
)

const equationAnswer = "2x + 5 = 11\n2x = 6\nx = 3"

type submissionFixture struct {
	db         *gorm.DB
	svc        SubmissionService
	publisher  *recordingPublisher
	comments   *stubCommentGenerator
	student    models.Student
	assignment dto.AssignmentResponse
}

func newSubmissionFixture(t *testing.T, registry *prediction.Registry, comments *stubCommentGenerator) submissionFixture {
	t.Helper()
	db := setupTestDB(t)
	validate := newValidator()

	assignments := NewAssignmentService(repository.NewAssignmentRepository(db), nil, time.Minute, validate, zerolog.Nop())
	assignment, err := assignments.Create(context.Background(), dto.AssignmentCreateRequest{
		Title:          "Linjär ekvation",
		Description:    "Lös ekvationen 2x + 5 = 11",
		Subject:        "mathematics",
		ExpectedAnswer: "x = 3",
	})
	require.NoError(t, err)

	student := models.Student{Name: "Elsa", Email: "elsa@example.com"}
	require.NoError(t, db.Create(&student).Error)

	publisher := &recordingPublisher{}
	deps := SubmissionDependencies{
		Submissions: repository.NewSubmissionRepository(db),
		Assignments: repository.NewAssignmentRepository(db),
		Students:    repository.NewStudentRepository(db),
		Results:     repository.NewAIResultRepository(db),
		Contexts:    assignments,
		Registry:    registry,
		Publisher:   publisher,
	}
	if comments != nil {
		deps.Comments = comments
	}

	return submissionFixture{
		db:         db,
		svc:        NewSubmissionService(deps, validate, zerolog.Nop()),
		publisher:  publisher,
		comments:   comments,
		student:    student,
		assignment: assignment,
	}
}

func (fx submissionFixture) request(text string) dto.SubmissionCreateRequest {
	return dto.SubmissionCreateRequest{
		AssignmentID: fx.assignment.ID,
		StudentID:    fx.student.ID,
		Text:         text,
	}
}

func TestSubmissionServiceSubmitScoresAndStoresComment(t *testing.T) {
	comments := &stubCommentGenerator{comment: "Bra början, men förklara varje steg."}
	fx := newSubmissionFixture(t, fixtureRegistry(t), comments)

	result, err := fx.svc.Submit(context.Background(), fx.request(equationAnswer))
	require.NoError(t, err)

	require.Equal(t, "C", result.Submission.PredictedGrade)
	require.Equal(t, 60, result.Submission.RubricPoints)
	require.Equal(t, models.SubmissionStatusScored, result.Submission.Status)
	require.NotNil(t, result.Submission.SubmittedAt)
	require.Equal(t, "Linjär ekvation", result.Submission.Assignment.Title)
	require.Equal(t, "Elsa", result.Submission.Student.Name)

	require.Equal(t, "C", result.Score.PredictedBand)
	require.Equal(t, 60.0, *result.Score.PredictedScore)
	require.Equal(t, "2024.05-fixture", result.Score.ModelVersion)
	require.Equal(t, gradeModelName, result.Score.ModelUsed)

	require.Equal(t, "Bra början, men förklara varje steg.", result.Feedback.FeedbackText)
	require.Equal(t, models.FeedbackTypeTeacherComment, result.Feedback.FeedbackType)
	require.Equal(t, "stub-model", result.Feedback.ModelUsed)
	require.Equal(t, []string{"Korrekt metodval"}, result.Feedback.CriteriaMet)
	require.Equal(t, result.Criteria.Missed, result.Feedback.CriteriaMissed)

	require.Len(t, comments.inputs, 1)
	input := comments.inputs[0]
	require.Equal(t, "Ekvationer", input.Topic)
	require.Equal(t, 1, input.Difficulty)
	require.Equal(t, "C", input.PredictedGrade)
	require.Equal(t, 60, input.RubricPoints)

	require.Len(t, fx.publisher.events, 1)
	event := fx.publisher.events[0]
	require.Equal(t, EventSubmissionScored, event.Type)
	require.Equal(t, result.Submission.ID, event.SubmissionID)
	require.Equal(t, "C", event.Grade)
}

func TestSubmissionServiceSubmitFallsBackToDefaultComment(t *testing.T) {
	comments := &stubCommentGenerator{err: errors.New("upstream timeout")}
	fx := newSubmissionFixture(t, fixtureRegistry(t), comments)

	result, err := fx.svc.Submit(context.Background(), fx.request(equationAnswer))
	require.NoError(t, err)
	require.Equal(t, feedback.DefaultTeacherComment, result.Feedback.FeedbackText)
	require.Equal(t, teacherFeedbackModel, result.Feedback.ModelUsed)
}

func TestSubmissionServiceSubmitWithoutModelStoresSentinel(t *testing.T) {
	fx := newSubmissionFixture(t, prediction.NewRegistry(t.TempDir(), zerolog.Nop()), nil)

	result, err := fx.svc.Submit(context.Background(), fx.request(equationAnswer))
	require.NoError(t, err)
	require.Equal(t, prediction.NotAvailable, result.Submission.PredictedGrade)
	require.Equal(t, prediction.NotAvailable, result.Score.PredictedBand)
	require.Equal(t, 60, result.Submission.RubricPoints)
	require.Contains(t, result.Score.Reason, "grade unavailable")
	require.Equal(t, feedback.DefaultTeacherComment, result.Feedback.FeedbackText)
}

func TestSubmissionServiceSubmitRejectsInvalidRequests(t *testing.T) {
	fx := newSubmissionFixture(t, fixtureRegistry(t), nil)

	_, err := fx.svc.Submit(context.Background(), fx.request(""))
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	unknownStudent := fx.request(equationAnswer)
	unknownStudent.StudentID = 999
	_, err = fx.svc.Submit(context.Background(), unknownStudent)
	require.ErrorIs(t, err, ErrStudentNotFound)

	unknownAssignment := fx.request(equationAnswer)
	unknownAssignment.AssignmentID = 999
	_, err = fx.svc.Submit(context.Background(), unknownAssignment)
	require.ErrorIs(t, err, ErrAssignmentNotFound)


	var count int64
	require.NoError(t, fx.db.Model(&models.Submission{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmissionServiceSubmitAfterDueDateIsMarkedLate(t *testing.T) {
	fx := newSubmissionFixture(t, fixtureRegistry(t), nil)

	due := time.Now().Add(-time.Hour)
	closed := models.Assignment{Title: "Stängd", Description: "Beräkna 20% av 150", Subject: "mathematics", DueDate: &due}
	require.NoError(t, fx.db.Create(&closed).Error)

	late := fx.request(equationAnswer)
	late.AssignmentID = closed.ID
	result, err := fx.svc.Submit(context.Background(), late)
	require.NoError(t, err)
	require.True(t, result.Submission.IsLate)
	require.Equal(t, models.SubmissionStatusScored, result.Submission.Status)

	onTime, err := fx.svc.Submit(context.Background(), fx.request(equationAnswer))
	require.NoError(t, err)
	require.False(t, onTime.Submission.IsLate)
}

func TestSubmissionServiceResubmissionUpdatesExistingRow(t *testing.T) {
	fx := newSubmissionFixture(t, fixtureRegistry(t), nil)

	first, err := fx.svc.Submit(context.Background(), fx.request(equationAnswer))
	require.NoError(t, err)
	_, err = fx.svc.SaveFeedback(context.Background(), first.Submission.ID, dto.SaveFeedbackRequest{FeedbackText: "Visa kontrollen"})
	require.NoError(t, err)

	revised := equationAnswer + "
Kontroll: 2*3 + 5 = 11"
	second, err := fx.svc.Submit(context.Background(), fx.request(revised))
	require.NoError(t, err)
	require.Equal(t, first.Submission.ID, second.Submission.ID)
	require.Equal(t, revised, second.Submission.Text)
	require.Equal(t, models.SubmissionStatusScored, second.Submission.Status)
	require.Empty(t, second.Submission.TeacherFeedback)
	require.Equal(t, first.Submission.CreatedAt.Unix(), second.Submission.CreatedAt.Unix())

	var count int64
	require.NoError(t, fx.db.Model(&models.Submission{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var scores int64
	require.NoError(t, fx.db.Model(&models.AIScore{}).Where("submission_id = ?", first.Submission.ID).Count(&scores).Error)
	require.EqualValues(t, 2, scores)
}

type failingResultRepository struct {
	repository.AIResultRepository
	err error
}

func (r failingResultRepository) SaveScored(context.Context, *models.Submission, *models.AIScore, *models.AIFeedback) error {
	return r.err
}

func TestSubmissionServiceSubmitLeavesNoRowWhenPersistFails(t *testing.T) {
	db := setupTestDB(t)
	validate := newValidator()
	assignments := NewAssignmentService(repository.NewAssignmentRepository(db), nil, time.Minute, validate, zerolog.Nop())
	assignment, err := assignments.Create(context.Background(), dto.AssignmentCreateRequest{
		Title:       "Linjär ekvation",
		Description: "Lös ekvationen 2x + 5 = 11",
		Subject:     "mathematics",
	})
	require.NoError(t, err)
	student := models.Student{Name: "Elsa", Email: "elsa@example.com"}
	require.NoError(t, db.Create(&student).Error)

	publisher := &recordingPublisher{}
	persistErr := errors.New("database is read only")
	svc := NewSubmissionService(SubmissionDependencies{
		Submissions: repository.NewSubmissionRepository(db),
		Assignments: repository.NewAssignmentRepository(db),
		Students:    repository.NewStudentRepository(db),
		Results:     failingResultRepository{AIResultRepository: repository.NewAIResultRepository(db), err: persistErr},
		Contexts:    assignments,
		Registry:    fixtureRegistry(t),
		Publisher:   publisher,
	}, validate, zerolog.Nop())

	request := dto.SubmissionCreateRequest{AssignmentID: assignment.ID, StudentID: student.ID, Text: equationAnswer}
	_, err = svc.Submit(context.Background(), request)
	require.ErrorIs(t, err, persistErr)

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.Zero(t, count)
	require.Empty(t, publisher.events)
}

func TestSubmissionServiceSubmitFile(t *testing.T) {
	fx := newSubmissionFixture(t, fixtureRegistry(t), nil)

	header := buildFileHeader(t, "losning.txt", []byte("\ufeff"+equationAnswer))
	result, err := fx.svc.SubmitFile(context.Background(), fx.request(""), header)
	require.NoError(t, err)
	require.Equal(t, equationAnswer, result.Submission.Text)
	require.Equal(t, "C", result.Submission.PredictedGrade)

	binary := buildFileHeader(t, "bild.png", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	_, err = fx.svc.SubmitFile(context.Background(), fx.request(""), binary)
	require.ErrorIs(t, err, ErrInvalidSubmissionFile)

	_, err = fx.svc.SubmitFile(context.Background(), fx.request(""), nil)
	require.ErrorIs(t, err, ErrInvalidSubmissionFile)

	table := buildFileHeader(t, "tabell.txt", []byte("x,y\n1,7\n2,9\n3,11\n"))
	tabular, err := fx.svc.SubmitFile(context.Background(), fx.request(""), table)
	require.NoError(t, err)
	require.Equal(t, "x,y\n1,7\n2,9\n3,11\n", tabular.Submission.Text)
}

func TestSubmissionServiceFeedbackLifecycle(t *testing.T) {
	fx := newSubmissionFixture(t, fixtureRegistry(t), nil)

	result, err := fx.svc.Submit(context.Background(), fx.request(equationAnswer))
	require.NoError(t, err)
	id := result.Submission.ID

	stored, err := fx.svc.Feedback(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "C", stored.PredictedGrade)
	require.NotNil(t, stored.Score)
	require.Equal(t, "C", stored.Score.PredictedBand)
	require.Len(t, stored.Feedback, 1)

	saved, err := fx.svc.SaveFeedback(context.Background(), id, dto.SaveFeedbackRequest{
		FeedbackText: "<script>alert('x')</script>Bra jobbat",
	})
	require.NoError(t, err)
	require.Equal(t, "Bra jobbat", saved.FeedbackText)
	require.Equal(t, models.FeedbackTypeTeacherSaved, saved.FeedbackType)

	var submission models.Submission
	require.NoError(t, fx.db.First(&submission, id).Error)
	require.Equal(t, models.SubmissionStatusReviewed, submission.Status)
	require.Equal(t, "Bra jobbat", submission.TeacherFeedback)

	stored, err = fx.svc.Feedback(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, stored.Feedback, 2)

	require.Len(t, fx.publisher.events, 2)
	require.Equal(t, EventFeedbackSaved, fx.publisher.events[1].Type)

	_, err = fx.svc.SaveFeedback(context.Background(), id, dto.SaveFeedbackRequest{FeedbackText: "<b></b>"})
	require.ErrorIs(t, err, ErrEmptyFeedback)

	_, err = fx.svc.SaveFeedback(context.Background(), 999, dto.SaveFeedbackRequest{FeedbackText: "Bra jobbat"})
	require.ErrorIs(t, err, ErrSubmissionNotFound)

	_, err = fx.svc.Feedback(context.Background(), 999)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionServiceFeedbackWithoutScore(t *testing.T) {
	fx := newSubmissionFixture(t, fixtureRegistry(t), nil)
	submission := models.Submission{AssignmentID: fx.assignment.ID, StudentID: fx.student.ID, Text: equationAnswer, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, fx.db.Create(&submission).Error)

	stored, err := fx.svc.Feedback(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Nil(t, stored.Score)
	require.Empty(t, stored.Feedback)
}

func TestSubmissionServiceListFilters(t *testing.T) {
	fx := newSubmissionFixture(t, fixtureRegistry(t), nil)

	_, err := fx.svc.Submit(context.Background(), fx.request(equationAnswer))
	require.NoError(t, err)
	pending := models.Submission{AssignmentID: fx.assignment.ID, StudentID: fx.student.ID, Text: "utkast", Status: models.SubmissionStatusSubmitted}
	require.NoError(t, fx.db.Create(&pending).Error)

	all, err := fx.svc.List(context.Background(), dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, pending.ID, all[0].ID)

	scored := models.SubmissionStatusScored
	filtered, err := fx.svc.List(context.Background(), dto.SubmissionFilter{Status: &scored})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "C", filtered[0].PredictedGrade)

	bogus := "graded"
	_, err = fx.svc.List(context.Background(), dto.SubmissionFilter{Status: &bogus})
	require.Error(t, err)
}

func buildFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}

var _ ai.CommentGenerator = (*stubCommentGenerator)(nil)
