package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edumate-go-api/internal/dto"
	"github.com/noah-isme/edumate-go-api/internal/models"
)

const equationAnswer = "2x + 5 = 11\n2x = 6\nx = 3"

func seedAssignment(t *testing.T, env testApp) (models.Assignment, models.Student) {
	t.Helper()
	student := models.Student{Name: "Elsa", Email: "elsa@example.com"}
	require.NoError(t, env.db.Create(&student).Error)
	assignment := models.Assignment{
		Title:          "Linjär ekvation",
		Description:    "Lös ekvationen 2x + 5 = 11",
		Subject:        "mathematics",
		ExpectedAnswer: "x = 3",
		Topic:          "Ekvationer",
		Difficulty:     1,
	}
	require.NoError(t, env.db.Create(&assignment).Error)
	return assignment, student
}

func uploadRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v2/submissions/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestSubmissionHandlerSubmitJSON(t *testing.T) {
	env := setupApp(t, appOptions{role: "student"})
	assignment, student := seedAssignment(t, env)

	resp := env.do(t, http.MethodPost, "/api/v2/submissions", dto.SubmissionCreateRequest{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		Text:         equationAnswer,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result dto.SubmissionResultResponse
	decodeEnvelope(t, resp, &result)
	require.Equal(t, "C", result.Submission.PredictedGrade)
	require.Equal(t, 60, result.Submission.RubricPoints)
	require.Equal(t, models.SubmissionStatusScored, result.Submission.Status)
	require.NotEmpty(t, result.Feedback.FeedbackText)
	require.Equal(t, []string{"Korrekt metodval"}, result.Criteria.Met)

	resp = env.do(t, http.MethodPost, "/api/v2/submissions", dto.SubmissionCreateRequest{
		AssignmentID: 999,
		StudentID:    student.ID,
		Text:         equationAnswer,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v2/submissions", dto.SubmissionCreateRequest{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerUpload(t *testing.T) {
	env := setupApp(t, appOptions{role: "student"})
	assignment, student := seedAssignment(t, env)
	fields := map[string]string{
		"assignment_id": itoa(assignment.ID),
		"student_id":    itoa(student.ID),
		"started_at":    "2024-05-01T10:00:00Z",
	}

	resp, err := env.app.Test(uploadRequest(t, fields, "losning.txt", []byte(equationAnswer)), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result dto.SubmissionResultResponse
	decodeEnvelope(t, resp, &result)
	require.Equal(t, equationAnswer, result.Submission.Text)
	require.NotNil(t, result.Submission.StartedAt)

	resp, err = env.app.Test(uploadRequest(t, fields, "bild.png", append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = env.app.Test(uploadRequest(t, fields, "", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = env.app.Test(uploadRequest(t, map[string]string{"student_id": itoa(student.ID)}, "losning.txt", []byte(equationAnswer)), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bad := map[string]string{"assignment_id": itoa(assignment.ID), "student_id": itoa(student.ID), "started_at": "yesterday"}
	resp, err = env.app.Test(uploadRequest(t, bad, "losning.txt", []byte(equationAnswer)), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerListAndFeedback(t *testing.T) {
	env := setupApp(t, appOptions{role: "teacher"})
	assignment, student := seedAssignment(t, env)

	resp := env.do(t, http.MethodPost, "/api/v2/submissions", dto.SubmissionCreateRequest{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		Text:         equationAnswer,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result dto.SubmissionResultResponse
	decodeEnvelope(t, resp, &result)
	id := itoa(result.Submission.ID)

	resp = env.do(t, http.MethodGet, "/api/v2/submissions?status=scored&assignment_id="+itoa(assignment.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.SubmissionResponse
	decodeEnvelope(t, resp, &list)
	require.Len(t, list, 1)

	resp = env.do(t, http.MethodGet, "/api/v2/submissions?status=graded", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v2/submissions/"+id+"/feedback", dto.SaveFeedbackRequest{FeedbackText: "<i>Bra</i> jobbat med ekvationen"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var saved dto.AIFeedbackResponse
	decodeEnvelope(t, resp, &saved)
	require.Equal(t, "Bra jobbat med ekvationen", saved.FeedbackText)

	resp = env.do(t, http.MethodGet, "/api/v2/submissions/"+id+"/feedback", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stored dto.SubmissionFeedbackResponse
	decodeEnvelope(t, resp, &stored)
	require.Equal(t, "C", stored.PredictedGrade)
	require.NotNil(t, stored.Score)
	require.Len(t, stored.Feedback, 2)

	resp = env.do(t, http.MethodGet, "/api/v2/submissions/999/feedback", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v2/submissions/"+id+"/feedback", dto.SaveFeedbackRequest{FeedbackText: "<p></p>"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandlerSaveFeedbackRequiresStaffRole(t *testing.T) {
	env := setupApp(t, appOptions{role: "student"})

	resp := env.do(t, http.MethodPost, "/api/v2/submissions/1/feedback", dto.SaveFeedbackRequest{FeedbackText: "Bra jobbat"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
