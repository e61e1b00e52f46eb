package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/homework-assistant-api/internal/dto"
	"github.com/noah-isme/homework-assistant-api/internal/models"
)

func createAlgebra(t *testing.T, srv *testServer, teacherToken string) dto.HomeworkResponse {
	t.Helper()

	status, env := srv.call(t, http.MethodPost, "/assignments", teacherToken, map[string]string{
		"title":       "Algebra 1",
		"description": "Solve exercises 1-10",
		"duedate":     "2024-06-01",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	require.Equal(t, "Assignment created successfully", env.Message)

	var homework dto.HomeworkResponse
	decode(t, env.Data, &homework)
	return homework
}

func studentAssignments(t *testing.T, srv *testServer, token string) []dto.StudentAssignmentResponse {
	t.Helper()

	status, env := srv.call(t, http.MethodGet, "/assignments", token, nil)
	require.Equal(t, http.StatusOK, status, env.Message)

	var assignments []dto.StudentAssignmentResponse
	decode(t, env.Data, &assignments)
	return assignments
}

func TestHomeworkLifecycle(t *testing.T) {
	srv := newTestServer(t)
	teacher := srv.signUp(t, "Ms Rivera", "teacher")
	alice := srv.signUp(t, "Alice", "student")
	bob := srv.signUp(t, "Bob", "student")

	homework := createAlgebra(t, srv, teacher)
	require.NotNil(t, homework.AssignedCount)
	require.Equal(t, 2, *homework.AssignedCount)
	require.Equal(t, "2024-06-01", homework.DueDate)

	aliceAssignments := studentAssignments(t, srv, alice)
	require.Len(t, aliceAssignments, 1)
	require.Equal(t, "Algebra 1", aliceAssignments[0].Title)
	require.Equal(t, models.StudentHomeworkStatusPending, aliceAssignments[0].Status)
	require.Len(t, studentAssignments(t, srv, bob), 1)

	status, env := srv.call(t, http.MethodPost, "/submit", alice, map[string]interface{}{
		"studenthomeworkid": aliceAssignments[0].StudentHomeworkID,
		"content":           "done",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var submitted dto.SubmitResponse
	decode(t, env.Data, &submitted)
	require.Equal(t, models.StudentHomeworkStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmissionDate)

	status, env = srv.call(t, http.MethodGet, fmt.Sprintf("/submissions/%d", homework.ID), teacher, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var review []dto.SubmissionReviewResponse
	decode(t, env.Data, &review)
	require.Len(t, review, 2)

	byName := map[string]dto.SubmissionReviewResponse{}
	for _, row := range review {
		byName[row.StudentName] = row
	}
	require.Equal(t, models.StudentHomeworkStatusSubmitted, byName["Alice"].Status)
	require.NotNil(t, byName["Alice"].Content)
	require.Equal(t, "done", *byName["Alice"].Content)
	require.Equal(t, models.StudentHomeworkStatusPending, byName["Bob"].Status)
	require.Nil(t, byName["Bob"].Content)

	status, env = srv.call(t, http.MethodPatch, fmt.Sprintf("/submissions/%d/grade", aliceAssignments[0].StudentHomeworkID), teacher, map[string]string{
		"grade":    "A",
		"comments": "Neat work",
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var graded dto.GradeResponse
	decode(t, env.Data, &graded)
	require.True(t, graded.Graded)
	require.Equal(t, models.StudentHomeworkStatusSubmitted, graded.Status)

	status, env = srv.call(t, http.MethodGet, fmt.Sprintf("/student-submission/%d", homework.ID), alice, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var view dto.StudentSubmissionResponse
	decode(t, env.Data, &view)
	require.NotNil(t, view.Submission)
	require.Equal(t, "done", view.Submission.Content)
	require.NotNil(t, view.Grade)
	require.Equal(t, "A", *view.Grade)
	require.Equal(t, "Neat work", view.TeacherComments)
}

func TestSubmissionContentSurvivesSpecialCharacters(t *testing.T) {
	srv := newTestServer(t)
	teacher := srv.signUp(t, "Ms Rivera", "teacher")
	alice := srv.signUp(t, "Alice", "student")
	const answer = `x < 5 && y > 2; "Tom's" answer: <b>bold</b>`

	status, env := srv.call(t, http.MethodPost, "/assignments", teacher, map[string]string{
		"title":   "Q&A: x < y",
		"duedate": "2024-06-01",
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var homework dto.HomeworkResponse
	decode(t, env.Data, &homework)
	require.Equal(t, "Q&A: x < y", homework.Title)

	record := studentAssignments(t, srv, alice)[0]
	require.Equal(t, "Q&A: x < y", record.Title)

	status, env = srv.call(t, http.MethodPost, "/submit", alice, map[string]interface{}{
		"studenthomeworkid": record.StudentHomeworkID,
		"content":           answer,
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = srv.call(t, http.MethodGet, fmt.Sprintf("/submissions/%d", homework.ID), teacher, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var review []dto.SubmissionReviewResponse
	decode(t, env.Data, &review)
	require.Len(t, review, 1)
	require.NotNil(t, review[0].Content)
	require.Equal(t, answer, *review[0].Content)

	status, env = srv.call(t, http.MethodGet, fmt.Sprintf("/student-submission/%d", homework.ID), alice, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var view dto.StudentSubmissionResponse
	decode(t, env.Data, &view)
	require.NotNil(t, view.Submission)
	require.Equal(t, answer, view.Submission.Content)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)
	srv.signUp(t, "Alice", "student")

	status, env := srv.call(t, http.MethodPost, "/register", "", map[string]string{
		"name": "Alice Again", "email": "ALICE@school.test", "password": "pw", "role": "student",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Email already registered", env.Message)

	status, env = srv.call(t, http.MethodPost, "/register", "", map[string]string{
		"name": "Mallory", "email": "mallory@school.test", "password": "pw", "role": "admin",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, `Invalid role. Must be either "teacher" or "student"`, env.Message)
}

func TestLoginWithWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	srv.signUp(t, "Alice", "student")

	status, env := srv.call(t, http.MethodPost, "/login", "", map[string]string{
		"email": "alice@school.test", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Invalid credentials", env.Message)
	require.False(t, env.Success)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.call(t, http.MethodGet, "/assignments", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = srv.call(t, http.MethodGet, "/assignments", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestRoleChecks(t *testing.T) {
	srv := newTestServer(t)
	teacher := srv.signUp(t, "Ms Rivera", "teacher")
	other := srv.signUp(t, "Mr Chen", "teacher")
	alice := srv.signUp(t, "Alice", "student")

	homework := createAlgebra(t, srv, teacher)

	status, _ := srv.call(t, http.MethodPost, "/assignments", alice, map[string]string{
		"title": "Sneaky", "duedate": "2030-01-01",
	})
	require.Equal(t, http.StatusForbidden, status)

	status, _ = srv.call(t, http.MethodGet, fmt.Sprintf("/submissions/%d", homework.ID), alice, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, env := srv.call(t, http.MethodGet, fmt.Sprintf("/submissions/%d", homework.ID), other, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Unauthorized", env.Message)

	status, _ = srv.call(t, http.MethodPost, "/submit", teacher, map[string]interface{}{"studenthomeworkid": 1, "content": "x"})
	require.Equal(t, http.StatusForbidden, status)
}

func TestCreateAssignmentValidation(t *testing.T) {
	srv := newTestServer(t)
	teacher := srv.signUp(t, "Ms Rivera", "teacher")

	status, env := srv.call(t, http.MethodPost, "/assignments", teacher, map[string]string{
		"title": "Algebra 1", "duedate": "June 1st",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.False(t, env.Success)

	status, _ = srv.call(t, http.MethodPost, "/assignments", teacher, map[string]string{
		"duedate": "2030-06-01",
	})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestSubmitToAnotherStudentsRecordIsForbidden(t *testing.T) {
	srv := newTestServer(t)
	teacher := srv.signUp(t, "Ms Rivera", "teacher")
	alice := srv.signUp(t, "Alice", "student")
	bob := srv.signUp(t, "Bob", "student")
	createAlgebra(t, srv, teacher)

	aliceRecord := studentAssignments(t, srv, alice)[0]

	status, env := srv.call(t, http.MethodPost, "/submit", bob, map[string]interface{}{
		"studenthomeworkid": aliceRecord.StudentHomeworkID,
		"content":           "mine now",
	})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Unauthorized", env.Message)

	status, _ = srv.call(t, http.MethodPost, "/submit", bob, map[string]interface{}{
		"studenthomeworkid": 9999,
		"content":           "ghost",
	})
	require.Equal(t, http.StatusNotFound, status)
}

func TestAIHelpLogsInteraction(t *testing.T) {
	srv := newTestServer(t)
	teacher := srv.signUp(t, "Ms Rivera", "teacher")
	alice := srv.signUp(t, "Alice", "student")
	homework := createAlgebra(t, srv, teacher)
	record := studentAssignments(t, srv, alice)[0]

	status, env := srv.call(t, http.MethodPost, "/ai-help", alice, map[string]interface{}{
		"query":             "How do I solve 2x + 3 = 7?",
		"studenthomeworkid": record.StudentHomeworkID,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var answer dto.AIHelpResponse
	decode(t, env.Data, &answer)
	require.Equal(t, "Start by isolating x.", answer.Response)

	status, env = srv.call(t, http.MethodGet, fmt.Sprintf("/student-submission/%d", homework.ID), alice, nil)
	require.Equal(t, http.StatusOK, status)
	var view dto.StudentSubmissionResponse
	decode(t, env.Data, &view)
	require.Nil(t, view.Submission)
	require.Len(t, view.AIInteractions, 1)
	require.Equal(t, "How do I solve 2x + 3 = 7?", view.AIInteractions[0].Query)
}

func TestAIHelpFailureWritesNothing(t *testing.T) {
	srv := newTestServer(t)
	teacher := srv.signUp(t, "Ms Rivera", "teacher")
	alice := srv.signUp(t, "Alice", "student")
	createAlgebra(t, srv, teacher)
	record := studentAssignments(t, srv, alice)[0]

	for _, reply := range []struct {
		answer string
		err    error
	}{
		{answer: "   "},
		{err: errors.New("upstream timeout")},
	} {
		srv.assistant.reply(reply.answer, reply.err)

		status, env := srv.call(t, http.MethodPost, "/ai-help", alice, map[string]interface{}{
			"query":             "Explain factoring",
			"studenthomeworkid": record.StudentHomeworkID,
		})
		require.Equal(t, http.StatusInternalServerError, status)
		require.Equal(t, "Failed to get AI assistance. Please try again.", env.Message)
	}

	var count int64
	require.NoError(t, srv.db.Model(&models.AIInteraction{}).Count(&count).Error)
	require.Zero(t, count)

	status, _ := srv.call(t, http.MethodPost, "/ai-help", alice, map[string]interface{}{
		"query":             "Anything",
		"studenthomeworkid": 4242,
	})
	require.Equal(t, http.StatusNotFound, status)
	require.Len(t, srv.assistant.queries, 2)
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "Alice", "student")

	resp, _ := srv.do(t, http.MethodGet, "/logout", alice, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	status, _ := srv.call(t, http.MethodGet, "/assignments", alice, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	status, env := srv.call(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)

	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Service  string `json:"service"`
	}
	decode(t, env.Data, &health)
	require.Equal(t, "healthy", health.Status)
	require.Equal(t, "connected", health.Database)
	require.Equal(t, "homework-test", health.Service)
}
