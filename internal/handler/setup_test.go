package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/homework-assistant-api/internal/config"
	"github.com/noah-isme/homework-assistant-api/internal/database"
	"github.com/noah-isme/homework-assistant-api/internal/handler"
	"github.com/noah-isme/homework-assistant-api/internal/middleware"
	"github.com/noah-isme/homework-assistant-api/internal/repository"
	"github.com/noah-isme/homework-assistant-api/internal/router"
	"github.com/noah-isme/homework-assistant-api/internal/service"
	"github.com/noah-isme/homework-assistant-api/pkg/ai"
)

const testSecret = "handler-test-secret"

type stubAssistant struct {
	mu      sync.Mutex
	answer  string
	err     error
	queries []string
}

func (s *stubAssistant) Ask(_ context.Context, _ string, query string) (ai.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, query)
	if s.err != nil {
		return ai.Answer{}, s.err
	}
	return ai.Answer{Text: s.answer, Model: "stub"}, nil
}

func (s *stubAssistant) reply(answer string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = answer
	s.err = err
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Details map[string]interface{} `json:"details"`
}

type testServer struct {
	app       *fiber.App
	db        *gorm.DB
	assistant *stubAssistant
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := repository.NewMemoryTokenStore()
	assistant := &stubAssistant{answer: "Start by isolating x."}

	users := repository.NewUserRepository(db)
	homework := repository.NewHomeworkRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	interactions := repository.NewAIInteractionRepository(db)

	authService := service.NewAuthService(users, validate, service.AuthConfig{
		Secret:     testSecret,
		HashCost:   4,
		Revocation: tokens,
	}, logger)
	assignmentService := service.NewAssignmentService(homework, validate, nil, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Homework:     homework,
		Submissions:  submissions,
		Interactions: interactions,
	}, validate, logger)
	aiHelpService := service.NewAIHelpService(homework, service.NewInteractionLog(interactions, logger), assistant, validate, service.AIHelpOptions{}, logger)

	cfg := config.Config{AppName: "homework-test", AppEnv: "test"}
	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		AIHelpHandler:     handler.NewAIHelpHandler(aiHelpService, 100, logger),
		HealthHandler:     handler.HealthCheck(cfg, db),
		JWTMiddleware:     middleware.JWTProtected(testSecret, tokens),
	})

	return &testServer{app: app, db: db, assistant: assistant}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (s *testServer) call(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	resp, raw := s.do(t, method, path, token, body)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

// signUp registers and logs in a user, returning the bearer token.
func (s *testServer) signUp(t *testing.T, name, role string) string {
	t.Helper()

	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@school.test"
	status, env := s.call(t, http.MethodPost, "/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "correct horse",
		"role":     role,
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = s.call(t, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": "correct horse",
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	var login struct {
		Token    string `json:"token"`
		Redirect string `json:"redirect"`
	}
	decode(t, env.Data, &login)
	require.NotEmpty(t, login.Token)
	require.Equal(t, "/dashboard", login.Redirect)
	return login.Token
}

func decode(t *testing.T, raw json.RawMessage, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, target), string(raw))
}
