package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/ratelimit"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/memory"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	repo    *memory.Repository
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := memory.NewRepository()
	m := metrics.New()
	logger := utils.NewNopLogger()
	sm := services.NewServiceManager(services.Dependencies{
		Repo:    repo,
		Limiter: ratelimit.Noop{},
		Metrics: m,
		Logger:  logger,
	})

	router := gin.New()
	NewHandlerManager(sm, repo, m, SessionConfig{}, logger).SetupRoutes(router)
	return &testServer{router: router, repo: repo, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, s.router, method, path, session, body)
}

func serve(t *testing.T, router http.Handler, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// quizPayload has one true/false and one multiple choice question. Answering
// {"0": "true", "1": [0]} scores 100%.
func quizPayload() map[string]any {
	return map[string]any{
		"title":     "Capitals",
		"published": true,
		"questions": []map[string]any{
			{"type": "true_false", "question": "Rome is in Italy", "correct_answer": true},
			{"type": "multiple_choice", "question": "Pick Paris", "options": []string{"Paris", "Berlin"}, "correct_answers": []int{0}},
		},
	}
}

func (s *testServer) createQuiz(t *testing.T) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/quizzes", "", quizPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	quiz := decode(t, w)["quiz"].(map[string]any)
	return uint(quiz["id"].(float64))
}

func (s *testServer) startAttempt(t *testing.T, quizID uint, session string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/attempts", session, map[string]any{"quiz_id": quizID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["attempt_id"].(string)
}
