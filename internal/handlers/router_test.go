package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/quiz-service/internal/repositories/memory"
	"github.com/SAP-F-2025/quiz-service/internal/services"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	sm := services.NewServiceManager(services.Dependencies{Repo: memory.NewRepository()})
	router := gin.New()
	NewHandlerManager(sm, failingPinger{}, nil, SessionConfig{}, nil).SetupRoutes(router)

	w = serve(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.createQuiz(t)

	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{endpoint="/api/v1/quizzes",method="POST",status="201"} 1`)
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"wildcard", []string{"*"}, "https://learn.example.com", "*"},
		{"listed origin", []string{"https://learn.example.com"}, "https://learn.example.com", "https://learn.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(tt.origins))
			router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	router := gin.New()
	router.Use(CORSMiddleware([]string{"https://learn.example.com"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestQuizHandler(t *testing.T) {
	s := newTestServer(t)
	quizID := s.createQuiz(t)
	base := fmt.Sprintf("/api/v1/quizzes/%d", quizID)

	w := s.do(t, http.MethodGet, base+"/settings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode(t, w)
	assert.Equal(t, 2.0, settings["total_questions"])
	assert.Equal(t, 70.0, settings["passing_score"])

	update := quizPayload()
	update["title"] = "Capitals, revised"
	update["published"] = false
	w = s.do(t, http.MethodPut, base, "", update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Capitals, revised", decode(t, w)["title"])

	// drafts are hidden from learners
	w = s.do(t, http.MethodGet, base+"/settings", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/quizzes?published=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["total"])

	w = s.do(t, http.MethodGet, base+"/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["total_attempts"])

	w = s.do(t, http.MethodGet, base+"/difficult-questions?limit=5", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/quizzes/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/quizzes/999", "", quizPayload())
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/quizzes", "", map[string]any{"title": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLessonHandler(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/lessons", "", map[string]any{"title": "Rivers", "section_count": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	lessonID := uint(decode(t, w)["id"].(float64))
	path := fmt.Sprintf("/api/v1/lessons/%d/progress", lessonID)

	w = s.do(t, http.MethodPut, path, "sess-a", map[string]any{"section_index": 0, "completed": true, "time_spent": 40})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 50.0, decode(t, w)["overall_progress"])

	w = s.do(t, http.MethodGet, path, "sess-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["completed_sections"])

	w = s.do(t, http.MethodGet, path, "sess-b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["completed_sections"])

	w = s.do(t, http.MethodPut, path, "sess-a", map[string]any{"section_index": 5})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/lessons/999/progress", "sess-a", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMaintenanceHandler_Sweep(t *testing.T) {
	s := newTestServer(t)
	s.startAttempt(t, s.createQuiz(t), "sess-a")

	w := s.do(t, http.MethodPost, "/api/v1/maintenance/sweep?threshold=soon", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/maintenance/sweep", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 0.0, body["abandoned"])
	assert.Equal(t, "2h0m0s", body["threshold"])

	w = s.do(t, http.MethodPost, "/api/v1/maintenance/sweep?threshold=-5m", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
