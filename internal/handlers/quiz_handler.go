package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService      services.QuizService
	analyticsService services.AnalyticsService
}

func NewQuizHandler(quizService services.QuizService, analyticsService services.AnalyticsService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler:      NewBaseHandler(logger),
		quizService:      quizService,
		analyticsService: analyticsService,
	}
}

// QuizListResponse is one page of quizzes
type QuizListResponse struct {
	Quizzes interface{} `json:"quizzes"`
	Total   int64       `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
}

// CreateQuiz stores a new quiz. Malformed questions are dropped and reported
// back in rejected_questions.
// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.SaveQuizRequest true "Quiz data"
// @Success 201 {object} services.SaveQuizResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.SaveQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	req.ID = 0

	resp, err := h.quizService.Save(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Quiz created", "quiz_id", resp.Quiz.ID, "rejected", len(resp.Rejected))
	c.JSON(http.StatusCreated, resp)
}

// UpdateQuiz replaces a quiz's settings and question bank
// @Summary Update quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path int true "Quiz ID"
// @Param quiz body services.SaveQuizRequest true "Quiz data"
// @Success 200 {object} services.SaveQuizResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /quizzes/{id} [put]
func (h *QuizHandler) UpdateQuiz(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SaveQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	req.ID = id

	resp, err := h.quizService.Save(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListQuizzes lists quizzes, optionally only published ones
// @Summary List quizzes
// @Tags quizzes
// @Produce json
// @Param published query bool false "Published filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} QuizListResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 0)
	offset := parseIntQuery(c, "offset", 0)

	quizzes, total, err := h.quizService.List(c.Request.Context(), parseBoolQuery(c, "published"), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, QuizListResponse{
		Quizzes: quizzes,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// GetQuiz returns the full quiz including its answer key
// @Summary Get quiz
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} models.Quiz
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	quiz, err := h.quizService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// GetSettings returns what a learner sees before starting
// @Summary Get quiz settings
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} models.QuizSettings
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/settings [get]
func (h *QuizHandler) GetSettings(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	settings, err := h.quizService.GetSettings(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// GetStats returns aggregate attempt statistics
// @Summary Get quiz statistics
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Success 200 {object} models.QuizStats
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/stats [get]
func (h *QuizHandler) GetStats(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	stats, err := h.analyticsService.GetQuizStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDifficultQuestions lists questions with the lowest success rate
// @Summary Get difficult questions
// @Tags quizzes
// @Produce json
// @Param id path int true "Quiz ID"
// @Param limit query int false "How many"
// @Success 200 {array} models.DifficultQuestion
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id}/difficult-questions [get]
func (h *QuizHandler) GetDifficultQuestions(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}

	questions, err := h.analyticsService.GetDifficultQuestions(c.Request.Context(), id, parseIntQuery(c, "limit", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}
