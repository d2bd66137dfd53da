package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type LessonHandler struct {
	BaseHandler
	lessonService services.LessonProgressService
}

func NewLessonHandler(lessonService services.LessonProgressService, logger utils.Logger) *LessonHandler {
	return &LessonHandler{
		BaseHandler:   NewBaseHandler(logger),
		lessonService: lessonService,
	}
}

// CreateLessonRequest is the payload for registering a lesson
type CreateLessonRequest struct {
	Title        string `json:"title"`
	SectionCount int    `json:"section_count"`
	Published    bool   `json:"published"`
}

// CreateLesson registers a lesson so quizzes and progress can refer to it
// @Summary Create lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param lesson body CreateLessonRequest true "Lesson"
// @Success 201 {object} models.Lesson
// @Failure 422 {object} ErrorResponse
// @Router /lessons [post]
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var req CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}

	lesson := &models.Lesson{
		Title:        req.Title,
		SectionCount: req.SectionCount,
		Published:    req.Published,
	}
	if err := h.lessonService.CreateLesson(c.Request.Context(), lesson); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, lesson)
}

// UpdateProgress records reading progress on one lesson section
// @Summary Update lesson progress
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param request body models.LessonProgressUpdate true "Section progress"
// @Success 200 {object} models.LessonProgressSummary
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /lessons/{id}/progress [put]
func (h *LessonHandler) UpdateProgress(c *gin.Context) {
	lessonID := ParseUintIDParam(c, "id")
	if lessonID == 0 {
		return
	}

	var req models.LessonProgressUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	req.LessonID = lessonID

	summary, err := h.lessonService.UpdateProgress(c.Request.Context(), SessionID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetProgress returns the session's progress through a lesson
// @Summary Get lesson progress
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} models.LessonProgressSummary
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id}/progress [get]
func (h *LessonHandler) GetProgress(c *gin.Context) {
	lessonID := ParseUintIDParam(c, "id")
	if lessonID == 0 {
		return
	}

	summary, err := h.lessonService.GetProgress(c.Request.Context(), lessonID, SessionID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
