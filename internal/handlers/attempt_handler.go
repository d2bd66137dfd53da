package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAttempt opens a new attempt for the caller's session
// @Summary Start attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body services.StartAttemptRequest true "Quiz to attempt"
// @Success 201 {object} models.StartAttemptResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /attempts [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	req.SessionID = SessionID(c)

	h.LogRequest(c, "Starting attempt", "quiz_id", req.QuizID)

	resp, err := h.attemptService.Start(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListAttempts lists the session's attempts, newest first
// @Summary List attempts
// @Tags attempts
// @Produce json
// @Param quiz_id query int false "Quiz filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.AttemptListResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	var req services.ListAttemptsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	req.SessionID = SessionID(c)

	resp, err := h.attemptService.ListBySession(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetAttempt returns one of the session's attempts
// @Summary Get attempt
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} models.QuizAttempt
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	attempt, err := h.attemptService.GetByID(c.Request.Context(), attemptID, SessionID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// RecordAnswer stores a single answer while the attempt is running
// @Summary Record answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param request body services.RecordAnswerRequest true "Answer"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /attempts/{id}/answers [put]
func (h *AttemptHandler) RecordAnswer(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	var req services.RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	req.AttemptID = attemptID
	req.SessionID = SessionID(c)

	if err := h.attemptService.RecordAnswer(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Answer recorded", nil, "attempt_id", attemptID, "question_index", req.QuestionIndex)
}

// SubmitAttempt scores the attempt and closes it
// @Summary Submit attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param request body services.SubmitAttemptRequest true "Final answers"
// @Success 200 {object} models.QuizResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	req.AttemptID = attemptID
	req.SessionID = SessionID(c)

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID, "answers", len(req.Answers))

	result, err := h.attemptService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SaveProgress checkpoints the attempt. It always answers 202: a lost
// checkpoint is not an error for the client.
// @Summary Save progress
// @Tags attempts
// @Accept json
// @Param id path string true "Attempt ID"
// @Param request body services.SaveProgressRequest true "Checkpoint"
// @Success 202 {object} SuccessResponse
// @Router /attempts/{id}/progress [put]
func (h *AttemptHandler) SaveProgress(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	var req services.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidPayload(c, err)
		return
	}
	req.AttemptID = attemptID
	req.SessionID = SessionID(c)

	h.attemptService.SaveProgress(c.Request.Context(), &req)

	c.JSON(http.StatusAccepted, SuccessResponse{Message: "Progress saved"})
}

// GetProgress returns the last checkpoint and the remaining time
// @Summary Get progress
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.ProgressSnapshot
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/progress [get]
func (h *AttemptHandler) GetProgress(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	snapshot, err := h.attemptService.GetProgress(c.Request.Context(), attemptID, SessionID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetResult rebuilds the result of a completed attempt
// @Summary Get result
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} models.QuizResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/result [get]
func (h *AttemptHandler) GetResult(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	result, err := h.attemptService.GetResult(c.Request.Context(), attemptID, SessionID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
