package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

// ===== SERVICE INTERFACES =====

type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest) (*models.StartAttemptResponse, error)
	RecordAnswer(ctx context.Context, req *RecordAnswerRequest) error
	Submit(ctx context.Context, req *SubmitAttemptRequest) (*models.QuizResult, error)

	// SaveProgress is a best-effort checkpoint. Failures are logged only.
	SaveProgress(ctx context.Context, req *SaveProgressRequest)
	GetProgress(ctx context.Context, attemptID, sessionID string) (*ProgressSnapshot, error)

	GetByID(ctx context.Context, attemptID, sessionID string) (*models.QuizAttempt, error)
	GetResult(ctx context.Context, attemptID, sessionID string) (*models.QuizResult, error)
	ListBySession(ctx context.Context, req *ListAttemptsRequest) (*AttemptListResponse, error)
}

type QuizService interface {
	Save(ctx context.Context, req *SaveQuizRequest) (*SaveQuizResponse, error)
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetSettings(ctx context.Context, id uint) (*models.QuizSettings, error)
	List(ctx context.Context, published *bool, limit, offset int) ([]*models.Quiz, int64, error)
}

type AnalyticsService interface {
	GetQuizStats(ctx context.Context, quizID uint) (*models.QuizStats, error)
	GetDifficultQuestions(ctx context.Context, quizID uint, limit int) ([]*models.DifficultQuestion, error)
	InvalidateQuizStats(ctx context.Context, quizID uint)
}

type LessonProgressService interface {
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	UpdateProgress(ctx context.Context, sessionID string, req *models.LessonProgressUpdate) (*models.LessonProgressSummary, error)
	GetProgress(ctx context.Context, lessonID uint, sessionID string) (*models.LessonProgressSummary, error)
}

type AbandonmentSweeper interface {
	SweepAbandoned(ctx context.Context, threshold time.Duration) (int64, error)
}

// ===== REQUEST / RESPONSE TYPES =====

type StartAttemptRequest struct {
	QuizID    uint   `json:"quiz_id" validate:"required"`
	SessionID string `json:"-" validate:"required,max=64"`
}

// RecordAnswerRequest stores one answer while the attempt is running.
// Answer is the raw decoded JSON value and is normalized by question type.
type RecordAnswerRequest struct {
	AttemptID      string `json:"-" validate:"required"`
	SessionID      string `json:"-"`
	QuestionIndex  int    `json:"question_index" validate:"min=0"`
	Answer         any    `json:"answer"`
	ElapsedSeconds *int   `json:"time_spent" validate:"omitempty,min=0"`
}

// SubmitAttemptRequest finalizes an attempt. Answers and timings are merged
// over whatever was recorded before, submitted values win.
type SubmitAttemptRequest struct {
	AttemptID string      `json:"attempt_id" validate:"required"`
	SessionID string      `json:"-"`
	Answers   map[int]any `json:"answers"`
	Timings   map[int]int `json:"question_timings"`
}

type SaveProgressRequest struct {
	AttemptID       string      `json:"attempt_id" validate:"required"`
	SessionID       string      `json:"-"`
	CurrentQuestion int         `json:"current_question" validate:"min=0"`
	Answers         map[int]any `json:"answers"`
}

// ProgressSnapshot is the checkpoint returned to a resuming client
type ProgressSnapshot struct {
	AttemptID       string               `json:"attempt_id"`
	CurrentQuestion int                  `json:"current_question"`
	Answers         models.AnswerSet     `json:"answers"`
	QuestionIndices []int                `json:"question_indices"`
	SavedAt         time.Time            `json:"saved_at"`
	Remaining       *int                 `json:"remaining_seconds,omitempty"`
	Status          models.AttemptStatus `json:"status"`
}

type ListAttemptsRequest struct {
	SessionID string `json:"-" validate:"required"`
	QuizID    *uint  `form:"quiz_id"`
	Limit     int    `form:"limit" validate:"min=0,max=100"`
	Offset    int    `form:"offset" validate:"min=0"`
}

type AttemptListResponse struct {
	Attempts []*models.QuizAttempt `json:"attempts"`
	Total    int64                 `json:"total"`
	Limit    int                   `json:"limit"`
	Offset   int                   `json:"offset"`
}

type SaveQuizRequest struct {
	ID                 uint              `json:"id"`
	Title              string            `json:"title" validate:"required,max=200"`
	Published          bool              `json:"published"`
	PassingScore       *int              `json:"passing_score" validate:"omitempty,min=0,max=100"`
	TimeLimitMinutes   int               `json:"time_limit" validate:"min=0"`
	QuestionsToShow    int               `json:"min_questions_to_show" validate:"min=0"`
	RandomizeQuestions bool              `json:"randomize_questions"`
	ShowResults        *bool             `json:"show_results_immediately"`
	LessonID           *uint             `json:"associated_lesson"`
	Questions          []models.Question `json:"questions"`
}

type SaveQuizResponse struct {
	Quiz     *models.Quiz                 `json:"quiz"`
	Rejected []validator.RejectedQuestion `json:"rejected_questions"`
}
