package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// AttemptRepository interface for quiz attempt operations
type AttemptRepository interface {
	// Basic operations
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByAttemptID(ctx context.Context, attemptID string) (*models.QuizAttempt, error)
	ExistsAttemptID(ctx context.Context, attemptID string) (bool, error)

	// GetForUpdate loads the attempt and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, attemptID string) (*models.QuizAttempt, error)

	// UpdateIfStarted writes the attempt's mutable fields only while the
	// stored status is still started. Returns ErrStatusConflict otherwise.
	UpdateIfStarted(ctx context.Context, attempt *models.QuizAttempt) error

	// MarkAbandoned moves every started attempt begun before cutoff to
	// abandoned and returns how many rows changed.
	MarkAbandoned(ctx context.Context, cutoff, endedAt time.Time) (int64, error)

	// Query operations
	List(ctx context.Context, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetShownQuestions(ctx context.Context, quizID uint, sessionID string) ([]int, error)

	// Statistics
	GetQuizStats(ctx context.Context, quizID uint) (*models.QuizStats, error)
}

// AnswerRepository stores the per-question rows of completed attempts
type AnswerRepository interface {
	CreateBatch(ctx context.Context, answers []*models.QuizAnswer) error
	GetByAttempt(ctx context.Context, attemptID string) ([]*models.QuizAnswer, error)
	GetDifficultQuestions(ctx context.Context, quizID uint, limit int) ([]*models.DifficultQuestion, error)
}
