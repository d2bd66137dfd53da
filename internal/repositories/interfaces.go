package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrStatusConflict = errors.New("attempt status changed concurrently")
	ErrDuplicateKey   = errors.New("duplicate key")
)

// IsNotFoundError matches both our sentinel and gorm's
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== SHARED FILTER STRUCTS =====

type QuizFilters struct {
	Published *bool  `json:"published"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`    // "created_at", "title"
	SortOrder string `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	SessionID string               `json:"session_id"`
	QuizID    *uint                `json:"quiz_id"`
	Status    models.AttemptStatus `json:"status"`
	DateFrom  *time.Time           `json:"date_from"`
	DateTo    *time.Time           `json:"date_to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
	SortBy    string               `json:"sort_by"`    // "started_at", "score_percent"
	SortOrder string               `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORY AGGREGATE =====

// Repository gives access to every store. Implementations run fn inside a
// transaction on WithTransaction; the Repository handed to fn is bound to it.
type Repository interface {
	Quiz() QuizRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	Lesson() LessonRepository
	LessonProgress() LessonProgressRepository

	WithTransaction(ctx context.Context, fn func(tx Repository) error) error
	Ping(ctx context.Context) error
}

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
}

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
}

type LessonProgressRepository interface {
	GetSection(ctx context.Context, lessonID uint, sessionID string, sectionIndex int) (*models.LessonProgress, error)
	Upsert(ctx context.Context, progress *models.LessonProgress) error
	GetByLessonAndSession(ctx context.Context, lessonID uint, sessionID string) ([]*models.LessonProgress, error)
}
