package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

// Repository is the gorm-backed repositories.Repository
type Repository struct {
	db *gorm.DB

	quiz           *QuizPostgreSQL
	attempt        *AttemptPostgreSQL
	answer         *AnswerPostgreSQL
	lesson         *LessonPostgreSQL
	lessonProgress *LessonProgressPostgreSQL
}

func NewRepository(db *gorm.DB) *Repository {
	helpers := NewSharedHelpers(db)
	return &Repository{
		db:             db,
		quiz:           &QuizPostgreSQL{db: db, helpers: helpers},
		attempt:        &AttemptPostgreSQL{db: db, helpers: helpers},
		answer:         &AnswerPostgreSQL{db: db},
		lesson:         &LessonPostgreSQL{db: db},
		lessonProgress: &LessonProgressPostgreSQL{db: db},
	}
}

// AutoMigrate creates or updates every table the service owns
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.QuizAnswer{},
		&models.Lesson{},
		&models.LessonProgress{},
	)
}

func (r *Repository) Quiz() repositories.QuizRepository                     { return r.quiz }
func (r *Repository) Attempt() repositories.AttemptRepository               { return r.attempt }
func (r *Repository) Answer() repositories.AnswerRepository                 { return r.answer }
func (r *Repository) Lesson() repositories.LessonRepository                 { return r.lesson }
func (r *Repository) LessonProgress() repositories.LessonProgressRepository { return r.lessonProgress }

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// SharedHelpers holds query building shared by the postgres repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyPaginationAndSort applies ORDER BY, LIMIT and OFFSET. sortBy must be
// one of allowed; anything else falls back to fallback.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int, fallback string, allowed ...string) *gorm.DB {
	column := fallback
	for _, a := range allowed {
		if a == sortBy {
			column = sortBy
			break
		}
	}
	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", column, direction))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

func (h *SharedHelpers) ApplyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.SessionID != "" {
		query = query.Where("session_id = ?", filters.SessionID)
	}
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}

// translateError maps gorm errors onto the repository sentinels
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.ErrDuplicateKey
	}
	return err
}
