package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type LessonPostgreSQL struct {
	db *gorm.DB
}

func (l *LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	return translateError(l.db.WithContext(ctx).Create(lesson).Error)
}

func (l *LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &lesson, nil
}

type LessonProgressPostgreSQL struct {
	db *gorm.DB
}

func (l *LessonProgressPostgreSQL) GetSection(ctx context.Context, lessonID uint, sessionID string, sectionIndex int) (*models.LessonProgress, error) {
	var progress models.LessonProgress
	if err := l.db.WithContext(ctx).
		Where("lesson_id = ? AND session_id = ? AND section_index = ?", lessonID, sessionID, sectionIndex).
		First(&progress).Error; err != nil {
		return nil, translateError(err)
	}
	return &progress, nil
}

func (l *LessonProgressPostgreSQL) Upsert(ctx context.Context, progress *models.LessonProgress) error {
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "lesson_id"}, {Name: "session_id"}, {Name: "section_index"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"completed", "scroll_completed", "button_completed",
			"time_spent", "scroll_percentage", "completed_at", "updated_at",
		}),
	}).Create(progress).Error
}

func (l *LessonProgressPostgreSQL) GetByLessonAndSession(ctx context.Context, lessonID uint, sessionID string) ([]*models.LessonProgress, error) {
	var progress []*models.LessonProgress
	if err := l.db.WithContext(ctx).
		Where("lesson_id = ? AND session_id = ?", lessonID, sessionID).
		Order("section_index ASC").
		Find(&progress).Error; err != nil {
		return nil, err
	}
	return progress, nil
}
