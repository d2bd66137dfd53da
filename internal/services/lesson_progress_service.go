package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/scoring"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

type lessonProgressService struct {
	repo      repositories.Repository
	events    AttemptEventService
	validator *validator.Validator
	opLog     *ServiceLogger
	now       func() time.Time
}

func NewLessonProgressService(deps Dependencies, events AttemptEventService) LessonProgressService {
	deps = deps.withDefaults()
	return &lessonProgressService{
		repo:      deps.Repo,
		events:    events,
		validator: deps.Validator,
		opLog:     NewServiceLogger(deps.Logger, LogConfig{Service: "quiz-service", Component: "lessons"}),
		now:       deps.Clock,
	}
}

func (s *lessonProgressService) CreateLesson(ctx context.Context, lesson *models.Lesson) (err error) {
	op := s.opLog.WithOperation(ctx, "create_lesson", "")
	defer func() { op.LogResult(fmt.Sprint(lesson.ID), err) }()

	if lesson.SectionCount < 0 {
		return ValidationErrors{*NewValidationError("section_count", "must not be negative", lesson.SectionCount)}
	}
	if lesson.Title == "" {
		return ValidationErrors{*NewValidationError("title", "is required", lesson.Title)}
	}
	if err := s.repo.Lesson().Create(ctx, lesson); err != nil {
		return fmt.Errorf("failed to create lesson: %w", err)
	}
	return nil
}

// UpdateProgress upserts one section's record and returns the lesson totals.
// Completion flags only ever move from false to true.
func (s *lessonProgressService) UpdateProgress(ctx context.Context, sessionID string, req *models.LessonProgressUpdate) (summary *models.LessonProgressSummary, err error) {
	op := s.opLog.WithOperation(ctx, "update_lesson_progress", sessionID)
	defer func() { op.LogResult(fmt.Sprint(req.LessonID), err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, ValidationErrors{*NewValidationError("session_id", "is required", sessionID)}
	}

	var newlyCompleted bool
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		lesson, err := getLesson(ctx, tx, req.LessonID)
		if err != nil {
			return err
		}
		if lesson.SectionCount > 0 && req.SectionIndex >= lesson.SectionCount {
			return ValidationErrors{*NewValidationError("section_index", "is out of range for this lesson", req.SectionIndex)}
		}

		progress, err := tx.LessonProgress().GetSection(ctx, req.LessonID, sessionID, req.SectionIndex)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to get lesson progress: %w", err)
			}
			progress = &models.LessonProgress{
				LessonID:     req.LessonID,
				SessionID:    sessionID,
				SectionIndex: req.SectionIndex,
			}
		}

		newlyCompleted = applyProgressUpdate(progress, req, s.now())

		if err := tx.LessonProgress().Upsert(ctx, progress); err != nil {
			return fmt.Errorf("failed to save lesson progress: %w", err)
		}

		summary, err = summarizeLesson(ctx, tx, lesson, sessionID, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	if newlyCompleted {
		_ = s.events.NotifySectionCompleted(ctx, sessionID, summary, req.SectionIndex)
	}
	return summary, nil
}

func (s *lessonProgressService) GetProgress(ctx context.Context, lessonID uint, sessionID string) (*models.LessonProgressSummary, error) {
	lesson, err := getLesson(ctx, s.repo, lessonID)
	if err != nil {
		return nil, err
	}
	return summarizeLesson(ctx, s.repo, lesson, sessionID, true)
}

// ===== HELPERS =====

// applyProgressUpdate folds an update into the stored record and reports
// whether the section became completed by it.
func applyProgressUpdate(progress *models.LessonProgress, req *models.LessonProgressUpdate, now time.Time) bool {
	wasCompleted := progress.Completed

	progress.TimeSpent = req.TimeSpent
	progress.ScrollPercentage = req.ScrollPercentage

	if req.ScrollPercentage >= models.ScrollCompletePercent && req.TimeSpent >= models.ScrollCompleteSeconds {
		progress.ScrollCompleted = true
	}
	if req.Completed {
		progress.ButtonCompleted = true
		progress.Completed = true
		if progress.CompletedAt == nil {
			progress.CompletedAt = ptr(now)
		}
	}
	return !wasCompleted && progress.Completed
}

func summarizeLesson(ctx context.Context, repo repositories.Repository, lesson *models.Lesson, sessionID string, withSections bool) (*models.LessonProgressSummary, error) {
	records, err := repo.LessonProgress().GetByLessonAndSession(ctx, lesson.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson progress: %w", err)
	}

	summary := &models.LessonProgressSummary{
		LessonID:      lesson.ID,
		TotalSections: lesson.SectionCount,
	}
	for _, r := range records {
		if r.Completed && (lesson.SectionCount == 0 || r.SectionIndex < lesson.SectionCount) {
			summary.CompletedSections++
		}
		if withSections {
			summary.Sections = append(summary.Sections, *r)
		}
	}
	if summary.TotalSections > 0 {
		summary.OverallProgress = scoring.Round2(float64(summary.CompletedSections) / float64(summary.TotalSections) * 100)
	}
	return summary, nil
}

func getLesson(ctx context.Context, repo repositories.Repository, id uint) (*models.Lesson, error) {
	lesson, err := repo.Lesson().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	return lesson, nil
}
