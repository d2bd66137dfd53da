package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// AttemptEventService turns lifecycle transitions into published events.
// Publishing is best effort: failures are logged and returned, callers never
// undo a committed transition because of them.
type AttemptEventService interface {
	NotifyAttemptStarted(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz) error
	NotifyAttemptCompleted(ctx context.Context, attempt *models.QuizAttempt, result *models.QuizResult) error
	NotifyAttemptExpired(ctx context.Context, attempt *models.QuizAttempt, at time.Time) error
	NotifyAttemptsAbandoned(ctx context.Context, count int64, cutoff, sweptAt time.Time, threshold time.Duration) error
	NotifySectionCompleted(ctx context.Context, sessionID string, summary *models.LessonProgressSummary, sectionIndex int) error
}

type attemptEventService struct {
	eventPublisher events.EventPublisher
	logger         utils.Logger
}

func NewAttemptEventService(eventPublisher events.EventPublisher, logger utils.Logger) AttemptEventService {
	return &attemptEventService{
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *attemptEventService) NotifyAttemptStarted(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz) error {
	return s.publish(ctx, events.NewAttemptStartedEvent(events.AttemptStartedEvent{
		AttemptID:        attempt.AttemptID,
		QuizID:           quiz.ID,
		QuizTitle:        quiz.Title,
		SessionID:        attempt.SessionID,
		StartedAt:        attempt.StartedAt,
		TotalQuestions:   len(attempt.QuestionsShown),
		TimeLimitMinutes: quiz.TimeLimitMinutes,
	}))
}

func (s *attemptEventService) NotifyAttemptCompleted(ctx context.Context, attempt *models.QuizAttempt, result *models.QuizResult) error {
	payload := events.AttemptCompletedEvent{
		AttemptID:      attempt.AttemptID,
		QuizID:         attempt.QuizID,
		SessionID:      attempt.SessionID,
		ScorePercent:   result.ScorePercent,
		EarnedPoints:   result.EarnedPoints,
		TotalPoints:    result.TotalPoints,
		CorrectAnswers: result.CorrectFullQuestionCount,
		Passed:         result.Passed,
	}
	if attempt.EndedAt != nil {
		payload.CompletedAt = *attempt.EndedAt
	}
	if attempt.TimeSpent != nil {
		payload.TimeTaken = *attempt.TimeSpent
	}
	return s.publish(ctx, events.NewAttemptCompletedEvent(payload))
}

func (s *attemptEventService) NotifyAttemptExpired(ctx context.Context, attempt *models.QuizAttempt, at time.Time) error {
	return s.publish(ctx, events.NewAttemptExpiredEvent(events.AttemptExpiredEvent{
		AttemptID: attempt.AttemptID,
		QuizID:    attempt.QuizID,
		SessionID: attempt.SessionID,
		StartedAt: attempt.StartedAt,
		ExpiredAt: at,
	}))
}

func (s *attemptEventService) NotifyAttemptsAbandoned(ctx context.Context, count int64, cutoff, sweptAt time.Time, threshold time.Duration) error {
	return s.publish(ctx, events.NewAttemptsAbandonedEvent(count, cutoff, sweptAt, threshold))
}

func (s *attemptEventService) NotifySectionCompleted(ctx context.Context, sessionID string, summary *models.LessonProgressSummary, sectionIndex int) error {
	return s.publish(ctx, events.NewLessonSectionCompletedEvent(events.LessonSectionCompletedEvent{
		LessonID:        summary.LessonID,
		SessionID:       sessionID,
		SectionIndex:    sectionIndex,
		OverallProgress: summary.OverallProgress,
	}))
}

func (s *attemptEventService) publish(ctx context.Context, event *events.Event) error {
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
		return err
	}
	return nil
}
