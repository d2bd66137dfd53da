package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

func TestAttemptEventService_PublishEvents(t *testing.T) {
	logger := utils.NewNopLogger()
	publisher := events.NewMockEventPublisher(utils.ToSlogLogger(logger))
	service := NewAttemptEventService(publisher, logger)
	ctx := context.Background()

	attempt := &models.QuizAttempt{
		AttemptID:      "tst0123456789",
		QuizID:         5,
		SessionID:      testSession,
		StartedAt:      testStart,
		QuestionsShown: datatypes.JSONSlice[int]{0, 1, 2},
	}

	t.Run("started", func(t *testing.T) {
		publisher.ClearEvents()
		require.NoError(t, service.NotifyAttemptStarted(ctx, attempt, &models.Quiz{ID: 5, Title: "Capitals", TimeLimitMinutes: 10}))

		published := publisher.EventsOfType(events.EventAttemptStarted)
		require.Len(t, published, 1)
		payload, ok := published[0].Data.(events.AttemptStartedEvent)
		require.True(t, ok)
		assert.Equal(t, 3, payload.TotalQuestions)
		assert.Equal(t, "Capitals", payload.QuizTitle)
		assert.Equal(t, 10, payload.TimeLimitMinutes)
	})

	t.Run("completed", func(t *testing.T) {
		publisher.ClearEvents()
		ended := testStart.Add(4 * time.Minute)
		done := *attempt
		done.EndedAt = &ended
		done.TimeSpent = ptr(240)

		require.NoError(t, service.NotifyAttemptCompleted(ctx, &done, &models.QuizResult{
			ScorePercent:             75,
			EarnedPoints:             3,
			TotalPoints:              4,
			CorrectFullQuestionCount: 2,
			Passed:                   true,
		}))

		published := publisher.EventsOfType(events.EventAttemptCompleted)
		require.Len(t, published, 1)
		payload, ok := published[0].Data.(events.AttemptCompletedEvent)
		require.True(t, ok)
		assert.Equal(t, 240, payload.TimeTaken)
		assert.True(t, payload.CompletedAt.Equal(ended))
		assert.Equal(t, 75.0, payload.ScorePercent)
		assert.True(t, payload.Passed)
	})

	t.Run("section completed", func(t *testing.T) {
		publisher.ClearEvents()
		require.NoError(t, service.NotifySectionCompleted(ctx, testSession, &models.LessonProgressSummary{LessonID: 9, OverallProgress: 50}, 1))

		published := publisher.EventsOfType(events.EventLessonSectionCompleted)
		require.Len(t, published, 1)
		payload, ok := published[0].Data.(events.LessonSectionCompletedEvent)
		require.True(t, ok)
		assert.Equal(t, uint(9), payload.LessonID)
		assert.Equal(t, 1, payload.SectionIndex)
	})

	t.Run("publisher failure is returned", func(t *testing.T) {
		publisher.Err = errors.New("broker down")
		defer func() { publisher.Err = nil }()

		err := service.NotifyAttemptExpired(ctx, attempt, testStart.Add(time.Hour))
		assert.EqualError(t, err, "broker down")
	})
}
