package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsService_GetQuizStats(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	ctx := context.Background()

	passed := f.startAttempt(t, quiz.ID)
	failed := f.startAttempt(t, quiz.ID)
	f.startAttempt(t, quiz.ID)

	f.clock.Advance(2 * time.Minute)
	_, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: passed.AttemptID, SessionID: testSession, Answers: perfectAnswers()})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	_, err = f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: failed.AttemptID, SessionID: testSession, Answers: partialAnswers()})
	require.NoError(t, err)

	stats, err := f.services.Analytics.GetQuizStats(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalAttempts)
	assert.Equal(t, int64(2), stats.CompletedAttempts)
	assert.Equal(t, int64(1), stats.PassedAttempts)
	assert.Equal(t, int64(1), stats.FailedAttempts)
	assert.Equal(t, 81.25, stats.AverageScore)
	assert.Equal(t, 100.0, stats.HighestScore)
	assert.Equal(t, 62.5, stats.LowestScore)
	assert.Equal(t, 150.0, stats.AverageTimeSpent)
	assert.Equal(t, 50.0, stats.PassRate)

	_, err = f.services.Analytics.GetQuizStats(ctx, 999)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestAnalyticsService_StatsCacheInvalidatedOnCompletion(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	ctx := context.Background()

	resp := f.startAttempt(t, quiz.ID)

	before, err := f.services.Analytics.GetQuizStats(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Zero(t, before.CompletedAttempts)

	// served from cache while nothing completes
	f.startAttempt(t, quiz.ID)
	cached, err := f.services.Analytics.GetQuizStats(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.TotalAttempts)

	_, err = f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: resp.AttemptID, SessionID: testSession, Answers: perfectAnswers()})
	require.NoError(t, err)

	after, err := f.services.Analytics.GetQuizStats(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.TotalAttempts)
	assert.Equal(t, int64(1), after.CompletedAttempts)
}

func TestAnalyticsService_GetDifficultQuestions(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	ctx := context.Background()

	for _, answers := range []map[int]any{perfectAnswers(), partialAnswers()} {
		resp := f.startAttempt(t, quiz.ID)
		_, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: resp.AttemptID, SessionID: testSession, Answers: answers})
		require.NoError(t, err)
	}

	questions, err := f.services.Analytics.GetDifficultQuestions(ctx, quiz.ID, 0)
	require.NoError(t, err)
	require.Len(t, questions, 4)
	assert.Equal(t, 100.0, questions[len(questions)-1].SuccessRate)
	assert.Equal(t, 0, questions[len(questions)-1].QuestionIndex)
	for _, q := range questions[:3] {
		assert.Equal(t, 50.0, q.SuccessRate)
	}

	top, err := f.services.Analytics.GetDifficultQuestions(ctx, quiz.ID, 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}
