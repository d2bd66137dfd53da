package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/ratelimit"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// ===== START =====

func TestAttemptService_Start(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())

	resp := f.startAttempt(t, quiz.ID)

	assert.Regexp(t, `^tst[0-9a-f]{10}$`, resp.AttemptID)
	assert.Equal(t, 4, resp.TotalQuestions)
	assert.Equal(t, []int{0, 1, 2, 3}, resp.QuestionIndices)

	attempt, err := f.repo.Attempt().GetByAttemptID(context.Background(), resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStarted, attempt.Status)
	assert.Equal(t, testSession, attempt.SessionID)
	assert.True(t, attempt.StartedAt.Equal(testStart))
	assert.Nil(t, attempt.ScorePercent)

	started := f.publisher.EventsOfType(events.EventAttemptStarted)
	require.Len(t, started, 1)
}

func TestAttemptService_StartRejections(t *testing.T) {
	tests := []struct {
		name  string
		quiz  func() *models.Quiz
		req   func(quizID uint) *StartAttemptRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "unknown quiz",
			quiz: sampleQuiz,
			req: func(quizID uint) *StartAttemptRequest {
				return &StartAttemptRequest{QuizID: quizID + 100, SessionID: testSession}
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrQuizNotFound) },
		},
		{
			name: "unpublished quiz",
			quiz: func() *models.Quiz {
				q := sampleQuiz()
				q.Published = false
				return q
			},
			req: func(quizID uint) *StartAttemptRequest {
				return &StartAttemptRequest{QuizID: quizID, SessionID: testSession}
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrQuizNotFound) },
		},
		{
			name: "no scorable questions",
			quiz: func() *models.Quiz {
				q := sampleQuiz()
				q.Questions = datatypes.NewJSONSlice([]models.Question{{Type: "essay", Prompt: "Discuss"}})
				return q
			},
			req: func(quizID uint) *StartAttemptRequest {
				return &StartAttemptRequest{QuizID: quizID, SessionID: testSession}
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNoQuestions) },
		},
		{
			name: "missing session",
			quiz: sampleQuiz,
			req: func(quizID uint) *StartAttemptRequest {
				return &StartAttemptRequest{QuizID: quizID}
			},
			check: func(t *testing.T, err error) { assert.True(t, IsValidation(err)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			quiz := f.createQuiz(t, tt.quiz())

			resp, err := f.services.Attempt.Start(context.Background(), tt.req(quiz.ID))

			require.Error(t, err)
			assert.Nil(t, resp)
			tt.check(t, err)
			assert.Empty(t, f.publisher.EventsOfType(events.EventAttemptStarted))
		})
	}
}

func TestAttemptService_StartRateLimited(t *testing.T) {
	f := newServiceFixture(t, func(d *Dependencies) {
		d.Limiter = ratelimit.NewLocalLimiter(ratelimit.Config{})
	})
	quiz := f.createQuiz(t, sampleQuiz())

	for i := 0; i < ratelimit.DefaultLimit; i++ {
		f.startAttempt(t, quiz.ID)
	}

	_, err := f.services.Attempt.Start(context.Background(), &StartAttemptRequest{QuizID: quiz.ID, SessionID: testSession})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	retry, ok := RetryAfter(err)
	assert.True(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	// other sessions are unaffected
	_, err = f.services.Attempt.Start(context.Background(), &StartAttemptRequest{QuizID: quiz.ID, SessionID: "sess-2"})
	assert.NoError(t, err)
}

func TestAttemptService_StartLimiterFailureAllows(t *testing.T) {
	limiter := &MockLimiter{}
	limiter.On("Allow", mock.Anything, testSession).Return(ratelimit.Decision{}, errors.New("redis down"))

	var logs bytes.Buffer
	f := newServiceFixture(t, func(d *Dependencies) {
		d.Limiter = limiter
		d.Logger = utils.NewSlogLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	})
	quiz := f.createQuiz(t, sampleQuiz())

	for i := 0; i < 3; i++ {
		f.startAttempt(t, quiz.ID)
	}
	limiter.AssertNumberOfCalls(t, "Allow", 3)

	// repeated failures inside a minute are reported once
	assert.Equal(t, 1, strings.Count(logs.String(), "Rate limiter unavailable"))
}

func TestAttemptService_AttemptIDCollision(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	svc := f.services.Attempt.(*attemptService)

	svc.newID = func() string { return "tst0000000001" }
	first := f.startAttempt(t, quiz.ID)
	assert.Equal(t, "tst0000000001", first.AttemptID)

	ids := []string{"tst0000000001", "tst0000000001", "tst0000000002"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	second := f.startAttempt(t, quiz.ID)
	assert.Equal(t, "tst0000000002", second.AttemptID)

	svc.newID = func() string { return "tst0000000001" }
	_, err := svc.Start(context.Background(), &StartAttemptRequest{QuizID: quiz.ID, SessionID: testSession})
	assert.ErrorIs(t, err, ErrAttemptIDExhausted)
}

func TestAttemptService_StartHonorsQuestionsToShow(t *testing.T) {
	f := newServiceFixture(t)
	q := sampleQuiz()
	q.QuestionsToShow = 2
	quiz := f.createQuiz(t, q)

	resp := f.startAttempt(t, quiz.ID)
	assert.Equal(t, []int{0, 1}, resp.QuestionIndices)
	assert.Equal(t, 2, resp.TotalQuestions)
}

// ===== RECORD ANSWER =====

func TestAttemptService_RecordAnswer(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	err := f.services.Attempt.RecordAnswer(ctx, &RecordAnswerRequest{
		AttemptID:      resp.AttemptID,
		SessionID:      testSession,
		QuestionIndex:  1,
		Answer:         "TRUE",
		ElapsedSeconds: ptr(12),
	})
	require.NoError(t, err)

	// later answers overwrite earlier ones
	err = f.services.Attempt.RecordAnswer(ctx, &RecordAnswerRequest{
		AttemptID:     resp.AttemptID,
		SessionID:     testSession,
		QuestionIndex: 1,
		Answer:        false,
	})
	require.NoError(t, err)

	attempt, err := f.repo.Attempt().GetByAttemptID(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.TrueFalseAnswer{Value: "false"}, attempt.AnswerSet()[1])
	require.NotNil(t, attempt.TimingSet()[1])
	assert.Equal(t, 12, *attempt.TimingSet()[1])
	assert.Equal(t, 1, attempt.CurrentQuestionIndex)
}

func TestAttemptService_RecordAnswerRejections(t *testing.T) {
	f := newServiceFixture(t)
	q := sampleQuiz()
	q.QuestionsToShow = 2
	quiz := f.createQuiz(t, q)
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	t.Run("question not shown", func(t *testing.T) {
		err := f.services.Attempt.RecordAnswer(ctx, &RecordAnswerRequest{AttemptID: resp.AttemptID, SessionID: testSession, QuestionIndex: 3, Answer: "x"})
		assert.ErrorIs(t, err, ErrQuestionNotInAttempt)
	})

	t.Run("other session", func(t *testing.T) {
		err := f.services.Attempt.RecordAnswer(ctx, &RecordAnswerRequest{AttemptID: resp.AttemptID, SessionID: "intruder", QuestionIndex: 0, Answer: 0})
		assert.ErrorIs(t, err, ErrAttemptNotFound)
	})

	t.Run("unknown attempt", func(t *testing.T) {
		err := f.services.Attempt.RecordAnswer(ctx, &RecordAnswerRequest{AttemptID: "tstmissing00", SessionID: testSession, QuestionIndex: 0, Answer: 0})
		assert.ErrorIs(t, err, ErrAttemptNotFound)
	})

	t.Run("after submit", func(t *testing.T) {
		_, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: resp.AttemptID, SessionID: testSession, Answers: map[int]any{1: true}})
		require.NoError(t, err)

		err = f.services.Attempt.RecordAnswer(ctx, &RecordAnswerRequest{AttemptID: resp.AttemptID, SessionID: testSession, QuestionIndex: 0, Answer: 0})
		assert.ErrorIs(t, err, ErrAttemptClosed)
	})
}

// ===== SUBMIT =====

func TestAttemptService_Submit(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	f.clock.Advance(5 * time.Minute)
	result, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{
		AttemptID: resp.AttemptID,
		SessionID: testSession,
		Answers:   partialAnswers(),
		Timings:   map[int]int{0: 40, 1: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalQuestions)
	assert.Equal(t, 8.0, result.TotalPoints)
	assert.Equal(t, 5.0, result.EarnedPoints)
	assert.Equal(t, 62.5, result.ScorePercent)
	assert.False(t, result.Passed)
	assert.Equal(t, 70, result.PassingScore)
	assert.Equal(t, 1, result.CorrectFullQuestionCount)
	assert.True(t, result.ShowAnswers)
	require.NotNil(t, result.TimeTaken)
	assert.Equal(t, 300, *result.TimeTaken)
	require.Len(t, result.PerQuestionDetail, 4)
	assert.True(t, result.PerQuestionDetail[0].IsFullyCorrect)
	assert.True(t, result.PerQuestionDetail[2].PartialCredit)

	attempt, err := f.repo.Attempt().GetByAttemptID(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptCompleted, attempt.Status)
	require.NotNil(t, attempt.ScorePercent)
	assert.Equal(t, 62.5, *attempt.ScorePercent)
	require.NotNil(t, attempt.EndedAt)
	assert.True(t, attempt.EndedAt.Equal(testStart.Add(5*time.Minute)))

	rows, err := f.repo.Answer().GetByAttempt(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	assert.Len(t, f.publisher.EventsOfType(events.EventAttemptCompleted), 1)
}

func TestAttemptService_SubmitMergesRecordedAnswers(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	answers := perfectAnswers()
	for idx := 0; idx < 3; idx++ {
		require.NoError(t, f.services.Attempt.RecordAnswer(ctx, &RecordAnswerRequest{
			AttemptID:     resp.AttemptID,
			SessionID:     testSession,
			QuestionIndex: idx,
			Answer:        answers[idx],
		}))
	}

	result, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{
		AttemptID: resp.AttemptID,
		SessionID: testSession,
		Answers:   map[int]any{3: answers[3]},
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.ScorePercent)
	assert.True(t, result.Passed)
	assert.Equal(t, 4, result.CorrectFullQuestionCount)
}

func TestAttemptService_SubmitTimeExpired(t *testing.T) {
	f := newServiceFixture(t)
	q := sampleQuiz()
	q.TimeLimitMinutes = 10
	quiz := f.createQuiz(t, q)
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	f.clock.Advance(11 * time.Minute)
	result, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{
		AttemptID: resp.AttemptID,
		SessionID: testSession,
		Answers:   perfectAnswers(),
	})
	require.ErrorIs(t, err, ErrTimeExpired)
	assert.Nil(t, result)

	attempt, err := f.repo.Attempt().GetByAttemptID(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStarted, attempt.Status)
	assert.Nil(t, attempt.ScorePercent)

	rows, err := f.repo.Answer().GetByAttempt(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.Len(t, f.publisher.EventsOfType(events.EventAttemptExpired), 1)
	assert.Empty(t, f.publisher.EventsOfType(events.EventAttemptCompleted))
}

func TestAttemptService_SubmitWithinTimeLimit(t *testing.T) {
	f := newServiceFixture(t)
	q := sampleQuiz()
	q.TimeLimitMinutes = 10
	quiz := f.createQuiz(t, q)
	resp := f.startAttempt(t, quiz.ID)

	f.clock.Advance(10 * time.Minute)
	_, err := f.services.Attempt.Submit(context.Background(), &SubmitAttemptRequest{
		AttemptID: resp.AttemptID,
		SessionID: testSession,
		Answers:   perfectAnswers(),
	})
	assert.NoError(t, err)
}

func TestAttemptService_SubmitRejections(t *testing.T) {
	tests := []struct {
		name    string
		req     func(attemptID string) *SubmitAttemptRequest
		wantErr error
	}{
		{
			name: "no answers",
			req: func(id string) *SubmitAttemptRequest {
				return &SubmitAttemptRequest{AttemptID: id, SessionID: testSession}
			},
			wantErr: ErrNoAnswers,
		},
		{
			name: "only empty answers",
			req: func(id string) *SubmitAttemptRequest {
				return &SubmitAttemptRequest{AttemptID: id, SessionID: testSession, Answers: map[int]any{0: []any{}, 2: []any{"", ""}}}
			},
			wantErr: ErrNoAnswers,
		},
		{
			name: "unknown attempt",
			req: func(string) *SubmitAttemptRequest {
				return &SubmitAttemptRequest{AttemptID: "tstmissing00", SessionID: testSession, Answers: perfectAnswers()}
			},
			wantErr: ErrAttemptNotFound,
		},
		{
			name: "other session",
			req: func(id string) *SubmitAttemptRequest {
				return &SubmitAttemptRequest{AttemptID: id, SessionID: "intruder", Answers: perfectAnswers()}
			},
			wantErr: ErrAttemptNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			quiz := f.createQuiz(t, sampleQuiz())
			resp := f.startAttempt(t, quiz.ID)

			_, err := f.services.Attempt.Submit(context.Background(), tt.req(resp.AttemptID))
			assert.ErrorIs(t, err, tt.wantErr)

			attempt, getErr := f.repo.Attempt().GetByAttemptID(context.Background(), resp.AttemptID)
			require.NoError(t, getErr)
			assert.Equal(t, models.AttemptStarted, attempt.Status)
		})
	}
}

func TestAttemptService_SubmitTwice(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	first, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: resp.AttemptID, SessionID: testSession, Answers: partialAnswers()})
	require.NoError(t, err)

	_, err = f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: resp.AttemptID, SessionID: testSession, Answers: perfectAnswers()})
	assert.ErrorIs(t, err, ErrAttemptAlreadyCompleted)

	attempt, err := f.repo.Attempt().GetByAttemptID(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, first.ScorePercent, *attempt.ScorePercent)
}

func TestAttemptService_ConcurrentSubmit(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	resp := f.startAttempt(t, quiz.ID)

	const submitters = 8
	errs := make([]error, submitters)
	var wg sync.WaitGroup
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.services.Attempt.Submit(context.Background(), &SubmitAttemptRequest{
				AttemptID: resp.AttemptID,
				SessionID: testSession,
				Answers:   perfectAnswers(),
			})
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAttemptAlreadyCompleted):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, submitters-1, rejected)

	rows, err := f.repo.Answer().GetByAttempt(context.Background(), resp.AttemptID)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Len(t, f.publisher.EventsOfType(events.EventAttemptCompleted), 1)
}

func TestAttemptService_SubmitHidesDetails(t *testing.T) {
	f := newServiceFixture(t)
	q := sampleQuiz()
	q.ShowResults = false
	quiz := f.createQuiz(t, q)
	resp := f.startAttempt(t, quiz.ID)

	result, err := f.services.Attempt.Submit(context.Background(), &SubmitAttemptRequest{AttemptID: resp.AttemptID, SessionID: testSession, Answers: perfectAnswers()})
	require.NoError(t, err)
	assert.False(t, result.ShowAnswers)
	assert.Nil(t, result.PerQuestionDetail)
	assert.Equal(t, 100.0, result.ScorePercent)
}

func TestAttemptService_SubmitScoresShownQuestionsOnly(t *testing.T) {
	f := newServiceFixture(t)
	q := sampleQuiz()
	q.QuestionsToShow = 2
	quiz := f.createQuiz(t, q)
	resp := f.startAttempt(t, quiz.ID)

	result, err := f.services.Attempt.Submit(context.Background(), &SubmitAttemptRequest{
		AttemptID: resp.AttemptID,
		SessionID: testSession,
		Answers:   perfectAnswers(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalQuestions)
	assert.Equal(t, 3.0, result.TotalPoints)
	assert.Equal(t, 100.0, result.ScorePercent)
}

// ===== PROGRESS =====

func TestAttemptService_SaveAndGetProgress(t *testing.T) {
	f := newServiceFixture(t)
	q := sampleQuiz()
	q.TimeLimitMinutes = 10
	quiz := f.createQuiz(t, q)
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	f.clock.Advance(4 * time.Minute)
	f.services.Attempt.SaveProgress(ctx, &SaveProgressRequest{
		AttemptID:       resp.AttemptID,
		SessionID:       testSession,
		CurrentQuestion: 2,
		Answers:         map[int]any{1: "true"},
	})

	snapshot, err := f.services.Attempt.GetProgress(ctx, resp.AttemptID, testSession)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.CurrentQuestion)
	assert.Equal(t, models.TrueFalseAnswer{Value: "true"}, snapshot.Answers[1])
	assert.Equal(t, []int{0, 1, 2, 3}, snapshot.QuestionIndices)
	assert.Equal(t, models.AttemptStarted, snapshot.Status)
	assert.True(t, snapshot.SavedAt.Equal(testStart.Add(4*time.Minute)))
	require.NotNil(t, snapshot.Remaining)
	assert.Equal(t, 360, *snapshot.Remaining)

	_, err = f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: resp.AttemptID, SessionID: testSession})
	require.NoError(t, err)

	var cached ProgressSnapshot
	assert.Error(t, f.cache.Get(ctx, progressCachePrefix+resp.AttemptID, &cached))
}

func TestAttemptService_SaveProgressIgnoresClosedAttempts(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	_, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: resp.AttemptID, SessionID: testSession, Answers: partialAnswers()})
	require.NoError(t, err)

	f.services.Attempt.SaveProgress(ctx, &SaveProgressRequest{
		AttemptID: resp.AttemptID,
		SessionID: testSession,
		Answers:   perfectAnswers(),
	})

	attempt, err := f.repo.Attempt().GetByAttemptID(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.TrueFalseAnswer{Value: "false"}, attempt.AnswerSet()[1])
}

// ===== QUERIES =====

func TestAttemptService_GetResult(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	_, err := f.services.Attempt.GetResult(ctx, resp.AttemptID, testSession)
	assert.ErrorIs(t, err, ErrResultNotAvailable)

	f.clock.Advance(90 * time.Second)
	submitted, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{AttemptID: resp.AttemptID, SessionID: testSession, Answers: partialAnswers()})
	require.NoError(t, err)

	result, err := f.services.Attempt.GetResult(ctx, resp.AttemptID, testSession)
	require.NoError(t, err)
	assert.Equal(t, submitted.ScorePercent, result.ScorePercent)
	assert.Equal(t, submitted.EarnedPoints, result.EarnedPoints)
	assert.Equal(t, submitted.Passed, result.Passed)
	assert.Equal(t, submitted.PerQuestionDetail, result.PerQuestionDetail)
	require.NotNil(t, result.TimeTaken)
	assert.Equal(t, 90, *result.TimeTaken)

	_, err = f.services.Attempt.GetResult(ctx, resp.AttemptID, "intruder")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestAttemptService_ListBySession(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	other := f.createQuiz(t, sampleQuiz())
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, f.startAttempt(t, quiz.ID).AttemptID)
		f.clock.Advance(time.Minute)
	}
	f.startAttempt(t, other.ID)
	_, err := f.services.Attempt.Start(ctx, &StartAttemptRequest{QuizID: quiz.ID, SessionID: "sess-2"})
	require.NoError(t, err)

	all, err := f.services.Attempt.ListBySession(ctx, &ListAttemptsRequest{SessionID: testSession})
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)
	assert.Equal(t, defaultListLimit, all.Limit)

	byQuiz, err := f.services.Attempt.ListBySession(ctx, &ListAttemptsRequest{SessionID: testSession, QuizID: &quiz.ID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), byQuiz.Total)
	require.Len(t, byQuiz.Attempts, 2)
	assert.Equal(t, ids[2], byQuiz.Attempts[0].AttemptID)
	assert.Equal(t, ids[1], byQuiz.Attempts[1].AttemptID)

	_, err = f.services.Attempt.ListBySession(ctx, &ListAttemptsRequest{})
	assert.True(t, IsValidation(err))
}

func TestCheckTimeout(t *testing.T) {
	attempt := &models.QuizAttempt{StartedAt: testStart}

	tests := []struct {
		name    string
		limit   int
		elapsed time.Duration
		wantErr bool
	}{
		{"no limit", 0, 24 * time.Hour, false},
		{"within limit", 10, 9 * time.Minute, false},
		{"at limit", 10, 10 * time.Minute, false},
		{"past limit", 10, 10*time.Minute + time.Second, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTimeout(attempt, &models.Quiz{TimeLimitMinutes: tt.limit}, testStart.Add(tt.elapsed))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTimeExpired)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAttemptService_ScoresAgainstBankShownAtStart(t *testing.T) {
	f := newServiceFixture(t)
	quiz := f.createQuiz(t, sampleQuiz())
	resp := f.startAttempt(t, quiz.ID)
	ctx := context.Background()

	// the author drops the first question and flips the true/false key while
	// the attempt is running
	edited := sampleQuiz().Questions[1:]
	edited[0].CorrectAnswer = "false"
	_, err := f.services.Quiz.Save(ctx, &SaveQuizRequest{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Published:   true,
		ShowResults: ptr(true),
		Questions:   edited,
	})
	require.NoError(t, err)
	current, err := f.repo.Quiz().GetByID(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, current.Questions, 3)

	// index 2 is still the fill-in question for this attempt
	require.NoError(t, f.services.Attempt.RecordAnswer(ctx, &RecordAnswerRequest{
		AttemptID:     resp.AttemptID,
		SessionID:     testSession,
		QuestionIndex: 2,
		Answer:        []any{"Paris", "France", "Europe"},
	}))
	attempt, err := f.repo.Attempt().GetByAttemptID(ctx, resp.AttemptID)
	require.NoError(t, err)
	assert.IsType(t, models.FillBlankAnswer{}, attempt.AnswerSet()[2])

	result, err := f.services.Attempt.Submit(ctx, &SubmitAttemptRequest{
		AttemptID: resp.AttemptID,
		SessionID: testSession,
		Answers:   perfectAnswers(),
	})
	require.NoError(t, err)
	assert.Equal(t, 8.0, result.EarnedPoints)
	assert.Equal(t, 100.0, result.ScorePercent)
	assert.Equal(t, 4, result.CorrectFullQuestionCount)

	stored, err := f.services.Attempt.GetResult(ctx, resp.AttemptID, testSession)
	require.NoError(t, err)
	require.Len(t, stored.PerQuestionDetail, 4)
	for _, d := range stored.PerQuestionDetail {
		assert.True(t, d.IsFullyCorrect, "question %d", d.QuestionIndex)
	}
	assert.Equal(t, models.Matching, stored.PerQuestionDetail[3].QuestionType)
}
