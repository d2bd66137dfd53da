package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/ratelimit"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/memory"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

const testSession = "sess-1"

var testStart = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// MockLimiter is a mock implementation of ratelimit.Limiter
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (ratelimit.Decision, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(ratelimit.Decision), args.Error(1)
}

type serviceFixture struct {
	repo      *memory.Repository
	cache     *cache.MemoryCache
	publisher *events.MockEventPublisher
	metrics   *metrics.Metrics
	clock     *fakeClock
	services  *ServiceManager
}

func newServiceFixture(t *testing.T, opts ...func(*Dependencies)) *serviceFixture {
	t.Helper()

	logger := utils.NewNopLogger()
	f := &serviceFixture{
		repo:      memory.NewRepository(),
		cache:     cache.NewMemoryCache(),
		publisher: events.NewMockEventPublisher(utils.ToSlogLogger(logger)),
		metrics:   metrics.New(),
		clock:     &fakeClock{now: testStart},
	}
	deps := Dependencies{
		Repo:      f.repo,
		Cache:     f.cache,
		Limiter:   ratelimit.Noop{},
		Publisher: f.publisher,
		Metrics:   f.metrics,
		Logger:    logger,
		Clock:     f.clock.Now,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.services = NewServiceManager(deps)
	return f
}

func (f *serviceFixture) createQuiz(t *testing.T, quiz *models.Quiz) *models.Quiz {
	t.Helper()
	require.NoError(t, f.repo.Quiz().Create(context.Background(), quiz))
	return quiz
}

func (f *serviceFixture) startAttempt(t *testing.T, quizID uint) *models.StartAttemptResponse {
	t.Helper()
	resp, err := f.services.Attempt.Start(context.Background(), &StartAttemptRequest{QuizID: quizID, SessionID: testSession})
	require.NoError(t, err)
	return resp
}

// sampleQuiz holds one question of every type:
//
//	0: multiple choice, correct {0,2}
//	1: true/false, correct "true"
//	2: fill blanks, Paris / France / Europe
//	3: matching, (0,1) and (1,0)
func sampleQuiz() *models.Quiz {
	return &models.Quiz{
		Title:        "Geography basics",
		Published:    true,
		PassingScore: 70,
		ShowResults:  true,
		Questions: datatypes.NewJSONSlice([]models.Question{
			{
				Type:           models.MultipleChoice,
				Prompt:         "Which of these are European capitals?",
				Options:        []string{"Paris", "Lyon", "Rome", "Milan"},
				CorrectAnswers: []int{0, 2},
			},
			{
				Type:          models.TrueFalse,
				Prompt:        "Paris is the capital of France",
				CorrectAnswer: "true",
			},
			{
				Type:           models.FillBlanks,
				Prompt:         "Complete the sentence",
				TextWithBlanks: "{{blank}} is in {{blank}}, which is in {{blank}}.",
				WordBank:       []string{"Paris", "France", "Europe"},
			},
			{
				Type:         models.Matching,
				Prompt:       "Match the capitals",
				LeftItems:    []string{"Paris", "Rome"},
				RightItems:   []string{"Italy", "France", "Spain"},
				CorrectPairs: []models.MatchPair{{Left: 0, Right: 1}, {Left: 1, Right: 0}},
			},
		}),
	}
}

// partialAnswers earns 5 of 8 points on sampleQuiz
func partialAnswers() map[int]any {
	return map[int]any{
		0: []any{float64(0), float64(1), float64(2)},
		1: "false",
		2: []any{"paris", "France", ""},
		3: map[string]any{"0": float64(1), "1": float64(2)},
	}
}

func perfectAnswers() map[int]any {
	return map[int]any{
		0: []any{float64(0), float64(2)},
		1: true,
		2: []any{"Paris", "France", "Europe"},
		3: map[string]any{"0": float64(1), "1": float64(0)},
	}
}
