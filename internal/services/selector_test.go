package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/memory"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

func noShuffle(int, func(i, j int)) {}

func reverseShuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func TestPrefixSelector(t *testing.T) {
	tests := []struct {
		name   string
		toShow int
		want   []int
	}{
		{"show all when unset", 0, []int{0, 2, 5}},
		{"truncate", 2, []int{0, 2}},
		{"more than available", 10, []int{0, 2, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrefixSelector{}.Select(context.Background(), &models.Quiz{QuestionsToShow: tt.toShow}, []int{0, 2, 5}, testSession)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFreshFirstSelector(t *testing.T) {
	repo := memory.NewRepository()
	ctx := context.Background()
	quiz := &models.Quiz{ID: 1, QuestionsToShow: 3, RandomizeQuestions: true}

	require.NoError(t, repo.Attempt().Create(ctx, &models.QuizAttempt{
		AttemptID:      "tst0000000001",
		QuizID:         quiz.ID,
		SessionID:      testSession,
		Status:         models.AttemptCompleted,
		StartedAt:      testStart,
		QuestionsShown: datatypes.JSONSlice[int]{0, 1},
	}))
	// still running attempts do not count as seen
	require.NoError(t, repo.Attempt().Create(ctx, &models.QuizAttempt{
		AttemptID:      "tst0000000002",
		QuizID:         quiz.ID,
		SessionID:      testSession,
		Status:         models.AttemptStarted,
		StartedAt:      testStart,
		QuestionsShown: datatypes.JSONSlice[int]{2},
	}))

	candidates := []int{0, 1, 2, 3}

	t.Run("unseen first", func(t *testing.T) {
		s := NewFreshFirstSelector(repo, utils.NewNopLogger())
		s.shuffle = noShuffle

		got, err := s.Select(ctx, quiz, candidates, testSession)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 0}, got)
	})

	t.Run("shuffle order kept within groups", func(t *testing.T) {
		s := NewFreshFirstSelector(repo, utils.NewNopLogger())
		s.shuffle = reverseShuffle

		got, err := s.Select(ctx, quiz, candidates, testSession)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 2, 1}, got)
	})

	t.Run("other session has no history", func(t *testing.T) {
		s := NewFreshFirstSelector(repo, utils.NewNopLogger())
		s.shuffle = noShuffle

		got, err := s.Select(ctx, quiz, candidates, "sess-2")
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, got)
	})

	t.Run("history failure falls back to shuffle", func(t *testing.T) {
		s := NewFreshFirstSelector(repo, utils.NewNopLogger())
		s.shuffle = noShuffle

		canceled, cancel := context.WithCancel(ctx)
		cancel()
		got, err := s.Select(canceled, quiz, candidates, testSession)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, got)
	})

	t.Run("candidates are not mutated", func(t *testing.T) {
		s := NewFreshFirstSelector(repo, utils.NewNopLogger())
		s.shuffle = reverseShuffle

		in := []int{0, 1, 2, 3}
		_, err := s.Select(ctx, quiz, in, testSession)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3}, in)
	})
}

func TestQuizSelector(t *testing.T) {
	randomized := NewFreshFirstSelector(memory.NewRepository(), utils.NewNopLogger())
	randomized.shuffle = reverseShuffle
	s := QuizSelector{Fixed: PrefixSelector{}, Randomized: randomized}

	fixed, err := s.Select(context.Background(), &models.Quiz{ID: 1}, []int{0, 1, 2}, testSession)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, fixed)

	shuffled, err := s.Select(context.Background(), &models.Quiz{ID: 1, RandomizeQuestions: true}, []int{0, 1, 2}, testSession)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 0}, shuffled)
}
