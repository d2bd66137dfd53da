package services

import (
	"context"
	"math/rand"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// QuestionSelector picks which bank indices an attempt will show.
// candidates holds the scorable indices in bank order.
type QuestionSelector interface {
	Select(ctx context.Context, quiz *models.Quiz, candidates []int, sessionID string) ([]int, error)
}

// questionsToShow returns how many of the candidates an attempt gets
func questionsToShow(quiz *models.Quiz, candidates int) int {
	if quiz.QuestionsToShow > 0 && quiz.QuestionsToShow < candidates {
		return quiz.QuestionsToShow
	}
	return candidates
}

// PrefixSelector takes the first N candidates
type PrefixSelector struct{}

func (PrefixSelector) Select(_ context.Context, quiz *models.Quiz, candidates []int, _ string) ([]int, error) {
	n := questionsToShow(quiz, len(candidates))
	return append([]int(nil), candidates[:n]...), nil
}

// FreshFirstSelector shuffles the candidates and prefers questions the
// session has not seen in its completed attempts, topping up with seen ones.
type FreshFirstSelector struct {
	repo    repositories.Repository
	logger  utils.Logger
	shuffle func(n int, swap func(i, j int))
}

func NewFreshFirstSelector(repo repositories.Repository, logger utils.Logger) *FreshFirstSelector {
	return &FreshFirstSelector{repo: repo, logger: logger, shuffle: rand.Shuffle}
}

func (s *FreshFirstSelector) Select(ctx context.Context, quiz *models.Quiz, candidates []int, sessionID string) ([]int, error) {
	shuffled := append([]int(nil), candidates...)
	s.shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	seen := make(map[int]bool)
	shown, err := s.repo.Attempt().GetShownQuestions(ctx, quiz.ID, sessionID)
	if err != nil {
		s.logger.Warn("Could not load previously shown questions, selecting without history",
			"quiz_id", quiz.ID, "error", err)
	}
	for _, idx := range shown {
		seen[idx] = true
	}

	ordered := make([]int, 0, len(shuffled))
	for _, idx := range shuffled {
		if !seen[idx] {
			ordered = append(ordered, idx)
		}
	}
	for _, idx := range shuffled {
		if seen[idx] {
			ordered = append(ordered, idx)
		}
	}
	return ordered[:questionsToShow(quiz, len(ordered))], nil
}

// QuizSelector dispatches on the quiz's randomize setting
type QuizSelector struct {
	Fixed      QuestionSelector
	Randomized QuestionSelector
}

func (s QuizSelector) Select(ctx context.Context, quiz *models.Quiz, candidates []int, sessionID string) ([]int, error) {
	if quiz.RandomizeQuestions && s.Randomized != nil {
		return s.Randomized.Select(ctx, quiz, candidates, sessionID)
	}
	return s.Fixed.Select(ctx, quiz, candidates, sessionID)
}
