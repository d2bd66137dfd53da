package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/scoring"
	"github.com/SAP-F-2025/quiz-service/internal/utils"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

const (
	statsCacheTTL         = time.Hour
	defaultDifficultLimit = 10
	maxDifficultLimit     = 100
)

type analyticsService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger utils.Logger
}

func NewAnalyticsService(deps Dependencies) AnalyticsService {
	deps = deps.withDefaults()
	return &analyticsService{
		repo:   deps.Repo,
		cache:  deps.Cache,
		logger: deps.Logger,
	}
}

func statsCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:stats:%d", quizID)
}

// GetQuizStats aggregates attempts of a quiz, served from cache for an hour
func (s *analyticsService) GetQuizStats(ctx context.Context, quizID uint) (*models.QuizStats, error) {
	key := statsCacheKey(quizID)

	var cached models.QuizStats
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "Stats cache unavailable", "quiz_id", quizID, "error", err)
	}

	if _, err := s.repo.Quiz().GetByID(ctx, quizID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	stats, err := s.repo.Attempt().GetQuizStats(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz stats: %w", err)
	}
	stats.AverageScore = scoring.Round2(stats.AverageScore)
	stats.AverageTimeSpent = scoring.Round2(stats.AverageTimeSpent)
	if stats.CompletedAttempts > 0 {
		stats.PassRate = scoring.Round2(float64(stats.PassedAttempts) / float64(stats.CompletedAttempts) * 100)
	}

	if err := s.cache.Set(ctx, key, stats, statsCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Failed to cache quiz stats", "quiz_id", quizID, "error", err)
	}
	return stats, nil
}

func (s *analyticsService) GetDifficultQuestions(ctx context.Context, quizID uint, limit int) ([]*models.DifficultQuestion, error) {
	switch {
	case limit <= 0:
		limit = defaultDifficultLimit
	case limit > maxDifficultLimit:
		limit = maxDifficultLimit
	}

	questions, err := s.repo.Answer().GetDifficultQuestions(ctx, quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get difficult questions: %w", err)
	}
	return questions, nil
}

func (s *analyticsService) InvalidateQuizStats(ctx context.Context, quizID uint) {
	if err := s.cache.Delete(ctx, statsCacheKey(quizID)); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate quiz stats", "quiz_id", quizID, "error", err)
	}
}
