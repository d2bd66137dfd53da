package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// DefaultAbandonAfter is how long a started attempt may sit untouched before
// a sweep marks it abandoned.
const DefaultAbandonAfter = 2 * time.Hour

type sweeper struct {
	repo    repositories.Repository
	events  AttemptEventService
	metrics *metrics.Metrics
	logger  utils.Logger
	now     func() time.Time
}

func NewSweeper(deps Dependencies, events AttemptEventService) AbandonmentSweeper {
	deps = deps.withDefaults()
	return &sweeper{
		repo:    deps.Repo,
		events:  events,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		now:     deps.Clock,
	}
}

// SweepAbandoned moves started attempts older than threshold to abandoned.
// Running it again without new stale attempts changes nothing.
func (s *sweeper) SweepAbandoned(ctx context.Context, threshold time.Duration) (int64, error) {
	if threshold <= 0 {
		threshold = DefaultAbandonAfter
	}
	now := s.now()
	cutoff := now.Add(-threshold)

	count, err := s.repo.Attempt().MarkAbandoned(ctx, cutoff, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Abandoned attempt sweep failed", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to mark abandoned attempts: %w", err)
	}

	s.logger.InfoContext(ctx, "Abandoned attempt sweep finished",
		"abandoned", count,
		"cutoff", cutoff,
		"threshold", threshold.String())

	if count > 0 {
		s.metrics.ObserveAbandoned(count)
		_ = s.events.NotifyAttemptsAbandoned(ctx, count, cutoff, now, threshold)
	}
	return count, nil
}
