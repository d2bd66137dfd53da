package services

import (
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/ratelimit"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

// Dependencies are the collaborators shared by every service. Only Repo is
// required; the rest fall back to in-process implementations.
type Dependencies struct {
	Repo      repositories.Repository
	Cache     cache.CacheService
	Limiter   ratelimit.Limiter
	Publisher events.EventPublisher
	Metrics   *metrics.Metrics
	Validator *validator.Validator
	Logger    utils.Logger
	Clock     func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = utils.NewNopLogger()
	}
	if d.Cache == nil {
		d.Cache = cache.NewMemoryCache()
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewLocalLimiter(ratelimit.Config{})
	}
	if d.Publisher == nil {
		d.Publisher = events.NewMockEventPublisher(utils.ToSlogLogger(d.Logger))
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// ServiceManager wires the services together
type ServiceManager struct {
	Attempt   AttemptService
	Quiz      QuizService
	Analytics AnalyticsService
	Lessons   LessonProgressService
	Sweeper   AbandonmentSweeper
}

func NewServiceManager(deps Dependencies) *ServiceManager {
	deps = deps.withDefaults()

	notifier := NewAttemptEventService(deps.Publisher, deps.Logger)
	analytics := NewAnalyticsService(deps)
	selector := QuizSelector{
		Fixed:      PrefixSelector{},
		Randomized: NewFreshFirstSelector(deps.Repo, deps.Logger),
	}

	return &ServiceManager{
		Attempt:   NewAttemptService(deps, selector, analytics, notifier),
		Quiz:      NewQuizService(deps, analytics),
		Analytics: analytics,
		Lessons:   NewLessonProgressService(deps, notifier),
		Sweeper:   NewSweeper(deps, notifier),
	}
}
