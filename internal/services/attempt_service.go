package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/metrics"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/ratelimit"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/scoring"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

const (
	attemptIDPrefix     = "tst"
	attemptIDLength     = 10
	attemptIDRetries    = 5
	progressCacheTTL    = time.Hour
	progressCachePrefix = "quiz:progress:"
	defaultListLimit    = 20
	limiterWarnInterval = time.Minute
)

type attemptService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	limiter   ratelimit.Limiter
	selector  QuestionSelector
	analytics AnalyticsService
	events    AttemptEventService
	metrics   *metrics.Metrics
	validator *validator.Validator
	logger    utils.Logger
	opLog     *ServiceLogger
	now       func() time.Time
	newID     func() string

	limiterWarn *rate.Sometimes
}

func NewAttemptService(deps Dependencies, selector QuestionSelector, analytics AnalyticsService, events AttemptEventService) AttemptService {
	deps = deps.withDefaults()
	return &attemptService{
		repo:      deps.Repo,
		cache:     deps.Cache,
		limiter:   deps.Limiter,
		selector:  selector,
		analytics: analytics,
		events:    events,
		metrics:   deps.Metrics,
		validator: deps.Validator,
		logger:    deps.Logger,
		opLog:     NewServiceLogger(deps.Logger, LogConfig{Service: "quiz-service", Component: "attempts"}),
		now:       deps.Clock,
		newID:     newAttemptID,

		limiterWarn: &rate.Sometimes{First: 1, Interval: limiterWarnInterval},
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest) (resp *models.StartAttemptResponse, err error) {
	op := s.opLog.WithOperation(ctx, "start_attempt", req.SessionID)
	defer func() {
		var id string
		if resp != nil {
			id = resp.AttemptID
		}
		op.LogResult(id, err)
	}()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, req.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if !quiz.Published {
		return nil, ErrQuizNotFound
	}

	// Rate limit per session
	decision, err := s.limiter.Allow(ctx, req.SessionID)
	if err != nil {
		s.limiterWarn.Do(func() {
			s.logger.WarnContext(ctx, "Rate limiter unavailable, allowing start",
				"session_id", req.SessionID, "error", err)
		})
	} else if !decision.Allowed {
		s.metrics.ObserveRejected("start", "rate_limited")
		return nil, &RateLimitError{SessionID: req.SessionID, RetryAfter: decision.RetryAfter}
	}

	bank := quiz.Bank()
	candidates := scorableIndices(bank)
	if len(candidates) == 0 {
		s.metrics.ObserveRejected("start", "no_questions")
		return nil, ErrNoQuestions
	}
	selected, err := s.selector.Select(ctx, quiz, candidates, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select questions: %w", err)
	}
	if len(selected) == 0 {
		return nil, ErrNoQuestions
	}

	attempt := &models.QuizAttempt{
		QuizID:           quiz.ID,
		SessionID:        req.SessionID,
		Status:           models.AttemptStarted,
		StartedAt:        s.now(),
		QuestionsShown:   datatypes.JSONSlice[int](selected),
		QuestionSnapshot: datatypes.JSONSlice[models.Question](shownQuestions(bank, selected)),
		Answers:          datatypes.NewJSONType(models.AnswerSet{}),
		Timings:          datatypes.NewJSONType(models.TimingSet{}),
	}
	if err := s.createWithUniqueID(ctx, attempt); err != nil {
		return nil, err
	}

	s.metrics.ObserveStarted(quiz.ID)
	_ = s.events.NotifyAttemptStarted(ctx, attempt, quiz)

	s.logger.InfoContext(ctx, "Quiz attempt started",
		"attempt_id", attempt.AttemptID,
		"quiz_id", quiz.ID,
		"session_id", req.SessionID,
		"questions", len(selected))

	return &models.StartAttemptResponse{
		AttemptID:        attempt.AttemptID,
		TotalQuestions:   len(selected),
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		QuestionIndices:  selected,
	}, nil
}

func (s *attemptService) RecordAnswer(ctx context.Context, req *RecordAnswerRequest) (err error) {
	op := s.opLog.WithOperation(ctx, "record_answer", req.SessionID)
	defer func() { op.LogResult(req.AttemptID, err) }()

	if err := s.validator.Validate(req); err != nil {
		return err
	}

	return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		attempt, quiz, err := s.loadRunningAttempt(ctx, tx, req.AttemptID, req.SessionID)
		if err != nil {
			return err
		}

		bank := attemptBank(attempt, quiz)
		if !attempt.IsShown(req.QuestionIndex) || req.QuestionIndex >= len(bank) {
			return ErrQuestionNotInAttempt
		}

		answers := attempt.AnswerSet()
		answers[req.QuestionIndex] = scoring.Normalize(bank[req.QuestionIndex].Type, req.Answer)
		attempt.Answers = datatypes.NewJSONType(answers)
		if req.ElapsedSeconds != nil {
			timings := attempt.TimingSet()
			timings[req.QuestionIndex] = ptr(*req.ElapsedSeconds)
			attempt.Timings = datatypes.NewJSONType(timings)
		}
		attempt.CurrentQuestionIndex = req.QuestionIndex

		return s.saveRunningAttempt(ctx, tx, attempt)
	})
}

// CheckTimeout rejects completion once a positive time limit has passed
func CheckTimeout(attempt *models.QuizAttempt, quiz *models.Quiz, now time.Time) error {
	limit := quiz.TimeLimit()
	if limit > 0 && now.Sub(attempt.StartedAt) > limit {
		return ErrTimeExpired
	}
	return nil
}

func (s *attemptService) Submit(ctx context.Context, req *SubmitAttemptRequest) (result *models.QuizResult, err error) {
	op := s.opLog.WithOperation(ctx, "submit_attempt", req.SessionID)
	defer func() { op.LogResult(req.AttemptID, err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var (
		completed *models.QuizAttempt
		quiz      *models.Quiz
		expired   *models.QuizAttempt
	)
	now := s.now()

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		attempt, err := tx.Attempt().GetForUpdate(ctx, req.AttemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if !ownedBy(attempt, req.SessionID) {
			return ErrAttemptNotFound
		}
		if attempt.Status != models.AttemptStarted {
			return ErrAttemptAlreadyCompleted
		}

		quiz, err = getQuiz(ctx, tx, attempt.QuizID)
		if err != nil {
			return err
		}

		if err := CheckTimeout(attempt, quiz, now); err != nil {
			expired = attempt
			return err
		}

		bank := attemptBank(attempt, quiz)
		answers := mergeAnswers(bank, attempt, req.Answers)
		if !hasAnswers(answers) {
			return ErrNoAnswers
		}
		timings := mergeTimings(attempt, req.Timings)

		questions := shownQuestions(bank, attempt.QuestionsShown)
		scored := scoring.ScoreQuiz(questions, answers, quiz.EffectivePassingScore())
		result = &scored

		freezeAttempt(attempt, result, answers, timings, now)
		if err := tx.Attempt().UpdateIfStarted(ctx, attempt); err != nil {
			switch {
			case errors.Is(err, repositories.ErrStatusConflict):
				return ErrAttemptAlreadyCompleted
			case repositories.IsNotFoundError(err):
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to complete attempt: %w", err)
		}

		if err := tx.Answer().CreateBatch(ctx, buildAnswerRows(attempt, questions, answers, timings, result)); err != nil {
			return fmt.Errorf("failed to save answers: %w", err)
		}
		completed = attempt
		return nil
	})

	if err != nil {
		s.observeSubmitFailure(ctx, err, expired, now)
		return nil, err
	}

	result.TimeTaken = ptr(*completed.TimeSpent)
	result.ShowAnswers = quiz.ShowResults
	if !quiz.ShowResults {
		result.PerQuestionDetail = nil
	}

	s.afterCompletion(ctx, completed, result)
	return result, nil
}

func (s *attemptService) SaveProgress(ctx context.Context, req *SaveProgressRequest) {
	var err error
	op := s.opLog.WithOperation(ctx, "save_progress", req.SessionID)
	defer func() { op.LogResult(req.AttemptID, err) }()

	if err = s.validator.Validate(req); err != nil {
		return
	}

	var answers models.AnswerSet
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		attempt, quiz, err := s.loadRunningAttempt(ctx, tx, req.AttemptID, req.SessionID)
		if err != nil {
			return err
		}
		answers = mergeAnswers(attemptBank(attempt, quiz), attempt, req.Answers)
		attempt.Answers = datatypes.NewJSONType(answers)
		attempt.CurrentQuestionIndex = req.CurrentQuestion
		return s.saveRunningAttempt(ctx, tx, attempt)
	})
	if err != nil {
		return
	}

	snapshot := ProgressSnapshot{
		AttemptID:       req.AttemptID,
		CurrentQuestion: req.CurrentQuestion,
		Answers:         answers,
		SavedAt:         s.now(),
		Status:          models.AttemptStarted,
	}
	if cacheErr := s.cache.Set(ctx, progressCachePrefix+req.AttemptID, snapshot, progressCacheTTL); cacheErr != nil {
		s.logger.WarnContext(ctx, "Failed to cache progress checkpoint",
			"attempt_id", req.AttemptID, "error", cacheErr)
	}
}

func (s *attemptService) GetProgress(ctx context.Context, attemptID, sessionID string) (*ProgressSnapshot, error) {
	attempt, err := s.GetByID(ctx, attemptID, sessionID)
	if err != nil {
		return nil, err
	}

	snapshot := ProgressSnapshot{
		AttemptID:       attempt.AttemptID,
		CurrentQuestion: attempt.CurrentQuestionIndex,
		Answers:         attempt.AnswerSet(),
		SavedAt:         attempt.UpdatedAt,
	}
	var cached ProgressSnapshot
	if err := s.cache.Get(ctx, progressCachePrefix+attemptID, &cached); err == nil && attempt.Status == models.AttemptStarted {
		snapshot.CurrentQuestion = cached.CurrentQuestion
		snapshot.SavedAt = cached.SavedAt
	}
	snapshot.QuestionIndices = append([]int(nil), attempt.QuestionsShown...)
	snapshot.Status = attempt.Status

	if attempt.Status == models.AttemptStarted {
		quiz, err := getQuiz(ctx, s.repo, attempt.QuizID)
		if err != nil {
			return nil, err
		}
		if limit := quiz.TimeLimit(); limit > 0 {
			remaining := max(int((limit - s.now().Sub(attempt.StartedAt)).Seconds()), 0)
			snapshot.Remaining = &remaining
		}
	}
	return &snapshot, nil
}

// ===== QUERIES =====

func (s *attemptService) GetByID(ctx context.Context, attemptID, sessionID string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByAttemptID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if !ownedBy(attempt, sessionID) {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

// GetResult rebuilds the result of a completed attempt. Score fields come
// from the frozen attempt, the breakdown is recomputed from stored answers.
func (s *attemptService) GetResult(ctx context.Context, attemptID, sessionID string) (*models.QuizResult, error) {
	attempt, err := s.GetByID(ctx, attemptID, sessionID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptCompleted {
		return nil, ErrResultNotAvailable
	}
	quiz, err := getQuiz(ctx, s.repo, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	passing := quiz.EffectivePassingScore()
	if attempt.PassingScore != nil {
		passing = *attempt.PassingScore
	}
	result := scoring.ScoreQuiz(shownQuestions(attemptBank(attempt, quiz), attempt.QuestionsShown), attempt.AnswerSet(), passing)
	applyFrozenScore(&result, attempt)
	result.ShowAnswers = quiz.ShowResults
	if !quiz.ShowResults {
		result.PerQuestionDetail = nil
	}
	return &result, nil
}

func (s *attemptService) ListBySession(ctx context.Context, req *ListAttemptsRequest) (*AttemptListResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	attempts, total, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{
		SessionID: req.SessionID,
		QuizID:    req.QuizID,
		Limit:     limit,
		Offset:    req.Offset,
		SortBy:    "started_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return &AttemptListResponse{Attempts: attempts, Total: total, Limit: limit, Offset: req.Offset}, nil
}

// ===== HELPERS =====

func newAttemptID() string {
	return attemptIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:attemptIDLength]
}

// createWithUniqueID assigns a fresh attempt id, retrying on collisions
func (s *attemptService) createWithUniqueID(ctx context.Context, attempt *models.QuizAttempt) error {
	for i := 0; i < attemptIDRetries; i++ {
		id := s.newID()
		exists, err := s.repo.Attempt().ExistsAttemptID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check attempt id: %w", err)
		}
		if exists {
			continue
		}

		attempt.AttemptID = id
		err = s.repo.Attempt().Create(ctx, attempt)
		if errors.Is(err, repositories.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}
		return nil
	}
	return ErrAttemptIDExhausted
}

func getQuiz(ctx context.Context, repo repositories.Repository, id uint) (*models.Quiz, error) {
	quiz, err := repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// loadRunningAttempt locks the attempt and checks it can still take answers
func (s *attemptService) loadRunningAttempt(ctx context.Context, tx repositories.Repository, attemptID, sessionID string) (*models.QuizAttempt, *models.Quiz, error) {
	attempt, err := tx.Attempt().GetForUpdate(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if !ownedBy(attempt, sessionID) {
		return nil, nil, ErrAttemptNotFound
	}
	if attempt.Status != models.AttemptStarted {
		return nil, nil, ErrAttemptClosed
	}
	quiz, err := getQuiz(ctx, tx, attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}
	return attempt, quiz, nil
}

func (s *attemptService) saveRunningAttempt(ctx context.Context, tx repositories.Repository, attempt *models.QuizAttempt) error {
	if err := tx.Attempt().UpdateIfStarted(ctx, attempt); err != nil {
		switch {
		case errors.Is(err, repositories.ErrStatusConflict):
			return ErrAttemptClosed
		case repositories.IsNotFoundError(err):
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to update attempt: %w", err)
	}
	return nil
}

func (s *attemptService) observeSubmitFailure(ctx context.Context, err error, expired *models.QuizAttempt, now time.Time) {
	status, _ := operationStatus(err)
	if status == "error" {
		return
	}
	s.metrics.ObserveRejected("submit", status)
	if expired != nil && IsTimeExpired(err) {
		_ = s.events.NotifyAttemptExpired(ctx, expired, now)
	}
}

func (s *attemptService) afterCompletion(ctx context.Context, attempt *models.QuizAttempt, result *models.QuizResult) {
	s.metrics.ObserveCompleted(attempt.QuizID, result.Passed, result.ScorePercent)
	s.analytics.InvalidateQuizStats(ctx, attempt.QuizID)
	if err := s.cache.Delete(ctx, progressCachePrefix+attempt.AttemptID); err != nil {
		s.logger.WarnContext(ctx, "Failed to drop progress checkpoint",
			"attempt_id", attempt.AttemptID, "error", err)
	}
	_ = s.events.NotifyAttemptCompleted(ctx, attempt, result)

	s.logger.InfoContext(ctx, "Quiz attempt completed",
		"attempt_id", attempt.AttemptID,
		"quiz_id", attempt.QuizID,
		"score", result.ScorePercent,
		"passed", result.Passed)
}
