package services

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	analytics AnalyticsService
	validator *validator.Validator
	opLog     *ServiceLogger
}

func NewQuizService(deps Dependencies, analytics AnalyticsService) QuizService {
	deps = deps.withDefaults()
	return &quizService{
		repo:      deps.Repo,
		analytics: analytics,
		validator: deps.Validator,
		opLog:     NewServiceLogger(deps.Logger, LogConfig{Service: "quiz-service", Component: "quizzes"}),
	}
}

// Save creates the quiz when req.ID is zero and replaces it otherwise. Invalid
// questions are dropped from the stored bank and reported back.
func (s *quizService) Save(ctx context.Context, req *SaveQuizRequest) (resp *SaveQuizResponse, err error) {
	op := s.opLog.WithOperation(ctx, "save_quiz", "")
	defer func() {
		var id string
		if resp != nil {
			id = fmt.Sprint(resp.Quiz.ID)
		}
		op.LogResult(id, err)
	}()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bank := s.validator.Question().ValidateBank(req.Questions)

	quiz := &models.Quiz{
		ID:                 req.ID,
		Title:              req.Title,
		Published:          req.Published,
		PassingScore:       models.DefaultPassingScore,
		TimeLimitMinutes:   req.TimeLimitMinutes,
		QuestionsToShow:    req.QuestionsToShow,
		RandomizeQuestions: req.RandomizeQuestions,
		ShowResults:        true,
		LessonID:           req.LessonID,
		Questions:          datatypes.NewJSONSlice(bank.Questions()),
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.ShowResults != nil {
		quiz.ShowResults = *req.ShowResults
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if quiz.LessonID != nil {
			if _, err := tx.Lesson().GetByID(ctx, *quiz.LessonID); err != nil {
				if repositories.IsNotFoundError(err) {
					return ErrLessonNotFound
				}
				return fmt.Errorf("failed to get lesson: %w", err)
			}
		}

		if quiz.ID == 0 {
			if err := tx.Quiz().Create(ctx, quiz); err != nil {
				return fmt.Errorf("failed to create quiz: %w", err)
			}
			return nil
		}

		existing, err := tx.Quiz().GetByID(ctx, quiz.ID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		quiz.CreatedAt = existing.CreatedAt
		if err := tx.Quiz().Update(ctx, quiz); err != nil {
			return fmt.Errorf("failed to update quiz: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.ID != 0 {
		s.analytics.InvalidateQuizStats(ctx, quiz.ID)
	}

	rejected := bank.Rejected
	if rejected == nil {
		rejected = []validator.RejectedQuestion{}
	}
	return &SaveQuizResponse{Quiz: quiz, Rejected: rejected}, nil
}

func (s *quizService) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	return getQuiz(ctx, s.repo, id)
}

// GetSettings returns what a client needs before starting, without the answers
func (s *quizService) GetSettings(ctx context.Context, id uint) (*models.QuizSettings, error) {
	quiz, err := getQuiz(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !quiz.Published {
		return nil, ErrQuizNotFound
	}

	total := len(scorableIndices(quiz.Bank()))
	return &models.QuizSettings{
		QuizID:             quiz.ID,
		Title:              quiz.Title,
		TimeLimitMinutes:   quiz.TimeLimitMinutes,
		PassingScore:       quiz.EffectivePassingScore(),
		QuestionsToShow:    questionsToShow(quiz, total),
		TotalQuestions:     total,
		RandomizeQuestions: quiz.RandomizeQuestions,
		ShowResults:        quiz.ShowResults,
	}, nil
}

func (s *quizService) List(ctx context.Context, published *bool, limit, offset int) ([]*models.Quiz, int64, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	quizzes, total, err := s.repo.Quiz().List(ctx, repositories.QuizFilters{
		Published: published,
		Limit:     limit,
		Offset:    offset,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, total, nil
}
