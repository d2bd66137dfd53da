package memory

import (
	"context"
	"math"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

// ===== QUIZZES =====

type quizStore struct{ r *Repository }

func (q *quizStore) Create(ctx context.Context, quiz *models.Quiz) error {
	return q.r.write(ctx, func(s *state) error {
		if quiz.ID == 0 {
			s.nextQuizID++
			quiz.ID = s.nextQuizID
		} else if _, exists := s.quizzes[quiz.ID]; exists {
			return repositories.ErrDuplicateKey
		}
		s.nextQuizID = max(s.nextQuizID, quiz.ID)
		now := time.Now()
		quiz.CreatedAt, quiz.UpdatedAt = now, now
		stored := *quiz
		s.quizzes[quiz.ID] = &stored
		return nil
	})
}

func (q *quizStore) Update(ctx context.Context, quiz *models.Quiz) error {
	return q.r.write(ctx, func(s *state) error {
		existing, ok := s.quizzes[quiz.ID]
		if !ok {
			return repositories.ErrNotFound
		}
		quiz.CreatedAt = existing.CreatedAt
		quiz.UpdatedAt = time.Now()
		stored := *quiz
		s.quizzes[quiz.ID] = &stored
		return nil
	})
}

func (q *quizStore) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	var out *models.Quiz
	err := q.r.read(ctx, func(s *state) error {
		quiz, ok := s.quizzes[id]
		if !ok {
			return repositories.ErrNotFound
		}
		c := *quiz
		out = &c
		return nil
	})
	return out, err
}

func (q *quizStore) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var out []*models.Quiz
	err := q.r.read(ctx, func(s *state) error {
		for _, quiz := range s.quizzes {
			if filters.Published != nil && quiz.Published != *filters.Published {
				continue
			}
			c := *quiz
			out = append(out, &c)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	less := func(a, b *models.Quiz) bool {
		if filters.SortBy == "title" && a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	}
	asc := strings.EqualFold(filters.SortOrder, "asc")
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	total := int64(len(out))
	return paginate(out, filters.Limit, filters.Offset), total, nil
}

// ===== ATTEMPTS =====

type attemptStore struct{ r *Repository }

func (a *attemptStore) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.r.write(ctx, func(s *state) error {
		if _, exists := s.attempts[attempt.AttemptID]; exists {
			return repositories.ErrDuplicateKey
		}
		s.nextAttemptID++
		attempt.ID = s.nextAttemptID
		now := time.Now()
		attempt.CreatedAt, attempt.UpdatedAt = now, now
		s.attempts[attempt.AttemptID] = attempt.Clone()
		return nil
	})
}

func (a *attemptStore) GetByAttemptID(ctx context.Context, attemptID string) (*models.QuizAttempt, error) {
	var out *models.QuizAttempt
	err := a.r.read(ctx, func(s *state) error {
		attempt, ok := s.attempts[attemptID]
		if !ok {
			return repositories.ErrNotFound
		}
		out = attempt.Clone()
		return nil
	})
	return out, err
}

// GetForUpdate relies on the transaction lock for exclusivity
func (a *attemptStore) GetForUpdate(ctx context.Context, attemptID string) (*models.QuizAttempt, error) {
	return a.GetByAttemptID(ctx, attemptID)
}

func (a *attemptStore) ExistsAttemptID(ctx context.Context, attemptID string) (bool, error) {
	var exists bool
	err := a.r.read(ctx, func(s *state) error {
		_, exists = s.attempts[attemptID]
		return nil
	})
	return exists, err
}

func (a *attemptStore) UpdateIfStarted(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.r.write(ctx, func(s *state) error {
		existing, ok := s.attempts[attempt.AttemptID]
		if !ok {
			return repositories.ErrNotFound
		}
		if existing.Status != models.AttemptStarted {
			return repositories.ErrStatusConflict
		}
		updated := attempt.Clone()
		updated.ID = existing.ID
		updated.QuizID = existing.QuizID
		updated.SessionID = existing.SessionID
		updated.StartedAt = existing.StartedAt
		updated.QuestionsShown = existing.QuestionsShown
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now()
		s.attempts[attempt.AttemptID] = updated
		return nil
	})
}

func (a *attemptStore) MarkAbandoned(ctx context.Context, cutoff, endedAt time.Time) (int64, error) {
	var changed int64
	err := a.r.write(ctx, func(s *state) error {
		for _, attempt := range s.attempts {
			if attempt.Status != models.AttemptStarted || !attempt.StartedAt.Before(cutoff) {
				continue
			}
			ended := endedAt
			attempt.Status = models.AttemptAbandoned
			attempt.EndedAt = &ended
			attempt.UpdatedAt = endedAt
			changed++
		}
		return nil
	})
	return changed, err
}

func (a *attemptStore) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var out []*models.QuizAttempt
	err := a.r.read(ctx, func(s *state) error {
		for _, attempt := range s.attempts {
			if matchesAttempt(attempt, filters) {
				out = append(out, attempt.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	less := func(a, b *models.QuizAttempt) bool {
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.Before(b.StartedAt)
		}
		return a.ID < b.ID
	}
	asc := strings.EqualFold(filters.SortOrder, "asc")
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	total := int64(len(out))
	return paginate(out, filters.Limit, filters.Offset), total, nil
}

func matchesAttempt(a *models.QuizAttempt, f repositories.AttemptFilters) bool {
	switch {
	case f.SessionID != "" && a.SessionID != f.SessionID:
		return false
	case f.QuizID != nil && a.QuizID != *f.QuizID:
		return false
	case f.Status != "" && a.Status != f.Status:
		return false
	case f.DateFrom != nil && a.StartedAt.Before(*f.DateFrom):
		return false
	case f.DateTo != nil && a.StartedAt.After(*f.DateTo):
		return false
	}
	return true
}

func (a *attemptStore) GetShownQuestions(ctx context.Context, quizID uint, sessionID string) ([]int, error) {
	seen := make(map[int]struct{})
	err := a.r.read(ctx, func(s *state) error {
		for _, attempt := range s.attempts {
			if attempt.QuizID != quizID || attempt.SessionID != sessionID || attempt.Status != models.AttemptCompleted {
				continue
			}
			for _, idx := range attempt.QuestionsShown {
				seen[idx] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}

func (a *attemptStore) GetQuizStats(ctx context.Context, quizID uint) (*models.QuizStats, error) {
	stats := &models.QuizStats{QuizID: quizID}
	err := a.r.read(ctx, func(s *state) error {
		var scoreSum, timeSum float64
		var scored, timed int64
		for _, attempt := range s.attempts {
			if attempt.QuizID != quizID {
				continue
			}
			stats.TotalAttempts++
			switch attempt.Status {
			case models.AttemptAbandoned:
				stats.AbandonedAttempts++
				continue
			case models.AttemptStarted:
				continue
			}

			stats.CompletedAttempts++
			if attempt.Passed != nil && *attempt.Passed {
				stats.PassedAttempts++
			} else {
				stats.FailedAttempts++
			}
			if attempt.ScorePercent != nil {
				score := *attempt.ScorePercent
				if scored == 0 {
					stats.HighestScore, stats.LowestScore = score, score
				}
				scoreSum += score
				scored++
				stats.HighestScore = math.Max(stats.HighestScore, score)
				stats.LowestScore = math.Min(stats.LowestScore, score)
			}
			if attempt.TimeSpent != nil {
				timeSum += float64(*attempt.TimeSpent)
				timed++
			}
		}
		if scored > 0 {
			stats.AverageScore = scoreSum / float64(scored)
		}
		if timed > 0 {
			stats.AverageTimeSpent = timeSum / float64(timed)
		}
		return nil
	})
	return stats, err
}

// ===== ANSWERS =====

type answerStore struct{ r *Repository }

func (a *answerStore) CreateBatch(ctx context.Context, answers []*models.QuizAnswer) error {
	return a.r.write(ctx, func(s *state) error {
		now := time.Now()
		for _, answer := range answers {
			s.nextAnswerID++
			answer.ID = s.nextAnswerID
			answer.CreatedAt = now
			c := *answer
			s.answers = append(s.answers, &c)
		}
		return nil
	})
}

func (a *answerStore) GetByAttempt(ctx context.Context, attemptID string) ([]*models.QuizAnswer, error) {
	var out []*models.QuizAnswer
	err := a.r.read(ctx, func(s *state) error {
		for _, answer := range s.answers {
			if answer.AttemptID == attemptID {
				c := *answer
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, err
}

func (a *answerStore) GetDifficultQuestions(ctx context.Context, quizID uint, limit int) ([]*models.DifficultQuestion, error) {
	byIndex := make(map[int]*models.DifficultQuestion)
	err := a.r.read(ctx, func(s *state) error {
		for _, answer := range s.answers {
			if answer.QuizID != quizID {
				continue
			}
			dq, ok := byIndex[answer.QuestionIndex]
			if !ok {
				dq = &models.DifficultQuestion{
					QuestionIndex: answer.QuestionIndex,
					QuestionType:  string(answer.QuestionType),
				}
				byIndex[answer.QuestionIndex] = dq
			}
			dq.TotalAnswers++
			if answer.IsCorrect {
				dq.CorrectCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*models.DifficultQuestion, 0, len(byIndex))
	for _, dq := range byIndex {
		dq.SuccessRate = math.Round(float64(dq.CorrectCount)/float64(dq.TotalAnswers)*10000) / 100
		out = append(out, dq)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SuccessRate != out[j].SuccessRate {
			return out[i].SuccessRate < out[j].SuccessRate
		}
		return out[i].QuestionIndex < out[j].QuestionIndex
	})
	return paginate(out, limit, 0), nil
}

// ===== LESSONS =====

type lessonStore struct{ r *Repository }

func (l *lessonStore) Create(ctx context.Context, lesson *models.Lesson) error {
	return l.r.write(ctx, func(s *state) error {
		if lesson.ID == 0 {
			s.nextLessonID++
			lesson.ID = s.nextLessonID
		} else if _, exists := s.lessons[lesson.ID]; exists {
			return repositories.ErrDuplicateKey
		}
		s.nextLessonID = max(s.nextLessonID, lesson.ID)
		c := *lesson
		s.lessons[lesson.ID] = &c
		return nil
	})
}

func (l *lessonStore) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var out *models.Lesson
	err := l.r.read(ctx, func(s *state) error {
		lesson, ok := s.lessons[id]
		if !ok {
			return repositories.ErrNotFound
		}
		c := *lesson
		out = &c
		return nil
	})
	return out, err
}

type progressStore struct{ r *Repository }

func (p *progressStore) GetSection(ctx context.Context, lessonID uint, sessionID string, sectionIndex int) (*models.LessonProgress, error) {
	var out *models.LessonProgress
	err := p.r.read(ctx, func(s *state) error {
		progress, ok := s.progress[progressKey{lessonID, sessionID, sectionIndex}]
		if !ok {
			return repositories.ErrNotFound
		}
		c := *progress
		out = &c
		return nil
	})
	return out, err
}

func (p *progressStore) Upsert(ctx context.Context, progress *models.LessonProgress) error {
	return p.r.write(ctx, func(s *state) error {
		key := progressKey{progress.LessonID, progress.SessionID, progress.SectionIndex}
		now := time.Now()
		if existing, ok := s.progress[key]; ok {
			progress.ID = existing.ID
			progress.CreatedAt = existing.CreatedAt
		} else {
			s.nextProgressID++
			progress.ID = s.nextProgressID
			progress.CreatedAt = now
		}
		progress.UpdatedAt = now
		c := *progress
		s.progress[key] = &c
		return nil
	})
}

func (p *progressStore) GetByLessonAndSession(ctx context.Context, lessonID uint, sessionID string) ([]*models.LessonProgress, error) {
	var out []*models.LessonProgress
	err := p.r.read(ctx, func(s *state) error {
		for key, progress := range s.progress {
			if key.lessonID == lessonID && key.sessionID == sessionID {
				c := *progress
				out = append(out, &c)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *models.LessonProgress) int { return a.SectionIndex - b.SectionIndex })
	return out, err
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
