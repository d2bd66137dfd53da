package services

import (
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/scoring"
)

// ===== SELECTION =====

func scorableIndices(bank []models.Question) []int {
	var out []int
	for _, q := range bank {
		if q.IsScorable() {
			out = append(out, q.Index)
		}
	}
	return out
}

// shownQuestions returns the bank questions an attempt was given, in the
// order they were shown.
func shownQuestions(bank []models.Question, shown []int) []models.Question {
	out := make([]models.Question, 0, len(shown))
	for _, idx := range shown {
		if idx >= 0 && idx < len(bank) {
			out = append(out, bank[idx])
		}
	}
	return out
}

// attemptBank is the bank an attempt is answered and scored against: the
// questions frozen at start, or the quiz's current bank for attempts stored
// without a snapshot.
func attemptBank(attempt *models.QuizAttempt, quiz *models.Quiz) []models.Question {
	if bank, ok := attempt.SnapshotBank(); ok {
		return bank
	}
	return quiz.Bank()
}

// ===== ANSWERS =====

// mergeAnswers normalizes submitted answers over the recorded ones. Indices
// outside the attempt's question set are dropped.
func mergeAnswers(bank []models.Question, attempt *models.QuizAttempt, submitted map[int]any) models.AnswerSet {
	merged := attempt.AnswerSet()
	for idx, raw := range submitted {
		if idx < 0 || idx >= len(bank) || !attempt.IsShown(idx) {
			continue
		}
		if value := scoring.Normalize(bank[idx].Type, raw); value != nil {
			merged[idx] = value
		}
	}
	return merged
}

func mergeTimings(attempt *models.QuizAttempt, submitted map[int]int) models.TimingSet {
	merged := attempt.TimingSet()
	for idx, seconds := range submitted {
		if !attempt.IsShown(idx) || seconds < 0 {
			continue
		}
		merged[idx] = ptr(seconds)
	}
	return merged
}

func hasAnswers(answers models.AnswerSet) bool {
	for _, a := range answers {
		if a != nil && !a.IsEmpty() {
			return true
		}
	}
	return false
}

// ===== COMPLETION =====

func freezeAttempt(attempt *models.QuizAttempt, result *models.QuizResult, answers models.AnswerSet, timings models.TimingSet, now time.Time) {
	ended := now
	spent := max(int(now.Sub(attempt.StartedAt).Seconds()), 0)

	attempt.Status = models.AttemptCompleted
	attempt.EndedAt = &ended
	attempt.TimeSpent = &spent
	attempt.Answers = datatypes.NewJSONType(answers)
	attempt.Timings = datatypes.NewJSONType(timings)

	attempt.ScorePercent = ptr(result.ScorePercent)
	attempt.TotalPoints = ptr(result.TotalPoints)
	attempt.EarnedPoints = ptr(result.EarnedPoints)
	attempt.CorrectAnswers = ptr(result.CorrectFullQuestionCount)
	attempt.TotalQuestions = ptr(result.TotalQuestions)
	attempt.Passed = ptr(result.Passed)
	attempt.PassingScore = ptr(result.PassingScore)
}

// applyFrozenScore overwrites recomputed aggregates with the values stored
// at completion.
func applyFrozenScore(result *models.QuizResult, attempt *models.QuizAttempt) {
	if attempt.ScorePercent != nil {
		result.ScorePercent = *attempt.ScorePercent
	}
	if attempt.TotalPoints != nil {
		result.TotalPoints = *attempt.TotalPoints
	}
	if attempt.EarnedPoints != nil {
		result.EarnedPoints = *attempt.EarnedPoints
	}
	if attempt.CorrectAnswers != nil {
		result.CorrectFullQuestionCount = *attempt.CorrectAnswers
	}
	if attempt.TotalQuestions != nil {
		result.TotalQuestions = *attempt.TotalQuestions
	}
	if attempt.Passed != nil {
		result.Passed = *attempt.Passed
	}
	if attempt.PassingScore != nil {
		result.PassingScore = *attempt.PassingScore
	}
	result.TimeTaken = attempt.TimeSpent
}

// buildAnswerRows produces one row per scored question, answered or not
func buildAnswerRows(attempt *models.QuizAttempt, questions []models.Question, answers models.AnswerSet, timings models.TimingSet, result *models.QuizResult) []*models.QuizAnswer {
	byIndex := make(map[int]models.QuestionDetail, len(result.PerQuestionDetail))
	for _, d := range result.PerQuestionDetail {
		byIndex[d.QuestionIndex] = d
	}

	rows := make([]*models.QuizAnswer, 0, len(byIndex))
	for _, q := range questions {
		detail, ok := byIndex[q.Index]
		if !ok {
			continue
		}
		rows = append(rows, &models.QuizAnswer{
			AttemptID:     attempt.AttemptID,
			QuizID:        attempt.QuizID,
			QuestionIndex: q.Index,
			QuestionType:  q.Type,
			UserAnswer:    scoring.FormatAnswer(q, answers[q.Index]),
			IsCorrect:     detail.IsFullyCorrect,
			EarnedPoints:  detail.EarnedPoints,
			MaxPoints:     detail.MaxPoints,
			TimeSpent:     timings[q.Index],
		})
	}
	return rows
}

// ===== UTILITY FUNCTIONS =====

func ownedBy(attempt *models.QuizAttempt, sessionID string) bool {
	return sessionID == "" || attempt.SessionID == sessionID
}

func ptr[T any](v T) *T {
	return &v
}
