package scoring

import (
	"math"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

type QuestionScore struct {
	Earned float64
	Max    float64
}

// IsFullyCorrect reports earned == max. A zero-point question is trivially
// fully correct.
func (s QuestionScore) IsFullyCorrect() bool {
	return s.Earned == s.Max
}

func (s QuestionScore) IsPartial() bool {
	return s.Earned > 0 && s.Earned < s.Max
}

// MaxPoints returns the implicit point value of q.
func MaxPoints(q models.Question) float64 {
	switch q.Type {
	case models.MultipleChoice:
		return float64(max(len(uniqueInts(q.CorrectAnswers)), 1))
	case models.TrueFalse:
		return 1
	case models.FillBlanks:
		return float64(q.BlankCount())
	case models.Matching:
		return float64(len(uniquePairs(q.CorrectPairs)))
	}
	return 0
}

// ScoreQuestion scores one answer. A nil answer, or one normalized for a
// different question type, earns nothing.
func ScoreQuestion(q models.Question, a models.AnswerValue) QuestionScore {
	score := QuestionScore{Max: MaxPoints(q)}
	if a == nil || a.QuestionType() != q.Type {
		return score
	}

	switch q.Type {
	case models.MultipleChoice:
		score.Earned = scoreMultipleChoice(q, a.(models.MultipleChoiceAnswer))
	case models.TrueFalse:
		if a.(models.TrueFalseAnswer).Value == q.ExpectedTrueFalse() {
			score.Earned = 1
		}
	case models.FillBlanks:
		score.Earned = scoreFillBlanks(q, a.(models.FillBlankAnswer))
	case models.Matching:
		score.Earned = scoreMatching(q, a.(models.MatchingAnswer))
	}

	score.Earned = math.Min(score.Earned, score.Max)
	return score
}

func scoreMultipleChoice(q models.Question, a models.MultipleChoiceAnswer) float64 {
	correct := uniqueInts(q.CorrectAnswers)
	selected := uniqueInts(a.Selected)

	if len(correct) <= 1 {
		// single-answer questions need exactly the one right option
		if len(correct) == 1 && len(selected) == 1 && selected[0] == correct[0] {
			return 1
		}
		return 0
	}

	want := make(map[int]struct{}, len(correct))
	for _, c := range correct {
		want[c] = struct{}{}
	}
	var hits float64
	for _, s := range selected {
		if _, ok := want[s]; ok {
			hits++
		}
	}
	return hits
}

func scoreFillBlanks(q models.Question, a models.FillBlankAnswer) float64 {
	blanks := min(q.BlankCount(), len(q.WordBank))
	var hits float64
	for i := 0; i < blanks && i < len(a.Blanks); i++ {
		got := normalizeBlank(a.Blanks[i])
		if got == "" {
			continue
		}
		if got == normalizeBlank(q.WordBank[i]) {
			hits++
		}
	}
	return hits
}

func normalizeBlank(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func scoreMatching(q models.Question, a models.MatchingAnswer) float64 {
	var hits float64
	for _, p := range uniquePairs(q.CorrectPairs) {
		if right, ok := a.Pairs[p.Left]; ok && right == p.Right {
			hits++
		}
	}
	return hits
}

// ScoreQuiz scores every scorable question in questions against answers and
// aggregates the result. Answers for indices not present in questions are
// ignored.
func ScoreQuiz(questions []models.Question, answers models.AnswerSet, passingScore int) models.QuizResult {
	result := models.QuizResult{
		PassingScore:      passingScore,
		PerQuestionDetail: make([]models.QuestionDetail, 0, len(questions)),
	}

	for _, q := range questions {
		if !q.IsScorable() {
			continue
		}
		a := answers[q.Index]
		s := ScoreQuestion(q, a)

		result.TotalQuestions++
		result.TotalPoints += s.Max
		result.EarnedPoints += s.Earned
		if s.IsFullyCorrect() {
			result.CorrectFullQuestionCount++
		}
		result.PerQuestionDetail = append(result.PerQuestionDetail, models.QuestionDetail{
			QuestionIndex:  q.Index,
			QuestionType:   q.Type,
			Question:       q.Prompt,
			UserAnswer:     FormatAnswer(q, a),
			CorrectAnswer:  FormatCorrectAnswer(q),
			EarnedPoints:   s.Earned,
			MaxPoints:      s.Max,
			IsFullyCorrect: s.IsFullyCorrect(),
			PartialCredit:  s.IsPartial(),
		})
	}

	var percent float64
	if result.TotalPoints > 0 {
		percent = result.EarnedPoints / result.TotalPoints * 100
	}
	result.Passed = percent >= float64(passingScore)
	result.ScorePercent = Round2(percent)
	return result
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func uniqueInts(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func uniquePairs(in []models.MatchPair) []models.MatchPair {
	seen := make(map[models.MatchPair]struct{}, len(in))
	out := make([]models.MatchPair, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
