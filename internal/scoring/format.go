package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

const noAnswer = "No answer"

// FormatAnswer renders a learner's answer for the result screen.
func FormatAnswer(q models.Question, a models.AnswerValue) string {
	if a == nil || a.IsEmpty() || a.QuestionType() != q.Type {
		return noAnswer
	}

	switch v := a.(type) {
	case models.MultipleChoiceAnswer:
		return joinOptions(q.Options, v.Selected)
	case models.TrueFalseAnswer:
		return formatBool(v.Value)
	case models.FillBlankAnswer:
		var filled []string
		for _, b := range v.Blanks {
			if b = strings.TrimSpace(b); b != "" {
				filled = append(filled, b)
			}
		}
		if len(filled) == 0 {
			return noAnswer
		}
		return strings.Join(filled, ", ")
	case models.MatchingAnswer:
		lefts := make([]int, 0, len(v.Pairs))
		for l := range v.Pairs {
			lefts = append(lefts, l)
		}
		sort.Ints(lefts)
		pairs := make([]models.MatchPair, len(lefts))
		for i, l := range lefts {
			pairs[i] = models.MatchPair{Left: l, Right: v.Pairs[l]}
		}
		return joinPairs(q, pairs)
	}
	return noAnswer
}

// FormatCorrectAnswer renders the expected answer of q.
func FormatCorrectAnswer(q models.Question) string {
	switch q.Type {
	case models.MultipleChoice:
		return joinOptions(q.Options, q.CorrectAnswers)
	case models.TrueFalse:
		return formatBool(q.ExpectedTrueFalse())
	case models.FillBlanks:
		n := min(q.BlankCount(), len(q.WordBank))
		return strings.Join(q.WordBank[:n], ", ")
	case models.Matching:
		return joinPairs(q, q.CorrectPairs)
	}
	return ""
}

func formatBool(v string) string {
	switch v {
	case models.TrueValue:
		return "True"
	case models.FalseValue:
		return "False"
	}
	return noAnswer
}

func joinOptions(options []string, indices []int) string {
	texts := make([]string, 0, len(indices))
	for _, i := range indices {
		texts = append(texts, itemText(options, i))
	}
	return strings.Join(texts, ", ")
}

func joinPairs(q models.Question, pairs []models.MatchPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, itemText(q.LeftItems, p.Left)+" → "+itemText(q.RightItems, p.Right))
	}
	return strings.Join(parts, "; ")
}

func itemText(items []string, i int) string {
	if i >= 0 && i < len(items) {
		return items[i]
	}
	return fmt.Sprintf("#%d", i)
}
