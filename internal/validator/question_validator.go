package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// Rejection reasons reported by ValidateBank
const (
	ReasonUnknownType      = "unknown question type"
	ReasonEmptyPrompt      = "question text is required"
	ReasonTooFewOptions    = "multiple choice needs at least 2 options"
	ReasonNoCorrectOption  = "multiple choice needs at least 1 correct option"
	ReasonNoBlanks         = "text has no " + models.BlankMarker + " marker"
	ReasonWordBankTooShort = "word bank has fewer words than blanks"
	ReasonTooFewLeftItems  = "matching needs at least 2 left items"
	ReasonTooFewRightItems = "matching needs at least 2 right items"
	ReasonNoValidPairs     = "matching needs at least 1 valid pair"
)

// ValidQuestion is a sanitized question ready to be stored. SourceIndex is its
// position in the submitted list.
type ValidQuestion struct {
	SourceIndex int
	Question    models.Question
}

type RejectedQuestion struct {
	SourceIndex int    `json:"index"`
	Reason      string `json:"reason"`
}

type BankValidation struct {
	Valid    []ValidQuestion
	Rejected []RejectedQuestion
}

// Questions returns the accepted questions in their submitted order.
func (b BankValidation) Questions() []models.Question {
	out := make([]models.Question, len(b.Valid))
	for i, v := range b.Valid {
		out[i] = v.Question
	}
	return out
}

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateBank sanitizes every question and splits the list into accepted and
// rejected entries. It never fails as a whole.
func (v *QuestionValidator) ValidateBank(questions []models.Question) BankValidation {
	var result BankValidation
	for i, q := range questions {
		clean, reason := v.Sanitize(q)
		if reason != "" {
			result.Rejected = append(result.Rejected, RejectedQuestion{SourceIndex: i, Reason: reason})
			continue
		}
		result.Valid = append(result.Valid, ValidQuestion{SourceIndex: i, Question: clean})
	}
	return result
}

// ValidateQuestion reports why a single question would be rejected
func (v *QuestionValidator) ValidateQuestion(q models.Question) error {
	if _, reason := v.Sanitize(q); reason != "" {
		return fmt.Errorf("invalid question: %s", reason)
	}
	return nil
}

// Sanitize trims the payload of q down to its type's fields. A non-empty
// reason means the question cannot be stored.
func (v *QuestionValidator) Sanitize(q models.Question) (models.Question, string) {
	if !q.Type.IsValid() {
		return q, ReasonUnknownType
	}
	prompt := strings.TrimSpace(q.Prompt)
	if prompt == "" {
		return q, ReasonEmptyPrompt
	}

	clean := models.Question{Index: q.Index, Type: q.Type, Prompt: prompt}

	switch q.Type {
	case models.MultipleChoice:
		return v.sanitizeMultipleChoice(q, clean)
	case models.TrueFalse:
		clean.CorrectAnswer = models.BoolString(q.ExpectedTrueFalse())
		return clean, ""
	case models.FillBlanks:
		return v.sanitizeFillBlanks(q, clean)
	case models.Matching:
		return v.sanitizeMatching(q, clean)
	}
	return q, ReasonUnknownType
}

func (v *QuestionValidator) sanitizeMultipleChoice(q, clean models.Question) (models.Question, string) {
	// blank options are dropped, so correct indices have to follow them
	remap := make(map[int]int, len(q.Options))
	for i, opt := range q.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		remap[i] = len(clean.Options)
		clean.Options = append(clean.Options, opt)
	}

	seen := make(map[int]struct{})
	for _, c := range q.CorrectAnswers {
		idx, ok := remap[c]
		if !ok {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		clean.CorrectAnswers = append(clean.CorrectAnswers, idx)
	}

	if len(clean.Options) < 2 {
		return q, ReasonTooFewOptions
	}
	if len(clean.CorrectAnswers) == 0 {
		return q, ReasonNoCorrectOption
	}
	return clean, ""
}

func (v *QuestionValidator) sanitizeFillBlanks(q, clean models.Question) (models.Question, string) {
	clean.TextWithBlanks = strings.TrimSpace(q.TextWithBlanks)
	blanks := clean.BlankCount()
	if blanks == 0 {
		return q, ReasonNoBlanks
	}
	for _, w := range q.WordBank {
		if w = strings.TrimSpace(w); w != "" {
			clean.WordBank = append(clean.WordBank, w)
		}
	}
	if len(clean.WordBank) < blanks {
		return q, ReasonWordBankTooShort
	}
	return clean, ""
}

func (v *QuestionValidator) sanitizeMatching(q, clean models.Question) (models.Question, string) {
	clean.LeftItems = nonBlank(q.LeftItems)
	clean.RightItems = nonBlank(q.RightItems)

	seen := make(map[models.MatchPair]struct{})
	for _, p := range q.CorrectPairs {
		if p.Left < 0 || p.Left >= len(clean.LeftItems) || p.Right < 0 || p.Right >= len(clean.RightItems) {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		clean.CorrectPairs = append(clean.CorrectPairs, p)
	}

	switch {
	case len(clean.LeftItems) < 2:
		return q, ReasonTooFewLeftItems
	case len(clean.RightItems) < 2:
		return q, ReasonTooFewRightItems
	case len(clean.CorrectPairs) == 0:
		return q, ReasonNoValidPairs
	}
	return clean, ""
}

func nonBlank(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
