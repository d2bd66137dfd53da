package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// AnswerValue is the normalized form of a learner's answer. The concrete type
// always matches the QuestionType it was normalized for.
type AnswerValue interface {
	QuestionType() QuestionType
	IsEmpty() bool
}

type MultipleChoiceAnswer struct {
	Selected []int `json:"selected"`
}

type TrueFalseAnswer struct {
	Value string `json:"value"`
}

type FillBlankAnswer struct {
	Blanks []string `json:"blanks"`
}

// MatchingAnswer maps a left item index to the chosen right item index.
type MatchingAnswer struct {
	Pairs map[int]int `json:"pairs"`
}

func (MultipleChoiceAnswer) QuestionType() QuestionType { return MultipleChoice }
func (TrueFalseAnswer) QuestionType() QuestionType      { return TrueFalse }
func (FillBlankAnswer) QuestionType() QuestionType      { return FillBlanks }
func (MatchingAnswer) QuestionType() QuestionType       { return Matching }

func (a MultipleChoiceAnswer) IsEmpty() bool { return len(a.Selected) == 0 }
func (a TrueFalseAnswer) IsEmpty() bool      { return a.Value == "" }
func (a MatchingAnswer) IsEmpty() bool       { return len(a.Pairs) == 0 }

func (a FillBlankAnswer) IsEmpty() bool {
	for _, b := range a.Blanks {
		if b != "" {
			return false
		}
	}
	return true
}

// AnswerSet holds the latest answer per question index.
type AnswerSet map[int]AnswerValue

// TimingSet holds seconds spent per question index; nil means not recorded.
type TimingSet map[int]*int

type answerEnvelope struct {
	Type  QuestionType    `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (s AnswerSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]answerEnvelope, len(s))
	for idx, v := range s {
		if v == nil {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[strconv.Itoa(idx)] = answerEnvelope{Type: v.QuestionType(), Value: raw}
	}
	return json.Marshal(out)
}

func (s *AnswerSet) UnmarshalJSON(data []byte) error {
	var in map[string]answerEnvelope
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	set := make(AnswerSet, len(in))
	for key, env := range in {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("invalid answer key %q: %w", key, err)
		}
		v, err := decodeAnswer(env)
		if err != nil {
			return fmt.Errorf("answer %d: %w", idx, err)
		}
		set[idx] = v
	}
	*s = set
	return nil
}

func decodeAnswer(env answerEnvelope) (AnswerValue, error) {
	switch env.Type {
	case MultipleChoice:
		var a MultipleChoiceAnswer
		err := json.Unmarshal(env.Value, &a)
		return a, err
	case TrueFalse:
		var a TrueFalseAnswer
		err := json.Unmarshal(env.Value, &a)
		return a, err
	case FillBlanks:
		var a FillBlankAnswer
		err := json.Unmarshal(env.Value, &a)
		return a, err
	case Matching:
		var a MatchingAnswer
		err := json.Unmarshal(env.Value, &a)
		return a, err
	}
	return nil, fmt.Errorf("unknown answer type %q", env.Type)
}

// QuizAnswer is the per-question row written when an attempt is submitted.
// It feeds the difficult-question report.
type QuizAnswer struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	AttemptID     string       `json:"attempt_id" gorm:"not null;size:20;index"`
	QuizID        uint         `json:"quiz_id" gorm:"not null;index"`
	QuestionIndex int          `json:"question_index" gorm:"not null"`
	QuestionType  QuestionType `json:"question_type" gorm:"size:30"`
	UserAnswer    string       `json:"user_answer" gorm:"type:text"`
	IsCorrect     bool         `json:"is_correct"`
	EarnedPoints  float64      `json:"earned_points"`
	MaxPoints     float64      `json:"max_points"`
	TimeSpent     *int         `json:"time_spent"`
	CreatedAt     time.Time    `json:"created_at"`
}

func (QuizAnswer) TableName() string {
	return "quiz_answers"
}
