package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FillBlanks     QuestionType = "fill_blanks"
	Matching       QuestionType = "matching"
)

// BlankMarker is the placeholder authors put in TextWithBlanks for each blank.
const BlankMarker = "{{blank}}"

const (
	DefaultPassingScore = 70
	TrueValue           = "true"
	FalseValue          = "false"
)

// BoolString is a true/false token that authoring tools send either as a JSON
// boolean or as a string.
type BoolString string

func (b *BoolString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = BoolString(strconv.FormatBool(t))
	case string:
		*b = BoolString(t)
	case nil:
		*b = ""
	default:
		return fmt.Errorf("invalid true/false value %s", string(data))
	}
	return nil
}

func (t QuestionType) IsValid() bool {
	switch t {
	case MultipleChoice, TrueFalse, FillBlanks, Matching:
		return true
	}
	return false
}

type MatchPair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Question is one authored entry of a quiz's question bank. Only the payload
// fields belonging to Type are populated.
type Question struct {
	Index  int          `json:"-"`
	Type   QuestionType `json:"type" validate:"required,question_type"`
	Prompt string       `json:"question" validate:"required"`

	// multiple_choice
	Options        []string `json:"options,omitempty"`
	CorrectAnswers []int    `json:"correct_answers,omitempty"`

	// true_false
	CorrectAnswer BoolString `json:"correct_answer,omitempty"`

	// fill_blanks
	TextWithBlanks string   `json:"text_with_blanks,omitempty"`
	WordBank       []string `json:"word_bank,omitempty"`

	// matching
	LeftItems    []string    `json:"left_column,omitempty"`
	RightItems   []string    `json:"right_column,omitempty"`
	CorrectPairs []MatchPair `json:"matches,omitempty"`
}

// IsScorable reports whether the question takes part in scoring at all.
func (q Question) IsScorable() bool {
	return q.Type.IsValid() && strings.TrimSpace(q.Prompt) != ""
}

func (q Question) BlankCount() int {
	return strings.Count(q.TextWithBlanks, BlankMarker)
}

// ExpectedTrueFalse returns the authored answer, falling back to "true" like
// the authoring form does when nothing was chosen.
func (q Question) ExpectedTrueFalse() string {
	v := strings.ToLower(strings.TrimSpace(string(q.CorrectAnswer)))
	if v != FalseValue {
		return TrueValue
	}
	return v
}

type Quiz struct {
	ID                 uint   `json:"id" gorm:"primaryKey"`
	Title              string `json:"title" gorm:"not null;size:200"`
	Published          bool   `json:"published" gorm:"default:false;index"`
	PassingScore       int    `json:"passing_score" gorm:"default:70"`
	TimeLimitMinutes   int    `json:"time_limit" gorm:"default:0"`
	QuestionsToShow    int    `json:"min_questions_to_show" gorm:"default:0"`
	RandomizeQuestions bool   `json:"randomize_questions" gorm:"default:false"`
	ShowResults        bool   `json:"show_results_immediately" gorm:"default:true"`
	LessonID           *uint  `json:"associated_lesson" gorm:"index"`

	Questions datatypes.JSONSlice[Question] `json:"questions" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Bank returns the question list with each question's Index set to its
// position, which is the key answers are submitted under.
func (q *Quiz) Bank() []Question {
	bank := make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Index = i
		bank[i] = question
	}
	return bank
}

// EffectivePassingScore clamps the configured threshold to 0..100.
func (q *Quiz) EffectivePassingScore() int {
	switch {
	case q.PassingScore < 0:
		return 0
	case q.PassingScore > 100:
		return 100
	}
	return q.PassingScore
}

func (q *Quiz) TimeLimit() time.Duration {
	if q.TimeLimitMinutes <= 0 {
		return 0
	}
	return time.Duration(q.TimeLimitMinutes) * time.Minute
}
