package models

import (
	"maps"
	"slices"
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptStarted   AttemptStatus = "started"
	AttemptCompleted AttemptStatus = "completed"
	AttemptAbandoned AttemptStatus = "abandoned"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptCompleted || s == AttemptAbandoned
}

type QuizAttempt struct {
	ID        uint          `json:"-" gorm:"primaryKey"`
	AttemptID string        `json:"attempt_id" gorm:"uniqueIndex;size:20;not null"`
	QuizID    uint          `json:"quiz_id" gorm:"not null;index"`
	SessionID string        `json:"session_id" gorm:"not null;size:64;index"`
	Status    AttemptStatus `json:"status" gorm:"not null;size:20;default:started;index"`

	StartedAt time.Time  `json:"start_time" gorm:"not null;index"`
	EndedAt   *time.Time `json:"end_time"`
	TimeSpent *int       `json:"time_taken"` // seconds

	QuestionsShown       datatypes.JSONSlice[int]      `json:"questions_shown" gorm:"type:jsonb"`
	QuestionSnapshot     datatypes.JSONSlice[Question] `json:"-" gorm:"type:jsonb"` // parallel to QuestionsShown
	Answers              datatypes.JSONType[AnswerSet] `json:"answers" gorm:"type:jsonb"`
	Timings              datatypes.JSONType[TimingSet] `json:"question_timings" gorm:"type:jsonb"`
	CurrentQuestionIndex int                           `json:"current_question_index" gorm:"default:0"`

	// Score fields are only set once the attempt is completed.
	ScorePercent   *float64 `json:"score"`
	TotalPoints    *float64 `json:"total_points"`
	EarnedPoints   *float64 `json:"earned_points"`
	CorrectAnswers *int     `json:"correct_answers"`
	TotalQuestions *int     `json:"total_questions"`
	Passed         *bool    `json:"passed"`
	PassingScore   *int     `json:"passing_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) AnswerSet() AnswerSet {
	if set := a.Answers.Data(); set != nil {
		return set
	}
	return AnswerSet{}
}

func (a *QuizAttempt) TimingSet() TimingSet {
	if set := a.Timings.Data(); set != nil {
		return set
	}
	return TimingSet{}
}

// IsShown reports whether the question index belongs to the attempt's
// selected question set.
func (a *QuizAttempt) IsShown(index int) bool {
	return slices.Contains(a.QuestionsShown, index)
}

// SnapshotBank rebuilds a bank from the questions frozen at start, each at
// its original position. Positions outside QuestionsShown are left zero. ok is
// false for attempts stored without a snapshot.
func (a *QuizAttempt) SnapshotBank() (bank []Question, ok bool) {
	if len(a.QuestionSnapshot) == 0 || len(a.QuestionSnapshot) != len(a.QuestionsShown) {
		return nil, false
	}
	size := 0
	for _, idx := range a.QuestionsShown {
		if idx < 0 {
			return nil, false
		}
		size = max(size, idx+1)
	}
	bank = make([]Question, size)
	for i, idx := range a.QuestionsShown {
		q := a.QuestionSnapshot[i]
		q.Index = idx
		bank[idx] = q
	}
	return bank, true
}

// Clone returns a deep copy so callers can mutate it without touching stored
// state.
func (a *QuizAttempt) Clone() *QuizAttempt {
	c := *a
	c.QuestionsShown = slices.Clone(a.QuestionsShown)
	c.QuestionSnapshot = slices.Clone(a.QuestionSnapshot)
	c.Answers = datatypes.NewJSONType(maps.Clone(a.AnswerSet()))
	c.Timings = datatypes.NewJSONType(maps.Clone(a.TimingSet()))
	if a.EndedAt != nil {
		t := *a.EndedAt
		c.EndedAt = &t
	}
	c.TimeSpent = clonePtr(a.TimeSpent)
	c.ScorePercent = clonePtr(a.ScorePercent)
	c.TotalPoints = clonePtr(a.TotalPoints)
	c.EarnedPoints = clonePtr(a.EarnedPoints)
	c.CorrectAnswers = clonePtr(a.CorrectAnswers)
	c.TotalQuestions = clonePtr(a.TotalQuestions)
	c.Passed = clonePtr(a.Passed)
	c.PassingScore = clonePtr(a.PassingScore)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
