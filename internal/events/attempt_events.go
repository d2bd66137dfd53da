package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the lifecycle events emitted by the quiz service
type EventType string

const (
	EventAttemptStarted    EventType = "attempt.started"
	EventAttemptCompleted  EventType = "attempt.completed"
	EventAttemptExpired    EventType = "attempt.time_expired"
	EventAttemptsAbandoned EventType = "attempt.abandoned"

	EventLessonSectionCompleted EventType = "lesson.section_completed"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// Event is the envelope written to the topic; Data carries one of the
// payloads below.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Version   string         `json:"version"`
	Data      any            `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type AttemptStartedEvent struct {
	AttemptID        string    `json:"attempt_id"`
	QuizID           uint      `json:"quiz_id"`
	QuizTitle        string    `json:"quiz_title"`
	SessionID        string    `json:"session_id"`
	StartedAt        time.Time `json:"started_at"`
	TotalQuestions   int       `json:"total_questions"`
	TimeLimitMinutes int       `json:"time_limit_minutes,omitempty"`
}

type AttemptCompletedEvent struct {
	AttemptID      string    `json:"attempt_id"`
	QuizID         uint      `json:"quiz_id"`
	SessionID      string    `json:"session_id"`
	CompletedAt    time.Time `json:"completed_at"`
	ScorePercent   float64   `json:"score"`
	EarnedPoints   float64   `json:"earned_points"`
	TotalPoints    float64   `json:"total_points"`
	CorrectAnswers int       `json:"correct_answers"`
	Passed         bool      `json:"passed"`
	TimeTaken      int       `json:"time_taken"`
}

type AttemptExpiredEvent struct {
	AttemptID string    `json:"attempt_id"`
	QuizID    uint      `json:"quiz_id"`
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	ExpiredAt time.Time `json:"expired_at"`
}

// AttemptsAbandonedEvent summarises one sweeper run
type AttemptsAbandonedEvent struct {
	Count     int64     `json:"count"`
	Cutoff    time.Time `json:"cutoff"`
	SweptAt   time.Time `json:"swept_at"`
	Threshold string    `json:"threshold"`
}

type LessonSectionCompletedEvent struct {
	LessonID        uint    `json:"lesson_id"`
	SessionID       string  `json:"session_id"`
	SectionIndex    int     `json:"section_index"`
	OverallProgress float64 `json:"overall_progress"`
}

func newEvent(eventType EventType, at time.Time, data any) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: at,
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewAttemptStartedEvent(payload AttemptStartedEvent) *Event {
	return newEvent(EventAttemptStarted, payload.StartedAt, payload)
}

func NewAttemptCompletedEvent(payload AttemptCompletedEvent) *Event {
	return newEvent(EventAttemptCompleted, payload.CompletedAt, payload)
}

func NewAttemptExpiredEvent(payload AttemptExpiredEvent) *Event {
	return newEvent(EventAttemptExpired, payload.ExpiredAt, payload)
}

func NewAttemptsAbandonedEvent(count int64, cutoff, sweptAt time.Time, threshold time.Duration) *Event {
	return newEvent(EventAttemptsAbandoned, sweptAt, AttemptsAbandonedEvent{
		Count:     count,
		Cutoff:    cutoff,
		SweptAt:   sweptAt,
		Threshold: threshold.String(),
	})
}

func NewLessonSectionCompletedEvent(payload LessonSectionCompletedEvent) *Event {
	return newEvent(EventLessonSectionCompleted, time.Now(), payload)
}

func GenerateEventID() string {
	return uuid.NewString()
}
