package models

import "time"

// Scroll-based completion thresholds for a lesson section.
const (
	ScrollCompletePercent = 90.0
	ScrollCompleteSeconds = 30
)

type Lesson struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"not null;size:200"`
	SectionCount int       `json:"section_count" gorm:"not null;default:0"`
	Published    bool      `json:"published" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type LessonProgress struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	LessonID         uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_lesson_session_section"`
	SessionID        string     `json:"session_id" gorm:"not null;size:64;uniqueIndex:idx_lesson_session_section"`
	SectionIndex     int        `json:"section_index" gorm:"not null;uniqueIndex:idx_lesson_session_section"`
	Completed        bool       `json:"completed" gorm:"default:false"`
	ScrollCompleted  bool       `json:"scroll_completed" gorm:"default:false"`
	ButtonCompleted  bool       `json:"button_completed" gorm:"default:false"`
	TimeSpent        int        `json:"time_spent"`
	ScrollPercentage float64    `json:"scroll_percentage"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

type LessonProgressUpdate struct {
	LessonID         uint    `json:"-"`
	SectionIndex     int     `json:"section_index" validate:"min=0"`
	Completed        bool    `json:"completed"`
	TimeSpent        int     `json:"time_spent" validate:"min=0"`
	ScrollPercentage float64 `json:"scroll_percentage" validate:"min=0,max=100"`
}

type LessonProgressSummary struct {
	LessonID          uint             `json:"lesson_id"`
	OverallProgress   float64          `json:"overall_progress"`
	CompletedSections int              `json:"completed_sections"`
	TotalSections     int              `json:"total_sections"`
	Sections          []LessonProgress `json:"sections,omitempty"`
}
