package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// SeedData is the fixture format loaded at startup in development.
// Quizzes may point at lessons by the position of the lesson in Lessons,
// starting at 1, through associated_lesson.
type SeedData struct {
	Lessons []models.Lesson   `json:"lessons"`
	Quizzes []SaveQuizRequest `json:"quizzes"`
}

// SeedSummary reports what LoadSeed stored
type SeedSummary struct {
	Lessons  int
	Quizzes  int
	Rejected int
}

// LoadSeed stores the lessons and quizzes read from r
func LoadSeed(ctx context.Context, sm *ServiceManager, r io.Reader) (*SeedSummary, error) {
	var data SeedData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode seed data: %w", err)
	}

	summary := &SeedSummary{}
	lessonIDs := make([]uint, 0, len(data.Lessons))
	for i := range data.Lessons {
		lesson := data.Lessons[i]
		lesson.ID = 0
		if err := sm.Lessons.CreateLesson(ctx, &lesson); err != nil {
			return summary, fmt.Errorf("seed lesson %d: %w", i, err)
		}
		lessonIDs = append(lessonIDs, lesson.ID)
		summary.Lessons++
	}

	for i := range data.Quizzes {
		req := data.Quizzes[i]
		req.ID = 0
		if req.LessonID != nil {
			pos := int(*req.LessonID)
			if pos < 1 || pos > len(lessonIDs) {
				return summary, fmt.Errorf("seed quiz %d: unknown lesson %d", i, pos)
			}
			req.LessonID = ptr(lessonIDs[pos-1])
		}
		resp, err := sm.Quiz.Save(ctx, &req)
		if err != nil {
			return summary, fmt.Errorf("seed quiz %d: %w", i, err)
		}
		summary.Quizzes++
		summary.Rejected += len(resp.Rejected)
	}
	return summary, nil
}
