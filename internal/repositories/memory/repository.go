// Package memory keeps every store in process. It backs local development
// (STORAGE=memory) and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type state struct {
	quizzes  map[uint]*models.Quiz
	attempts map[string]*models.QuizAttempt
	answers  []*models.QuizAnswer
	lessons  map[uint]*models.Lesson
	progress map[progressKey]*models.LessonProgress

	nextQuizID     uint
	nextAttemptID  uint
	nextAnswerID   uint
	nextLessonID   uint
	nextProgressID uint
}

type progressKey struct {
	lessonID  uint
	sessionID string
	section   int
}

func newState() *state {
	return &state{
		quizzes:  make(map[uint]*models.Quiz),
		attempts: make(map[string]*models.QuizAttempt),
		lessons:  make(map[uint]*models.Lesson),
		progress: make(map[progressKey]*models.LessonProgress),
	}
}

func (s *state) clone() *state {
	c := *s
	c.quizzes = make(map[uint]*models.Quiz, len(s.quizzes))
	for k, v := range s.quizzes {
		q := *v
		c.quizzes[k] = &q
	}
	c.attempts = make(map[string]*models.QuizAttempt, len(s.attempts))
	for k, v := range s.attempts {
		c.attempts[k] = v.Clone()
	}
	c.answers = make([]*models.QuizAnswer, len(s.answers))
	for i, v := range s.answers {
		a := *v
		c.answers[i] = &a
	}
	c.lessons = make(map[uint]*models.Lesson, len(s.lessons))
	for k, v := range s.lessons {
		l := *v
		c.lessons[k] = &l
	}
	c.progress = make(map[progressKey]*models.LessonProgress, len(s.progress))
	for k, v := range s.progress {
		p := *v
		c.progress[k] = &p
	}
	return &c
}

// store is shared by a Repository and every transaction opened from it.
// txMu serializes transactions, which stands in for row locks.
type store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	data *state
}

// Repository is an in-memory repositories.Repository
type Repository struct {
	store *store
	inTx  bool
}

func NewRepository() *Repository {
	return &Repository{store: &store{data: newState()}}
}

func (r *Repository) Quiz() repositories.QuizRepository       { return &quizStore{r} }
func (r *Repository) Attempt() repositories.AttemptRepository { return &attemptStore{r} }
func (r *Repository) Answer() repositories.AnswerRepository   { return &answerStore{r} }
func (r *Repository) Lesson() repositories.LessonRepository   { return &lessonStore{r} }
func (r *Repository) LessonProgress() repositories.LessonProgressRepository {
	return &progressStore{r}
}

// read runs fn under the shared lock
func (r *Repository) read(ctx context.Context, fn func(s *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return fn(r.store.data)
}

// write runs fn under the exclusive lock. Outside a transaction it also
// waits for running transactions so a rollback cannot discard the write.
func (r *Repository) write(ctx context.Context, fn func(s *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.inTx {
		r.store.txMu.Lock()
		defer r.store.txMu.Unlock()
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.data)
}

// WithTransaction runs fn while holding the transaction lock and restores
// the previous state if fn fails. Nested calls join the outer transaction.
func (r *Repository) WithTransaction(ctx context.Context, fn func(tx repositories.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	r.store.mu.RLock()
	snapshot := r.store.data.clone()
	r.store.mu.RUnlock()

	if err := fn(&Repository{store: r.store, inTx: true}); err != nil {
		r.store.mu.Lock()
		r.store.data = snapshot
		r.store.mu.Unlock()
		return err
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return ctx.Err()
}
