// Package memory implements the ledger in process memory. It backs tests and
// keyless dev boots; the semantics mirror the postgres store, including the
// unique-start constraint.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lessonbook/models"
	"lessonbook/store"
)

type Store struct {
	mu      sync.RWMutex
	lessons map[string]models.Lesson
	users   map[string]models.User
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		lessons: make(map[string]models.Lesson),
		users:   make(map[string]models.User),
	}
}

func (s *Store) CreateLesson(ctx context.Context, lesson models.Lesson) (models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.lessons {
		if existing.Start.Equal(lesson.Start) {
			return models.Lesson{}, store.ErrSlotTaken
		}
	}

	lesson.ID = uuid.NewString()
	lesson.CreatedAt = time.Now().UTC()
	s.lessons[lesson.ID] = lesson
	return lesson, nil
}

func (s *Store) LessonByID(ctx context.Context, id string) (models.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.lessons[id]
	if !ok {
		return models.Lesson{}, store.ErrNotFound
	}
	return l, nil
}

func (s *Store) ListLessons(ctx context.Context, f store.LessonFilter) ([]models.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lessons []models.Lesson
	for _, l := range s.lessons {
		if f.OwnerEmail != "" && l.OwnerEmail != f.OwnerEmail {
			continue
		}
		if f.AdminNotified != nil && l.AdminNotified != *f.AdminNotified {
			continue
		}
		if f.StudentNotified != nil && l.StudentNotified != *f.StudentNotified {
			continue
		}
		if f.StartFrom != nil && l.Start.Before(*f.StartFrom) {
			continue
		}
		if f.StartUntil != nil && l.Start.After(*f.StartUntil) {
			continue
		}
		lessons = append(lessons, l)
	}
	if f.OrderByStart {
		sort.Slice(lessons, func(i, j int) bool { return lessons[i].Start.Before(lessons[j].Start) })
	}
	return lessons, nil
}

func (s *Store) SetPaid(ctx context.Context, id string, paid bool) error {
	return s.updateLesson(id, func(l *models.Lesson) { l.Paid = paid })
}

func (s *Store) MarkAdminNotified(ctx context.Context, id string) error {
	return s.updateLesson(id, func(l *models.Lesson) { l.AdminNotified = true })
}

func (s *Store) MarkStudentNotified(ctx context.Context, id string) error {
	return s.updateLesson(id, func(l *models.Lesson) { l.StudentNotified = true })
}

func (s *Store) ResetNotified(ctx context.Context, id string) error {
	return s.updateLesson(id, func(l *models.Lesson) {
		l.AdminNotified = false
		l.StudentNotified = false
	})
}

func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lessons[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.lessons, id)
	return nil
}

func (s *Store) EnsureUser(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; ok {
		return nil
	}
	s.users[email] = models.User{Email: email, CreatedAt: time.Now().UTC()}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

func (s *Store) SetLowBalanceReminded(ctx context.Context, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLowBalanceReminder = &at
	s.users[email] = u
	return nil
}

func (s *Store) updateLesson(id string, apply func(*models.Lesson)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lessons[id]
	if !ok {
		return store.ErrNotFound
	}
	apply(&l)
	s.lessons[id] = l
	return nil
}
