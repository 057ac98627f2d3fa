package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"lessonbook/models"
	"lessonbook/store"
)

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func Open(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// ApplySchema runs the idempotent schema file against the database.
func (s *Store) ApplySchema(schema string) error {
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

const lessonColumns = `id, title, owner_email, owner_name, start_at, end_at, duration_minutes, paid, admin_notified, student_notified, timezone, created_at`

func scanLesson(row interface{ Scan(...interface{}) error }) (models.Lesson, error) {
	var l models.Lesson
	err := row.Scan(&l.ID, &l.Title, &l.OwnerEmail, &l.OwnerName, &l.Start, &l.End,
		&l.DurationMinutes, &l.Paid, &l.AdminNotified, &l.StudentNotified, &l.Timezone, &l.CreatedAt)
	return l, err
}

func (s *Store) CreateLesson(ctx context.Context, lesson models.Lesson) (models.Lesson, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO lessons (title, owner_email, owner_name, start_at, end_at, duration_minutes, paid, admin_notified, student_notified, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, lesson.Title, lesson.OwnerEmail, lesson.OwnerName, lesson.Start, lesson.End,
		lesson.DurationMinutes, lesson.Paid, lesson.AdminNotified, lesson.StudentNotified, lesson.Timezone,
	).Scan(&lesson.ID, &lesson.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.Lesson{}, store.ErrSlotTaken
		}
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (s *Store) LessonByID(ctx context.Context, id string) (models.Lesson, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id)
	l, err := scanLesson(row)
	if err == sql.ErrNoRows {
		return models.Lesson{}, store.ErrNotFound
	}
	return l, err
}

func (s *Store) ListLessons(ctx context.Context, f store.LessonFilter) ([]models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons`

	var conds []string
	var args []interface{}
	add := func(expr string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if f.OwnerEmail != "" {
		add("owner_email = $%d", f.OwnerEmail)
	}
	if f.AdminNotified != nil {
		add("admin_notified = $%d", *f.AdminNotified)
	}
	if f.StudentNotified != nil {
		add("student_notified = $%d", *f.StudentNotified)
	}
	if f.StartFrom != nil {
		add("start_at >= $%d", *f.StartFrom)
	}
	if f.StartUntil != nil {
		add("start_at <= $%d", *f.StartUntil)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if f.OrderByStart {
		query += " ORDER BY start_at ASC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (s *Store) SetPaid(ctx context.Context, id string, paid bool) error {
	return s.execOne(ctx, `UPDATE lessons SET paid = $2 WHERE id = $1`, id, paid)
}

func (s *Store) MarkAdminNotified(ctx context.Context, id string) error {
	return s.execOne(ctx, `UPDATE lessons SET admin_notified = TRUE WHERE id = $1`, id)
}

func (s *Store) MarkStudentNotified(ctx context.Context, id string) error {
	return s.execOne(ctx, `UPDATE lessons SET student_notified = TRUE WHERE id = $1`, id)
}

func (s *Store) ResetNotified(ctx context.Context, id string) error {
	return s.execOne(ctx, `UPDATE lessons SET admin_notified = FALSE, student_notified = FALSE WHERE id = $1`, id)
}

func (s *Store) DeleteLesson(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM lessons WHERE id = $1`, id)
}

func (s *Store) EnsureUser(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email) VALUES ($1)
		ON CONFLICT (email) DO NOTHING
	`, email)
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT email, last_low_balance_reminder_at, created_at FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var reminded sql.NullTime
		if err := rows.Scan(&u.Email, &reminded, &u.CreatedAt); err != nil {
			return nil, err
		}
		if reminded.Valid {
			t := reminded.Time
			u.LastLowBalanceReminder = &t
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) SetLowBalanceReminded(ctx context.Context, email string, at time.Time) error {
	return s.execOne(ctx, `UPDATE users SET last_low_balance_reminder_at = $2 WHERE email = $1`, email, at)
}

// execOne runs a single-row statement and maps zero affected rows to ErrNotFound.
func (s *Store) execOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
