package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/smartattend/smart-attend/internal/model"
)

// SessionRepo provides access to the class_sessions table.  Sessions are
// expiring token rows: nothing here ever mutates or deletes one, and
// validity is decided by comparing expires_at against the wall clock at
// read time.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// SessionSummary is one row of a teacher's session listing, carrying the
// attendance count computed alongside.
type SessionSummary struct {
	Session model.ClassSession
	Count   int
}

// Create issues a fresh session for a teacher.  The token is a uuid v4
// string, unique across all sessions ever issued; the uq_class_sessions_token
// key backstops the generator.
func (r *SessionRepo) Create(ctx context.Context, teacherID uint64, ttl time.Duration) (model.ClassSession, error) {
	s := model.ClassSession{
		Token:     uuid.NewString(),
		TeacherID: teacherID,
		CreatedAt: time.Now().UTC(),
	}
	s.ExpiresAt = s.CreatedAt.Add(ttl)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO class_sessions (token, teacher_id, created_at, expires_at) VALUES (?,?,?,?)",
		s.Token, s.TeacherID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return model.ClassSession{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ClassSession{}, err
	}
	s.ID = uint64(id)
	return s, nil
}

// GetByToken fetches a session by exact token match.  Expired sessions are
// still returned; expiry is the caller's check, not a lookup filter.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (model.ClassSession, error) {
	var s model.ClassSession
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token, teacher_id, created_at, expires_at FROM class_sessions WHERE token=? LIMIT 1",
		token).Scan(&s.ID, &s.Token, &s.TeacherID, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return model.ClassSession{}, ErrSessionNotFound
	}
	return s, err
}

// GetByID fetches a session by primary key.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (model.ClassSession, error) {
	var s model.ClassSession
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token, teacher_id, created_at, expires_at FROM class_sessions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.Token, &s.TeacherID, &s.CreatedAt, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return model.ClassSession{}, ErrSessionNotFound
	}
	return s, err
}

// ListByTeacher returns all sessions a teacher has issued, newest first,
// each with its attendance count.  No pagination: a teacher's session list
// stays small.
func (r *SessionRepo) ListByTeacher(ctx context.Context, teacherID uint64) ([]SessionSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT s.id, s.token, s.teacher_id, s.created_at, s.expires_at,
		        (SELECT COUNT(*) FROM attendance a WHERE a.session_id = s.id)
		 FROM class_sessions s
		 WHERE s.teacher_id = ?
		 ORDER BY s.created_at DESC, s.id DESC`,
		teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.Session.ID, &sum.Session.Token, &sum.Session.TeacherID,
			&sum.Session.CreatedAt, &sum.Session.ExpiresAt, &sum.Count); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
