package handler

import (
	"context"
	"time"

	"github.com/smartattend/smart-attend/internal/model"
	"github.com/smartattend/smart-attend/internal/repository"
)

// The handlers depend on these narrow store interfaces rather than the
// concrete repositories so the marking pipeline and report flows can be
// exercised in tests with in-memory fakes.

// SessionStore is the slice of SessionRepo the handlers use.
type SessionStore interface {
	Create(ctx context.Context, teacherID uint64, ttl time.Duration) (model.ClassSession, error)
	GetByToken(ctx context.Context, token string) (model.ClassSession, error)
	GetByID(ctx context.Context, id uint64) (model.ClassSession, error)
	ListByTeacher(ctx context.Context, teacherID uint64) ([]repository.SessionSummary, error)
}

// AttendanceStore is the slice of AttendanceRepo the handlers use.
type AttendanceStore interface {
	Exists(ctx context.Context, studentID, sessionID uint64) (bool, error)
	Create(ctx context.Context, studentID, sessionID uint64) (model.Attendance, error)
	CountBySession(ctx context.Context, sessionID uint64) (int, error)
	ListByStudent(ctx context.Context, studentID uint64, limit int) ([]repository.StudentRecord, error)
	ListBySession(ctx context.Context, sessionID uint64) ([]repository.Attendee, error)
}

// UserStore is the slice of UserRepo the handlers use.
type UserStore interface {
	Create(ctx context.Context, u model.User, password string, cost int) (uint64, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the slice of TokenRepo the auth handler uses.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, hash string, expires time.Time) error
	ValidateRefresh(ctx context.Context, hash string) (uint64, error)
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

var (
	_ SessionStore    = (*repository.SessionRepo)(nil)
	_ AttendanceStore = (*repository.AttendanceRepo)(nil)
	_ UserStore       = (*repository.UserRepo)(nil)
	_ TokenStore      = (*repository.TokenRepo)(nil)
)
