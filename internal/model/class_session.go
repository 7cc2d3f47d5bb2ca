package model

import "time"

// ClassSession is one attendance-taking window as stored in the
// `class_sessions` table.  A session is identified by an opaque random
// token and belongs to the teacher who issued it.  There is no status
// column: a session silently becomes invalid the instant the wall clock
// passes ExpiresAt, and validity is always recomputed, never cached.
type ClassSession struct {
	ID        uint64    // class_sessions.id
	Token     string    // class_sessions.token (unique, uuid v4 string)
	TeacherID uint64    // class_sessions.teacher_id
	CreatedAt time.Time // class_sessions.created_at
	ExpiresAt time.Time // class_sessions.expires_at
}

// IsValid reports whether the session can still accept attendance at the
// given instant.  The boundary is inclusive: a scan arriving exactly at
// ExpiresAt still counts.
func (s ClassSession) IsValid(now time.Time) bool {
	return !now.After(s.ExpiresAt)
}
