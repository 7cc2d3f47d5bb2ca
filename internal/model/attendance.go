package model

import "time"

// StatusPresent is the only status value the marking flow writes.
const StatusPresent = "Present"

// Attendance links one student to one class session, recorded at most once
// per (student, session) pair.  The pair is covered by a unique key in the
// `attendance` table; that constraint, not the application-level existence
// check, is the authoritative guard against concurrent duplicates.  Rows
// are created once and never updated or deleted in-app.
type Attendance struct {
	ID        uint64    // attendance.id
	StudentID uint64    // attendance.student_id
	SessionID uint64    // attendance.session_id
	Status    string    // attendance.status
	MarkedAt  time.Time // attendance.marked_at
}
