package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/smartattend/smart-attend/internal/model"
)

// AttendanceRepo provides access to the attendance table.
type AttendanceRepo struct{ DB *sql.DB }

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{DB: db} }

// StudentRecord is one row of a student's attendance history joined with
// its session.
type StudentRecord struct {
	Attendance model.Attendance
	Session    model.ClassSession
}

// Attendee is one row of a session report: who was present and when.
type Attendee struct {
	StudentID  uint64
	Username   string
	RollNumber string
	Status     string
	MarkedAt   time.Time
}

// Exists reports whether the (student, session) pair already has a row.
// This is a fast-path check only; two concurrent requests can both see
// false here, so Create's duplicate-key handling is what actually decides.
func (r *AttendanceRepo) Exists(ctx context.Context, studentID, sessionID uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM attendance WHERE student_id=? AND session_id=? LIMIT 1",
		studentID, sessionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Create inserts an attendance row.  When the insert hits the
// (student_id, session_id) unique key it returns ErrAlreadyMarked, so the
// second of two racing submissions resolves to the idempotent outcome at
// the storage layer.
func (r *AttendanceRepo) Create(ctx context.Context, studentID, sessionID uint64) (model.Attendance, error) {
	a := model.Attendance{
		StudentID: studentID,
		SessionID: sessionID,
		Status:    model.StatusPresent,
		MarkedAt:  time.Now().UTC(),
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO attendance (student_id, session_id, status, marked_at) VALUES (?,?,?,?)",
		a.StudentID, a.SessionID, a.Status, a.MarkedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Attendance{}, ErrAlreadyMarked
		}
		return model.Attendance{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Attendance{}, err
	}
	a.ID = uint64(id)
	return a, nil
}

// CountBySession returns the number of attendance rows for a session.
func (r *AttendanceRepo) CountBySession(ctx context.Context, sessionID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendance WHERE session_id=?", sessionID).Scan(&n)
	return n, err
}

// ListByStudent returns a student's most recent attendance records with
// their sessions, newest first.
func (r *AttendanceRepo) ListByStudent(ctx context.Context, studentID uint64, limit int) ([]StudentRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT a.id, a.student_id, a.session_id, a.status, a.marked_at,
		        s.id, s.token, s.teacher_id, s.created_at, s.expires_at
		 FROM attendance a
		 JOIN class_sessions s ON s.id = a.session_id
		 WHERE a.student_id = ?
		 ORDER BY a.marked_at DESC, a.id DESC
		 LIMIT ?`,
		studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StudentRecord
	for rows.Next() {
		var rec StudentRecord
		if err := rows.Scan(&rec.Attendance.ID, &rec.Attendance.StudentID, &rec.Attendance.SessionID,
			&rec.Attendance.Status, &rec.Attendance.MarkedAt,
			&rec.Session.ID, &rec.Session.Token, &rec.Session.TeacherID,
			&rec.Session.CreatedAt, &rec.Session.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListBySession returns the attendees of one session in marking order.
func (r *AttendanceRepo) ListBySession(ctx context.Context, sessionID uint64) ([]Attendee, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.id, u.username, u.roll_number, a.status, a.marked_at
		 FROM attendance a
		 JOIN users u ON u.id = a.student_id
		 WHERE a.session_id = ?
		 ORDER BY a.marked_at ASC, a.id ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attendee
	for rows.Next() {
		var at Attendee
		if err := rows.Scan(&at.StudentID, &at.Username, &at.RollNumber, &at.Status, &at.MarkedAt); err != nil {
			return nil, err
		}
		out = append(out, at)
	}
	return out, rows.Err()
}
