// Package queue defines message payloads exchanged over the message broker.
package queue

// AttendanceMarkedEvent is published when a student successfully marks
// attendance.  It carries enough for downstream consumers to log or notify
// without querying the primary database.
type AttendanceMarkedEvent struct {
	AttendanceID uint64 `json:"attendance_id"`
	StudentID    uint64 `json:"student_id"`
	Student      string `json:"student"`
	SessionID    uint64 `json:"session_id"`
	SessionToken string `json:"session_token"`
	TeacherID    uint64 `json:"teacher_id"`
	Status       string `json:"status"`
	MarkedAt     string `json:"marked_at"`
}
