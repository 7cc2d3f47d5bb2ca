package model

import "time"

// Role values stored in users.role.  A user's role is fixed at signup; no
// endpoint mutates it afterwards.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  The json tags are omitted
// because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – "student" or "teacher".
//  Department   – department the user belongs to.
//  RollNumber   – student roll number (empty for teachers).
//  Subject      – subject taught (empty for students).
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	Department   string    // users.department
	RollNumber   string    // users.roll_number (students only)
	Subject      string    // users.subject (teachers only)
	CreatedAt    time.Time // users.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and carries expiry and revocation
// metadata.  The plain token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
