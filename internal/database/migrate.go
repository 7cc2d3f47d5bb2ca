package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are idempotent DDL statements executed at boot, in order.
// Constraints worth noting:
//   - class_sessions.token is globally unique: one token can never name two
//     sessions.
//   - attendance carries UNIQUE KEY (student_id, session_id); this key, not
//     any application check, decides races between concurrent marks.
//   - sessions cascade with their teacher, attendance cascades with either
//     its student or its session.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(150) NOT NULL,
		email         VARCHAR(255) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(10)  NOT NULL,
		department    VARCHAR(100) NOT NULL DEFAULT '',
		roll_number   VARCHAR(50)  NOT NULL DEFAULT '',
		subject       VARCHAR(100) NOT NULL DEFAULT '',
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)  NOT NULL,
		expires_at DATETIME  NOT NULL,
		revoked_at DATETIME  NULL,
		created_at DATETIME  NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id)
			REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS class_sessions (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		token      VARCHAR(64) NOT NULL,
		teacher_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		expires_at DATETIME NOT NULL,
		UNIQUE KEY uq_class_sessions_token (token),
		KEY idx_class_sessions_teacher (teacher_id),
		CONSTRAINT fk_class_sessions_teacher FOREIGN KEY (teacher_id)
			REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS attendance (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		student_id BIGINT UNSIGNED NOT NULL,
		session_id BIGINT UNSIGNED NOT NULL,
		status     VARCHAR(20) NOT NULL DEFAULT 'Present',
		marked_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_attendance_student_session (student_id, session_id),
		KEY idx_attendance_session (session_id),
		CONSTRAINT fk_attendance_student FOREIGN KEY (student_id)
			REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_attendance_session FOREIGN KEY (session_id)
			REFERENCES class_sessions (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
}

// Migrate applies the schema.  Statements use IF NOT EXISTS so repeated
// boots are harmless.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
