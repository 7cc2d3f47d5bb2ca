package handler

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartattend/smart-attend/internal/model"
	"github.com/smartattend/smart-attend/internal/repository"
	"github.com/smartattend/smart-attend/internal/utils"
)

// In-memory store fakes backing the handler tests.  They mirror the
// repository contracts, including the duplicate-key sentinel on attendance
// creation.

type fakeSessionStore struct {
	nextID   uint64
	byToken  map[string]model.ClassSession
	byID     map[uint64]model.ClassSession
	createErr error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		byToken: make(map[string]model.ClassSession),
		byID:    make(map[uint64]model.ClassSession),
	}
}

// add registers a pre-built session, assigning an ID when missing.
func (f *fakeSessionStore) add(s model.ClassSession) model.ClassSession {
	if s.ID == 0 {
		f.nextID++
		s.ID = f.nextID
	} else if s.ID > f.nextID {
		f.nextID = s.ID
	}
	f.byToken[s.Token] = s
	f.byID[s.ID] = s
	return s
}

func (f *fakeSessionStore) Create(_ context.Context, teacherID uint64, ttl time.Duration) (model.ClassSession, error) {
	if f.createErr != nil {
		return model.ClassSession{}, f.createErr
	}
	now := time.Now().UTC()
	return f.add(model.ClassSession{
		Token:     uuid.NewString(),
		TeacherID: teacherID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}), nil
}

func (f *fakeSessionStore) GetByToken(_ context.Context, token string) (model.ClassSession, error) {
	s, ok := f.byToken[token]
	if !ok {
		return model.ClassSession{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id uint64) (model.ClassSession, error) {
	s, ok := f.byID[id]
	if !ok {
		return model.ClassSession{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) ListByTeacher(_ context.Context, teacherID uint64) ([]repository.SessionSummary, error) {
	var out []repository.SessionSummary
	for _, s := range f.byID {
		if s.TeacherID == teacherID {
			out = append(out, repository.SessionSummary{Session: s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Session.CreatedAt.After(out[j].Session.CreatedAt)
	})
	return out, nil
}

type pair struct{ student, session uint64 }

type fakeAttendanceStore struct {
	nextID uint64
	rows   map[pair]model.Attendance

	// blindExists makes Exists report false even for present rows,
	// simulating the race where two requests pass the fast-path check and
	// the storage constraint has to decide.
	blindExists bool
}

func newFakeAttendanceStore() *fakeAttendanceStore {
	return &fakeAttendanceStore{rows: make(map[pair]model.Attendance)}
}

func (f *fakeAttendanceStore) Exists(_ context.Context, studentID, sessionID uint64) (bool, error) {
	if f.blindExists {
		return false, nil
	}
	_, ok := f.rows[pair{studentID, sessionID}]
	return ok, nil
}

func (f *fakeAttendanceStore) Create(_ context.Context, studentID, sessionID uint64) (model.Attendance, error) {
	key := pair{studentID, sessionID}
	if _, ok := f.rows[key]; ok {
		return model.Attendance{}, repository.ErrAlreadyMarked
	}
	f.nextID++
	a := model.Attendance{
		ID:        f.nextID,
		StudentID: studentID,
		SessionID: sessionID,
		Status:    model.StatusPresent,
		MarkedAt:  time.Now().UTC(),
	}
	f.rows[key] = a
	return a, nil
}

func (f *fakeAttendanceStore) CountBySession(_ context.Context, sessionID uint64) (int, error) {
	n := 0
	for k := range f.rows {
		if k.session == sessionID {
			n++
		}
	}
	return n, nil
}

func (f *fakeAttendanceStore) ListByStudent(_ context.Context, studentID uint64, limit int) ([]repository.StudentRecord, error) {
	var out []repository.StudentRecord
	for k, a := range f.rows {
		if k.student == studentID {
			out = append(out, repository.StudentRecord{Attendance: a})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Attendance.MarkedAt.After(out[j].Attendance.MarkedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeAttendanceStore) ListBySession(_ context.Context, sessionID uint64) ([]repository.Attendee, error) {
	var out []repository.Attendee
	for k, a := range f.rows {
		if k.session == sessionID {
			out = append(out, repository.Attendee{StudentID: k.student, Status: a.Status, MarkedAt: a.MarkedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MarkedAt.Before(out[j].MarkedAt) })
	return out, nil
}

type fakeUserStore struct {
	byID map[uint64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[uint64]model.User)}
}

func (f *fakeUserStore) Create(_ context.Context, u model.User, password string, cost int) (uint64, error) {
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return 0, repository.ErrUsernameExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := uint64(len(f.byID) + 1)
	u.ID = id
	u.PasswordHash = hash
	f.byID[id] = u
	return id, nil
}

// seed registers a user with a real bcrypt hash for login tests.
func (f *fakeUserStore) seed(u model.User, password string) model.User {
	hash, _ := utils.HashPassword(password, bcrypt.MinCost)
	u.PasswordHash = hash
	if u.ID == 0 {
		u.ID = uint64(len(f.byID) + 1)
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	for _, u := range f.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

type storedRefresh struct {
	userID uint64
	hash   string
	exp    time.Time
}

type fakeTokenStore struct {
	stored  []storedRefresh
	revoked []uint64
}

func (f *fakeTokenStore) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	f.stored = append(f.stored, storedRefresh{userID, hash, exp})
	return nil
}

func (f *fakeTokenStore) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	for _, s := range f.stored {
		if s.hash == hash && s.exp.After(time.Now().UTC()) {
			return s.userID, nil
		}
	}
	return 0, sql.ErrNoRows
}

func (f *fakeTokenStore) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

var errBoom = errors.New("boom")
