package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartattend/smart-attend/internal/config"
	"github.com/smartattend/smart-attend/internal/model"
)

const testToken = "3f2c9a14-7b6d-4e85-9c01-2d8f5a7e6b43"

func newMarkHandler(sessions *fakeSessionStore, marks *fakeAttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{
		Cfg:      config.Config{SessionTTLMin: 5},
		Sessions: sessions,
		Marks:    marks,
		Users:    newFakeUserStore(),
		// Publish stays nil: tests must not touch a broker.
	}
}

func studentContext(t *testing.T, e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, uid uint64) echo.Context {
	t.Helper()
	c := e.NewContext(req, rec)
	c.Set("user_id", uid)
	c.Set("role", model.RoleStudent)
	return c
}

func validSession(store *fakeSessionStore, ttl time.Duration) model.ClassSession {
	now := time.Now().UTC()
	return store.add(model.ClassSession{
		Token:     testToken,
		TeacherID: 42,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare token", testToken, testToken, true},
		{"surrounding whitespace", "  " + testToken + "\n", testToken, true},
		{"full url with trailing slash", "https://example.com/mark/" + testToken + "/", testToken, true},
		{"full url without trailing slash", "https://example.com/mark/" + testToken, testToken, true},
		{"path only", "/mark/" + testToken + "/", testToken, true},
		{"too short", "abc123", "", false},
		{"short tail of url", "https://example.com/mark/short/", "", false},
		{"empty", "", "", false},
		{"only slashes", "///", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeToken(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("normalizeToken(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestMarkAttendancePipeline(t *testing.T) {
	t.Run("valid session marks once then reports already", func(t *testing.T) {
		sessions := newFakeSessionStore()
		s := validSession(sessions, 5*time.Minute)
		marks := newFakeAttendanceStore()
		h := newMarkHandler(sessions, marks)

		outcome, a, _ := h.markAttendance(context.Background(), 7, testToken)
		if outcome != markOK {
			t.Fatalf("first mark outcome = %v, want markOK", outcome)
		}
		if a.SessionID != s.ID || a.StudentID != 7 || a.Status != model.StatusPresent {
			t.Errorf("unexpected attendance row: %+v", a)
		}

		outcome, _, _ = h.markAttendance(context.Background(), 7, testToken)
		if outcome != markAlready {
			t.Errorf("second mark outcome = %v, want markAlready", outcome)
		}
		if len(marks.rows) != 1 {
			t.Errorf("row count = %d, want 1", len(marks.rows))
		}
	})

	t.Run("url-wrapped token behaves like bare token", func(t *testing.T) {
		sessions := newFakeSessionStore()
		validSession(sessions, 5*time.Minute)
		marks := newFakeAttendanceStore()
		h := newMarkHandler(sessions, marks)

		outcome, _, _ := h.markAttendance(context.Background(), 7, "https://campus.example/mark/"+testToken+"/")
		if outcome != markOK {
			t.Errorf("outcome = %v, want markOK", outcome)
		}
	})

	t.Run("expired session fails regardless of prior state", func(t *testing.T) {
		sessions := newFakeSessionStore()
		validSession(sessions, -time.Minute)
		marks := newFakeAttendanceStore()
		h := newMarkHandler(sessions, marks)

		outcome, _, _ := h.markAttendance(context.Background(), 7, testToken)
		if outcome != markExpired {
			t.Errorf("outcome = %v, want markExpired", outcome)
		}
		if len(marks.rows) != 0 {
			t.Errorf("row count = %d, want 0", len(marks.rows))
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		h := newMarkHandler(newFakeSessionStore(), newFakeAttendanceStore())
		outcome, _, _ := h.markAttendance(context.Background(), 7, testToken)
		if outcome != markNotFound {
			t.Errorf("outcome = %v, want markNotFound", outcome)
		}
	})

	t.Run("constraint decides when existence check races", func(t *testing.T) {
		sessions := newFakeSessionStore()
		validSession(sessions, 5*time.Minute)
		marks := newFakeAttendanceStore()
		h := newMarkHandler(sessions, marks)

		if outcome, _, _ := h.markAttendance(context.Background(), 7, testToken); outcome != markOK {
			t.Fatalf("setup mark failed: %v", outcome)
		}
		// Now blind the fast path; the duplicate insert must still resolve
		// to the idempotent outcome.
		marks.blindExists = true
		outcome, _, _ := h.markAttendance(context.Background(), 7, testToken)
		if outcome != markAlready {
			t.Errorf("outcome = %v, want markAlready", outcome)
		}
		if len(marks.rows) != 1 {
			t.Errorf("row count = %d, want 1", len(marks.rows))
		}
	})
}

type ajaxResp struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg"`
}

func doAJAX(t *testing.T, h *AttendanceHandler, method, contentType, body string, uid uint64, role string) (*httptest.ResponseRecorder, ajaxResp) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/ajax/mark/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uid)
	c.Set("role", role)
	if err := h.MarkAJAX(c); err != nil {
		t.Fatalf("MarkAJAX returned error: %v", err)
	}
	var out ajaxResp
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return rec, out
}

func TestMarkAJAXContract(t *testing.T) {
	sessions := newFakeSessionStore()
	validSession(sessions, 5*time.Minute)
	h := newMarkHandler(sessions, newFakeAttendanceStore())

	t.Run("non-post gets 405", func(t *testing.T) {
		rec, out := doAJAX(t, h, http.MethodGet, "", "", 7, model.RoleStudent)
		if rec.Code != http.StatusMethodNotAllowed || out.OK {
			t.Errorf("got (%d, ok=%v), want (405, false)", rec.Code, out.OK)
		}
	})

	t.Run("non-student gets 403", func(t *testing.T) {
		rec, out := doAJAX(t, h, http.MethodPost, echo.MIMEApplicationForm, "token="+testToken, 42, model.RoleTeacher)
		if rec.Code != http.StatusForbidden || out.OK {
			t.Errorf("got (%d, ok=%v), want (403, false)", rec.Code, out.OK)
		}
	})

	t.Run("missing token gets 400", func(t *testing.T) {
		rec, out := doAJAX(t, h, http.MethodPost, echo.MIMEApplicationForm, "", 7, model.RoleStudent)
		if rec.Code != http.StatusBadRequest || out.Msg != "No token provided" {
			t.Errorf("got (%d, %q)", rec.Code, out.Msg)
		}
	})

	t.Run("form token succeeds", func(t *testing.T) {
		rec, out := doAJAX(t, h, http.MethodPost, echo.MIMEApplicationForm, "token="+testToken, 7, model.RoleStudent)
		if rec.Code != http.StatusOK || !out.OK {
			t.Errorf("got (%d, ok=%v, msg=%q), want success", rec.Code, out.OK, out.Msg)
		}
	})

	t.Run("already marked is 200 with ok false", func(t *testing.T) {
		rec, out := doAJAX(t, h, http.MethodPost, echo.MIMEApplicationForm, "token="+testToken, 7, model.RoleStudent)
		if rec.Code != http.StatusOK || out.OK {
			t.Errorf("got (%d, ok=%v), want (200, false)", rec.Code, out.OK)
		}
		if out.Msg != "You already marked attendance for this session" {
			t.Errorf("msg = %q", out.Msg)
		}
	})

	t.Run("json body under data key", func(t *testing.T) {
		sessions2 := newFakeSessionStore()
		validSession(sessions2, 5*time.Minute)
		h2 := newMarkHandler(sessions2, newFakeAttendanceStore())
		rec, out := doAJAX(t, h2, http.MethodPost, echo.MIMEApplicationJSON,
			`{"data":"https://campus.example/mark/`+testToken+`/"}`, 7, model.RoleStudent)
		if rec.Code != http.StatusOK || !out.OK {
			t.Errorf("got (%d, ok=%v, msg=%q), want success", rec.Code, out.OK, out.Msg)
		}
	})

	t.Run("short token gets 400", func(t *testing.T) {
		rec, out := doAJAX(t, h, http.MethodPost, echo.MIMEApplicationForm, "token=short", 7, model.RoleStudent)
		if rec.Code != http.StatusBadRequest || out.Msg != "Invalid QR data" {
			t.Errorf("got (%d, %q)", rec.Code, out.Msg)
		}
	})
}

func TestMarkByLinkRedirects(t *testing.T) {
	sessions := newFakeSessionStore()
	validSession(sessions, 5*time.Minute)
	h := newMarkHandler(sessions, newFakeAttendanceStore())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/mark/"+testToken+"/", nil)
	rec := httptest.NewRecorder()
	c := studentContext(t, e, req, rec, 7)
	c.SetParamNames("token")
	c.SetParamValues(testToken)

	if err := h.MarkByLink(c); err != nil {
		t.Fatalf("MarkByLink returned error: %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil || loc.Path != "/dashboard/" {
		t.Fatalf("redirect location = %q", rec.Header().Get("Location"))
	}
	if got := loc.Query().Get("notice"); got != "Attendance marked successfully!" {
		t.Errorf("notice = %q", got)
	}
}

func TestCreateQR(t *testing.T) {
	sessions := newFakeSessionStore()
	h := newMarkHandler(sessions, newFakeAttendanceStore())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/create-qr/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(42))
	c.Set("role", model.RoleTeacher)

	if err := h.CreateQR(c); err != nil {
		t.Fatalf("CreateQR returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out struct {
		Session struct {
			ID        uint64    `json:"id"`
			Token     string    `json:"token"`
			CreatedAt time.Time `json:"created_at"`
			ExpiresAt time.Time `json:"expires_at"`
		} `json:"session"`
		QRCode string `json:"qr_code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.QRCode == "" {
		t.Error("qr_code is empty")
	}
	if len(out.Session.Token) != 36 {
		t.Errorf("token %q is not a uuid string", out.Session.Token)
	}
	if got := out.Session.ExpiresAt.Sub(out.Session.CreatedAt); got != 5*time.Minute {
		t.Errorf("session ttl = %s, want 5m", got)
	}
	if s, ok := sessions.byToken[out.Session.Token]; !ok || s.TeacherID != 42 {
		t.Errorf("session not persisted for teacher 42: %+v", s)
	}
}

func TestCreateQRStoreFailure(t *testing.T) {
	sessions := newFakeSessionStore()
	sessions.createErr = errBoom
	h := newMarkHandler(sessions, newFakeAttendanceStore())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/create-qr/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(42))
	c.Set("role", model.RoleTeacher)

	if err := h.CreateQR(c); err != nil {
		t.Fatalf("CreateQR returned error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
