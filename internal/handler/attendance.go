package handler

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartattend/smart-attend/internal/config"
	"github.com/smartattend/smart-attend/internal/metrics"
	"github.com/smartattend/smart-attend/internal/middleware"
	"github.com/smartattend/smart-attend/internal/model"
	"github.com/smartattend/smart-attend/internal/queue"
	"github.com/smartattend/smart-attend/internal/repository"
	queue_publisher "github.com/smartattend/smart-attend/internal/service"
	"github.com/smartattend/smart-attend/internal/utils"
)

// minTokenLen filters obviously malformed scans before the database is ever
// touched.  Session tokens are 36-character uuid strings; anything shorter
// than 20 cannot be one.
const minTokenLen = 20

// AttendanceHandler implements session issuance and both attendance-marking
// entry points.  The two entry points differ only in how the outcome is
// rendered (redirect with notice vs JSON); validation runs through the one
// markAttendance pipeline for both.
type AttendanceHandler struct {
	Cfg      config.Config
	Sessions SessionStore
	Marks    AttendanceStore
	Users    UserStore

	// Publish sends the attendance.marked event; best-effort, overridable in
	// tests.  Nil disables publishing.
	Publish func(ctx context.Context, ev queue.AttendanceMarkedEvent) error
}

func NewAttendanceHandler(cfg config.Config, s SessionStore, m AttendanceStore, u UserStore) *AttendanceHandler {
	return &AttendanceHandler{
		Cfg:      cfg,
		Sessions: s,
		Marks:    m,
		Users:    u,
		Publish:  queue_publisher.PublishAttendanceMarked,
	}
}

// CreateQR handles GET /create-qr/ (teacher only, enforced by middleware).
// It issues a fresh session expiring SESSION_TTL_MIN from now and returns
// its metadata together with a base64 PNG QR of the bare token.  Every call
// creates a new session; expiry is never extended.
func (h *AttendanceHandler) CreateQR(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ttl := time.Duration(h.Cfg.SessionTTLMin) * time.Minute
	s, err := h.Sessions.Create(ctx, middleware.CurrentUserID(c), ttl)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create session failed"})
	}
	metrics.SessionsCreated.Inc()

	qr, err := utils.QRBase64(s.Token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encode qr failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session": echo.Map{
			"id":         s.ID,
			"token":      s.Token,
			"created_at": s.CreatedAt,
			"expires_at": s.ExpiresAt,
		},
		"qr_code": qr, // base64 PNG, embed as data:image/png;base64,...
	})
}

// ScanPage handles GET /scan/ (student only).  The browser page does the
// camera work client-side and posts results to /ajax/mark/.
func (h *AttendanceHandler) ScanPage(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"page":     "scan",
		"post_url": "/ajax/mark/",
		"field":    "token",
	})
}

// markOutcome classifies one run of the marking pipeline.
type markOutcome int

const (
	markOK markOutcome = iota
	markMalformed
	markNotFound
	markExpired
	markAlready
	markError
)

// msg returns the user-facing notice for the outcome, matching what the
// scanning clients display.
func (o markOutcome) msg() string {
	switch o {
	case markOK:
		return "Attendance marked successfully!"
	case markMalformed:
		return "Invalid QR data"
	case markNotFound:
		return "Invalid or expired QR token"
	case markExpired:
		return "This session has expired"
	case markAlready:
		return "You already marked attendance for this session"
	}
	return "Something went wrong"
}

// normalizeToken extracts a session token from a raw scan value.  Scanners
// may deliver either the bare token or a full URL such as
// "https://host/mark/<token>/"; in the URL case the trailing non-empty path
// segment is the token.  Values shorter than minTokenLen are rejected as
// malformed scans.
func normalizeToken(raw string) (string, bool) {
	token := strings.TrimSpace(raw)
	if strings.Contains(token, "/") {
		trimmed := strings.TrimRight(token, "/")
		if i := strings.LastIndex(trimmed, "/"); i >= 0 {
			token = trimmed[i+1:]
		} else {
			token = trimmed
		}
	}
	if len(token) < minTokenLen {
		return "", false
	}
	return token, true
}

// markAttendance is the single validation pipeline behind both entry
// points: normalize the token, look the session up, recompute validity
// against the clock, then insert.  The repository's duplicate-key handling
// is the authoritative idempotence guard; the Exists call before it is a
// fast path only, since two concurrent requests can both pass it.
func (h *AttendanceHandler) markAttendance(ctx context.Context, studentID uint64, rawToken string) (markOutcome, model.Attendance, model.ClassSession) {
	token, ok := normalizeToken(rawToken)
	if !ok {
		metrics.AttendanceRejected.WithLabelValues("malformed").Inc()
		return markMalformed, model.Attendance{}, model.ClassSession{}
	}

	session, err := h.Sessions.GetByToken(ctx, token)
	if err != nil {
		if err == repository.ErrSessionNotFound {
			metrics.AttendanceRejected.WithLabelValues("not_found").Inc()
			return markNotFound, model.Attendance{}, model.ClassSession{}
		}
		return markError, model.Attendance{}, model.ClassSession{}
	}

	if !session.IsValid(time.Now().UTC()) {
		metrics.AttendanceRejected.WithLabelValues("expired").Inc()
		return markExpired, model.Attendance{}, session
	}

	if exists, err := h.Marks.Exists(ctx, studentID, session.ID); err != nil {
		return markError, model.Attendance{}, session
	} else if exists {
		metrics.AttendanceRejected.WithLabelValues("already_marked").Inc()
		return markAlready, model.Attendance{}, session
	}

	a, err := h.Marks.Create(ctx, studentID, session.ID)
	if err != nil {
		if err == repository.ErrAlreadyMarked {
			// Lost the race; the row the winner created is the record.
			metrics.AttendanceRejected.WithLabelValues("already_marked").Inc()
			return markAlready, model.Attendance{}, session
		}
		return markError, model.Attendance{}, session
	}
	metrics.AttendanceMarked.Inc()
	h.publishMarked(a, session)
	return markOK, a, session
}

// publishMarked emits the attendance.marked event in the background.  The
// row is already committed; a broker failure only costs the log line.
func (h *AttendanceHandler) publishMarked(a model.Attendance, s model.ClassSession) {
	if h.Publish == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ev := queue.AttendanceMarkedEvent{
			AttendanceID: a.ID,
			StudentID:    a.StudentID,
			SessionID:    s.ID,
			SessionToken: s.Token,
			TeacherID:    s.TeacherID,
			Status:       a.Status,
			MarkedAt:     a.MarkedAt.Format(time.RFC3339),
		}
		if u, err := h.Users.GetByID(ctx, a.StudentID); err == nil {
			ev.Student = u.Username
		}
		if err := h.Publish(ctx, ev); err != nil {
			log.Printf("attendance event publish failed: %v", err)
		}
	}()
}

// MarkByLink handles GET /mark/:token/.  Authentication and the student
// role are enforced by middleware; the outcome is rendered as a redirect to
// the dashboard carrying a flash-style notice.
func (h *AttendanceHandler) MarkByLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	outcome, _, _ := h.markAttendance(ctx, middleware.CurrentUserID(c), c.Param("token"))
	if outcome == markError {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard/?notice="+url.QueryEscape(outcome.msg()))
}

// MarkAJAX handles /ajax/mark/ for the client-side scanner.  The route is
// registered for every method so non-POST callers get the JSON 405 the
// scanner contract promises.  The token arrives as a form field or JSON
// body under "token" or "data".  Status mapping: 405 wrong method, 403
// non-student, 400 malformed/unknown/expired, 200 for success and also for
// "already marked", which reports ok:false with a 200 because it is an
// idempotent no-op, not a failure.
func (h *AttendanceHandler) MarkAJAX(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return c.JSON(http.StatusMethodNotAllowed, echo.Map{"ok": false, "msg": "POST required"})
	}
	if middleware.CurrentRole(c) != model.RoleStudent {
		return c.JSON(http.StatusForbidden, echo.Map{"ok": false, "msg": "Only students can mark attendance"})
	}

	raw := h.ajaxToken(c)
	if strings.TrimSpace(raw) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "msg": "No token provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	outcome, _, _ := h.markAttendance(ctx, middleware.CurrentUserID(c), raw)
	switch outcome {
	case markOK:
		return c.JSON(http.StatusOK, echo.Map{"ok": true, "msg": outcome.msg()})
	case markAlready:
		return c.JSON(http.StatusOK, echo.Map{"ok": false, "msg": outcome.msg()})
	case markError:
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "msg": outcome.msg()})
	default: // malformed, not found, expired
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "msg": outcome.msg()})
	}
}

// ajaxToken pulls the raw token from a form field or a JSON body, accepting
// both "token" and "data" keys the way the scanner clients send them.
func (h *AttendanceHandler) ajaxToken(c echo.Context) string {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var body struct {
			Token string `json:"token"`
			Data  string `json:"data"`
		}
		if err := c.Bind(&body); err == nil {
			if body.Token != "" {
				return body.Token
			}
			return body.Data
		}
		return ""
	}
	if v := c.FormValue("token"); v != "" {
		return v
	}
	return c.FormValue("data")
}
