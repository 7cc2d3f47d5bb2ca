package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartattend/smart-attend/internal/middleware"
	"github.com/smartattend/smart-attend/internal/model"
	"github.com/smartattend/smart-attend/internal/repository"
)

// ReportHandler serves the dashboard and the teacher reporting views.
type ReportHandler struct {
	Sessions SessionStore
	Marks    AttendanceStore
}

func NewReportHandler(s SessionStore, m AttendanceStore) *ReportHandler {
	return &ReportHandler{Sessions: s, Marks: m}
}

// dashboardRecords caps the student dashboard history.
const dashboardRecords = 10

// Dashboard handles GET /dashboard/ for both roles.  Teachers see their
// sessions newest-first with attendance counts; students see their last ten
// attendance records.  The notice query parameter, set by redirecting
// flows, is echoed back for display.
func (h *ReportHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid := middleware.CurrentUserID(c)
	notice := c.QueryParam("notice")

	if middleware.CurrentRole(c) == model.RoleTeacher {
		sums, err := h.Sessions.ListByTeacher(ctx, uid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		sessions := make([]echo.Map, 0, len(sums))
		for _, sum := range sums {
			sessions = append(sessions, echo.Map{
				"id":         sum.Session.ID,
				"token":      sum.Session.Token,
				"created_at": sum.Session.CreatedAt,
				"expires_at": sum.Session.ExpiresAt,
				"valid":      sum.Session.IsValid(time.Now().UTC()),
				"count":      sum.Count,
			})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"is_teacher": true,
			"sessions":   sessions,
			"notice":     notice,
		})
	}

	recs, err := h.Marks.ListByStudent(ctx, uid, dashboardRecords)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	records := make([]echo.Map, 0, len(recs))
	for _, rec := range recs {
		records = append(records, echo.Map{
			"session_id": rec.Session.ID,
			"status":     rec.Attendance.Status,
			"marked_at":  rec.Attendance.MarkedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"is_teacher": false,
		"records":    records,
		"notice":     notice,
	})
}

// TeacherReports handles GET /teacher/reports/ (teacher only).  It returns
// every session the teacher issued, newest first, with per-session counts
// plus the aggregate totals.  No pagination or time-range filters.
func (h *ReportHandler) TeacherReports(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sums, err := h.Sessions.ListByTeacher(ctx, middleware.CurrentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	total := 0
	rows := make([]echo.Map, 0, len(sums))
	for _, sum := range sums {
		total += sum.Count
		rows = append(rows, echo.Map{
			"id":      sum.Session.ID,
			"title":   fmt.Sprintf("Session %d", sum.Session.ID),
			"count":   sum.Count,
			"created": sum.Session.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_data":     rows,
		"total_sessions":   len(sums),
		"total_attendance": total,
	})
}

// SessionReport handles GET /reports/session/:id/ (teacher only).  Only the
// session's owner may read it; other teachers get 403.
func (h *ReportHandler) SessionReport(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrSessionNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if s.TeacherID != middleware.CurrentUserID(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	attendees, err := h.Marks.ListBySession(ctx, s.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rows := make([]echo.Map, 0, len(attendees))
	for _, at := range attendees {
		rows = append(rows, echo.Map{
			"student_id":  at.StudentID,
			"username":    at.Username,
			"roll_number": at.RollNumber,
			"status":      at.Status,
			"marked_at":   at.MarkedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session": echo.Map{
			"id":         s.ID,
			"token":      s.Token,
			"created_at": s.CreatedAt,
			"expires_at": s.ExpiresAt,
			"valid":      s.IsValid(time.Now().UTC()),
		},
		"count":     len(rows),
		"attendees": rows,
	})
}
