package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/smartattend/smart-attend/internal/model"
)

func runRole(t *testing.T, mw echo.MiddlewareFunc, role string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/create-qr/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set("role", role)
	}
	if err := mw(okHandler)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(model.RoleTeacher)

	if rec := runRole(t, mw, model.RoleTeacher); rec.Code != http.StatusOK {
		t.Errorf("teacher: status = %d, want 200", rec.Code)
	}
	if rec := runRole(t, mw, model.RoleStudent); rec.Code != http.StatusForbidden {
		t.Errorf("student: status = %d, want 403", rec.Code)
	}
	if rec := runRole(t, mw, ""); rec.Code != http.StatusForbidden {
		t.Errorf("no role: status = %d, want 403", rec.Code)
	}
}

func TestRequireRolePage(t *testing.T) {
	mw := RequireRolePage("/dashboard/", "Only teachers can generate attendance QR.", model.RoleTeacher)

	if rec := runRole(t, mw, model.RoleTeacher); rec.Code != http.StatusOK {
		t.Errorf("teacher: status = %d, want 200", rec.Code)
	}

	rec := runRole(t, mw, model.RoleStudent)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("student: status = %d, want 303", rec.Code)
	}
	want := "/dashboard/?notice=Only+teachers+can+generate+attendance+QR."
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("location = %q, want %q", loc, want)
	}
}
