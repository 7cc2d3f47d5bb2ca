// Package router registers the HTTP route table.  Paths are kept exactly as
// the front end links them, trailing slashes included.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/smartattend/smart-attend/internal/config"
	"github.com/smartattend/smart-attend/internal/handler"
	"github.com/smartattend/smart-attend/internal/middleware"
	"github.com/smartattend/smart-attend/internal/model"
)

// Deps carries everything route registration needs.
type Deps struct {
	Cfg        config.Config
	DB         *sql.DB
	Redis      *redis.Client
	Auth       *handler.AuthHandler
	Attendance *handler.AttendanceHandler
	Reports    *handler.ReportHandler
}

// Register wires every route with its middleware chain.
func Register(e *echo.Echo, d Deps) {
	authJSON := middleware.JWTAuth(d.Cfg.JWTSecret)
	authPage := middleware.JWTAuthPage(d.Cfg.JWTSecret, "/login/")
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis)

	// Public pages.  The landing payload is static, so it sits behind the
	// response cache.
	e.GET("/", handler.Landing, cache)
	e.GET("/home/", handler.Landing, cache)

	// Account creation and login.
	e.GET("/signup/student/", d.Auth.SignupStudentForm)
	e.POST("/signup/student/", d.Auth.SignupStudent)
	e.GET("/signup/teacher/", d.Auth.SignupTeacherForm)
	e.POST("/signup/teacher/", d.Auth.SignupTeacher)
	e.GET("/login/", d.Auth.LoginForm)
	e.POST("/login/", d.Auth.Login)
	e.POST("/auth/refresh/", d.Auth.Refresh)
	e.GET("/logout/", d.Auth.Logout, authPage)

	// Role-conditional dashboard.
	e.GET("/dashboard/", d.Reports.Dashboard, authPage)
	e.GET("/me", d.Auth.Me, authJSON)

	// Session issuance (teacher only; students are bounced back to the
	// dashboard with a notice and no session row is created).
	e.GET("/create-qr/", d.Attendance.CreateQR, authPage,
		middleware.RequireRolePage("/dashboard/", "Only teachers can generate attendance QR.", model.RoleTeacher))

	// Marking.  The link flow redirects with a notice; the AJAX flow speaks
	// the scanner's {ok,msg} contract and is registered for every method so
	// non-POST callers get its JSON 405 rather than Echo's default.
	e.GET("/mark/:token/", d.Attendance.MarkByLink, authPage,
		middleware.RequireRolePage("/dashboard/", "Only students can mark attendance.", model.RoleStudent), limit)
	e.GET("/scan/", d.Attendance.ScanPage, authPage,
		middleware.RequireRolePage("/dashboard/", "Only students can mark attendance.", model.RoleStudent))
	e.Any("/ajax/mark/", d.Attendance.MarkAJAX, authJSON, limit)

	// Teacher reporting.
	e.GET("/teacher/reports/", d.Reports.TeacherReports, authJSON, middleware.RequireRole(model.RoleTeacher))
	e.GET("/reports/session/:id/", d.Reports.SessionReport, authJSON, middleware.RequireRole(model.RoleTeacher))

	// Operational endpoints.
	e.GET("/healthz", handler.Health(d.DB, d.Redis))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
