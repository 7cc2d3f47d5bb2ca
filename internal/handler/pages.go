package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Landing serves GET / and GET /home/.  The payload is the marketing copy
// the front end renders; it never changes at runtime, which is why these
// two routes sit behind the response cache.
func Landing(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"name": "SmartAttend",
		"features": []echo.Map{
			{"title": "Automatic Presence Detection", "text": "Seamlessly marks attendance the moment you're within a 10-meter radius — no manual check-ins or roll calls needed."},
			{"title": "Verified & Tamper-Proof", "text": "Built on precise geolocation verification, every record is authentic and tied to the student's secure identity credentials."},
			{"title": "Instant Attendance Insights", "text": "View attendance summaries, daily statistics, and visual reports in real-time — empowering teachers with instant analytics."},
			{"title": "Your Data, Your Control", "text": "Location data is processed securely and never stored permanently — ensuring complete transparency and privacy for every user."},
		},
		"steps": []echo.Map{
			{"step": 1, "title": "Detect", "text": "SmartAttend automatically senses students within a 10-meter range — no manual check-ins needed."},
			{"step": 2, "title": "Verify", "text": "Instantly confirms identity with secure, device-based authentication."},
			{"step": 3, "title": "Record", "text": "Attendance is logged and updated in real-time, ready for reports."},
		},
	})
}
