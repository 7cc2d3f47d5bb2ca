package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Health returns a liveness handler that also reports whether the database
// and Redis answer.  Redis being down degrades rate limiting and caching
// but does not fail the check; a dead database does.
func Health(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		dbOK := db != nil && db.PingContext(ctx) == nil
		redisOK := rdb != nil && rdb.Ping(ctx).Err() == nil

		status := http.StatusOK
		if !dbOK {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, echo.Map{"status": "ok", "db": dbOK, "redis": redisOK})
	}
}
