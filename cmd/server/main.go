package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/smartattend/smart-attend/internal/config"
	"github.com/smartattend/smart-attend/internal/database"
	"github.com/smartattend/smart-attend/internal/handler"
	"github.com/smartattend/smart-attend/internal/queue"
	"github.com/smartattend/smart-attend/internal/repository"
	"github.com/smartattend/smart-attend/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		log.Fatalf("db migrate: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unreachable; rate limiting and caching disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	sessions := repository.NewSessionRepo(db)
	marks := repository.NewAttendanceRepo(db)

	deps := router.Deps{
		Cfg:        cfg,
		DB:         db,
		Redis:      rdb,
		Auth:       handler.NewAuthHandler(cfg, users, tokens),
		Attendance: handler.NewAttendanceHandler(cfg, sessions, marks, users),
		Reports:    handler.NewReportHandler(sessions, marks),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, deps)

	// Background consumer turning attendance.marked events into log lines.
	go queue.StartAttendanceConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}
