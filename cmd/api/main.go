package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	apphttp "github.com/kadik23/law-firm-web-app-sub002/internal/http"
	"github.com/kadik23/law-firm-web-app-sub002/internal/modules/notifications"
	"github.com/kadik23/law-firm-web-app-sub002/internal/processor"
	"github.com/kadik23/law-firm-web-app-sub002/internal/storage"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}

	proc, err := processor.FromEnv()
	if err != nil {
		log.Fatalf("payment processor init failed: %v", err)
	}
	logger.Info("payment processor configured", "driver", proc.Driver)

	arch, err := storage.FromEnv(context.Background())
	if err != nil {
		log.Fatalf("archive storage init failed: %v", err)
	}
	logger.Info("archive storage configured", "driver", arch.Driver)

	var dispatcher notifications.Dispatcher
	if os.Getenv("NOTIFY_API_URL") != "" {
		dispatcher = notifications.NewHTTPProvider()
	} else {
		logger.Warn("NOTIFY_API_URL not set, notifications go to the mock dispatcher")
		dispatcher = notifications.NewMock()
	}

	r := apphttp.NewRouter(apphttp.Config{
		Logger:     logger,
		DB:         db,
		Provider:   proc.Provider,
		Dispatcher: dispatcher,
		Archive:    arch.Storage,
		JWTSecret:  []byte(jwtSecret),
		BaseURL:    envOr("BASE_URL", "http://localhost:8080"),
	})

	srv := &http.Server{
		Addr:              ":" + envOr("PORT", "8080"),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
