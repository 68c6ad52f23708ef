package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvoss/choreboard/internal/config"
	"github.com/dvoss/choreboard/internal/database"
	"github.com/dvoss/choreboard/internal/logging"
	"github.com/dvoss/choreboard/internal/server"
	"github.com/dvoss/choreboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info").Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("resolve time zone", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Mail.AdminEmail != "" {
		admin, err := store.NewUserStore(db).EnsureAdmin("Admin", cfg.Mail.AdminEmail)
		if err != nil {
			logger.Error("ensure admin user", "error", err)
			os.Exit(1)
		}
		if admin != nil {
			logger.Info("created initial admin user", "id", admin.ID, "email", cfg.Mail.AdminEmail)
		}
	}

	srv := server.New(&cfg, db, loc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	// Evict stale rate-limit windows so idle clients do not pin memory.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("choreboard listening", "addr", cfg.Addr, "timezone", cfg.Timezone)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
