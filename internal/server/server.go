package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dvoss/choreboard/internal/backup"
	"github.com/dvoss/choreboard/internal/config"
	"github.com/dvoss/choreboard/internal/email"
	"github.com/dvoss/choreboard/internal/handler"
	"github.com/dvoss/choreboard/internal/middleware"
	"github.com/dvoss/choreboard/internal/store"
)

type Server struct {
	db            *sql.DB
	userH         *handler.UserHandler
	choreH        *handler.ChoreHandler
	completionH   *handler.CompletionHandler
	adminH        *handler.AdminHandler
	templateH     *handler.TemplateHandler
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(cfg *config.Config, db *sql.DB, loc *time.Location, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	choreStore := store.NewChoreStore(db)
	completionStore := store.NewCompletionStore(db)
	statsStore := store.NewStatsStore(db)
	backupStore := store.NewBackupStore(db)

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3.Endpoint,
			Bucket:    cfg.Backup.S3.Bucket,
			Region:    cfg.Backup.S3.Region,
			AccessKey: cfg.Backup.S3.AccessKey,
			SecretKey: cfg.Backup.S3.SecretKey,
		},
		DBPath:       cfg.DBPath,
		Passphrase:   cfg.Backup.Passphrase,
		ScheduleHour: cfg.Backup.ScheduleHour,
	}, db, backupStore, logger.With("component", "backup"))

	mailClient := email.NewClient(cfg.Mail.ServerToken, cfg.Mail.FromEmail)

	return &Server{
		db:          db,
		userH:       handler.NewUserHandler(userStore, logger.With("component", "user")),
		choreH:      handler.NewChoreHandler(choreStore, userStore, completionStore, loc, logger.With("component", "chore")),
		completionH: handler.NewCompletionHandler(completionStore, choreStore, userStore, statsStore, loc, logger.With("component", "completion")),
		adminH: handler.NewAdminHandler(db, statsStore, backupStore, backupMgr, mailClient,
			cfg.Mail.AdminEmail, loc, logger.With("component", "admin")),
		templateH:     handler.NewTemplateHandler(choreStore, completionStore, statsStore, loc, logger.With("component", "template")),
		rateLimiter:   middleware.NewRateLimiter(10, time.Minute),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// RateLimiter exposes the limiter for periodic cleanup.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager exposes the backup manager for scheduler start/stop.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// User API
	mux.HandleFunc("GET /api/users", s.userH.List)
	mux.HandleFunc("POST /api/users", s.userH.Create)
	mux.HandleFunc("GET /api/users/{id}", s.userH.Get)
	mux.HandleFunc("PUT /api/users/{id}", s.userH.Update)
	mux.HandleFunc("DELETE /api/users/{id}", s.userH.Delete)

	// Chore API. The literal segments win over {id}, so "weekly" and "adhoc"
	// never parse as IDs.
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("GET /api/chores/weekly", s.choreH.Weekly)
	mux.HandleFunc("GET /api/chores/adhoc/names", s.choreH.AdhocNames)
	mux.Handle("POST /api/chores/adhoc", s.rateLimiter.Limit(http.HandlerFunc(s.choreH.CreateAdhoc)))
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)

	// Completion API
	mux.HandleFunc("GET /api/completions", s.completionH.List)
	mux.HandleFunc("POST /api/completions", s.completionH.Create)
	mux.HandleFunc("GET /api/completions/stats", s.completionH.Stats)
	mux.HandleFunc("PUT /api/completions/{id}", s.completionH.Update)
	mux.HandleFunc("DELETE /api/completions/{id}", s.completionH.Delete)

	// Admin API
	mux.HandleFunc("GET /api/admin/stats/dashboard", s.adminH.Dashboard)
	mux.HandleFunc("GET /api/admin/health", s.adminH.Health)
	mux.HandleFunc("POST /api/admin/backup", s.adminH.RunBackup)
	mux.HandleFunc("GET /api/admin/backups", s.adminH.ListBackups)
	mux.HandleFunc("POST /api/admin/digest", s.adminH.SendDigest)

	// Pages and assets
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	mux.HandleFunc("GET /dashboard", s.templateH.Dashboard)
	mux.HandleFunc("GET /", s.templateH.WeeklyBoard)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
