package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dvoss/choreboard/internal/backup"
	"github.com/dvoss/choreboard/internal/email"
	"github.com/dvoss/choreboard/internal/model"
	"github.com/dvoss/choreboard/internal/store"
	"github.com/dvoss/choreboard/internal/week"
)

type AdminHandler struct {
	db         *sql.DB
	stats      *store.StatsStore
	backups    *store.BackupStore
	manager    *backup.Manager
	mail       *email.Client
	adminEmail string
	loc        *time.Location
	logger     *slog.Logger
}

func NewAdminHandler(db *sql.DB, ss *store.StatsStore, bs *store.BackupStore, m *backup.Manager, mail *email.Client, adminEmail string, loc *time.Location, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		db:         db,
		stats:      ss,
		backups:    bs,
		manager:    m,
		mail:       mail,
		adminEmail: adminEmail,
		loc:        loc,
		logger:     logger,
	}
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(currentWeek(h.loc))
	if err != nil {
		h.logger.Error("dashboard stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute dashboard"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Health reports store reachability plus entity counts. A failing store makes
// the endpoint return 503 so orchestrators stop routing traffic here.
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("health check ping", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": "database unreachable"})
		return
	}

	users, chores, completions, err := h.stats.EntityCounts()
	if err != nil {
		h.logger.Error("health check counts", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": "database query failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"users":       users,
		"chores":      chores,
		"completions": completions,
	})
}

func (h *AdminHandler) RunBackup(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "backups are not configured"})
		return
	}

	id, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "backup failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"backup_id": id,
		"status":    h.manager.Status(),
	})
}

func (h *AdminHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List(50)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list backups"})
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  h.manager.Status(),
		"backups": backups,
	})
}

// SendDigest mails the current week's stats to the configured admin address.
func (h *AdminHandler) SendDigest(w http.ResponseWriter, r *http.Request) {
	if !h.mail.Configured() || h.adminEmail == "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "mail is not configured"})
		return
	}

	weekStart := currentWeek(h.loc)
	stats, err := h.stats.CompletionStats(nil, weekStart)
	if err != nil {
		h.logger.Error("digest stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute stats"})
		return
	}

	weekRange := week.FormatRange(weekStart, weekStart.AddDate(0, 0, 6))
	if err := h.mail.SendDigest(h.adminEmail, weekRange, stats); err != nil {
		h.logger.Error("send digest", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send digest"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "to": h.adminEmail})
}
