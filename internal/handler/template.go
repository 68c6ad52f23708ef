package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/dvoss/choreboard/internal/store"
	"github.com/dvoss/choreboard/internal/week"
)

// TemplateHandler renders the server-side pages.
type TemplateHandler struct {
	chores      *store.ChoreStore
	completions *store.CompletionStore
	stats       *store.StatsStore
	loc         *time.Location
	templates   *template.Template
	logger      *slog.Logger
}

func NewTemplateHandler(cs *store.ChoreStore, comps *store.CompletionStore, ss *store.StatsStore, loc *time.Location, logger *slog.Logger) *TemplateHandler {
	tmpl := template.Must(template.ParseGlob("web/templates/*.html"))
	return &TemplateHandler{
		chores:      cs,
		completions: comps,
		stats:       ss,
		loc:         loc,
		templates:   tmpl,
		logger:      logger,
	}
}

// WeeklyBoard renders the week's chore board at the site root.
func (h *TemplateHandler) WeeklyBoard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	weekStart := currentWeek(h.loc)
	if param := r.URL.Query().Get("week_start"); param != "" {
		if t, err := time.Parse("2006-01-02", param); err == nil {
			weekStart = week.Start(t)
		}
	}

	view, err := buildWeeklyView(h.chores, h.completions, weekStart, nil, "")
	if err != nil {
		h.logger.Error("render weekly board", "error", err)
		http.Error(w, "failed to load data", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Title":     "Choreboard",
		"WeekRange": week.FormatRange(weekStart, weekStart.AddDate(0, 0, 6)),
		"PrevWeek":  weekStart.AddDate(0, 0, -7).Format("2006-01-02"),
		"NextWeek":  weekStart.AddDate(0, 0, 7).Format("2006-01-02"),
		"View":      view,
	}
	h.render(w, "weekly.html", data)
}

// Dashboard renders the admin stats page.
func (h *TemplateHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(currentWeek(h.loc))
	if err != nil {
		h.logger.Error("render dashboard", "error", err)
		http.Error(w, "failed to load data", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Title": "Dashboard - Choreboard",
		"Stats": stats,
	}
	h.render(w, "dashboard.html", data)
}

func (h *TemplateHandler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
