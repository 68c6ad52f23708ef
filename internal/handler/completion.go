package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dvoss/choreboard/internal/model"
	"github.com/dvoss/choreboard/internal/store"
	"github.com/dvoss/choreboard/internal/week"
)

type CompletionHandler struct {
	completions *store.CompletionStore
	chores      *store.ChoreStore
	users       *store.UserStore
	stats       *store.StatsStore
	loc         *time.Location
	logger      *slog.Logger
}

func NewCompletionHandler(comps *store.CompletionStore, cs *store.ChoreStore, us *store.UserStore, ss *store.StatsStore, loc *time.Location, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{completions: comps, chores: cs, users: us, stats: ss, loc: loc, logger: logger}
}

func (h *CompletionHandler) List(w http.ResponseWriter, r *http.Request) {
	choreID, err := parseInt64Param(r, "chore_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chore_id"})
		return
	}
	userID, err := parseInt64Param(r, "user_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}
	weekStart, err := parseDateParam(r, "week_start")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week_start"})
		return
	}
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from"})
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to"})
		return
	}
	skip, limit := parsePagination(r)

	completions, err := h.completions.List(store.CompletionFilter{
		ChoreID:   choreID,
		UserID:    userID,
		WeekStart: weekStart,
		From:      from,
		To:        to,
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		h.logger.Error("list completions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list completions"})
		return
	}
	if completions == nil {
		completions = []model.Completion{}
	}
	writeJSON(w, http.StatusOK, completions)
}

type completionRequest struct {
	ChoreID        int64   `json:"chore_id"`
	UserID         int64   `json:"user_id"`
	WeekStart      string  `json:"week_start"`
	CompletionDate string  `json:"completion_date"`
	Notes          *string `json:"notes"`
}

// Create marks a chore complete. Duplicate checking is frequency-aware: most
// chores allow one completion per week, twice-weekly and adhoc chores one per
// calendar day.
func (h *CompletionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	chore, err := h.chores.GetByID(req.ChoreID)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check chore"})
		return
	}
	if chore == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("chore with id %d not found", req.ChoreID)})
		return
	}

	user, err := h.users.GetByID(req.UserID)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check user"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("user with id %d not found", req.UserID)})
		return
	}

	completedAt := time.Now().In(h.loc)
	completedOn := completedAt.Format("2006-01-02")
	if req.CompletionDate != "" {
		day, err := time.Parse("2006-01-02", req.CompletionDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid completion_date"})
			return
		}
		if day.After(today(h.loc)) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot complete a chore in the future"})
			return
		}
		completedAt = noonIn(day, h.loc)
		completedOn = req.CompletionDate
	}

	weekStart := currentWeek(h.loc)
	if req.WeekStart != "" {
		ws, err := time.Parse("2006-01-02", req.WeekStart)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week_start"})
			return
		}
		weekStart = week.Start(ws)
	}

	completion, err := h.completions.Create(store.CompletionParams{
		ChoreID:     req.ChoreID,
		UserID:      req.UserID,
		CompletedAt: completedAt,
		CompletedOn: completedOn,
		WeekStart:   weekStart,
		Notes:       req.Notes,
		PerDay:      chore.Frequency == model.FrequencyTwiceWeekly || chore.IsAdhoc,
	})
	if errors.Is(err, store.ErrDuplicateCompletion) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("chore %q was already completed for the week of %s", chore.Name, weekStart.Format("2006-01-02")),
		})
		return
	}
	if err != nil {
		h.logger.Error("create completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create completion"})
		return
	}

	writeJSON(w, http.StatusCreated, completion)
}

type completionUpdateRequest struct {
	UserID         *int64  `json:"user_id"`
	CompletionDate *string `json:"completion_date"`
	WeekStart      *string `json:"week_start"`
	Notes          *string `json:"notes"`
}

func (h *CompletionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.completions.GetByID(id)
	if err != nil {
		h.logger.Error("get completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get completion"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "completion not found"})
		return
	}

	var req completionUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	userID := existing.UserID
	if req.UserID != nil {
		user, err := h.users.GetByID(*req.UserID)
		if err != nil {
			h.logger.Error("get user", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check user"})
			return
		}
		if user == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("user with id %d not found", *req.UserID)})
			return
		}
		userID = *req.UserID
	}

	completedAt := existing.CompletedAt
	completedOn := existing.CompletedOn
	if req.CompletionDate != nil {
		day, err := time.Parse("2006-01-02", *req.CompletionDate)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid completion_date"})
			return
		}
		if day.After(today(h.loc)) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot complete a chore in the future"})
			return
		}
		completedAt = noonIn(day, h.loc)
		completedOn = *req.CompletionDate
	}

	weekStart := existing.WeekStart
	if req.WeekStart != nil {
		ws, err := time.Parse("2006-01-02", *req.WeekStart)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week_start"})
			return
		}
		weekStart = week.Start(ws)
	}

	notes := existing.Notes
	if req.Notes != nil {
		notes = req.Notes
	}

	completion, err := h.completions.Update(id, userID, completedAt, completedOn, weekStart, notes)
	if errors.Is(err, store.ErrDuplicateCompletion) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a completion already exists for that chore and date"})
		return
	}
	if err != nil {
		h.logger.Error("update completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update completion"})
		return
	}

	writeJSON(w, http.StatusOK, completion)
}

func (h *CompletionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.completions.GetByID(id)
	if err != nil {
		h.logger.Error("get completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get completion"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "completion not found"})
		return
	}

	if err := h.completions.Delete(id); err != nil {
		h.logger.Error("delete completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete completion"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CompletionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := parseInt64Param(r, "user_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}

	stats, err := h.stats.CompletionStats(userID, currentWeek(h.loc))
	if err != nil {
		h.logger.Error("completion stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
