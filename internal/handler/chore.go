package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dvoss/choreboard/internal/model"
	"github.com/dvoss/choreboard/internal/store"
	"github.com/dvoss/choreboard/internal/week"
)

type ChoreHandler struct {
	chores      *store.ChoreStore
	users       *store.UserStore
	completions *store.CompletionStore
	loc         *time.Location
	logger      *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, us *store.UserStore, comps *store.CompletionStore, loc *time.Location, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, users: us, completions: comps, loc: loc, logger: logger}
}

type choreRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Frequency      string `json:"frequency"`
	DayOfWeek      *int   `json:"day_of_week"`
	DayOfWeek2     *int   `json:"day_of_week_2"`
	AssignedUserID *int64 `json:"assigned_user_id"`
	IsActive       *bool  `json:"is_active"`
}

// validate checks the request fields shared by create and update.
func (h *ChoreHandler) validate(req *choreRequest) (status int, msg string) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return http.StatusBadRequest, "name is required"
	}
	if !model.ValidFrequency(req.Frequency) {
		return http.StatusBadRequest, "frequency must be 'daily', 'weekly', 'twice_weekly', or 'monthly'"
	}
	for _, d := range []*int{req.DayOfWeek, req.DayOfWeek2} {
		if d != nil && (*d < 0 || *d > 6) {
			return http.StatusBadRequest, "day of week must be between 0 and 6"
		}
	}
	if req.AssignedUserID != nil {
		user, err := h.users.GetByID(*req.AssignedUserID)
		if err != nil {
			h.logger.Error("get assigned user", "error", err)
			return http.StatusInternalServerError, "failed to check assigned user"
		}
		if user == nil {
			return http.StatusBadRequest, fmt.Sprintf("user with id %d not found", *req.AssignedUserID)
		}
	}
	return 0, ""
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if status, msg := h.validate(&req); status != 0 {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	chore, err := h.chores.Create(store.ChoreParams{
		Name:           req.Name,
		Description:    req.Description,
		Frequency:      req.Frequency,
		DayOfWeek:      req.DayOfWeek,
		DayOfWeek2:     req.DayOfWeek2,
		AssignedUserID: req.AssignedUserID,
		IsActive:       isActive,
	})
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create chore"})
		return
	}

	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	isActive, err := parseBoolParam(r, "is_active")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid is_active"})
		return
	}
	assignedUserID, err := parseInt64Param(r, "assigned_user_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid assigned_user_id"})
		return
	}
	frequency := r.URL.Query().Get("frequency")
	if frequency != "" && !model.ValidFrequency(frequency) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "frequency must be 'daily', 'weekly', 'twice_weekly', or 'monthly'"})
		return
	}
	skip, limit := parsePagination(r)

	chores, err := h.chores.List(store.ChoreFilter{
		IsActive:       isActive,
		AssignedUserID: assignedUserID,
		Frequency:      frequency,
		Skip:           skip,
		Limit:          limit,
	})
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list chores"})
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	chore, err := h.chores.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get chore"})
		return
	}
	if chore == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chore not found"})
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.chores.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get chore"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chore not found"})
		return
	}

	req := choreRequest{
		Name:           existing.Name,
		Description:    existing.Description,
		Frequency:      existing.Frequency,
		DayOfWeek:      existing.DayOfWeek,
		DayOfWeek2:     existing.DayOfWeek2,
		AssignedUserID: existing.AssignedUserID,
		IsActive:       &existing.IsActive,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if status, msg := h.validate(&req); status != 0 {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	// A JSON null resets the pre-filled pointer, so treat it as "keep".
	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	chore, err := h.chores.Update(id, store.ChoreParams{
		Name:           req.Name,
		Description:    req.Description,
		Frequency:      req.Frequency,
		DayOfWeek:      req.DayOfWeek,
		DayOfWeek2:     req.DayOfWeek2,
		AssignedUserID: req.AssignedUserID,
		IsActive:       isActive,
		IsAdhoc:        existing.IsAdhoc,
	})
	if err != nil {
		h.logger.Error("update chore", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update chore"})
		return
	}

	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.chores.GetByID(id)
	if err != nil {
		h.logger.Error("get chore", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get chore"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chore not found"})
		return
	}

	if err := h.chores.Delete(id); err != nil {
		h.logger.Error("delete chore", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete chore"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type weeklyCompletion struct {
	CompletionID    int64     `json:"completion_id"`
	CompletedAt     time.Time `json:"completed_at"`
	CompletedBy     int64     `json:"completed_by"`
	CompletedByName string    `json:"completed_by_name"`
	Notes           *string   `json:"notes"`
}

type weeklyChore struct {
	ID             int64              `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Frequency      string             `json:"frequency"`
	DayOfWeek      *int               `json:"day_of_week"`
	DayOfWeek2     *int               `json:"day_of_week_2"`
	AssignedUserID *int64             `json:"assigned_user_id"`
	IsAdhoc        bool               `json:"is_adhoc"`
	Completions    []weeklyCompletion `json:"completions"`
}

type weeklyResponse struct {
	WeekStart       string        `json:"week_start"`
	TotalChores     int           `json:"total_chores"`
	CompletedChores int           `json:"completed_chores"`
	Chores          []weeklyChore `json:"chores"`
}

// Weekly builds the week board: active chores ordered for display, each with
// its completions for the requested week, plus adhoc chores that were
// completed that week.
func (h *ChoreHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	weekParam, err := parseDateParam(r, "week_start")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week_start"})
		return
	}
	userID, err := parseInt64Param(r, "user_id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}
	frequency := r.URL.Query().Get("frequency")
	if frequency != "" && !model.ValidFrequency(frequency) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "frequency must be 'daily', 'weekly', 'twice_weekly', or 'monthly'"})
		return
	}

	weekStart := currentWeek(h.loc)
	if weekParam != nil {
		weekStart = week.Start(*weekParam)
	}

	resp, err := buildWeeklyView(h.chores, h.completions, weekStart, userID, frequency)
	if err != nil {
		h.logger.Error("build weekly view", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to build weekly view"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// buildWeeklyView assembles the week board shared by the JSON endpoint and the
// rendered page.
func buildWeeklyView(cs *store.ChoreStore, comps *store.CompletionStore, weekStart time.Time, userID *int64, frequency string) (*weeklyResponse, error) {
	chores, err := cs.ListActive(userID, frequency)
	if err != nil {
		return nil, err
	}

	// Canonical weekly ordering: frequency rank, then name.
	sort.SliceStable(chores, func(i, j int) bool {
		ri, rj := model.FrequencyRank(chores[i].Frequency), model.FrequencyRank(chores[j].Frequency)
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(chores[i].Name) < strings.ToLower(chores[j].Name)
	})

	completions, err := comps.ListWeekWithUser(weekStart)
	if err != nil {
		return nil, err
	}

	byChore := make(map[int64][]store.WeekCompletion)
	for _, c := range completions {
		byChore[c.ChoreID] = append(byChore[c.ChoreID], c)
	}

	// Adhoc chores are inactive, so they only show up through their
	// completions.
	known := make(map[int64]bool, len(chores))
	for _, c := range chores {
		known[c.ID] = true
	}
	var adhocIDs []int64
	for id := range byChore {
		if !known[id] {
			adhocIDs = append(adhocIDs, id)
		}
	}
	adhoc, err := cs.ListAdhocByIDs(adhocIDs)
	if err != nil {
		return nil, err
	}
	chores = append(chores, adhoc...)

	// Once adhoc entries are merged in, the whole board reads alphabetically.
	sort.SliceStable(chores, func(i, j int) bool {
		return strings.ToLower(chores[i].Name) < strings.ToLower(chores[j].Name)
	})

	resp := &weeklyResponse{
		WeekStart: weekStart.Format("2006-01-02"),
		Chores:    make([]weeklyChore, 0, len(chores)),
	}
	for _, c := range chores {
		wc := weeklyChore{
			ID:             c.ID,
			Name:           c.Name,
			Description:    c.Description,
			Frequency:      c.Frequency,
			DayOfWeek:      c.DayOfWeek,
			DayOfWeek2:     c.DayOfWeek2,
			AssignedUserID: c.AssignedUserID,
			IsAdhoc:        c.IsAdhoc,
			Completions:    []weeklyCompletion{},
		}
		for _, comp := range byChore[c.ID] {
			wc.Completions = append(wc.Completions, weeklyCompletion{
				CompletionID:    comp.ID,
				CompletedAt:     comp.CompletedAt,
				CompletedBy:     comp.UserID,
				CompletedByName: comp.UserName,
				Notes:           comp.Notes,
			})
		}
		resp.CompletedChores += len(wc.Completions)
		resp.Chores = append(resp.Chores, wc)
	}
	resp.TotalChores = len(resp.Chores)

	return resp, nil
}

func (h *ChoreHandler) AdhocNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.chores.AdhocNames()
	if err != nil {
		h.logger.Error("list adhoc names", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list adhoc names"})
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

type adhocRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	UserID         int64   `json:"user_id"`
	CompletionDate string  `json:"completion_date"`
	WeekStart      string  `json:"week_start"`
	Notes          *string `json:"notes"`
}

// CreateAdhoc records a one-off chore and its completion in one step.
func (h *ChoreHandler) CreateAdhoc(w http.ResponseWriter, r *http.Request) {
	var req adhocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
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

	completionDate, err := time.Parse("2006-01-02", req.CompletionDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid completion_date"})
		return
	}
	if completionDate.After(today(h.loc)) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot complete a chore in the future"})
		return
	}

	weekStart := week.Start(completionDate)
	if req.WeekStart != "" {
		ws, err := time.Parse("2006-01-02", req.WeekStart)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week_start"})
			return
		}
		weekStart = week.Start(ws)
	}

	completion, err := h.completions.CreateAdhoc(store.AdhocParams{
		Name:        req.Name,
		Description: req.Description,
		UserID:      req.UserID,
		CompletedAt: noonIn(completionDate, h.loc),
		CompletedOn: completionDate.Format("2006-01-02"),
		WeekStart:   weekStart,
		Notes:       req.Notes,
	})
	if errors.Is(err, store.ErrDuplicateCompletion) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("adhoc chore %q was already completed on %s", req.Name, req.CompletionDate),
		})
		return
	}
	if err != nil {
		h.logger.Error("create adhoc completion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create adhoc completion"})
		return
	}

	writeJSON(w, http.StatusCreated, completion)
}

// currentWeek returns the Monday of the current week as a UTC date, matching
// how week_start values are stored.
func currentWeek(loc *time.Location) time.Time {
	return week.Start(today(loc))
}

// today returns the current calendar day in loc as a UTC midnight value.
func today(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// noonIn anchors a calendar day at mid-day in loc, away from day boundaries.
func noonIn(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
}
