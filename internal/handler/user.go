package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dvoss/choreboard/internal/model"
	"github.com/dvoss/choreboard/internal/store"
)

type UserHandler struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewUserHandler(us *store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: us, logger: logger}
}

type userRequest struct {
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	IsAdmin  bool    `json:"is_admin"`
	IsActive *bool   `json:"is_active"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	if status, msg := h.checkUnique(req.Name, req.Email, 0); status != 0 {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	user, err := h.users.Create(req.Name, req.Email, req.IsAdmin, isActive)
	if errors.Is(err, store.ErrNameTaken) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a user with that name already exists"})
		return
	}
	if errors.Is(err, store.ErrEmailTaken) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a user with that email already exists"})
		return
	}
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	isActive, err := parseBoolParam(r, "is_active")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid is_active"})
		return
	}
	skip, limit := parsePagination(r)

	users, err := h.users.List(isActive, skip, limit)
	if err != nil {
		h.logger.Error("list users", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list users"})
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get user"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// userUpdateRequest keeps email as raw JSON so that an explicit null, which
// clears the address, is distinguishable from an absent field.
type userUpdateRequest struct {
	Name     *string         `json:"name"`
	Email    json.RawMessage `json:"email"`
	IsAdmin  *bool           `json:"is_admin"`
	IsActive *bool           `json:"is_active"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get user"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	var req userUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	// Unset fields keep their current values.
	name := existing.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
			return
		}
	}
	email := existing.Email
	if len(req.Email) > 0 {
		if string(req.Email) == "null" {
			email = nil
		} else {
			var e string
			if err := json.Unmarshal(req.Email, &e); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email"})
				return
			}
			email = &e
		}
	}
	isAdmin := existing.IsAdmin
	if req.IsAdmin != nil {
		isAdmin = *req.IsAdmin
	}
	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	if status, msg := h.checkUnique(name, email, id); status != 0 {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	user, err := h.users.Update(id, name, email, isAdmin, isActive)
	if errors.Is(err, store.ErrNameTaken) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a user with that name already exists"})
		return
	}
	if errors.Is(err, store.ErrEmailTaken) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a user with that email already exists"})
		return
	}
	if err != nil {
		h.logger.Error("update user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update user"})
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// checkUnique pre-checks the name/email unique rules; the unique indexes still
// backstop races that slip past it.
func (h *UserHandler) checkUnique(name string, email *string, excludeID int64) (status int, msg string) {
	taken, err := h.users.NameExists(name, excludeID)
	if err != nil {
		h.logger.Error("check user name", "error", err)
		return http.StatusInternalServerError, "failed to check user"
	}
	if taken {
		return http.StatusBadRequest, "a user with that name already exists"
	}
	if email != nil {
		taken, err := h.users.EmailExists(*email, excludeID)
		if err != nil {
			h.logger.Error("check user email", "error", err)
			return http.StatusInternalServerError, "failed to check user"
		}
		if taken {
			return http.StatusBadRequest, "a user with that email already exists"
		}
	}
	return 0, ""
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("get user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get user"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	if user.IsAdmin {
		admins, err := h.users.CountAdmins()
		if err != nil {
			h.logger.Error("count admins", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete user"})
			return
		}
		if admins <= 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot delete the last admin user"})
			return
		}
	}

	if err := h.users.Delete(id); err != nil {
		h.logger.Error("delete user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete user"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parseBoolParam returns nil when the query parameter is absent.
func parseBoolParam(r *http.Request, name string) (*bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseInt64Param returns nil when the query parameter is absent.
func parseInt64Param(r *http.Request, name string) (*int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseDateParam parses a YYYY-MM-DD query parameter; nil when absent.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parsePagination(r *http.Request) (skip, limit int) {
	limit = 100
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v > 0 {
		skip = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return skip, limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
