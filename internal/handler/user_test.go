package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/dvoss/choreboard/internal/model"
)

func TestUserCreateDuplicate(t *testing.T) {
	f := newFixture(t)

	email := "alice@example.com"
	if _, err := f.users.Create("Alice", &email, false, true); err != nil {
		t.Fatalf("create user: %v", err)
	}

	w := doJSON(t, f.userH.Create, http.MethodPost, "/api/users", map[string]any{
		"name": "Alice",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate name status = %d, want 400", w.Code)
	}
	if got := errBody(t, w); got != "a user with that name already exists" {
		t.Errorf("error = %q", got)
	}

	w = doJSON(t, f.userH.Create, http.MethodPost, "/api/users", map[string]any{
		"name": "Alicia", "email": email,
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email status = %d, want 400", w.Code)
	}
	if got := errBody(t, w); got != "a user with that email already exists" {
		t.Errorf("error = %q", got)
	}
}

func TestUserUpdateDuplicateName(t *testing.T) {
	f := newFixture(t)

	if _, err := f.users.Create("Alice", nil, false, true); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := f.users.Create("Bob", nil, false, true)
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	id := strconv.FormatInt(bob.ID, 10)

	w := doJSON(t, f.userH.Update, http.MethodPut, "/api/users/"+id, map[string]any{
		"name": "Alice",
	}, id)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	// A user's own current values never collide with themselves.
	w = doJSON(t, f.userH.Update, http.MethodPut, "/api/users/"+id, map[string]any{
		"name": "Bob", "is_active": false,
	}, id)
	if w.Code != http.StatusOK {
		t.Fatalf("self-update status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestUserUpdateClearEmail(t *testing.T) {
	f := newFixture(t)

	email := "alice@example.com"
	alice, err := f.users.Create("Alice", &email, false, true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	id := strconv.FormatInt(alice.ID, 10)

	// Omitting email keeps it.
	w := doJSON(t, f.userH.Update, http.MethodPut, "/api/users/"+id, map[string]any{
		"is_admin": true,
	}, id)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var updated model.User
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if updated.Email == nil || *updated.Email != email {
		t.Errorf("email = %v, want %q kept", updated.Email, email)
	}

	// An explicit null clears it.
	w = doJSON(t, f.userH.Update, http.MethodPut, "/api/users/"+id, map[string]any{
		"email": nil,
	}, id)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if updated.Email != nil {
		t.Errorf("email = %q, want cleared", *updated.Email)
	}
}
