package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/dvoss/choreboard/internal/model"
	"github.com/dvoss/choreboard/internal/store"
)

func TestCompletionCreateHandler(t *testing.T) {
	f := newFixture(t)

	alice, err := f.users.Create("Alice", nil, false, true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	dishes, err := f.chores.Create(store.ChoreParams{Name: "Dishes", Frequency: "weekly", IsActive: true})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	body := map[string]any{
		"chore_id":        dishes.ID,
		"user_id":         alice.ID,
		"completion_date": "2020-06-02",
		"week_start":      "2020-06-01",
	}
	w := doJSON(t, f.completionH.Create, http.MethodPost, "/api/completions", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var created model.Completion
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode completion: %v", err)
	}
	if created.ChoreID != dishes.ID || created.UserID != alice.ID {
		t.Errorf("completion = %+v", created)
	}
	if created.CompletedOn != "2020-06-02" {
		t.Errorf("completed_on = %s, want 2020-06-02", created.CompletedOn)
	}

	// Weekly chores allow one completion per week.
	w = doJSON(t, f.completionH.Create, http.MethodPost, "/api/completions", body, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status = %d, want 400", w.Code)
	}
	if got, want := errBody(t, w), `chore "Dishes" was already completed for the week of 2020-06-01`; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

func TestCompletionCreateTwiceWeekly(t *testing.T) {
	f := newFixture(t)

	alice, err := f.users.Create("Alice", nil, false, true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	trash, err := f.chores.Create(store.ChoreParams{Name: "Trash", Frequency: "twice_weekly", IsActive: true})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	for i, date := range []string{"2020-06-02", "2020-06-04"} {
		w := doJSON(t, f.completionH.Create, http.MethodPost, "/api/completions", map[string]any{
			"chore_id":        trash.ID,
			"user_id":         alice.ID,
			"completion_date": date,
			"week_start":      "2020-06-01",
		}, "")
		if w.Code != http.StatusCreated {
			t.Fatalf("completion %d status = %d, want 201: %s", i, w.Code, w.Body.String())
		}
	}

	// Same day again is a duplicate even though the week allows more.
	w := doJSON(t, f.completionH.Create, http.MethodPost, "/api/completions", map[string]any{
		"chore_id":        trash.ID,
		"user_id":         alice.ID,
		"completion_date": "2020-06-04",
		"week_start":      "2020-06-01",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("same-day status = %d, want 400", w.Code)
	}
}

func TestCompletionCreateErrors(t *testing.T) {
	f := newFixture(t)

	alice, err := f.users.Create("Alice", nil, false, true)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	dishes, err := f.chores.Create(store.ChoreParams{Name: "Dishes", Frequency: "weekly", IsActive: true})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	w := doJSON(t, f.completionH.Create, http.MethodPost, "/api/completions", map[string]any{
		"chore_id": int64(999), "user_id": alice.ID,
	}, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown chore status = %d, want 404", w.Code)
	}

	w = doJSON(t, f.completionH.Create, http.MethodPost, "/api/completions", map[string]any{
		"chore_id": dishes.ID, "user_id": int64(999),
	}, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", w.Code)
	}

	future := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	w = doJSON(t, f.completionH.Create, http.MethodPost, "/api/completions", map[string]any{
		"chore_id": dishes.ID, "user_id": alice.ID, "completion_date": future,
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("future date status = %d, want 400", w.Code)
	}
}

func TestCompletionUpdateHandler(t *testing.T) {
	f := newFixture(t)

	alice, err := f.users.Create("Alice", nil, false, true)
	if err != nil {
		t.Fatalf("create alice: %v", err)
	}
	bob, err := f.users.Create("Bob", nil, false, true)
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}
	dishes, err := f.chores.Create(store.ChoreParams{Name: "Dishes", Frequency: "weekly", IsActive: true})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	weekStart := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	created, err := f.completions.Create(store.CompletionParams{
		ChoreID:     dishes.ID,
		UserID:      alice.ID,
		CompletedAt: weekStart.Add(36 * time.Hour),
		CompletedOn: "2020-06-02",
		WeekStart:   weekStart,
	})
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}
	id := strconv.FormatInt(created.ID, 10)

	// Reassign to Bob and move the date; untouched fields keep their values.
	w := doJSON(t, f.completionH.Update, http.MethodPut, "/api/completions/"+id, map[string]any{
		"user_id":         bob.ID,
		"completion_date": "2020-06-03",
	}, id)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var updated model.Completion
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("decode completion: %v", err)
	}
	if updated.UserID != bob.ID {
		t.Errorf("user_id = %d, want %d", updated.UserID, bob.ID)
	}
	if updated.CompletedOn != "2020-06-03" {
		t.Errorf("completed_on = %s, want 2020-06-03", updated.CompletedOn)
	}
	if !updated.WeekStart.Equal(weekStart) {
		t.Errorf("week_start changed: %v", updated.WeekStart)
	}

	w = doJSON(t, f.completionH.Update, http.MethodPut, "/api/completions/999", map[string]any{
		"user_id": bob.ID,
	}, "999")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing completion status = %d, want 404", w.Code)
	}
}

func TestUserDeleteLastAdmin(t *testing.T) {
	f := newFixture(t)

	admin, err := f.users.Create("Alice", nil, true, true)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	id := strconv.FormatInt(admin.ID, 10)

	w := doJSON(t, f.userH.Delete, http.MethodDelete, "/api/users/"+id, nil, id)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := errBody(t, w); got != "cannot delete the last admin user" {
		t.Errorf("error = %q", got)
	}

	// A second admin makes the first deletable.
	if _, err := f.users.Create("Bob", nil, true, true); err != nil {
		t.Fatalf("create second admin: %v", err)
	}
	w = doJSON(t, f.userH.Delete, http.MethodDelete, "/api/users/"+id, nil, id)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", w.Code, w.Body.String())
	}
}
