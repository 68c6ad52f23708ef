package store

import (
	"testing"
	"time"

	"github.com/dvoss/choreboard/internal/database"
	"github.com/dvoss/choreboard/internal/model"
	"github.com/dvoss/choreboard/internal/week"
)

func setupStatsTestDB(t *testing.T) (*UserStore, *ChoreStore, *CompletionStore, *StatsStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db), NewChoreStore(db), NewCompletionStore(db), NewStatsStore(db)
}

func TestCompletionStatsRate(t *testing.T) {
	us, cs, comps, stats := setupStatsTestDB(t)

	u, _ := us.Create("Alice", nil, false, true)
	var chores []*model.Chore
	for _, name := range []string{"Dishes", "Trash", "Vacuum", "Laundry"} {
		c, err := cs.Create(ChoreParams{Name: name, Frequency: model.FrequencyWeekly, IsActive: true})
		if err != nil {
			t.Fatalf("create chore %q: %v", name, err)
		}
		chores = append(chores, c)
	}

	wed := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	currentWeek := week.Start(wed)
	if _, err := comps.Create(params(chores[0].ID, u.ID, wed)); err != nil {
		t.Fatalf("create completion: %v", err)
	}
	// A completion in an earlier week counts toward the total but not the rate.
	lastWed := wed.AddDate(0, 0, -7)
	if _, err := comps.Create(params(chores[1].ID, u.ID, lastWed)); err != nil {
		t.Fatalf("create last-week completion: %v", err)
	}

	got, err := stats.CompletionStats(nil, currentWeek)
	if err != nil {
		t.Fatalf("completion stats: %v", err)
	}
	if got.TotalCompletions != 2 {
		t.Errorf("total = %d, want 2", got.TotalCompletions)
	}
	if got.CompletionsThisWeek != 1 {
		t.Errorf("this week = %d, want 1", got.CompletionsThisWeek)
	}
	if got.TotalActiveChores != 4 {
		t.Errorf("active chores = %d, want 4", got.TotalActiveChores)
	}
	// 1 of 4 active chores completed this week.
	if got.CompletionRate != 25.0 {
		t.Errorf("completion rate = %v, want 25.0", got.CompletionRate)
	}
	if len(got.TopUsers) != 1 || got.TopUsers[0].Count != 2 {
		t.Errorf("top users = %+v, want Alice with 2", got.TopUsers)
	}
	if len(got.RecentCompletions) != 2 {
		t.Errorf("recent completions = %d, want 2", len(got.RecentCompletions))
	}
}

func TestCompletionStatsUserScoped(t *testing.T) {
	us, cs, comps, stats := setupStatsTestDB(t)

	alice, _ := us.Create("Alice", nil, false, true)
	bob, _ := us.Create("Bob", nil, false, true)
	dishes, _ := cs.Create(ChoreParams{Name: "Dishes", Frequency: model.FrequencyDaily, IsActive: true})
	trash, _ := cs.Create(ChoreParams{Name: "Trash", Frequency: model.FrequencyWeekly, IsActive: true})

	wed := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	p := params(dishes.ID, alice.ID, wed)
	p.PerDay = true
	comps.Create(p)
	comps.Create(params(trash.ID, bob.ID, wed))

	got, err := stats.CompletionStats(&bob.ID, week.Start(wed))
	if err != nil {
		t.Fatalf("completion stats: %v", err)
	}
	if got.TotalCompletions != 1 {
		t.Errorf("bob's total = %d, want 1", got.TotalCompletions)
	}
	if len(got.RecentCompletions) != 1 || got.RecentCompletions[0].UserName != "Bob" {
		t.Errorf("recent = %+v, want only Bob's", got.RecentCompletions)
	}
	// The leaderboard stays household-wide even when scoped to a user.
	if len(got.TopUsers) != 2 {
		t.Errorf("top users = %d entries, want 2", len(got.TopUsers))
	}
}

func TestCompletionStatsEmpty(t *testing.T) {
	_, _, _, stats := setupStatsTestDB(t)

	currentWeek := week.Start(time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC))
	got, err := stats.CompletionStats(nil, currentWeek)
	if err != nil {
		t.Fatalf("completion stats: %v", err)
	}
	// No active chores means no meaningful rate; it reports zero, not NaN.
	if got.CompletionRate != 0 {
		t.Errorf("completion rate = %v, want 0", got.CompletionRate)
	}
}

func TestDashboard(t *testing.T) {
	us, cs, comps, stats := setupStatsTestDB(t)

	alice, _ := us.Create("Alice", nil, true, true)
	bob, _ := us.Create("Bob", nil, false, false)

	dishes, _ := cs.Create(ChoreParams{Name: "Dishes", Frequency: model.FrequencyDaily, AssignedUserID: &alice.ID, IsActive: true})
	trash, _ := cs.Create(ChoreParams{Name: "Trash", Frequency: model.FrequencyWeekly, IsActive: true})
	cs.Create(ChoreParams{Name: "Attic", Frequency: model.FrequencyMonthly, IsActive: false})

	wed := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	lastWed := wed.AddDate(0, 0, -7)
	currentWeek := week.Start(wed)

	p := params(dishes.ID, alice.ID, wed)
	p.PerDay = true
	comps.Create(p)
	comps.Create(params(trash.ID, bob.ID, lastWed))

	d, err := stats.Dashboard(currentWeek)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if d.Users.Total != 2 || d.Users.Active != 1 || d.Users.Admins != 1 {
		t.Errorf("users = %+v, want total 2 active 1 admins 1", d.Users)
	}
	if d.Chores.Total != 3 || d.Chores.Active != 2 {
		t.Errorf("chores = %+v, want total 3 active 2", d.Chores)
	}
	if d.Chores.Unassigned != 1 {
		t.Errorf("unassigned = %d, want 1", d.Chores.Unassigned)
	}
	if d.Chores.ByFrequency.Daily != 1 || d.Chores.ByFrequency.Weekly != 1 || d.Chores.ByFrequency.Monthly != 0 {
		t.Errorf("by_frequency = %+v", d.Chores.ByFrequency)
	}
	if d.Completions.Total != 2 || d.Completions.ThisWeek != 1 || d.Completions.LastWeek != 1 {
		t.Errorf("completions = %+v, want total 2 this 1 last 1", d.Completions)
	}
	// 1 of 2 active chores completed this week.
	if d.Completions.CompletionRate != 50.0 {
		t.Errorf("completion rate = %v, want 50.0", d.Completions.CompletionRate)
	}

	if len(d.Insights.MostActiveUsers) != 1 || d.Insights.MostActiveUsers[0].Name != "Alice" {
		t.Errorf("most active users = %+v, want just Alice", d.Insights.MostActiveUsers)
	}
	if len(d.Insights.MostCompletedChores) != 2 {
		t.Errorf("most completed chores = %d entries, want 2", len(d.Insights.MostCompletedChores))
	}
	if len(d.Insights.IncompleteChoresThisWeek) != 1 || d.Insights.IncompleteChoresThisWeek[0].Name != "Trash" {
		t.Errorf("incomplete chores = %+v, want just Trash", d.Insights.IncompleteChoresThisWeek)
	}
}

func TestEntityCounts(t *testing.T) {
	us, cs, comps, stats := setupStatsTestDB(t)

	u, _ := us.Create("Alice", nil, false, true)
	c, _ := cs.Create(ChoreParams{Name: "Dishes", Frequency: model.FrequencyWeekly, IsActive: true})
	wed := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	comps.Create(params(c.ID, u.ID, wed))

	users, chores, completions, err := stats.EntityCounts()
	if err != nil {
		t.Fatalf("entity counts: %v", err)
	}
	if users != 1 || chores != 1 || completions != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1", users, chores, completions)
	}
}
