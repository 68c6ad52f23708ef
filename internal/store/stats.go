package store

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/dvoss/choreboard/internal/model"
)

// StatsStore runs the aggregate queries behind the completion stats endpoint
// and the admin dashboard. It owns no state of its own.
type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// CompletionStats computes completion totals, this-week counts, the completion
// rate, the all-time top five users, and the ten most recent completions.
// A non-nil userID scopes the completion counts and active-chore count to that
// user; the top-users leaderboard stays global.
func (s *StatsStore) CompletionStats(userID *int64, currentWeek time.Time) (*model.CompletionStats, error) {
	stats := &model.CompletionStats{}

	userCond := ""
	var userArgs []any
	if userID != nil {
		userCond = ` AND user_id = ?`
		userArgs = append(userArgs, *userID)
	}

	err := s.db.QueryRow(`SELECT COUNT(*) FROM completions WHERE 1=1`+userCond, userArgs...).
		Scan(&stats.TotalCompletions)
	if err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}

	args := append([]any{currentWeek}, userArgs...)
	err = s.db.QueryRow(`SELECT COUNT(*) FROM completions WHERE week_start = ?`+userCond, args...).
		Scan(&stats.CompletionsThisWeek)
	if err != nil {
		return nil, fmt.Errorf("count week completions: %w", err)
	}

	choreQuery := `SELECT COUNT(*) FROM chores WHERE is_active = 1`
	var choreArgs []any
	if userID != nil {
		choreQuery += ` AND assigned_user_id = ?`
		choreArgs = append(choreArgs, *userID)
	}
	if err := s.db.QueryRow(choreQuery, choreArgs...).Scan(&stats.TotalActiveChores); err != nil {
		return nil, fmt.Errorf("count active chores: %w", err)
	}

	if stats.TotalActiveChores > 0 {
		stats.CompletionRate = round2(float64(stats.CompletionsThisWeek) / float64(stats.TotalActiveChores) * 100)
	}

	topUsers, err := s.topUsers()
	if err != nil {
		return nil, err
	}
	stats.TopUsers = topUsers

	recent, err := s.recentCompletions(userCond, userArgs)
	if err != nil {
		return nil, err
	}
	stats.RecentCompletions = recent

	return stats, nil
}

func (s *StatsStore) topUsers() ([]model.UserCompletionCount, error) {
	rows, err := s.db.Query(
		`SELECT c.user_id, u.name, COUNT(c.id) AS n
		 FROM completions c JOIN users u ON u.id = c.user_id
		 GROUP BY c.user_id, u.name ORDER BY n DESC LIMIT 5`,
	)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	users := []model.UserCompletionCount{}
	for rows.Next() {
		var u model.UserCompletionCount
		if err := rows.Scan(&u.UserID, &u.Name, &u.Count); err != nil {
			return nil, fmt.Errorf("scan top user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *StatsStore) recentCompletions(userCond string, userArgs []any) ([]model.RecentCompletion, error) {
	rows, err := s.db.Query(
		`SELECT c.id, ch.name, u.name, c.completed_at, c.week_start
		 FROM completions c
		 JOIN chores ch ON ch.id = c.chore_id
		 JOIN users u ON u.id = c.user_id
		 WHERE 1=1`+userCond+` ORDER BY c.completed_at DESC LIMIT 10`,
		userArgs...,
	)
	if err != nil {
		return nil, fmt.Errorf("recent completions: %w", err)
	}
	defer rows.Close()

	recent := []model.RecentCompletion{}
	for rows.Next() {
		var r model.RecentCompletion
		if err := rows.Scan(&r.ID, &r.ChoreName, &r.UserName, &r.CompletedAt, &r.WeekStart); err != nil {
			return nil, fmt.Errorf("scan recent completion: %w", err)
		}
		recent = append(recent, r)
	}
	return recent, rows.Err()
}

// Dashboard assembles the admin overview for the week starting at currentWeek.
func (s *StatsStore) Dashboard(currentWeek time.Time) (*model.DashboardStats, error) {
	d := &model.DashboardStats{}

	counts := []struct {
		query string
		args  []any
		dst   *int
	}{
		{`SELECT COUNT(*) FROM users`, nil, &d.Users.Total},
		{`SELECT COUNT(*) FROM users WHERE is_active = 1`, nil, &d.Users.Active},
		{`SELECT COUNT(*) FROM users WHERE is_admin = 1`, nil, &d.Users.Admins},
		{`SELECT COUNT(*) FROM chores`, nil, &d.Chores.Total},
		{`SELECT COUNT(*) FROM chores WHERE is_active = 1`, nil, &d.Chores.Active},
		{`SELECT COUNT(*) FROM chores WHERE is_active = 1 AND assigned_user_id IS NULL`, nil, &d.Chores.Unassigned},
		{`SELECT COUNT(*) FROM chores WHERE is_active = 1 AND frequency = 'daily'`, nil, &d.Chores.ByFrequency.Daily},
		{`SELECT COUNT(*) FROM chores WHERE is_active = 1 AND frequency = 'weekly'`, nil, &d.Chores.ByFrequency.Weekly},
		{`SELECT COUNT(*) FROM chores WHERE is_active = 1 AND frequency = 'twice_weekly'`, nil, &d.Chores.ByFrequency.TwiceWeekly},
		{`SELECT COUNT(*) FROM chores WHERE is_active = 1 AND frequency = 'monthly'`, nil, &d.Chores.ByFrequency.Monthly},
		{`SELECT COUNT(*) FROM completions`, nil, &d.Completions.Total},
		{`SELECT COUNT(*) FROM completions WHERE week_start = ?`, []any{currentWeek}, &d.Completions.ThisWeek},
		{`SELECT COUNT(*) FROM completions WHERE week_start = ?`, []any{currentWeek.AddDate(0, 0, -7)}, &d.Completions.LastWeek},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("dashboard count: %w", err)
		}
	}

	if d.Chores.Active > 0 {
		d.Completions.CompletionRate = round2(float64(d.Completions.ThisWeek) / float64(d.Chores.Active) * 100)
	}

	mostActive, err := s.mostActiveUsers(currentWeek)
	if err != nil {
		return nil, err
	}
	d.Insights.MostActiveUsers = mostActive

	popular, err := s.mostCompletedChores()
	if err != nil {
		return nil, err
	}
	d.Insights.MostCompletedChores = popular

	incomplete, err := s.incompleteChores(currentWeek)
	if err != nil {
		return nil, err
	}
	d.Insights.IncompleteChoresThisWeek = incomplete

	return d, nil
}

func (s *StatsStore) mostActiveUsers(currentWeek time.Time) ([]model.ActiveUser, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.name, COUNT(c.id) AS n
		 FROM users u JOIN completions c ON c.user_id = u.id
		 WHERE c.week_start = ?
		 GROUP BY u.id, u.name ORDER BY n DESC LIMIT 5`,
		currentWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("most active users: %w", err)
	}
	defer rows.Close()

	users := []model.ActiveUser{}
	for rows.Next() {
		var u model.ActiveUser
		if err := rows.Scan(&u.UserID, &u.Name, &u.Count); err != nil {
			return nil, fmt.Errorf("scan active user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *StatsStore) mostCompletedChores() ([]model.PopularChore, error) {
	rows, err := s.db.Query(
		`SELECT ch.id, ch.name, COUNT(c.id) AS n
		 FROM chores ch JOIN completions c ON c.chore_id = ch.id
		 GROUP BY ch.id, ch.name ORDER BY n DESC LIMIT 5`,
	)
	if err != nil {
		return nil, fmt.Errorf("most completed chores: %w", err)
	}
	defer rows.Close()

	chores := []model.PopularChore{}
	for rows.Next() {
		var c model.PopularChore
		if err := rows.Scan(&c.ChoreID, &c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scan popular chore: %w", err)
		}
		chores = append(chores, c)
	}
	return chores, rows.Err()
}

// incompleteChores returns up to five active chores with no completion
// attributed to the given week.
func (s *StatsStore) incompleteChores(currentWeek time.Time) ([]model.IncompleteChore, error) {
	rows, err := s.db.Query(
		`SELECT id, name, assigned_user_id, frequency FROM chores
		 WHERE is_active = 1 AND id NOT IN (SELECT chore_id FROM completions WHERE week_start = ?)
		 LIMIT 5`,
		currentWeek,
	)
	if err != nil {
		return nil, fmt.Errorf("incomplete chores: %w", err)
	}
	defer rows.Close()

	chores := []model.IncompleteChore{}
	for rows.Next() {
		var c model.IncompleteChore
		var assigned sql.NullInt64
		if err := rows.Scan(&c.ChoreID, &c.Name, &assigned, &c.Frequency); err != nil {
			return nil, fmt.Errorf("scan incomplete chore: %w", err)
		}
		if assigned.Valid {
			c.AssignedUserID = &assigned.Int64
		}
		chores = append(chores, c)
	}
	return chores, rows.Err()
}

// EntityCounts returns the row counts reported by the admin health check.
func (s *StatsStore) EntityCounts() (users, chores, completions int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		return 0, 0, 0, fmt.Errorf("count users: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM chores`).Scan(&chores); err != nil {
		return 0, 0, 0, fmt.Errorf("count chores: %w", err)
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM completions`).Scan(&completions); err != nil {
		return 0, 0, 0, fmt.Errorf("count completions: %w", err)
	}
	return users, chores, completions, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
