package model

import "time"

// UserCompletionCount is a leaderboard row: one user and how many completions
// they have recorded in the counted window.
type UserCompletionCount struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Count  int    `json:"completion_count"`
}

type RecentCompletion struct {
	ID          int64     `json:"id"`
	ChoreName   string    `json:"chore_name"`
	UserName    string    `json:"user_name"`
	CompletedAt time.Time `json:"completed_at"`
	WeekStart   time.Time `json:"week_start"`
}

type CompletionStats struct {
	TotalCompletions    int                   `json:"total_completions"`
	CompletionsThisWeek int                   `json:"completions_this_week"`
	TotalActiveChores   int                   `json:"total_active_chores"`
	CompletionRate      float64               `json:"completion_rate"`
	TopUsers            []UserCompletionCount `json:"top_users"`
	RecentCompletions   []RecentCompletion    `json:"recent_completions"`
}

type UserCounts struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Admins int `json:"admins"`
}

type FrequencyCounts struct {
	Daily       int `json:"daily"`
	Weekly      int `json:"weekly"`
	TwiceWeekly int `json:"twice_weekly"`
	Monthly     int `json:"monthly"`
}

type ChoreCounts struct {
	Total       int             `json:"total"`
	Active      int             `json:"active"`
	Unassigned  int             `json:"unassigned"`
	ByFrequency FrequencyCounts `json:"by_frequency"`
}

type CompletionCounts struct {
	Total          int     `json:"total"`
	ThisWeek       int     `json:"this_week"`
	LastWeek       int     `json:"last_week"`
	CompletionRate float64 `json:"completion_rate"`
}

type ActiveUser struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Count  int    `json:"completions"`
}

type PopularChore struct {
	ChoreID int64  `json:"chore_id"`
	Name    string `json:"name"`
	Count   int    `json:"completion_count"`
}

type IncompleteChore struct {
	ChoreID        int64  `json:"chore_id"`
	Name           string `json:"name"`
	AssignedUserID *int64 `json:"assigned_user_id"`
	Frequency      string `json:"frequency"`
}

type DashboardInsights struct {
	MostActiveUsers          []ActiveUser      `json:"most_active_users"`
	MostCompletedChores      []PopularChore    `json:"most_completed_chores"`
	IncompleteChoresThisWeek []IncompleteChore `json:"incomplete_chores_this_week"`
}

// DashboardStats is the admin dashboard payload: entity counts plus a few
// derived insight lists.
type DashboardStats struct {
	Users       UserCounts        `json:"users"`
	Chores      ChoreCounts       `json:"chores"`
	Completions CompletionCounts  `json:"completions"`
	Insights    DashboardInsights `json:"insights"`
}
