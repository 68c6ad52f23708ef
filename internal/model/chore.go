package model

import "time"

// Recognized chore frequencies. TwiceWeekly chores may be completed twice per
// week (once per calendar day); everything else is once per week.
const (
	FrequencyDaily       = "daily"
	FrequencyWeekly      = "weekly"
	FrequencyTwiceWeekly = "twice_weekly"
	FrequencyMonthly     = "monthly"
)

// ValidFrequency reports whether f is one of the recognized frequency values.
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyTwiceWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// FrequencyRank orders frequencies for weekly display: daily first, then
// weekly, twice-weekly, monthly, with unrecognized values last.
func FrequencyRank(f string) int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return 2
	case FrequencyTwiceWeekly:
		return 3
	case FrequencyMonthly:
		return 4
	}
	return 5
}

type Chore struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Frequency      string    `json:"frequency"`
	DayOfWeek      *int      `json:"day_of_week"`
	DayOfWeek2     *int      `json:"day_of_week_2"`
	AssignedUserID *int64    `json:"assigned_user_id"`
	IsActive       bool      `json:"is_active"`
	IsAdhoc        bool      `json:"is_adhoc"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
