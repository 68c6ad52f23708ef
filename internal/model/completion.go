package model

import "time"

type Completion struct {
	ID          int64     `json:"id"`
	ChoreID     int64     `json:"chore_id"`
	UserID      int64     `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
	// CompletedOn is the calendar day of CompletedAt in the configured time
	// zone, stored separately so the per-day duplicate rule can be backed by a
	// unique index.
	CompletedOn string    `json:"completed_on"`
	WeekStart   time.Time `json:"week_start"`
	Notes       *string   `json:"notes"`
}
