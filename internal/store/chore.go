package store

import (
	"database/sql"
	"fmt"

	"github.com/dvoss/choreboard/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var dayOfWeek, dayOfWeek2 sql.NullInt64
	var assignedUserID sql.NullInt64

	err := scanner.Scan(
		&c.ID, &c.Name, &c.Description, &c.Frequency, &dayOfWeek, &dayOfWeek2,
		&assignedUserID, &c.IsActive, &c.IsAdhoc, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dayOfWeek.Valid {
		d := int(dayOfWeek.Int64)
		c.DayOfWeek = &d
	}
	if dayOfWeek2.Valid {
		d := int(dayOfWeek2.Int64)
		c.DayOfWeek2 = &d
	}
	if assignedUserID.Valid {
		c.AssignedUserID = &assignedUserID.Int64
	}
	return &c, nil
}

const choreCols = `id, name, description, frequency, day_of_week, day_of_week_2, assigned_user_id, is_active, is_adhoc, created_at, updated_at`

// ChoreParams carries the writable chore fields for Create and Update.
type ChoreParams struct {
	Name           string
	Description    string
	Frequency      string
	DayOfWeek      *int
	DayOfWeek2     *int
	AssignedUserID *int64
	IsActive       bool
	IsAdhoc        bool
}

func (s *ChoreStore) Create(p ChoreParams) (*model.Chore, error) {
	result, err := s.db.Exec(
		`INSERT INTO chores (name, description, frequency, day_of_week, day_of_week_2, assigned_user_id, is_active, is_adhoc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Frequency, nullInt(p.DayOfWeek), nullInt(p.DayOfWeek2),
		nullInt64(p.AssignedUserID), p.IsActive, p.IsAdhoc,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// ChoreFilter narrows List results. Zero values mean "no filter".
type ChoreFilter struct {
	IsActive       *bool
	AssignedUserID *int64
	Frequency      string
	Skip           int
	Limit          int
}

func (s *ChoreStore) List(f ChoreFilter) ([]model.Chore, error) {
	query := `SELECT ` + choreCols + ` FROM chores WHERE 1=1`
	var args []any
	if f.IsActive != nil {
		query += ` AND is_active = ?`
		args = append(args, *f.IsActive)
	}
	if f.AssignedUserID != nil {
		query += ` AND assigned_user_id = ?`
		args = append(args, *f.AssignedUserID)
	}
	if f.Frequency != "" {
		query += ` AND frequency = ?`
		args = append(args, f.Frequency)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, f.Skip)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// ListActive returns active non-adhoc chores for the weekly view, optionally
// filtered by assignee and frequency.
func (s *ChoreStore) ListActive(assignedUserID *int64, frequency string) ([]model.Chore, error) {
	query := `SELECT ` + choreCols + ` FROM chores WHERE is_active = 1`
	var args []any
	if assignedUserID != nil {
		query += ` AND assigned_user_id = ?`
		args = append(args, *assignedUserID)
	}
	if frequency != "" {
		query += ` AND frequency = ?`
		args = append(args, frequency)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// ListAdhocByIDs fetches the adhoc chores among ids; used to surface adhoc
// chores that only exist through this week's completions.
func (s *ChoreStore) ListAdhocByIDs(ids []int64) ([]model.Chore, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + choreCols + ` FROM chores WHERE is_adhoc = 1 AND id IN (?`
	args := []any{ids[0]}
	for _, id := range ids[1:] {
		query += `, ?`
		args = append(args, id)
	}
	query += `)`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list adhoc chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// AdhocNames returns the distinct names of adhoc chores, alphabetically, for
// autocomplete.
func (s *ChoreStore) AdhocNames() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT name FROM chores WHERE is_adhoc = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list adhoc names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan adhoc name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *ChoreStore) Update(id int64, p ChoreParams) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores SET name = ?, description = ?, frequency = ?, day_of_week = ?, day_of_week_2 = ?,
		 assigned_user_id = ?, is_active = ?, is_adhoc = ?, updated_at = datetime('now') WHERE id = ?`,
		p.Name, p.Description, p.Frequency, nullInt(p.DayOfWeek), nullInt(p.DayOfWeek2),
		nullInt64(p.AssignedUserID), p.IsActive, p.IsAdhoc, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes the chore and, through the cascade foreign key, its
// completions.
func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}
