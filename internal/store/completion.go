package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dvoss/choreboard/internal/model"
)

type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	var notes sql.NullString

	err := scanner.Scan(&c.ID, &c.ChoreID, &c.UserID, &c.CompletedAt, &c.CompletedOn, &c.WeekStart, &notes)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		c.Notes = &notes.String
	}
	return &c, nil
}

const completionCols = `id, chore_id, user_id, completed_at, completed_on, week_start, notes`

// CompletionParams carries everything needed to record a completion. PerDay
// selects the duplicate rule: true allows one completion per calendar day
// (twice-weekly and adhoc chores), false one per week.
type CompletionParams struct {
	ChoreID     int64
	UserID      int64
	CompletedAt time.Time
	CompletedOn string
	WeekStart   time.Time
	Notes       *string
	PerDay      bool
}

// Create records a completion. The duplicate check and insert run in one
// transaction; the connection takes an immediate write lock, so concurrent
// creates for the same chore serialize instead of racing. The unique index on
// (chore_id, week_start, completed_on) backstops the per-day rule in any case.
func (s *CompletionStore) Create(p CompletionParams) (*model.Completion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	dup, err := completionExists(tx, p)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateCompletion
	}

	c, err := insertCompletion(tx, p)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit completion: %w", err)
	}
	return c, nil
}

// AdhocParams describes an adhoc completion: a one-off chore named at
// completion time.
type AdhocParams struct {
	Name        string
	Description string
	UserID      int64
	CompletedAt time.Time
	CompletedOn string
	WeekStart   time.Time
	Notes       *string
}

// CreateAdhoc finds or creates the adhoc chore with the given name and records
// a completion for it, all in one transaction so a failed completion never
// leaves a stray chore behind.
func (s *CompletionStore) CreateAdhoc(p AdhocParams) (*model.Completion, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var choreID int64
	err = tx.QueryRow(
		`SELECT id FROM chores WHERE name = ? AND is_adhoc = 1 LIMIT 1`, p.Name,
	).Scan(&choreID)
	switch {
	case err == sql.ErrNoRows:
		// Adhoc chores are inactive and unassigned; the frequency default is
		// never consulted for them.
		result, err := tx.Exec(
			`INSERT INTO chores (name, description, frequency, is_active, is_adhoc) VALUES (?, ?, 'weekly', 0, 1)`,
			p.Name, p.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("insert adhoc chore: %w", err)
		}
		choreID, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("find adhoc chore: %w", err)
	}

	cp := CompletionParams{
		ChoreID:     choreID,
		UserID:      p.UserID,
		CompletedAt: p.CompletedAt,
		CompletedOn: p.CompletedOn,
		WeekStart:   p.WeekStart,
		Notes:       p.Notes,
		PerDay:      true,
	}
	dup, err := completionExists(tx, cp)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateCompletion
	}

	c, err := insertCompletion(tx, cp)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit adhoc completion: %w", err)
	}
	return c, nil
}

func completionExists(tx *sql.Tx, p CompletionParams) (bool, error) {
	query := `SELECT COUNT(*) FROM completions WHERE chore_id = ? AND week_start = ?`
	args := []any{p.ChoreID, p.WeekStart}
	if p.PerDay {
		query += ` AND completed_on = ?`
		args = append(args, p.CompletedOn)
	}
	var n int
	if err := tx.QueryRow(query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check duplicate completion: %w", err)
	}
	return n > 0, nil
}

func insertCompletion(tx *sql.Tx, p CompletionParams) (*model.Completion, error) {
	result, err := tx.Exec(
		`INSERT INTO completions (chore_id, user_id, completed_at, completed_on, week_start, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ChoreID, p.UserID, p.CompletedAt.UTC(), p.CompletedOn, p.WeekStart, nullString(p.Notes),
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateCompletion
	}
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := tx.QueryRow(`SELECT `+completionCols+` FROM completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *CompletionStore) GetByID(id int64) (*model.Completion, error) {
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

// CompletionFilter narrows List results; nil fields mean "no filter".
type CompletionFilter struct {
	ChoreID   *int64
	UserID    *int64
	WeekStart *time.Time
	From      *time.Time
	To        *time.Time
	Skip      int
	Limit     int
}

// List returns completions newest-first.
func (s *CompletionStore) List(f CompletionFilter) ([]model.Completion, error) {
	query := `SELECT ` + completionCols + ` FROM completions WHERE 1=1`
	var args []any
	if f.ChoreID != nil {
		query += ` AND chore_id = ?`
		args = append(args, *f.ChoreID)
	}
	if f.UserID != nil {
		query += ` AND user_id = ?`
		args = append(args, *f.UserID)
	}
	if f.WeekStart != nil {
		query += ` AND week_start = ?`
		args = append(args, *f.WeekStart)
	}
	if f.From != nil {
		query += ` AND completed_at >= ?`
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		query += ` AND completed_at < ?`
		args = append(args, f.To.UTC())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY completed_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, f.Skip)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// WeekCompletion is a completion joined with the completing user's name, as
// the weekly view renders it.
type WeekCompletion struct {
	model.Completion
	UserName string
}

// ListWeekWithUser returns all completions attributed to the given week, each
// resolved with the completing user's name.
func (s *CompletionStore) ListWeekWithUser(weekStart time.Time) ([]WeekCompletion, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.chore_id, c.user_id, c.completed_at, c.completed_on, c.week_start, c.notes, u.name
		 FROM completions c JOIN users u ON u.id = c.user_id
		 WHERE c.week_start = ? ORDER BY c.completed_at`,
		weekStart,
	)
	if err != nil {
		return nil, fmt.Errorf("list week completions: %w", err)
	}
	defer rows.Close()

	var completions []WeekCompletion
	for rows.Next() {
		var wc WeekCompletion
		var notes sql.NullString
		if err := rows.Scan(&wc.ID, &wc.ChoreID, &wc.UserID, &wc.CompletedAt, &wc.CompletedOn, &wc.WeekStart, &notes, &wc.UserName); err != nil {
			return nil, fmt.Errorf("scan week completion: %w", err)
		}
		if notes.Valid {
			wc.Notes = &notes.String
		}
		completions = append(completions, wc)
	}
	return completions, rows.Err()
}

func (s *CompletionStore) Update(id, userID int64, completedAt time.Time, completedOn string, weekStart time.Time, notes *string) (*model.Completion, error) {
	_, err := s.db.Exec(
		`UPDATE completions SET user_id = ?, completed_at = ?, completed_on = ?, week_start = ?, notes = ? WHERE id = ?`,
		userID, completedAt.UTC(), completedOn, weekStart, nullString(notes), id,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateCompletion
	}
	if err != nil {
		return nil, fmt.Errorf("update completion: %w", err)
	}
	return s.GetByID(id)
}

func (s *CompletionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM completions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete completion: %w", err)
	}
	return nil
}
