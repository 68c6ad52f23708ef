package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dvoss/choreboard/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var email sql.NullString
	err := scanner.Scan(&u.ID, &u.Name, &email, &u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if email.Valid {
		u.Email = &email.String
	}
	return &u, nil
}

const userCols = `id, name, email, is_admin, is_active, created_at, updated_at`

func (s *UserStore) Create(name string, email *string, isAdmin, isActive bool) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (name, email, is_admin, is_active) VALUES (?, ?, ?, ?)`,
		name, nullString(email), isAdmin, isActive,
	)
	if isUniqueViolation(err) {
		return nil, uniqueUserError(err)
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// List returns users, optionally filtered by active flag, with skip/limit
// pagination.
func (s *UserStore) List(isActive *bool, skip, limit int) ([]model.User, error) {
	query := `SELECT ` + userCols + ` FROM users`
	var args []any
	if isActive != nil {
		query += ` WHERE is_active = ?`
		args = append(args, *isActive)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, limit, skip)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// NameExists reports whether a user other than excludeID already uses name.
// Matching is exact, per the unique index.
func (s *UserStore) NameExists(name string, excludeID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE name = ? AND id != ?`, name, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check user name: %w", err)
	}
	return n > 0, nil
}

// EmailExists reports whether a user other than excludeID already uses email.
func (s *UserStore) EmailExists(email string, excludeID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM users WHERE email = ? AND id != ?`, email, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check user email: %w", err)
	}
	return n > 0, nil
}

func (s *UserStore) Update(id int64, name string, email *string, isAdmin, isActive bool) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, email = ?, is_admin = ?, is_active = ?, updated_at = datetime('now') WHERE id = ?`,
		name, nullString(email), isAdmin, isActive, id,
	)
	if isUniqueViolation(err) {
		return nil, uniqueUserError(err)
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes the user. Their chores and completions go with them through
// the cascade foreign keys.
func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CountAdmins returns the number of admin users, used to guard against
// deleting the last one.
func (s *UserStore) CountAdmins() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE is_admin = 1`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

// EnsureAdmin creates the initial admin user unless the address is already
// registered. Returns (nil, nil) when nothing was created, so startup can run
// it unconditionally.
func (s *UserStore) EnsureAdmin(name, email string) (*model.User, error) {
	taken, err := s.EmailExists(email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, nil
	}
	u, err := s.Create(name, &email, true, true)
	if errors.Is(err, ErrNameTaken) || errors.Is(err, ErrEmailTaken) {
		return nil, nil
	}
	return u, err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// uniqueUserError maps a users-table constraint failure to the colliding
// column's sentinel. Sqlite names the index in the message, so a cheap
// substring check is enough here.
func uniqueUserError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "email") {
		return ErrEmailTaken
	}
	return ErrNameTaken
}
