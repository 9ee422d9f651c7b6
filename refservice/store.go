package refservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/realworldapp/api-contract-tests/servicedef"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	uuid TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	email TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	avatar TEXT NOT NULL,
	balance INTEGER NOT NULL DEFAULT 0,
	default_privacy_level TEXT NOT NULL DEFAULT 'public',
	created_at DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);
`

const userColumns = `id, uuid, first_name, last_name, username, password_hash, email, phone_number,
avatar, balance, created_at, modified_at`

// ErrUserNotFound is returned by lookups that match no user.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when a username is already taken.
var ErrUserExists = errors.New("user already exists")

// userRecord is a stored user. PasswordHash never leaves the service except through the
// test-data endpoint.
type userRecord struct {
	servicedef.User
	PasswordHash string
}

// public returns the user as the API exposes it: no password, no hash.
func (r userRecord) public() servicedef.User {
	u := r.User
	u.Password = ""
	return u
}

// testData returns the user as the test-data endpoint exposes it, hash included.
func (r userRecord) testData() servicedef.User {
	u := r.User
	u.Password = r.PasswordHash
	return u
}

type userStore struct {
	db *sql.DB
}

func newUserStore(db *sql.DB) *userStore {
	return &userStore{db: db}
}

func (s *userStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// Reset replaces every stored user with the given ones, in order.
func (s *userStore) Reset(ctx context.Context, users []userRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	for i := range users {
		if err := insertUser(ctx, tx, &users[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUser(ctx context.Context, db execer, u *userRecord) error {
	now := time.Now().UTC()
	if u.CreatedAt == nil {
		u.CreatedAt = &now
	}
	if u.ModifiedAt == nil {
		u.ModifiedAt = &now
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UUID, u.FirstName, u.LastName, u.Username, u.PasswordHash, u.Email,
		u.PhoneNumber, u.Avatar, u.Balance, *u.CreatedAt, *u.ModifiedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *userStore) Create(ctx context.Context, u *userRecord) error {
	return insertUser(ctx, s.db, u)
}

func (s *userStore) List(ctx context.Context) ([]userRecord, error) {
	return s.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY rowid`)
}

func (s *userStore) GetByID(ctx context.Context, id string) (userRecord, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (userRecord, error) {
	return s.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// Search returns users whose email, phone number or username contains q, ignoring case.
// Users with an exact match on one of those fields come first; otherwise insertion order
// is kept.
func (s *userStore) Search(ctx context.Context, q string) ([]userRecord, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []userRecord{}, nil
	}
	pattern := "%" + escapeLike(q) + "%"
	return s.query(ctx, `
SELECT `+userColumns+` FROM users
WHERE lower(email) LIKE ? ESCAPE '\' OR lower(phone_number) LIKE ? ESCAPE '\' OR lower(username) LIKE ? ESCAPE '\'
ORDER BY CASE WHEN lower(email) = ? OR lower(phone_number) = ? OR lower(username) = ? THEN 0 ELSE 1 END, rowid`,
		pattern, pattern, pattern, q, q, q,
	)
}

// userUpdate holds the columns to change; nil fields are left alone.
type userUpdate struct {
	FirstName           *string
	LastName            *string
	PasswordHash        *string
	Email               *string
	PhoneNumber         *string
	Avatar              *string
	DefaultPrivacyLevel *string
}

func (s *userStore) Update(ctx context.Context, id string, upd userUpdate) error {
	var sets []string
	var args []any
	add := func(column string, value *string) {
		if value != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *value)
		}
	}
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)
	add("password_hash", upd.PasswordHash)
	add("email", upd.Email)
	add("phone_number", upd.PhoneNumber)
	add("avatar", upd.Avatar)
	add("default_privacy_level", upd.DefaultPrivacyLevel)
	sets = append(sets, "modified_at = ?")
	args = append(args, time.Now().UTC(), id)

	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *userStore) query(ctx context.Context, query string, args ...any) ([]userRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []userRecord{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *userStore) queryOne(ctx context.Context, query string, args ...any) (userRecord, error) {
	return scanUser(s.db.QueryRowContext(ctx, query, args...))
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (userRecord, error) {
	var u userRecord
	var createdAt, modifiedAt time.Time
	if err := row.Scan(
		&u.ID,
		&u.UUID,
		&u.FirstName,
		&u.LastName,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.PhoneNumber,
		&u.Avatar,
		&u.Balance,
		&createdAt,
		&modifiedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return userRecord{}, ErrUserNotFound
		}
		return userRecord{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = &createdAt
	u.ModifiedAt = &modifiedAt
	return u, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
