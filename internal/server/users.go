// users.go - Identity store backed by PostgreSQL.
//
// The pre-insert existence check in the register handler is only a fast
// path for friendly conflict messages; the unique indexes on username and
// email are the authoritative guard, surfaced here as ErrDuplicate errors.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// User is a persisted identity record. PasswordHash holds the bcrypt hash of
// the credential; the plaintext is never stored.
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

var (
	// ErrUserNotFound is returned by lookups that match no record.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUsername reports a unique-index violation on username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrDuplicateEmail reports a unique-index violation on email.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserStore is the identity persistence interface consumed by the handlers.
type UserStore interface {
	// FindByLogin matches login against both username and email.
	FindByLogin(ctx context.Context, login string) (*User, error)
	// FindByUsernameOrEmail returns the first record colliding with either value.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	// Create inserts a new record and returns it with its generated id.
	Create(ctx context.Context, email, username, passwordHash string) (*User, error)
}

// PostgresUserStore implements UserStore on an explicitly injected *sql.DB
// (opened once at process start, torn down at shutdown).
type PostgresUserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const userColumns = `id, email, username, password_hash, created_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *PostgresUserStore) FindByLogin(ctx context.Context, login string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`,
		login,
	)
	return scanUser(row)
}

func (s *PostgresUserStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $2`,
		username, email,
	)
	return scanUser(row)
}

func (s *PostgresUserStore) Create(ctx context.Context, email, username, passwordHash string) (*User, error) {
	id := uuid.New()
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, username, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		id, email, username, passwordHash,
	)

	u, err := scanUser(row)
	if err != nil {
		if dup := duplicateFieldError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// duplicateFieldError translates a SQLSTATE 23505 unique violation into the
// matching ErrDuplicate sentinel, or nil when err is something else.
func duplicateFieldError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_username_key":
		return ErrDuplicateUsername
	case "users_email_key":
		return ErrDuplicateEmail
	default:
		return fmt.Errorf("unique violation on %s: %w", pgErr.ConstraintName, err)
	}
}
