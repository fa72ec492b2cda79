// Package userstore implements the user-lookup collaborator over
// PostgreSQL. The authentication core only consumes the two lookup
// methods; create and lock/unlock exist for the admin CLI.
package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	tokenauth "github.com/nvasko/tokenauth"
)

// ErrEmailTaken is returned by Create when the email is already
// registered.
var ErrEmailTaken = errors.New("userstore: email already registered")

// ErrUserNotFound is returned by mutations targeting a missing user.
// Lookups report absence through their found result instead.
var ErrUserNotFound = errors.New("userstore: user not found")

const userColumns = "id, email, first_name, last_name, is_staff, is_active, is_locked"

// Store is a pgx-backed user repository satisfying
// [tokenauth.UserProvider].
type Store struct {
	pool *pgxpool.Pool
}

// New opens a connection pool and verifies connectivity.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("userstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("userstore: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool; its lifecycle stays with the caller.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// UserByID looks a user up by primary key. Absence is reported through
// the found result, not an error.
func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (tokenauth.User, bool, error) {
	return s.selectOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

// UserByEmail looks a user up by email address.
func (s *Store) UserByEmail(ctx context.Context, email string) (tokenauth.User, bool, error) {
	return s.selectOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (s *Store) selectOne(ctx context.Context, query string, arg any) (tokenauth.User, bool, error) {
	var u tokenauth.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.IsStaff,
		&u.IsActive,
		&u.IsLocked,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return tokenauth.User{}, false, nil
	}
	if err != nil {
		return tokenauth.User{}, false, fmt.Errorf("userstore: select user: %w", err)
	}
	return u, true, nil
}

// Create inserts a new active, unlocked user.
func (s *Store) Create(ctx context.Context, email, firstName, lastName string, isStaff bool) (tokenauth.User, error) {
	u := tokenauth.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		IsStaff:   isStaff,
		IsActive:  true,
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, first_name, last_name, is_staff, is_active, is_locked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.IsStaff, u.IsActive, u.IsLocked,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return tokenauth.User{}, ErrEmailTaken
		}
		return tokenauth.User{}, fmt.Errorf("userstore: create user: %w", err)
	}

	return u, nil
}

// SetLocked toggles the account lock flag. Locked users fail the
// orchestrator's liveness check on the next refresh.
func (s *Store) SetLocked(ctx context.Context, id uuid.UUID, locked bool) error {
	tag, err := s.pool.Exec(ctx, "UPDATE users SET is_locked = $2 WHERE id = $1", id, locked)
	if err != nil {
		return fmt.Errorf("userstore: set locked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

var _ tokenauth.UserProvider = (*Store)(nil)
