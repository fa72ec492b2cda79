package tokenauth

import (
	"context"

	"github.com/google/uuid"
)

// TokenPair carries the two credentials returned by issuance and refresh.
// It is a value object: never persisted, never mutated.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// User is the minimal user record the authentication core consumes. The
// backing store (Postgres, in userstore) owns the full shape.
type User struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	IsStaff   bool
	IsActive  bool
	IsLocked  bool
}

// CanAuthenticate reports whether the account may hold live tokens.
func (u User) CanAuthenticate() bool {
	return u.IsActive && !u.IsLocked
}

// UserProvider is the lookup collaborator consumed by [AuthService].
// Absence is a result, not an error: implementations return found=false
// for unknown users and reserve the error for infrastructure failures.
type UserProvider interface {
	UserByID(ctx context.Context, id uuid.UUID) (User, bool, error)
	UserByEmail(ctx context.Context, email string) (User, bool, error)
}
