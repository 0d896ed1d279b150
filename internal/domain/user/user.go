package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for account lookup and registration.
var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailTaken     = errors.New("user already exists")
	ErrBadCredentials = errors.New("invalid email or password")
)

// Role controls access to administrative endpoints.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered account. PasswordHash holds the bcrypt hash
// and must never be serialized to clients.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
