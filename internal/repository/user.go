package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xenking/storefront-api/internal/domain/user"
)

const (
	createUserSQL = `INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)`

	getUserByIDSQL = `SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1`

	getUserByEmailSQL = `SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1`
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository returns a UserRepository over db.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account. A duplicate email maps to user.ErrEmailTaken
// so concurrent registrations fail cleanly.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.Exec(ctx, createUserSQL, u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// GetByID returns the account with the given ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.get(ctx, getUserByIDSQL, id)
}

// GetByEmail returns the account registered under email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.get(ctx, getUserByEmailSQL, email)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (*user.User, error) {
	var (
		u    user.User
		role string
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.Role = user.Role(role)
	return &u, nil
}
