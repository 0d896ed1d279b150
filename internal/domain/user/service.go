package user

import (
	"context"
	"net/mail"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost the original deployment used for new hashes.
const bcryptCost = 12

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// ErrInvalidRegistration is returned when required registration fields are
// missing or too short.
var ErrInvalidRegistration = errors.New("invalid registration data")

// Service implements account registration and credential verification.
type Service struct {
	users Repository
}

// NewService creates a user Service backed by the given repository.
func NewService(users Repository) *Service {
	return &Service{users: users}
}

// Register creates a new account with a bcrypt-hashed password. The email is
// lowercased before storage so lookups are case-insensitive.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if len(strings.TrimSpace(req.Name)) < 2 || len(req.Password) < 6 {
		return nil, ErrInvalidRegistration
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		return nil, ErrInvalidRegistration
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "check existing user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// Authenticate verifies an email/password pair and returns the matching
// account. Unknown emails and wrong passwords are indistinguishable to the
// caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, errors.Wrap(err, "get user")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// validEmail reports whether s is a plain address like "user@example.com".
// Display-name forms ("User <user@example.com>") are rejected.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
