package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepo struct {
	byEmail map[string]*User
	created []*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: make(map[string]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	m.byEmail[u.Email] = u
	m.created = append(m.created, u)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func TestRegister(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo)

	u, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "  Alice  ",
		Email:    "Alice@Example.COM",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, RoleUser, u.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")))
	require.Len(t, repo.created, 1)
}

func TestRegisterInvalidInput(t *testing.T) {
	svc := NewService(newMockUserRepo())

	cases := map[string]RegisterRequest{
		"short name":         {Name: "A", Email: "a@example.com", Password: "s3cret"},
		"short password":     {Name: "Alice", Email: "a@example.com", Password: "12345"},
		"empty email":        {Name: "Alice", Email: "", Password: "s3cret"},
		"missing domain":     {Name: "Alice", Email: "alice", Password: "s3cret"},
		"missing local part": {Name: "Alice", Email: "@example.com", Password: "s3cret"},
		"embedded space":     {Name: "Alice", Email: "alice smith@example.com", Password: "s3cret"},
		"display name form":  {Name: "Alice", Email: "alice <alice@example.com>", Password: "s3cret"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRegistration)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newMockUserRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "s3cret",
	})
	require.NoError(t, err)

	// Same address in a different case still collides.
	_, err = svc.Register(context.Background(), RegisterRequest{
		Name: "Alice Again", Email: "ALICE@example.com", Password: "s3cret",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newMockUserRepo())

	u, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "s3cret",
	})
	require.NoError(t, err)

	got, err := svc.Authenticate(context.Background(), "Alice@Example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "alice@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrBadCredentials)

	// Unknown email reads the same as a wrong password.
	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrBadCredentials)
}
