package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/resource-booking-backend/internal/auth"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*User{}} }

func (r *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].LastLoginAt = &t
	return nil
}

func newTestService() (Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, auth.NewBcryptPasswordHasherWithCost(4)), repo
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to student", func(t *testing.T) {
		svc, _ := newTestService()
		u, err := svc.Register(ctx, RegisterInput{Email: " A@Example.com ", Password: "password123", Name: "An"})
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", u.Email)
		assert.Equal(t, RoleStudent, u.Role)
		assert.Equal(t, StatusActive, u.Status)
		assert.NotEqual(t, "password123", u.PasswordHash)
	})

	t.Run("rejects admin self registration", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password123", Name: "An", Role: RoleAdmin})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password123", Name: "An"})
		require.NoError(t, err)
		_, err = svc.Register(ctx, RegisterInput{Email: "A@example.com", Password: "password123", Name: "Binh"})
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "short", Name: "An"})
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})
}

func TestLoginAndGetActive(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	u, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password123", Name: "An", Role: RoleTeacher})
	require.NoError(t, err)

	logged, err := svc.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)
	assert.NotNil(t, logged.LastLoginAt)

	_, err = svc.Login(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	active, err := svc.GetActive(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleTeacher, active.Role)

	repo.users[u.ID].Status = StatusBlocked
	_, err = svc.Login(ctx, "a@example.com", "password123")
	assert.ErrorIs(t, err, ErrInactiveUser)
	_, err = svc.GetActive(ctx, u.ID)
	assert.ErrorIs(t, err, ErrInactiveUser)

	repo.users[u.ID].Status = StatusActive
	repo.users[u.ID].Deleted = true
	_, err = svc.GetActive(ctx, u.ID)
	assert.ErrorIs(t, err, ErrInactiveUser)

	_, err = svc.GetActive(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrInactiveUser)
}
