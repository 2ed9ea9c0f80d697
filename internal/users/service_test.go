package users

import (
	"context"
	"testing"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	lastUpsert *models.User
	upsertErr  error
}

func (f *fakeRepo) UpsertBySub(ctx context.Context, u *models.User) (*models.User, error) {
	f.lastUpsert = u
	now := time.Now().UTC()
	if f.lastUpsert.CreatedAt.IsZero() {
		f.lastUpsert.CreatedAt = now
	}
	f.lastUpsert.UpdatedAt = now
	ret := *f.lastUpsert
	ret.ID = "abcd1234"
	return &ret, f.upsertErr
}

func (f *fakeRepo) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return nil, nil
}

func (f *fakeRepo) SetRole(ctx context.Context, sub string, role models.Role) error {
	return nil
}

func TestUpsertFromClaims(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	claims := map[string]interface{}{
		"sub":   "sub-123",
		"email": "x@example.com",
		"name":  "X User",
	}

	u, err := svc.UpsertFromClaims(ctx, claims)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Equal(t, "sub-123", u.Sub)
	require.Equal(t, "x@example.com", u.Email)
	require.Equal(t, "X User", u.Name)
	require.NotNil(t, repo.lastUpsert)
	require.False(t, repo.lastUpsert.CreatedAt.After(repo.lastUpsert.UpdatedAt))
	require.NotEmpty(t, u.ID)

	u2, err := svc.UpsertFromClaims(ctx, map[string]interface{}{"email": "y@e.com"})
	require.NoError(t, err)
	require.Nil(t, u2)

	u3, err := svc.UpsertFromClaims(ctx, map[string]interface{}{"sub": "s", "preferred_username": "jdoe"})
	require.NoError(t, err)
	require.Equal(t, "jdoe", u3.Name)
}

func TestEnsureRoleBootstrapsAdminsOnce(t *testing.T) {
	repo := NewMemoryUserRepository()
	svc := NewService(repo, []string{"root-sub"}, []string{"Boss@Example.com"})
	ctx := context.Background()

	admin, err := svc.EnsureRole(ctx, map[string]interface{}{"sub": "root-sub"})
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, admin.Role)

	byEmail, err := svc.EnsureRole(ctx, map[string]interface{}{"sub": "b", "email": "boss@example.com"})
	require.NoError(t, err)
	require.True(t, byEmail.IsAdmin())

	plain, err := svc.EnsureRole(ctx, map[string]interface{}{"sub": "c", "email": "c@example.com", "name": "C"})
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, plain.Role)

	// an existing role is kept even if the bootstrap list changes
	require.NoError(t, repo.SetRole(ctx, "root-sub", models.RoleUser))
	again, err := svc.EnsureRole(ctx, map[string]interface{}{"sub": "root-sub"})
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, again.Role)

	ok, err := svc.IsAdmin(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = svc.IsAdmin(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, ok)

	none, err := svc.EnsureRole(ctx, map[string]interface{}{})
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestMemoryUserRepositoryUpsertKeepsRole(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	u, err := repo.UpsertBySub(ctx, &models.User{Sub: "s", Email: "old@e.com"})
	require.NoError(t, err)
	require.NoError(t, repo.SetRole(ctx, "s", models.RoleAdmin))

	u2, err := repo.UpsertBySub(ctx, &models.User{Sub: "s", Email: "new@e.com"})
	require.NoError(t, err)
	require.Equal(t, u.ID, u2.ID)
	require.Equal(t, "new@e.com", u2.Email)
	require.Equal(t, models.RoleAdmin, u2.Role)
}
