package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/BradenHooton/breachwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ResolveIdentity_ExistingUser(t *testing.T) {
	user := NewTestUser("user123", "auth0|abc", "user@example.com", models.TierPro)

	mockUserRepo := &MockUserRepository{
		GetByExternalIDFunc: func(ctx context.Context, externalID string) (*models.User, error) {
			assert.Equal(t, "auth0|abc", externalID)
			return user, nil
		},
	}

	svc := NewUserService(mockUserRepo, slog.Default())

	identity, err := svc.ResolveIdentity(context.Background(), "auth0|abc", "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, "user123", identity.UserID)
	assert.Equal(t, models.TierPro, identity.Subscription)
}

func TestUserService_ResolveIdentity_ProvisionsFreeUser(t *testing.T) {
	var created *models.User
	mockUserRepo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			created = user
			user.ID = "new-user"
			return user, nil
		},
	}

	svc := NewUserService(mockUserRepo, slog.Default())

	identity, err := svc.ResolveIdentity(context.Background(), "auth0|new", " New@Example.com ")

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, models.TierFree, created.Subscription)
	assert.Equal(t, "new-user", identity.UserID)
	assert.Equal(t, models.TierFree, identity.Subscription)
}

func TestUserService_ResolveIdentity_ProvisionRace(t *testing.T) {
	calls := 0
	mockUserRepo := &MockUserRepository{
		GetByExternalIDFunc: func(ctx context.Context, externalID string) (*models.User, error) {
			calls++
			if calls == 1 {
				return nil, models.ErrNotFound
			}
			return NewTestUser("winner", externalID, "race@example.com", models.TierFree), nil
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}

	svc := NewUserService(mockUserRepo, slog.Default())

	identity, err := svc.ResolveIdentity(context.Background(), "auth0|race", "race@example.com")

	require.NoError(t, err)
	assert.Equal(t, "winner", identity.UserID)
	assert.Equal(t, 2, calls)
}

func TestUserService_ResolveIdentity_UnknownTierTreatedAsFree(t *testing.T) {
	mockUserRepo := &MockUserRepository{
		GetByExternalIDFunc: func(ctx context.Context, externalID string) (*models.User, error) {
			return NewTestUser("user123", externalID, "user@example.com", models.Tier("enterprise")), nil
		},
	}

	svc := NewUserService(mockUserRepo, slog.Default())

	identity, err := svc.ResolveIdentity(context.Background(), "auth0|abc", "")

	require.NoError(t, err)
	assert.Equal(t, models.TierFree, identity.Subscription)
}

func TestUserService_ResolveIdentity_EmptySubject(t *testing.T) {
	svc := NewUserService(&MockUserRepository{}, slog.Default())

	identity, err := svc.ResolveIdentity(context.Background(), "", "user@example.com")

	assert.Nil(t, identity)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestUserService_ResolveIdentity_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mockUserRepo := &MockUserRepository{
		GetByExternalIDFunc: func(ctx context.Context, externalID string) (*models.User, error) {
			return nil, dbErr
		},
	}

	svc := NewUserService(mockUserRepo, slog.Default())

	identity, err := svc.ResolveIdentity(context.Background(), "auth0|abc", "")

	assert.Nil(t, identity)
	assert.ErrorIs(t, err, dbErr)
}
