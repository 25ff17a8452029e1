package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/breachwatch/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// UserService maps identity provider subjects onto local users
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// ResolveIdentity returns the local identity for an external subject,
// provisioning a free-tier user the first time the subject is seen.
func (s *UserService) ResolveIdentity(ctx context.Context, externalID, email string) (*models.Identity, error) {
	if externalID == "" {
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to fetch user", slog.String("external_id", externalID), slog.Any("error", err))
			return nil, fmt.Errorf("failed to fetch user: %w", err)
		}

		user, err = s.provision(ctx, externalID, email)
		if err != nil {
			return nil, err
		}
	}

	tier := user.Subscription
	if !tier.Valid() {
		s.logger.Warn("unknown subscription tier, treating as free",
			slog.String("user_id", user.ID),
			slog.String("subscription", string(tier)))
		tier = models.TierFree
	}

	return &models.Identity{
		UserID:       user.ID,
		ExternalID:   user.ExternalID,
		Email:        user.Email,
		Subscription: tier,
	}, nil
}

func (s *UserService) provision(ctx context.Context, externalID, email string) (*models.User, error) {
	created, err := s.repo.Create(ctx, &models.User{
		ExternalID:   externalID,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Subscription: models.TierFree,
	})
	if err == nil {
		s.logger.Info("user provisioned", slog.String("user_id", created.ID))
		return created, nil
	}

	// Lost a race with a concurrent first request for the same subject
	if errors.Is(err, models.ErrConflict) {
		return s.repo.GetByExternalID(ctx, externalID)
	}

	s.logger.Error("failed to provision user", slog.String("external_id", externalID), slog.Any("error", err))
	return nil, fmt.Errorf("failed to provision user: %w", err)
}
