package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BradenHooton/breachwatch/internal/models"
	pkglogger "github.com/BradenHooton/breachwatch/pkg/logger"
)

// MonitoredEmailRepository defines the per-user monitoring list operations
type MonitoredEmailRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.MonitoredEmail, error)
	Create(ctx context.Context, m *models.MonitoredEmail) error
	Delete(ctx context.Context, id, userID string) error
}

// MonitorService manages which addresses a pro user has under watch
type MonitorService struct {
	repo   MonitoredEmailRepository
	audit  *pkglogger.AuditLogger
	logger *slog.Logger
}

func NewMonitorService(repo MonitoredEmailRepository, logger *slog.Logger) *MonitorService {
	return &MonitorService{
		repo:   repo,
		audit:  pkglogger.NewAuditLogger(logger),
		logger: logger,
	}
}

// Add registers an address for monitoring. New entries start at zero known
// breaches, so the first poll reports everything already on record.
func (s *MonitorService) Add(ctx context.Context, identity models.Identity, email string) (*models.MonitoredEmail, error) {
	if identity.Subscription != models.TierPro {
		s.audit.LogAccountAction(ctx, pkglogger.AuditEvent{
			EventType:     "monitor_added",
			UserID:        identity.UserID,
			Source:        "api",
			FailureReason: "pro subscription required",
		})
		return nil, models.ErrProRequired
	}

	m := &models.MonitoredEmail{
		UserID: identity.UserID,
		Email:  strings.ToLower(strings.TrimSpace(email)),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to add monitored email",
			slog.String("user_id", identity.UserID),
			slog.String("email", pkglogger.SanitizedEmail(m.Email)),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to add monitored email: %w", err)
	}

	s.audit.LogAccountAction(ctx, pkglogger.AuditEvent{
		EventType: "monitor_added",
		UserID:    identity.UserID,
		Source:    "api",
		Success:   true,
		Metadata:  map[string]string{"monitor_id": m.ID},
	})

	return m, nil
}

func (s *MonitorService) List(ctx context.Context, identity models.Identity) ([]*models.MonitoredEmail, error) {
	list, err := s.repo.ListByUser(ctx, identity.UserID)
	if err != nil {
		s.logger.Error("failed to list monitored emails", slog.String("user_id", identity.UserID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to list monitored emails: %w", err)
	}
	return list, nil
}

// Remove deletes one of the caller's monitored addresses
func (s *MonitorService) Remove(ctx context.Context, identity models.Identity, id string) error {
	if err := s.repo.Delete(ctx, id, identity.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete monitored email",
			slog.String("user_id", identity.UserID),
			slog.String("monitor_id", id),
			slog.Any("error", err))
		return fmt.Errorf("failed to delete monitored email: %w", err)
	}

	s.audit.LogAccountAction(ctx, pkglogger.AuditEvent{
		EventType: "monitor_removed",
		UserID:    identity.UserID,
		Source:    "api",
		Success:   true,
		Metadata:  map[string]string{"monitor_id": id},
	})
	return nil
}
