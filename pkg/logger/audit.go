package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents an account-level change worth keeping a trail of
type AuditEvent struct {
	EventType     string
	UserID        string
	Source        string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit records to the structured log
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogSubscriptionChange records a tier transition driven by billing
func (al *AuditLogger) LogSubscriptionChange(ctx context.Context, event AuditEvent, from, to string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "subscription"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		slog.String("to", to),
	}

	if from != "" {
		attrs = append(attrs, slog.String("from", from))
	}

	al.log(ctx, event, attrs)
}

// LogAccountAction logs general account actions
func (al *AuditLogger) LogAccountAction(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "account"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	al.log(ctx, event, attrs)
}

func (al *AuditLogger) log(ctx context.Context, event AuditEvent, attrs []slog.Attr) {
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	if event.Success {
		al.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(ctx, slog.LevelWarn, "audit", attrs...)
	}
}
