package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldstone/gatekeeper/internal/gate"
	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/google/uuid"
)

// AuditStore is the external collaborator that persists audit entries
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error)
}

// AuditService builds structured audit entries for security-relevant events
// and dual-writes them to slog and the audit store. Entries are append-only;
// nothing in this subsystem mutates or deletes them.
type AuditService struct {
	store  AuditStore
	logger *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(store AuditStore, logger *slog.Logger) *AuditService {
	return &AuditService{store: store, logger: logger}
}

// Record is the pure construction step: it captures IP and user agent from
// the same request context extraction the security gate uses, so the two
// never diverge. EntityID/EntityType stay nil for security events, which
// attach their context through Metadata; those columns exist for the
// business-layer writers sharing the audit_logs table.
func (s *AuditService) Record(action string, rc gate.RequestContext, userID *uuid.UUID, metadata models.AuditMetadata) *models.AuditLog {
	return &models.AuditLog{
		ID:        uuid.New(),
		Action:    action,
		UserID:    userID,
		IPAddress: rc.ClientIP,
		UserAgent: rc.Header("user-agent"),
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// Append dual-writes the entry: immediate slog output, then persistence.
// A store failure is logged but never fails the triggering request.
func (s *AuditService) Append(ctx context.Context, entry *models.AuditLog) {
	s.logger.InfoContext(ctx, "audit event",
		slog.String("action", entry.Action),
		slog.Any("user_id", entry.UserID),
		slog.String("ip_address", entry.IPAddress),
		slog.String("user_agent", entry.UserAgent),
		slog.Any("metadata", entry.Metadata),
	)

	if err := s.store.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("action", entry.Action),
			slog.Any("error", err),
		)
	}
}

// RecordEvent is the common path: build the entry and dual-write it
func (s *AuditService) RecordEvent(ctx context.Context, action string, rc gate.RequestContext, userID *uuid.UUID, metadata models.AuditMetadata) {
	s.Append(ctx, s.Record(action, rc, userID, metadata))
}

// ListRecent returns the newest entries for the admin audit view
func (s *AuditService) ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListRecent(ctx, limit)
}
