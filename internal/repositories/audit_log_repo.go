package repositories

import (
	"context"
	"fmt"

	"github.com/fieldstone/gatekeeper/internal/database"
	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogRepository handles audit log persistence. The table is
// append-only; no update or delete paths exist here.
type AuditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{pool: db.Pool}
}

// Append inserts one audit entry
func (r *AuditLogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, action, user_id, entity_id, entity_type, ip_address, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.Action, entry.UserID, entry.EntityID, entry.EntityType,
		entry.IPAddress, entry.UserAgent, entry.Metadata, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", database.MapPostgresError(err))
	}

	return nil
}

// ListRecent returns the newest entries, newest first
func (r *AuditLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, action, user_id, entity_id, entity_type, ip_address, user_agent, metadata, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	entries := make([]*models.AuditLog, 0)
	for rows.Next() {
		var entry models.AuditLog
		err := rows.Scan(
			&entry.ID, &entry.Action, &entry.UserID, &entry.EntityID, &entry.EntityType,
			&entry.IPAddress, &entry.UserAgent, &entry.Metadata, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", database.MapPostgresError(err))
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return entries, nil
}
