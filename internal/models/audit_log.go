package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the security layer
const (
	AuditActionLogin          = "login"
	AuditActionLoginFailed    = "login_failed"
	AuditActionLogout         = "logout"
	AuditActionRateLimited    = "rate_limited"
	AuditActionSuspicious     = "suspicious_activity"
	AuditActionSessionExpired = "session_expired"
)

// AuditLog is an append-only record of a security-relevant event.
// This subsystem constructs entries; persistence belongs to the audit store.
type AuditLog struct {
	ID         uuid.UUID     `db:"id"`
	Action     string        `db:"action"`
	UserID     *uuid.UUID    `db:"user_id"`
	EntityID   *string       `db:"entity_id"`
	EntityType *string       `db:"entity_type"`
	IPAddress  string        `db:"ip_address"`
	UserAgent  string        `db:"user_agent"`
	Metadata   AuditMetadata `db:"metadata"`
	CreatedAt  time.Time     `db:"created_at"`
}

// AuditMetadata holds additional context for audit events
type AuditMetadata map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (am *AuditMetadata) Scan(value interface{}) error {
	if value == nil {
		*am = make(AuditMetadata)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*am = AuditMetadata(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (am AuditMetadata) Value() (driver.Value, error) {
	if am == nil {
		return nil, nil
	}
	return json.Marshal(am)
}

// MarshalJSON implements json.Marshaler
func (am AuditMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(am))
}

// UnmarshalJSON implements json.Unmarshaler
func (am *AuditMetadata) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*am = AuditMetadata(m)
	return nil
}
