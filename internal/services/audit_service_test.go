package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/fieldstone/gatekeeper/internal/gate"
	"github.com/fieldstone/gatekeeper/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingAuditStore struct {
	calls int
}

func (f *failingAuditStore) Append(ctx context.Context, entry *models.AuditLog) error {
	f.calls++
	return errors.New("connection refused")
}

func (f *failingAuditStore) ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	return nil, errors.New("connection refused")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuditService_RecordCapturesRequestContext(t *testing.T) {
	service := NewAuditService(&mockAuditStore{}, testLogger())

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	rc := gate.FromHTTP(req)

	userID := uuid.New()
	entry := service.Record(models.AuditActionLogin, rc, &userID, models.AuditMetadata{"via": "password"})

	// IP comes through the same extraction the gate uses
	assert.Equal(t, rc.ClientIP, entry.IPAddress)
	assert.Equal(t, "203.0.113.7", entry.IPAddress)
	assert.Equal(t, "Mozilla/5.0", entry.UserAgent)
	assert.Equal(t, models.AuditActionLogin, entry.Action)
	assert.Equal(t, &userID, entry.UserID)
	assert.Equal(t, "password", entry.Metadata["via"])
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestAuditService_RecordNilUser(t *testing.T) {
	service := NewAuditService(&mockAuditStore{}, testLogger())

	entry := service.Record(models.AuditActionLoginFailed, gate.RequestContext{ClientIP: "203.0.113.7"}, nil, nil)
	assert.Nil(t, entry.UserID)
	assert.Nil(t, entry.Metadata)
}

func TestAuditService_AppendPersists(t *testing.T) {
	store := &mockAuditStore{}
	service := NewAuditService(store, testLogger())

	rc := gate.RequestContext{ClientIP: "203.0.113.7", Headers: map[string]string{}}
	service.RecordEvent(context.Background(), models.AuditActionLogout, rc, nil, nil)

	require.Len(t, store.entries, 1)
	assert.Equal(t, models.AuditActionLogout, store.entries[0].Action)
}

// A broken audit store must never fail the request that triggered the event
func TestAuditService_AppendSwallowsStoreErrors(t *testing.T) {
	store := &failingAuditStore{}
	service := NewAuditService(store, testLogger())

	rc := gate.RequestContext{ClientIP: "203.0.113.7", Headers: map[string]string{}}
	assert.NotPanics(t, func() {
		service.RecordEvent(context.Background(), models.AuditActionLogin, rc, nil, nil)
	})
	assert.Equal(t, 1, store.calls)
}

func TestAuditService_ListRecentClampsLimit(t *testing.T) {
	store := &mockAuditStore{}
	service := NewAuditService(store, testLogger())

	rc := gate.RequestContext{ClientIP: "203.0.113.7", Headers: map[string]string{}}
	for i := 0; i < 60; i++ {
		service.RecordEvent(context.Background(), models.AuditActionLogin, rc, nil, nil)
	}

	entries, err := service.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 50)

	entries, err = service.ListRecent(context.Background(), 500)
	require.NoError(t, err)
	assert.Len(t, entries, 50)

	entries, err = service.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 10)
}
