package audit_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/audit"
	"github.com/ovenline/backend-bakery/internal/repo"
)

type stubStore struct {
	inserted []repo.InsertAuditLogParams
}

func (s *stubStore) InsertAuditLog(_ context.Context, arg repo.InsertAuditLogParams) error {
	s.inserted = append(s.inserted, arg)
	return nil
}

func (s *stubStore) ListAuditLogs(_ context.Context, _ repo.ListAuditLogsParams) ([]repo.AuditLog, error) {
	return nil, nil
}

func TestRecordStoresEntry(t *testing.T) {
	store := &stubStore{}
	svc := &audit.Service{Store: store, Enabled: true}
	actor := uuid.NewString()

	svc.Record(context.Background(), audit.Entry{
		ActorID:    actor,
		Action:     "sale.commit",
		EntityType: "sale",
		EntityID:   "INV-20260831-0001",
		Metadata:   map[string]string{"total": "10.00"},
		IP:         "10.0.0.2",
	})

	require.Len(t, store.inserted, 1)
	got := store.inserted[0]
	require.True(t, got.ActorID.Valid)
	require.Equal(t, actor, got.ActorID.UUID.String())
	require.Equal(t, "sale.commit", got.Action)
	require.NotNil(t, got.EntityID)
	require.Equal(t, "INV-20260831-0001", *got.EntityID)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(got.Metadata, &meta))
	require.Equal(t, "10.00", meta["total"])
}

func TestRecordDisabledWritesNothing(t *testing.T) {
	store := &stubStore{}
	svc := &audit.Service{Store: store, Enabled: false}
	svc.Record(context.Background(), audit.Entry{Action: "sale.commit"})
	require.Empty(t, store.inserted)
}

func TestRecordBadActorIgnored(t *testing.T) {
	store := &stubStore{}
	svc := &audit.Service{Store: store, Enabled: true}
	svc.Record(context.Background(), audit.Entry{ActorID: "not-a-uuid", Action: "sale.commit"})
	require.Empty(t, store.inserted)
}
