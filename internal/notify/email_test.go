package notify_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/events"
	"github.com/ovenline/backend-bakery/internal/notify"
	"github.com/ovenline/backend-bakery/internal/repo"
)

func TestNotifyEmailsOnCancellation(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := &notify.EmailNotifier{Mail: outbox, To: "owner@example.com", Enabled: true, Log: zerolog.Nop()}

	err := n.Notify(context.Background(), repo.DomainEvent{
		ID:      uuid.New(),
		Topic:   events.TopicSaleCancelled,
		Payload: []byte(`{"invoiceNumber":"INV-20250310-0001","totalAmount":"916.30"}`),
	})
	require.NoError(t, err)
	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "owner@example.com", outbox.Outbox[0].To)
	require.Contains(t, outbox.Outbox[0].Subject, "INV-20250310-0001")
}

func TestNotifyIgnoresOtherTopics(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := &notify.EmailNotifier{Mail: outbox, To: "owner@example.com", Enabled: true, Log: zerolog.Nop()}

	err := n.Notify(context.Background(), repo.DomainEvent{Topic: events.TopicSaleCompleted})
	require.NoError(t, err)
	require.Empty(t, outbox.Outbox)
}

func TestNotifyDisabledIsNoop(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := &notify.EmailNotifier{Mail: outbox, To: "owner@example.com", Log: zerolog.Nop()}

	err := n.Notify(context.Background(), repo.DomainEvent{Topic: events.TopicStockLow, Payload: []byte(`{"name":"Sourdough","remaining":2}`)})
	require.NoError(t, err)
	require.Empty(t, outbox.Outbox)
}
