package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/events"
	"github.com/ovenline/backend-bakery/internal/repo"
)

type stubStore struct {
	topic   string
	payload []byte
	err     error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, topic string, aggregateID uuid.UUID, payload []byte) (repo.DomainEvent, error) {
	s.topic = topic
	s.payload = payload
	if s.err != nil {
		return repo.DomainEvent{}, s.err
	}
	return repo.DomainEvent{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload}, nil
}

type recordingNotifier struct {
	events []repo.DomainEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev repo.DomainEvent) error {
	n.events = append(n.events, ev)
	return n.err
}

func TestBusEmitPersistsAndNotifies(t *testing.T) {
	store := &stubStore{}
	notifier := &recordingNotifier{}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	saleID := uuid.New()
	ev, err := bus.Emit(context.Background(), events.TopicSaleCompleted, saleID, map[string]any{"total": "10.00"})
	require.NoError(t, err)
	require.Equal(t, events.TopicSaleCompleted, store.topic)
	require.Len(t, notifier.events, 1)
	require.Equal(t, ev.ID, notifier.events[0].ID)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(store.payload, &payload))
	require.Equal(t, "10.00", payload["total"])
}

func TestBusEmitRequiresAggregate(t *testing.T) {
	bus := &events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicSaleCompleted, uuid.Nil, nil)
	require.Error(t, err)
}

func TestBusEmitJoinsNotifierErrors(t *testing.T) {
	store := &stubStore{}
	boom := errors.New("boom")
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{&recordingNotifier{err: boom}}}
	_, err := bus.Emit(context.Background(), events.TopicSaleCompleted, uuid.New(), nil)
	require.ErrorIs(t, err, boom)
}
