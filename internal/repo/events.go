package repo

import (
	"context"

	"github.com/google/uuid"
)

// InsertDomainEvent persists one business event and returns the stored row.
func (q *Queries) InsertDomainEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (DomainEvent, error) {
	var ev DomainEvent
	err := q.db.QueryRow(ctx, `
		INSERT INTO domain_events (topic, aggregate_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, topic, aggregate_id, payload, occurred_at`,
		topic, aggregateID, payload).
		Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt)
	return ev, err
}
