package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ovenline/backend-bakery/internal/events"
	"github.com/ovenline/backend-bakery/internal/repo"
)

// Scheduler turns emitted domain events into queued background work. It
// implements events.Scheduler.
type Scheduler struct {
	Client *asynq.Client
	Log    zerolog.Logger
}

// Schedule enqueues the follow-up task for an event. Topics without
// background work are ignored.
func (s *Scheduler) Schedule(ctx context.Context, event repo.DomainEvent) error {
	switch event.Topic {
	case events.TopicSaleCompleted:
		task, err := NewInvoiceRenderTask(InvoiceRenderPayload{SaleID: event.AggregateID.String()})
		if err != nil {
			return err
		}
		return s.enqueue(ctx, task)
	case events.TopicStockLow:
		var p StockLowPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return fmt.Errorf("tasks: decode %s payload: %w", event.Topic, err)
		}
		task, err := NewStockLowTask(p)
		if err != nil {
			return err
		}
		return s.enqueue(ctx, task)
	default:
		return nil
	}
}

func (s *Scheduler) enqueue(ctx context.Context, task *asynq.Task) error {
	info, err := s.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("tasks: enqueue %s: %w", task.Type(), err)
	}
	s.Log.Debug().Str("task", task.Type()).Str("task_id", info.ID).Msg("task enqueued")
	return nil
}
