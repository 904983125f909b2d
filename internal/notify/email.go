// Package notify fans selected domain events out to the shop owner's inbox.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/events"
	"github.com/ovenline/backend-bakery/internal/repo"
)

// EmailNotifier emails the configured recipient when noteworthy events occur.
// It implements events.Notifier and is safe to leave in the bus with Enabled
// false.
type EmailNotifier struct {
	Mail    common.EmailSender
	To      string
	Enabled bool
	Log     zerolog.Logger
}

// Notify emails a short summary for cancellation and low stock events. Other
// topics are ignored so the bus stays cheap on the checkout path.
func (n *EmailNotifier) Notify(ctx context.Context, ev repo.DomainEvent) error {
	if n == nil || !n.Enabled || n.Mail == nil || n.To == "" {
		return nil
	}
	var subject, body string
	switch ev.Topic {
	case events.TopicSaleCancelled:
		var payload struct {
			InvoiceNumber string `json:"invoiceNumber"`
			TotalAmount   string `json:"totalAmount"`
		}
		_ = json.Unmarshal(ev.Payload, &payload)
		subject = fmt.Sprintf("Sale cancelled: %s", payload.InvoiceNumber)
		body = fmt.Sprintf("Sale %s (%s) was cancelled and its stock restored.", payload.InvoiceNumber, payload.TotalAmount)
	case events.TopicStockLow:
		var payload struct {
			Name      string `json:"name"`
			Remaining int32  `json:"remaining"`
		}
		_ = json.Unmarshal(ev.Payload, &payload)
		subject = fmt.Sprintf("Low stock: %s", payload.Name)
		body = fmt.Sprintf("%s is down to %d on hand. Time to bake more.", payload.Name, payload.Remaining)
	default:
		return nil
	}
	if err := n.Mail.Send(n.To, subject, body); err != nil {
		n.Log.Warn().Err(err).Str("topic", ev.Topic).Msg("notification email failed")
		return fmt.Errorf("notify: send email: %w", err)
	}
	return nil
}
