package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/invoice"

	"github.com/google/uuid"
)

// Handlers processes queued tasks on the worker.
type Handlers struct {
	Invoices   *invoice.Service
	Email      common.EmailSender
	AlertEmail string
	Log        zerolog.Logger
}

// Register attaches the handlers to the worker mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeInvoiceRender, h.HandleInvoiceRender)
	mux.HandleFunc(TypeStockLowAlert, h.HandleStockLow)
}

// HandleInvoiceRender renders the PDF invoice for a committed sale and
// archives it on disk.
func (h *Handlers) HandleInvoiceRender(ctx context.Context, t *asynq.Task) error {
	var p InvoiceRenderPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("tasks: decode %s: %w", TypeInvoiceRender, err)
	}
	saleID, err := uuid.Parse(p.SaleID)
	if err != nil {
		return fmt.Errorf("tasks: bad sale id %q: %w", p.SaleID, err)
	}
	path, err := h.Invoices.WritePDF(ctx, saleID)
	if err != nil {
		return err
	}
	h.Log.Info().Str("sale_id", p.SaleID).Str("path", path).Msg("invoice archived")
	return nil
}

// HandleStockLow emails staff about a product running out.
func (h *Handlers) HandleStockLow(ctx context.Context, t *asynq.Task) error {
	var p StockLowPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("tasks: decode %s: %w", TypeStockLowAlert, err)
	}
	subject := fmt.Sprintf("Low stock: %s (%d left)", p.Name, p.Remaining)
	body := fmt.Sprintf("<p>%s is down to %d units. Time to bake.</p>", p.Name, p.Remaining)
	if err := h.Email.Send(h.AlertEmail, subject, body); err != nil {
		return fmt.Errorf("tasks: send low stock alert: %w", err)
	}
	h.Log.Info().Str("product_id", p.ProductID).Int32("remaining", p.Remaining).Msg("low stock alert sent")
	return nil
}
