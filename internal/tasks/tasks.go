package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names routed through asynq.
const (
	TypeInvoiceRender = "invoice:render"
	TypeStockLowAlert = "stock:low_alert"
)

// InvoiceRenderPayload asks the worker to render and archive a sale's PDF
// invoice.
type InvoiceRenderPayload struct {
	SaleID string `json:"saleId"`
}

// StockLowPayload asks the worker to notify staff that a product is
// running out.
type StockLowPayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Remaining int32  `json:"remaining"`
}

// NewInvoiceRenderTask builds the invoice render task.
func NewInvoiceRenderTask(p InvoiceRenderPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("tasks: encode %s: %w", TypeInvoiceRender, err)
	}
	return asynq.NewTask(TypeInvoiceRender, raw, asynq.MaxRetry(5)), nil
}

// NewStockLowTask builds the low stock alert task.
func NewStockLowTask(p StockLowPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("tasks: encode %s: %w", TypeStockLowAlert, err)
	}
	return asynq.NewTask(TypeStockLowAlert, raw, asynq.MaxRetry(3)), nil
}
