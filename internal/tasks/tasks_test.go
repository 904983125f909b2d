package tasks_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/tasks"
)

func TestInvoiceRenderTaskRoundTrip(t *testing.T) {
	task, err := tasks.NewInvoiceRenderTask(tasks.InvoiceRenderPayload{SaleID: "abc"})
	require.NoError(t, err)
	require.Equal(t, tasks.TypeInvoiceRender, task.Type())

	var p tasks.InvoiceRenderPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.Equal(t, "abc", p.SaleID)
}

func TestHandleStockLowSendsEmail(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	h := &tasks.Handlers{
		Email:      outbox,
		AlertEmail: "bakers@sunrise.example",
		Log:        zerolog.Nop(),
	}

	task, err := tasks.NewStockLowTask(tasks.StockLowPayload{ProductID: "p1", Name: "Rye loaf", Remaining: 2})
	require.NoError(t, err)
	require.NoError(t, h.HandleStockLow(context.Background(), task))

	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "bakers@sunrise.example", outbox.Outbox[0].To)
	require.Contains(t, outbox.Outbox[0].Subject, "Rye loaf")
}

func TestHandleStockLowRejectsBadPayload(t *testing.T) {
	h := &tasks.Handlers{Email: common.LogEmailSender{Log: zerolog.Nop()}, Log: zerolog.Nop()}
	err := h.HandleStockLow(context.Background(), asynq.NewTask(tasks.TypeStockLowAlert, []byte("not json")))
	require.Error(t, err)
}
