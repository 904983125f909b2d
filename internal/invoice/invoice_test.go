package invoice_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ovenline/backend-bakery/internal/invoice"
	"github.com/ovenline/backend-bakery/internal/repo"
)

func sampleSale() (repo.Sale, []repo.SaleItem) {
	customer := "Ms. Flour"
	sale := repo.Sale{
		ID:             uuid.New(),
		InvoiceNumber:  "INV-20260831-0042",
		CashierID:      uuid.New(),
		CustomerName:   &customer,
		Subtotal:       decimal.RequireFromString("833"),
		TaxAmount:      decimal.RequireFromString("83.3"),
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.RequireFromString("916.3"),
		PaymentMethod:  "card",
		Status:         "completed",
		CreatedAt:      time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
	}
	items := []repo.SaleItem{
		{ProductName: "Wedding cake", Quantity: 1, UnitPrice: decimal.RequireFromString("765"), Subtotal: decimal.RequireFromString("765")},
		{ProductName: "Macaron box", Quantity: 2, UnitPrice: decimal.RequireFromString("34"), Subtotal: decimal.RequireFromString("68")},
	}
	return sale, items
}

func TestBuildCopiesAmountsVerbatim(t *testing.T) {
	sale, items := sampleSale()
	d := invoice.Build(invoice.Store{Name: "Sunrise Bakery", Address: "12 Mill Lane"}, "USD", sale, items)

	require.Equal(t, "INV-20260831-0042", d.InvoiceNumber)
	require.Equal(t, "833.00", d.Subtotal)
	require.Equal(t, "83.30", d.TaxAmount)
	require.Equal(t, "0.00", d.DiscountAmount)
	require.Equal(t, "916.30", d.TotalAmount)
	require.Equal(t, "Ms. Flour", d.CustomerName)
	require.Len(t, d.Items, 2)
	require.Equal(t, "765.00", d.Items[0].UnitPrice)
	require.Equal(t, "68.00", d.Items[1].Subtotal)
}

func TestRenderHTML(t *testing.T) {
	sale, items := sampleSale()
	d := invoice.Build(invoice.Store{Name: "Sunrise Bakery", Address: "12 Mill Lane"}, "USD", sale, items)

	body, err := invoice.RenderHTML(d)
	require.NoError(t, err)
	html := string(body)
	require.Contains(t, html, "INV-20260831-0042")
	require.Contains(t, html, "Wedding cake")
	require.Contains(t, html, "916.30")
	require.Contains(t, html, "Sunrise Bakery")
	require.Contains(t, html, "12 Mill Lane")
}

func TestRenderHTMLEscapesCustomerName(t *testing.T) {
	sale, items := sampleSale()
	hostile := `<script>alert(1)</script>`
	sale.CustomerName = &hostile
	d := invoice.Build(invoice.Store{Name: "Sunrise Bakery", Address: "12 Mill Lane"}, "USD", sale, items)

	body, err := invoice.RenderHTML(d)
	require.NoError(t, err)
	require.NotContains(t, string(body), "<script>")
}

func TestRenderPDF(t *testing.T) {
	sale, items := sampleSale()
	d := invoice.Build(invoice.Store{Name: "Sunrise Bakery", Address: "12 Mill Lane"}, "USD", sale, items)

	body, err := invoice.RenderPDF(d)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(body), "%PDF"))
}
