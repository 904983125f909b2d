package invoice

import (
	"time"

	"github.com/ovenline/backend-bakery/internal/repo"
)

// Store identifies the issuing shop on rendered invoices.
type Store struct {
	Name    string
	Address string
}

// Item is one rendered invoice line.
type Item struct {
	ProductName string `json:"productName"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Subtotal    string `json:"subtotal"`
}

// Data is the render model for an invoice. Every amount is copied verbatim
// from the persisted sale; nothing here is recomputed.
type Data struct {
	StoreName      string  `json:"storeName"`
	StoreAddress   string  `json:"storeAddress,omitempty"`
	CurrencyCode   string  `json:"currencyCode"`
	InvoiceNumber  string  `json:"invoiceNumber"`
	IssuedAt       string  `json:"issuedAt"`
	CashierID      string  `json:"cashierId"`
	CustomerName   string  `json:"customerName"`
	PaymentMethod  string  `json:"paymentMethod"`
	Status         string  `json:"status"`
	Notes          string  `json:"notes"`
	Items          []Item  `json:"items"`
	Subtotal       string  `json:"subtotal"`
	TaxAmount      string  `json:"taxAmount"`
	DiscountAmount string  `json:"discountAmount"`
	TotalAmount    string  `json:"totalAmount"`
}

// Build assembles the render model from a persisted sale and its items.
func Build(store Store, currencyCode string, sale repo.Sale, items []repo.SaleItem) Data {
	d := Data{
		StoreName:      store.Name,
		StoreAddress:   store.Address,
		CurrencyCode:   currencyCode,
		InvoiceNumber:  sale.InvoiceNumber,
		IssuedAt:       sale.CreatedAt.UTC().Format(time.RFC3339),
		CashierID:      sale.CashierID.String(),
		PaymentMethod:  sale.PaymentMethod,
		Status:         sale.Status,
		Subtotal:       sale.Subtotal.StringFixed(2),
		TaxAmount:      sale.TaxAmount.StringFixed(2),
		DiscountAmount: sale.DiscountAmount.StringFixed(2),
		TotalAmount:    sale.TotalAmount.StringFixed(2),
	}
	if sale.CustomerName != nil {
		d.CustomerName = *sale.CustomerName
	}
	if sale.Notes != nil {
		d.Notes = *sale.Notes
	}
	for _, it := range items {
		d.Items = append(d.Items, Item{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			Subtotal:    it.Subtotal.StringFixed(2),
		})
	}
	return d
}
