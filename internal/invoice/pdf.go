package invoice

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// RenderPDF produces the printable PDF invoice.
func RenderPDF(d Data) ([]byte, error) {
	cfg := config.NewBuilder().Build()
	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, d.StoreName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	if d.StoreAddress != "" {
		m.AddRow(6, text.NewCol(12, d.StoreAddress, props.Text{Size: 8, Align: align.Left}))
	}
	m.AddRow(18,
		col.New(6).Add(
			text.New("Invoice "+d.InvoiceNumber, props.Text{Top: 0, Style: fontstyle.Bold}),
			text.New("Issued "+d.IssuedAt, props.Text{Top: 5, Size: 9}),
			text.New("Payment: "+d.PaymentMethod, props.Text{Top: 10, Size: 9}),
		),
		col.New(6).Add(
			text.New(customerLine(d), props.Text{Top: 0, Size: 9, Align: align.Right}),
			text.New("Status: "+d.Status, props.Text{Top: 5, Size: 9, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(6, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, it := range d.Items {
		m.AddRow(7,
			text.NewCol(6, it.ProductName, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", it.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, it.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, it.Subtotal, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(7,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, d.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, "Tax", props.Text{Size: 9}),
		text.NewCol(2, d.TaxAmount, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, "Discount", props.Text{Size: 9}),
		text.NewCol(2, "-"+d.DiscountAmount, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total "+d.CurrencyCode, props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(2, d.TotalAmount, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)
	if d.Notes != "" {
		m.AddRow(10, text.NewCol(12, d.Notes, props.Text{Size: 8, Top: 3}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("invoice: render pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func customerLine(d Data) string {
	if d.CustomerName == "" {
		return "Walk-in customer"
	}
	return "Customer: " + d.CustomerName
}
