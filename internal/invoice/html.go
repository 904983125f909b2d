package invoice

import (
	"bytes"
	"fmt"
	"html/template"
)

var htmlTemplate = template.Must(template.New("invoice").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.InvoiceNumber}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.2rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border-bottom: 1px solid #ddd; padding: 0.4rem; text-align: left; }
td.num, th.num { text-align: right; }
tfoot td { border: none; font-weight: bold; }
.meta { color: #666; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>{{.StoreName}}</h1>
{{if .StoreAddress}}<p class="meta">{{.StoreAddress}}</p>{{end}}
<p class="meta">
Invoice {{.InvoiceNumber}}<br>
Issued {{.IssuedAt}}<br>
{{if .CustomerName}}Customer: {{.CustomerName}}<br>{{end}}
Payment: {{.PaymentMethod}} &middot; Status: {{.Status}}
</p>
<table>
<thead>
<tr><th>Item</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Amount</th></tr>
</thead>
<tbody>
{{range .Items}}<tr><td>{{.ProductName}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.Subtotal}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td colspan="3">Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
<tr><td colspan="3">Tax</td><td class="num">{{.TaxAmount}}</td></tr>
<tr><td colspan="3">Discount</td><td class="num">-{{.DiscountAmount}}</td></tr>
<tr><td colspan="3">Total ({{.CurrencyCode}})</td><td class="num">{{.TotalAmount}}</td></tr>
</tfoot>
</table>
{{if .Notes}}<p class="meta">{{.Notes}}</p>{{end}}
</body>
</html>
`))

// RenderHTML produces the printable HTML invoice.
func RenderHTML(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("invoice: render html: %w", err)
	}
	return buf.Bytes(), nil
}
