package invoice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ovenline/backend-bakery/internal/obs"
	"github.com/ovenline/backend-bakery/internal/sale"
)

// ErrUnsupportedFormat is returned for an unknown ?format= value.
var ErrUnsupportedFormat = errors.New("invoice: unsupported format")

// Service renders invoices for persisted sales.
type Service struct {
	Sales        *sale.Service
	Store        Store
	CurrencyCode string
	// OutputDir is where the background renderer drops PDF copies.
	OutputDir string
}

// Render produces the invoice in the requested format and returns the body
// with its content type. Supported formats are "json", "html", and "pdf".
func (s *Service) Render(ctx context.Context, saleID uuid.UUID, format string) ([]byte, string, error) {
	detail, err := s.Sales.Get(ctx, saleID)
	if err != nil {
		return nil, "", err
	}
	data := Build(s.Store, s.CurrencyCode, detail.Sale, detail.Items)

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "html":
		body, err = RenderHTML(data)
		contentType = "text/html; charset=utf-8"
	case "pdf":
		body, err = RenderPDF(data)
		contentType = "application/pdf"
	case "json", "":
		format = "json"
		body, err = renderJSON(data)
		contentType = "application/json"
	default:
		return nil, "", fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
	s.observe(format, err)
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

// WritePDF renders the PDF invoice to OutputDir and returns the file path.
// The background worker calls this after every committed sale.
func (s *Service) WritePDF(ctx context.Context, saleID uuid.UUID) (string, error) {
	detail, err := s.Sales.Get(ctx, saleID)
	if err != nil {
		return "", err
	}
	data := Build(s.Store, s.CurrencyCode, detail.Sale, detail.Items)
	body, err := RenderPDF(data)
	s.observe("pdf", err)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("invoice: create output dir: %w", err)
	}
	path := filepath.Join(s.OutputDir, data.InvoiceNumber+".pdf")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("invoice: write pdf: %w", err)
	}
	return path, nil
}

func (s *Service) observe(format string, err error) {
	if obs.InvoiceRenderTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.InvoiceRenderTotal.WithLabelValues(format, result).Inc()
}
