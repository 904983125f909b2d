package invoice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/sale"
)

func renderJSON(d Data) ([]byte, error) {
	return json.Marshal(map[string]any{"invoice": d})
}

// Handler serves GET /sales/{id}/invoice.
type Handler struct {
	Svc *Service
}

// Get renders the invoice for a sale in the format given by ?format=
// (json by default).
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid sale id", nil)
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	body, contentType, err := h.Svc.Render(r.Context(), id, format)
	if err != nil {
		if errors.Is(err, sale.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "sale not found", nil)
			return
		}
		if errors.Is(err, ErrUnsupportedFormat) {
			common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "format must be json, html, or pdf", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to render invoice", nil)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
