package audit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ovenline/backend-bakery/internal/common"
)

// Handler exposes the admin activity listing.
type Handler struct {
	Svc *Service
}

type logView struct {
	ID         string `json:"id"`
	ActorID    string `json:"actorId,omitempty"`
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId,omitempty"`
	Metadata   any    `json:"metadata,omitempty"`
	IP         string `json:"ip,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// List returns activity records newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	logs, err := h.Svc.List(r.Context(), int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.WriteError(w, common.Internal("failed to load audit log", err))
		return
	}
	out := make([]logView, 0, len(logs))
	for _, l := range logs {
		v := logView{
			ID:         l.ID.String(),
			Action:     l.Action,
			EntityType: l.EntityType,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		}
		if l.ActorID.Valid {
			v.ActorID = l.ActorID.UUID.String()
		}
		if l.EntityID != nil {
			v.EntityID = *l.EntityID
		}
		if l.IP != nil {
			v.IP = *l.IP
		}
		if len(l.Metadata) > 0 {
			v.Metadata = jsonRaw(l.Metadata)
		}
		out = append(out, v)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func jsonRaw(b []byte) any {
	return json.RawMessage(b)
}
