package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ovenline/backend-bakery/internal/repo"
)

// Store is the persistence surface the audit service writes to.
type Store interface {
	InsertAuditLog(ctx context.Context, arg repo.InsertAuditLogParams) error
	ListAuditLogs(ctx context.Context, arg repo.ListAuditLogsParams) ([]repo.AuditLog, error)
}

// Service appends activity records. Failures are logged, never propagated:
// an audit miss must not fail the business operation it describes.
type Service struct {
	Store   Store
	Enabled bool
	Log     zerolog.Logger
}

// Entry describes one activity record.
type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Metadata   any
	IP         string
}

// Record appends one activity record.
func (s *Service) Record(ctx context.Context, e Entry) {
	if s == nil || s.Store == nil || !s.Enabled {
		return
	}
	if err := s.record(ctx, e); err != nil {
		s.Log.Error().Err(err).Str("action", e.Action).Msg("audit record failed")
	}
}

func (s *Service) record(ctx context.Context, e Entry) error {
	if e.Action == "" {
		return errors.New("audit: action is required")
	}
	var actor uuid.NullUUID
	if e.ActorID != "" {
		parsed, err := uuid.Parse(e.ActorID)
		if err != nil {
			return fmt.Errorf("audit: parse actor id: %w", err)
		}
		actor = uuid.NullUUID{UUID: parsed, Valid: true}
	}
	var metadata []byte
	if e.Metadata != nil {
		encoded, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("audit: encode metadata: %w", err)
		}
		metadata = encoded
	}
	var entityID *string
	if e.EntityID != "" {
		entityID = &e.EntityID
	}
	var ip *string
	if e.IP != "" {
		ip = &e.IP
	}
	return s.Store.InsertAuditLog(ctx, repo.InsertAuditLogParams{
		ActorID:    actor,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   entityID,
		Metadata:   metadata,
		IP:         ip,
	})
}

// List returns activity records for the admin screen.
func (s *Service) List(ctx context.Context, limit, offset int32) ([]repo.AuditLog, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("audit store not configured")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.Store.ListAuditLogs(ctx, repo.ListAuditLogsParams{Limit: limit, Offset: offset})
}
