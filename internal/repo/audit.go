package repo

import (
	"context"

	"github.com/google/uuid"
)

// InsertAuditLogParams carries one activity record.
type InsertAuditLogParams struct {
	ActorID    uuid.NullUUID
	Action     string
	EntityType string
	EntityID   *string
	Metadata   []byte
	IP         *string
}

// InsertAuditLog appends one activity record.
func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	metadata := arg.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}
	_, err := q.db.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, metadata, ip)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		arg.ActorID, arg.Action, arg.EntityType, arg.EntityID, metadata, arg.IP)
	return err
}

// ListAuditLogsParams paginates the activity listing.
type ListAuditLogsParams struct {
	Limit  int32
	Offset int32
}

// ListAuditLogs returns activity records newest first.
func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, metadata, ip, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditLog
	for rows.Next() {
		var a AuditLog
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &a.EntityType, &a.EntityID, &a.Metadata, &a.IP, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
