package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/freelancer-bff/internal/events"
)

// AuditRepository persists authentication audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event events.Event) error
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository returns a Postgres-backed implementation, or nil when
// no pool is configured.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	if pool == nil {
		return nil
	}
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Insert(ctx context.Context, event events.Event) error {
	const query = `
        INSERT INTO auth_audit_events
            (id, event_type, subject_id, username, method, path, remote_ip, reason, roles, occurred_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10)
        ON CONFLICT (id) DO NOTHING`

	id, err := uuid.Parse(event.ID)
	if err != nil {
		return fmt.Errorf("audit event id: %w", err)
	}

	roles := make([]string, len(event.Roles))
	for i, role := range event.Roles {
		roles[i] = string(role)
	}

	_, err = r.pool.Exec(ctx, query,
		id,
		string(event.Type),
		event.SubjectID,
		event.Username,
		event.Method,
		event.Path,
		event.RemoteIP,
		event.Reason,
		roles,
		event.OccurredAt,
	)
	return err
}
