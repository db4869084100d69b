package postgres

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	authcore "github.com/matchday/authcore"
)

// AuditSink appends audit events to the audit_events table. Inserts are
// best-effort: failures are logged and never propagate.
type AuditSink struct {
	pool *pgxpool.Pool
}

func NewAuditSink(pool *pgxpool.Pool) *AuditSink {
	return &AuditSink{pool: pool}
}

func (s *AuditSink) Emit(ctx context.Context, event authcore.AuditEvent) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events (
			occurred_at, action, actor_id, actor_name,
			entity_type, entity_id, entity_name, description,
			old_values, new_values, ip, user_agent, success, error
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		event.Timestamp, string(event.Action),
		nullString(event.ActorID), nullString(event.ActorName),
		nullString(event.EntityType), nullString(event.EntityID),
		nullString(event.EntityName), nullString(event.Description),
		[]byte(event.OldValues), []byte(event.NewValues),
		nullString(event.IP), nullString(event.UserAgent),
		event.Success, nullString(event.Error),
	)
	if err != nil {
		log.Printf("postgres: audit insert failed: %v", err)
	}
}
