package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck-org/schedkit/audit"
)

// RecordAudit appends an audit entry on the pool, outside any claim
// transaction. Callers treat failures as best-effort; this method still
// reports them so they can be logged.
func (s *Store) RecordAudit(ctx context.Context, e *audit.Entry) error {
	if e == nil {
		return fmt.Errorf("entry is required")
	}
	if e.Action == "" {
		return fmt.Errorf("action type is required")
	}

	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	md := e.Metadata
	if md == nil {
		md = map[string]any{}
	}
	var ip any
	if e.IPAddress != "" {
		ip = e.IPAddress
	}

	q := fmt.Sprintf(`
		INSERT INTO %s.audit_logs (audit_log_id, user_id, action_type,
			description, metadata, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.qs)
	_, err := s.pool.Exec(ctx, q,
		id, e.Actor, e.Action, e.Description, md, ip, e.UserAgent, createdAt.UTC())
	return err
}
