package pg

import (
	"context"

	"github.com/google/uuid"
)

// UserEmails resolves account emails for notification payloads. Accounts
// live in the shared control schema, not the tenant schema.
func (s *Store) UserEmails(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	q := `
		SELECT user_id, email
		FROM public.user_accounts
		WHERE user_id = ANY($1::uuid[])
	`
	rows, err := s.pool.Query(ctx, q, raw)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, err
		}
		out[id] = email
	}
	return out, rows.Err()
}
