// Package pg implements runtime.Store on Postgres with one isolated schema
// per tenant. Tenant context is an explicit value (the schema name held by
// the Store), never ambient connection state: every query is schema-
// qualified, so one pool serves all tenants.
package pg

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdeck-org/schedkit/internal/pgident"
	"github.com/taskdeck-org/schedkit/runtime"
)

// Store is one tenant's storage handle.
type Store struct {
	pool   *pgxpool.Pool
	schema string
	qs     string // quoted schema, safe for interpolation
}

var _ runtime.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, schema string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	qs, err := pgident.Quote(schema)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Store{pool: pool, schema: schema, qs: qs}, nil
}

// Schema returns the tenant schema this store is scoped to.
func (s *Store) Schema() string { return s.schema }
