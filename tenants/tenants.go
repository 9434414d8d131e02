// Package tenants enumerates the organizations whose isolated schemas the
// scheduler iterates. Provisioning and lifecycle of those schemas belong to
// the host application; this package only reads the shared registry.
package tenants

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ControlSchema is the shared schema holding organizations and accounts.
// It is never processed as a tenant.
const ControlSchema = "public"

// Tenant is one organization's isolated partition, identified by its
// Postgres schema name.
type Tenant struct {
	SchemaName string
	Name       string
}

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ListActive returns active organizations, excluding the shared control
// schema.
func (r *Repo) ListActive(ctx context.Context) ([]Tenant, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("pool is required")
	}

	q := `
		SELECT schema_name, business_name
		FROM public.organizations
		WHERE is_active AND schema_name <> $1
		ORDER BY schema_name ASC
	`
	rows, err := r.pool.Query(ctx, q, ControlSchema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.SchemaName, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
