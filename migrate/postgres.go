// Package migrate applies schedkit's tenant tables to already-provisioned
// schemas. Creating the schemas themselves (and the shared organization and
// account tables) is the host application's migration phase.
package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdeck-org/schedkit/internal/pgident"
	"github.com/taskdeck-org/schedkit/migrations"
)

// ApplyPostgres applies schedkit's migrations to one tenant schema, in one
// transaction with search_path pinned to that schema.
func ApplyPostgres(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	quotedSchema, err := pgident.Quote(schema)
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	if pool == nil {
		return fmt.Errorf("pool is required")
	}

	dirEntries, err := fs.ReadDir(migrations.Postgres, "postgres")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}

	var files []string
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		if strings.HasSuffix(de.Name(), ".up.sql") {
			files = append(files, de.Name())
		}
	}
	sort.Strings(files)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire pg connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL search_path = %s", quotedSchema)); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	for _, f := range files {
		raw, err := fs.ReadFile(migrations.Postgres, "postgres/"+f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := tx.Exec(ctx, string(raw)); err != nil {
			return fmt.Errorf("apply migration %s: %w", f, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ApplyAll applies the migrations to every listed tenant schema.
func ApplyAll(ctx context.Context, pool *pgxpool.Pool, schemas []string) error {
	for _, schema := range schemas {
		if err := ApplyPostgres(ctx, pool, schema); err != nil {
			return fmt.Errorf("schema %s: %w", schema, err)
		}
	}
	return nil
}
