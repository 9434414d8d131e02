package pg

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The pool connects lazily, so constructing one from a parseable URL does
// not need a reachable server.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(context.Background(), "postgres://localhost:5432/schedkit_test")
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(nil, "acme"); err == nil {
		t.Fatalf("expected error for nil pool")
	}

	pool := testPool(t)
	if _, err := NewStore(pool, ""); err == nil {
		t.Fatalf("expected error for empty schema")
	}
	if _, err := NewStore(pool, `x"; DROP TABLE tasks;--`); err == nil {
		t.Fatalf("expected error for unsafe schema")
	}

	s, err := NewStore(pool, "acme_1a2b3c4d")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Schema() != "acme_1a2b3c4d" {
		t.Fatalf("Schema() = %q", s.Schema())
	}
}
