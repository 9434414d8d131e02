package migrate

import (
	"context"
	"strings"
	"testing"
)

// Schema validation happens before any connection is touched.
func TestApplyPostgresRejectsBadSchema(t *testing.T) {
	for _, schema := range []string{"", "  ", `x"; DROP SCHEMA public;--`, "has space"} {
		err := ApplyPostgres(context.Background(), nil, schema)
		if err == nil || !strings.Contains(err.Error(), "invalid schema") {
			t.Fatalf("schema %q: err = %v, want invalid schema", schema, err)
		}
	}
}

func TestApplyPostgresRequiresPool(t *testing.T) {
	if err := ApplyPostgres(context.Background(), nil, "acme"); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}

func TestApplyAllNamesFailingSchema(t *testing.T) {
	err := ApplyAll(context.Background(), nil, []string{"good_schema", "bad schema"})
	if err == nil || !strings.Contains(err.Error(), "good_schema") {
		// ApplyAll stops at the first failure; with a nil pool that is the
		// first schema.
		t.Fatalf("err = %v, want wrapped schema name", err)
	}
}
