package tenants

import (
	"context"
	"testing"
)

func TestListActiveRequiresPool(t *testing.T) {
	if _, err := NewRepo(nil).ListActive(context.Background()); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}
