package cron

import (
	"context"
	"testing"

	"github.com/taskdeck-org/schedkit/tenants"
	"github.com/taskdeck-org/schedkit/worker"
)

type noTenants struct{}

func (noTenants) ListActive(ctx context.Context) ([]tenants.Tenant, error) { return nil, nil }

func testWorker(t *testing.T) *worker.Worker {
	t.Helper()
	w, err := worker.New(worker.Options{
		Tenants: noTenants{},
		Open:    func(tenants.Tenant) (worker.Processor, error) { return nil, nil },
	})
	if err != nil {
		t.Fatalf("worker.New: %v", err)
	}
	return w
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Options{Spec: "* * * * *"}); err == nil {
		t.Fatalf("expected error for missing worker")
	}
	if _, err := New(Options{Worker: testWorker(t)}); err == nil {
		t.Fatalf("expected error for missing spec")
	}
	if _, err := New(Options{Worker: testWorker(t), Spec: "not a spec"}); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestNewAcceptsStandardSpecs(t *testing.T) {
	for _, spec := range []string{"* * * * *", "*/5 * * * *", "@hourly", "@every 30s"} {
		if _, err := New(Options{Worker: testWorker(t), Spec: spec}); err != nil {
			t.Fatalf("spec %q rejected: %v", spec, err)
		}
	}
}
