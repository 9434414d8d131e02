// Package schedkit is the recurring scheduled-task processor for a
// multi-tenant task-management backend: per tenant schema, it claims due
// scheduled tasks under skip-locked row locks, materializes them into
// concrete tasks, computes the next recurrence, and records audit and
// failure state. The HTTP API, authentication, and tenant provisioning
// belong to the host application.
package schedkit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskdeck-org/schedkit/notify"
	"github.com/taskdeck-org/schedkit/pg"
	"github.com/taskdeck-org/schedkit/runtime"
	"github.com/taskdeck-org/schedkit/tenants"
	"github.com/taskdeck-org/schedkit/worker"
)

type Options struct {
	Pool *pgxpool.Pool

	Notifier notify.Dispatcher // optional, defaults to log-only dispatch
	Log      *slog.Logger      // optional
	Now      func() time.Time  // optional, injectable for tests

	Worker worker.Options // Tenants, Open, and Log are filled in here
}

// NewWorker wires the tenant enumerator, per-tenant Postgres stores, and
// processors into a batch worker. Hosts with their own wiring can assemble
// the pieces directly instead.
func NewWorker(opts Options) (*worker.Worker, error) {
	if opts.Pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = &notify.LogDispatcher{Log: log}
	}

	wopts := opts.Worker
	wopts.Log = log
	wopts.Tenants = tenants.NewRepo(opts.Pool)
	wopts.Open = func(t tenants.Tenant) (worker.Processor, error) {
		store, err := pg.NewStore(opts.Pool, t.SchemaName)
		if err != nil {
			return nil, err
		}
		p, err := runtime.New(runtime.Options{
			Store:    store,
			Tenant:   t.SchemaName,
			Notifier: notifier,
			Log:      log,
			Now:      opts.Now,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return worker.New(wopts)
}
