// Package worker drives the batch: it enumerates active tenants and drains
// each tenant's due scheduled tasks, one claim at a time. The worker is a
// driver and counter only; all per-item business logic lives in runtime.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/taskdeck-org/schedkit/runtime"
	"github.com/taskdeck-org/schedkit/tenants"
)

// TenantLister enumerates the tenants to process.
type TenantLister interface {
	ListActive(ctx context.Context) ([]tenants.Tenant, error)
}

// Processor drains one tenant's due set, one claim per call.
type Processor interface {
	ProcessNext(ctx context.Context) (runtime.Result, bool, error)
}

// OpenFunc builds the per-tenant processor for one tenant.
type OpenFunc func(t tenants.Tenant) (Processor, error)

type Options struct {
	Tenants TenantLister
	Open    OpenFunc
	Log     *slog.Logger

	PollEvery         time.Duration
	MaxPerTenant      int
	TenantConcurrency int
	MaxItemsPerSecond float64 // 0 = unpaced
	TenantTimeout     time.Duration
	ItemTimeout       time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.PollEvery <= 0 {
		out.PollEvery = 30 * time.Second
	}
	if out.MaxPerTenant <= 0 {
		out.MaxPerTenant = 500
	}
	if out.TenantConcurrency <= 0 {
		out.TenantConcurrency = 4
	}
	if out.TenantTimeout <= 0 {
		out.TenantTimeout = 5 * time.Minute
	}
	if out.ItemTimeout <= 0 {
		out.ItemTimeout = 30 * time.Second
	}
	if out.Log == nil {
		out.Log = slog.Default()
	}
	return out
}

// Summary is the batch report across all tenants.
type Summary struct {
	Processed int
	Failed    int
}

type Worker struct {
	cfg     Options
	limiter *rate.Limiter
}

func New(opts Options) (*Worker, error) {
	if opts.Tenants == nil {
		return nil, fmt.Errorf("tenant lister is required")
	}
	if opts.Open == nil {
		return nil, fmt.Errorf("open func is required")
	}
	cfg := opts.withDefaults()
	w := &Worker{cfg: cfg}
	if cfg.MaxItemsPerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(cfg.MaxItemsPerSecond), 1)
	}
	return w, nil
}

// DrainOnce processes every tenant's currently due scheduled tasks and
// returns the batch summary. Failures are contained at the smallest unit:
// a failed item only bumps the failed counter, and one tenant's error never
// stops another tenant's batch.
func (w *Worker) DrainOnce(ctx context.Context) (Summary, error) {
	tl, err := w.cfg.Tenants.ListActive(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list tenants: %w", err)
	}

	// Tenant schemas are fully isolated, so cross-tenant parallelism is safe.
	var processed, failed atomic.Int64
	sem := make(chan struct{}, w.cfg.TenantConcurrency)
	var wg sync.WaitGroup
	for _, t := range tl {
		t := t
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			p, f := w.drainTenant(ctx, t)
			processed.Add(int64(p))
			failed.Add(int64(f))
		}()
	}
	wg.Wait()

	sum := Summary{Processed: int(processed.Load()), Failed: int(failed.Load())}
	w.cfg.Log.Info("batch completed",
		slog.Int("processed", sum.Processed),
		slog.Int("failed", sum.Failed),
		slog.Int("tenants", len(tl)))
	return sum, nil
}

func (w *Worker) drainTenant(ctx context.Context, t tenants.Tenant) (processed, failed int) {
	log := w.cfg.Log.With(slog.String("tenant", t.SchemaName))

	tctx, cancel := context.WithTimeout(ctx, w.cfg.TenantTimeout)
	defer cancel()

	proc, err := w.cfg.Open(t)
	if err != nil {
		log.Error("tenant open failed", slog.Any("err", err))
		return 0, 0
	}

	for i := 0; i < w.cfg.MaxPerTenant; i++ {
		if w.limiter != nil {
			if err := w.limiter.Wait(tctx); err != nil {
				return processed, failed
			}
		}

		ictx, icancel := context.WithTimeout(tctx, w.cfg.ItemTimeout)
		res, ok, err := proc.ProcessNext(ictx)
		icancel()
		if err != nil {
			log.Error("tenant batch aborted", slog.Any("err", err))
			return processed, failed
		}
		if !ok {
			// Due set drained, or every remaining row is claimed by a
			// concurrent invocation. Either way this tenant is done.
			return processed, failed
		}
		if res.Failed() {
			failed++
		} else {
			processed++
		}
	}
	return processed, failed
}

// Run drains on a fixed interval until the context is canceled. Hosts that
// trigger batches externally (cron, a job queue) use DrainOnce instead.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.DrainOnce(ctx); err != nil {
				w.cfg.Log.Error("batch failed", slog.Any("err", err))
			}
		}
	}
}
