// Package cron triggers batch drains on a cron schedule, for deployments
// without an external scheduler. Overlapping fires are safe: concurrent
// batches partition the due set through the skip-locked claim.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taskdeck-org/schedkit/worker"
)

type Options struct {
	Spec   string // standard 5-field cron spec, or @every syntax
	Worker *worker.Worker

	Log      *slog.Logger   // optional
	Location *time.Location // optional, defaults to time.Local
}

type Runner struct {
	c   *cron.Cron
	w   *worker.Worker
	log *slog.Logger
}

func New(opts Options) (*Runner, error) {
	if opts.Worker == nil {
		return nil, fmt.Errorf("worker is required")
	}
	if strings.TrimSpace(opts.Spec) == "" {
		return nil, fmt.Errorf("cron spec is required")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	r := &Runner{
		c:   cron.New(cron.WithParser(parser), cron.WithLocation(loc)),
		w:   opts.Worker,
		log: log,
	}
	if _, err := r.c.AddFunc(opts.Spec, r.fire); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", opts.Spec, err)
	}
	return r, nil
}

func (r *Runner) fire() {
	if _, err := r.w.DrainOnce(context.Background()); err != nil {
		r.log.Error("scheduled drain failed", slog.Any("err", err))
	}
}

func (r *Runner) Start() { r.c.Start() }

// Stop stops scheduling new fires; the returned context is done when any
// in-flight batch finishes.
func (r *Runner) Stop() context.Context { return r.c.Stop() }
