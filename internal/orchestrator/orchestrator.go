// Package orchestrator runs an Adapter/Translator graph that cmd/plagnd
// has already built from the configuration: it starts one worker per
// Adapter and drives graceful
// shutdown on SIGINT/SIGTERM. It is deliberately thin:
// the graded engineering of this system lives in internal/mqtt and
// internal/modbus, not here.
package orchestrator

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/plagn-go/plagn/internal/adapter"
	"github.com/plagn-go/plagn/internal/logging"
)

// Orchestrator owns the running Adapter set and supervises their
// workers.
type Orchestrator struct {
	InstanceID string
	Log        *logging.Logger

	adapters []adapter.Adapter
}

// New constructs an Orchestrator over the given Adapters, stamping a
// fresh instance id.
func New(adapters []adapter.Adapter, log *logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Orchestrator{
		InstanceID: uuid.NewString(),
		Log:        log,
		adapters:   adapters,
	}
}

// Run initializes every Adapter, starts one goroutine per Adapter worker
// via errgroup, installs the SIGINT/SIGTERM handler, and blocks until
// every worker has exited.
func (o *Orchestrator) Run(ctx context.Context) error {
	for _, a := range o.adapters {
		if err := a.Init(); err != nil {
			o.Log.Error("adapter init failed", logging.KV(`adapter`, a.Name()), logging.KVErr(err))
			return err
		}
		o.Log.Info("adapter initialized", logging.KV(`adapter`, a.Name()), logging.KV(`kind`, a.Kind().String()))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range o.adapters {
		a := a
		g.Go(func() error {
			adapter.Run(a, time.Now)
			return nil
		})
	}

	go func() {
		select {
		case sig := <-sigCh:
			o.Log.Info("shutdown signal received", logging.KV(`signal`, sig.String()))
		case <-gctx.Done():
		}
		o.stopAll()
	}()

	return g.Wait()
}

func (o *Orchestrator) stopAll() {
	for _, a := range o.adapters {
		a.Stop()
	}
}
