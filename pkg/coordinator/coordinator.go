// Package coordinator owns the store, event bus, plugin registry, scheduler
// loop and event broadcaster, and exposes the operations the API surface and
// the worker protocol are built from. It holds no transport concerns of its
// own — pkg/api wraps it in HTTP handlers.
package coordinator

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ChenxingM/RenderQ/pkg/events"
	"github.com/ChenxingM/RenderQ/pkg/eventstream"
	"github.com/ChenxingM/RenderQ/pkg/log"
	"github.com/ChenxingM/RenderQ/pkg/plugins"
	"github.com/ChenxingM/RenderQ/pkg/scheduler"
	"github.com/ChenxingM/RenderQ/pkg/storage"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

// Coordinator is the single process that owns all shared state and is
// passed by pointer to whatever needs it, rather than being reached
// through package-level singletons.
type Coordinator struct {
	Store       storage.Store
	Bus         *events.Bus
	Registry    *plugins.Registry
	Scheduler   *scheduler.Scheduler
	Broadcaster *eventstream.Broadcaster

	logDir string
	logger zerolog.Logger
}

// New wires a Coordinator from its already-constructed parts. Callers
// construct the Store, Bus, Registry and Scheduler themselves (cmd/renderq
// does this in its serve command) so tests can substitute fakes freely.
func New(store storage.Store, bus *events.Bus, registry *plugins.Registry, sched *scheduler.Scheduler, logDir string) *Coordinator {
	return &Coordinator{
		Store:       store,
		Bus:         bus,
		Registry:    registry,
		Scheduler:   sched,
		Broadcaster: eventstream.NewBroadcaster(bus),
		logDir:      logDir,
		logger:      log.WithComponent("coordinator"),
	}
}

// Start brings up the scheduler loop and the event broadcaster. The event
// bus itself is expected to already be running (constructed and started by
// the caller before New).
func (c *Coordinator) Start() {
	c.Scheduler.Start()
	c.Broadcaster.Start()
	c.logger.Info().Msg("coordinator started")
}

// Stop shuts the scheduler and then the broadcaster down (the same order
// Start brought them up in), then closes the store.
func (c *Coordinator) Stop() error {
	c.Scheduler.Stop()
	c.Broadcaster.Stop()
	c.logger.Info().Msg("coordinator stopped")
	return c.Store.Close()
}

func wrapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w", ErrNotFound)
	}
	return err
}

// wrapSchedulerErr translates scheduler package sentinels into the
// coordinator's own, the way wrapNotFound does for the store's.
func wrapSchedulerErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, scheduler.ErrUnknownPlugin):
		return fmt.Errorf("%w: %v", ErrUnknownPlugin, err)
	case errors.Is(err, scheduler.ErrValidationFailed), errors.Is(err, scheduler.ErrPartitionFailed):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return err
}

// Stats returns cardinality counts grouped by status.
func (c *Coordinator) Stats() (*types.Stats, error) {
	return c.Store.Stats()
}
