package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/hearthapp/hearthledger-backend/pkg/logger"
	"github.com/hearthapp/hearthledger-backend/pkg/metrics"
)

// HandlerFunc processes one event. Handlers must not depend on each other's
// side effects; ordering is only guaranteed within a single kind's
// registration order.
type HandlerFunc func(ctx context.Context, evt Event) error

type registration struct {
	name string
	fn   HandlerFunc
}

// Dispatcher is a typed registry mapping event kind to an ordered list of
// handlers, invoked synchronously on Publish.
type Dispatcher struct {
	mtx      sync.RWMutex
	handlers map[Kind][]registration
	logg     *logger.Logger
	metrics  *metrics.EventMetrics
}

// NewDispatcher builds an empty dispatcher. Both collaborators may be nil in
// tests.
func NewDispatcher(logg *logger.Logger, em *metrics.EventMetrics) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Kind][]registration),
		logg:     logg,
		metrics:  em,
	}
}

// Subscribe appends a named handler to the kind's invocation list.
func (d *Dispatcher) Subscribe(kind Kind, name string, fn HandlerFunc) {
	if fn == nil {
		return
	}
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.handlers[kind] = append(d.handlers[kind], registration{name: name, fn: fn})
}

// Publish runs every handler registered for the event's kind. Failures are
// isolated per handler: a panicking or erroring handler is logged and counted
// and the remaining handlers still run. Publish never fails the caller;
// progression is best effort relative to the triggering financial write.
func (d *Dispatcher) Publish(ctx context.Context, evt Event) {
	if evt == nil {
		return
	}

	d.mtx.RLock()
	regs := d.handlers[evt.Kind()]
	d.mtx.RUnlock()

	d.metrics.IncPublished(string(evt.Kind()))

	var failures error
	for _, reg := range regs {
		start := time.Now()
		err := d.invoke(ctx, reg, evt)
		d.metrics.ObserveHandlerDuration(string(evt.Kind()), reg.name, time.Since(start))
		if err != nil {
			d.metrics.IncHandlerFailure(string(evt.Kind()), reg.name)
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", reg.name, err))
		}
	}

	if failures != nil && d.logg != nil {
		ctx = d.logg.WithFields(ctx, map[string]any{
			"event_kind":    string(evt.Kind()),
			"handler_count": len(regs),
		})
		d.logg.Error(ctx, "event.handler_failures", failures)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, reg registration, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return reg.fn(ctx, evt)
}
