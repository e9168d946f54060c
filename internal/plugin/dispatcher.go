package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ayusman/padam/internal/gesture"
)

// DefaultQueueSize is the number of events a Dispatcher buffers before it
// starts dropping.
const DefaultQueueSize = 32

// Binding is the plugin action a move triggers.
type Binding struct {
	Plugin string
	Action string
	Config json.RawMessage
}

// Resolver finds the binding for a move. It returns nil, nil when the move
// is not bound.
type Resolver interface {
	Resolve(move gesture.Move) (*Binding, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(move gesture.Move) (*Binding, error)

// Resolve calls f(move).
func (f ResolverFunc) Resolve(move gesture.Move) (*Binding, error) {
	return f(move)
}

// Dispatcher runs the plugin bound to each event on a single background
// worker. Dispatch never blocks: when the queue is full the event is
// dropped and logged. Events are executed in the order they were queued,
// so a key_down bound to a start move always precedes the key_up of the
// matching end move.
type Dispatcher struct {
	plugins  *Manager
	exec     *Executor
	resolver Resolver
	log      *zap.Logger

	queue chan gesture.Event
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc

	dropped  atomic.Int64
	executed atomic.Int64
	failed   atomic.Int64
}

// NewDispatcher creates a dispatcher with a queue of the given size.
func NewDispatcher(plugins *Manager, exec *Executor, resolver Resolver, log *zap.Logger, size int) *Dispatcher {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		plugins:  plugins,
		exec:     exec,
		resolver: resolver,
		log:      log.Named("dispatch"),
		queue:    make(chan gesture.Event, size),
	}
}

// Start launches the worker. It stops when ctx is cancelled or Close is
// called. Calling Start more than once has no effect.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go d.run(ctx)
}

// Dispatch queues ev and reports whether it was accepted.
func (d *Dispatcher) Dispatch(ev gesture.Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	select {
	case d.queue <- ev:
		return true
	default:
		d.dropped.Add(1)
		d.log.Warn("plugin queue full, dropping event",
			zap.String("move", string(ev.Move)),
			zap.Int("frame", ev.FrameIndex),
			zap.Int("queue_size", cap(d.queue)))
		return false
	}
}

// Close stops accepting events, drains what is queued and waits for the
// worker to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if started {
		d.wg.Wait()
		d.cancel()
	}
}

// Stats returns the executed, failed and dropped event counts.
func (d *Dispatcher) Stats() (executed, failed, dropped int64) {
	return d.executed.Load(), d.failed.Load(), d.dropped.Load()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-d.queue:
			if !ok {
				return
			}
			if err := d.handle(ctx, ev); err != nil {
				d.failed.Add(1)
				d.log.Warn("plugin action failed",
					zap.String("move", string(ev.Move)),
					zap.Int("frame", ev.FrameIndex),
					zap.Error(err))
			}
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev gesture.Event) error {
	b, err := d.resolver.Resolve(ev.Move)
	if err != nil {
		return fmt.Errorf("resolve binding: %w", err)
	}
	if b == nil {
		return nil
	}

	p, err := d.plugins.Get(b.Plugin)
	if err != nil {
		return fmt.Errorf("%w: %s", err, b.Plugin)
	}
	if !p.Manifest.Supports(b.Action) {
		return fmt.Errorf("plugin %s has no action %q", b.Plugin, b.Action)
	}

	resp, err := d.exec.Execute(ctx, p, &Request{
		Action:     b.Action,
		Move:       string(ev.Move),
		FrameIndex: ev.FrameIndex,
		FPS:        ev.FPS,
		Config:     b.Config,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s: %s", b.Plugin, resp.Error)
	}

	d.executed.Add(1)
	d.log.Debug("plugin action executed",
		zap.String("move", string(ev.Move)),
		zap.String("plugin", b.Plugin),
		zap.String("action", b.Action))
	return nil
}
