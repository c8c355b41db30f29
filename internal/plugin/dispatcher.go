package plugin

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/app"
)

// dispatchQueue bounds the clicks waiting for a plugin run.
const dispatchQueue = 4

// Binding ties a gesture to a plugin action.
type Binding struct {
	Plugin string
	Action string
	Config map[string]any
}

// Dispatcher runs the bound plugin action on every click. It is an
// app.TransitionObserver; plugins run on a single background worker and
// clicks arriving while the queue is full are dropped.
type Dispatcher struct {
	plugin   *Plugin
	executor *Executor
	binding  Binding
	config   json.RawMessage
	logger   *slog.Logger

	mu     sync.Mutex
	queue  chan *Request
	closed bool
	wg     sync.WaitGroup

	succeeded atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher resolves the binding against m.
func NewDispatcher(m *Manager, e *Executor, b Binding, logger *slog.Logger) (*Dispatcher, error) {
	plugin, err := m.Resolve(b.Plugin, b.Action)
	if err != nil {
		return nil, err
	}
	var config json.RawMessage
	if len(b.Config) > 0 {
		if config, err = json.Marshal(b.Config); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		plugin:   plugin,
		executor: e,
		binding:  b,
		config:   config,
		logger:   logger.With("component", "dispatcher", "plugin", b.Plugin, "action", b.Action),
		queue:    make(chan *Request, dispatchQueue),
	}, nil
}

// Start runs the worker until ctx is done or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case req, ok := <-d.queue:
				if !ok {
					return
				}
				d.run(ctx, req)
			}
		}
	}()
}

func (d *Dispatcher) run(ctx context.Context, req *Request) {
	resp, err := d.executor.Execute(ctx, d.plugin, req)
	switch {
	case err != nil:
		d.failed.Add(1)
		d.logger.Warn("plugin failed", "err", err)
	case !resp.Success:
		d.failed.Add(1)
		d.logger.Warn("plugin reported failure", "err", resp.Error)
	default:
		d.succeeded.Add(1)
		d.logger.Debug("plugin ran")
	}
}

// OnTransition queues a plugin run when cur starts a fist.
func (d *Dispatcher) OnTransition(prev, cur app.FrameResult) {
	if !app.IsClick(prev, cur) {
		return
	}

	req := &Request{
		Action:  d.binding.Action,
		Gesture: string(cur.Status),
		Config:  d.config,
	}
	if cur.Position != nil {
		req.Position = &Position{
			X:      cur.Position.PalmCenter.X,
			Y:      cur.Position.PalmCenter.Y,
			Width:  cur.Width,
			Height: cur.Height,
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- req:
	default:
		d.dropped.Add(1)
		d.logger.Debug("click dropped, plugin busy")
	}
}

// DispatchStats counts plugin runs.
type DispatchStats struct {
	Succeeded uint64
	Failed    uint64
	Dropped   uint64
}

// Stats returns run counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Succeeded: d.succeeded.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// Close stops accepting clicks, lets the worker finish queued runs and
// waits for it.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
	return nil
}
