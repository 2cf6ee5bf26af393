package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/seanodera/Datasmith/internal/datasmith/entity"
)

type Handler interface {
	Handle(ctx context.Context, n entity.Notification) error
}

type HandlerFunc func(ctx context.Context, n entity.Notification) error

func (f HandlerFunc) Handle(ctx context.Context, n entity.Notification) error {
	return f(ctx, n)
}

type DispatcherConfig struct {
	// Workers defaults to 1, which keeps notifications in publish order.
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration

	// DedupeWindow is how many recent notification IDs are remembered.
	DedupeWindow int
}

const defaultDedupeWindow = 1024

// Dispatcher drains the bus and hands every notification to each handler,
// retrying a failing handler with exponential backoff. An ID seen within the
// last DedupeWindow notifications is not delivered again.
type Dispatcher struct {
	bus         *Bus
	handlers    []Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        *recentIDs
	wg          sync.WaitGroup
}

func NewDispatcher(bus *Bus, cfg DispatcherConfig, handlers ...Handler) *Dispatcher {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	window := cfg.DedupeWindow
	if window < 1 {
		window = defaultDedupeWindow
	}

	return &Dispatcher{
		bus:         bus,
		handlers:    handlers,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		seen:        newRecentIDs(window),
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Stop closes the bus and waits for queued notifications to be handled.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if d.bus != nil {
		d.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for n := range d.bus.Subscribe() {
		d.process(n)
	}
}

func (d *Dispatcher) process(n entity.Notification) {
	if n.ID != "" {
		if d.seen.check(n.ID) {
			slog.Debug("skip duplicate notification", "notification_id", n.ID)
			return
		}
	}

	for _, h := range d.handlers {
		d.deliver(h, n)
	}
}

func (d *Dispatcher) deliver(h Handler, n entity.Notification) {
	backoff := d.baseBackoff
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		err := h.Handle(context.Background(), n)
		if err == nil {
			return
		}

		if attempt == d.maxRetries {
			slog.Error("failed to deliver notification after retries", "notification_id", n.ID, "error", err)
			return
		}

		if !sleepBackoff(backoff) {
			return
		}
		backoff *= 2
	}
}

// recentIDs remembers a fixed number of the latest IDs.
type recentIDs struct {
	mu   sync.Mutex
	set  map[string]struct{}
	ring []string
	next int
}

func newRecentIDs(size int) *recentIDs {
	return &recentIDs{
		set:  make(map[string]struct{}, size),
		ring: make([]string, size),
	}
}

// check reports whether id is already remembered and remembers it if not,
// forgetting the oldest entry once the ring is full.
func (r *recentIDs) check(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.set[id]; ok {
		return true
	}

	if old := r.ring[r.next]; old != "" {
		delete(r.set, old)
	}
	r.ring[r.next] = id
	r.set[id] = struct{}{}
	r.next = (r.next + 1) % len(r.ring)

	return false
}

func sleepBackoff(d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
	return true
}

// LogHandler writes notifications to the structured log.
type LogHandler struct{}

func (LogHandler) Handle(ctx context.Context, n entity.Notification) error {
	attrs := []any{"notification_id", n.ID, "level", string(n.Level)}
	if n.Level == entity.NotificationError {
		slog.WarnContext(ctx, n.Message, attrs...)
		return nil
	}

	slog.InfoContext(ctx, n.Message, attrs...)
	return nil
}
