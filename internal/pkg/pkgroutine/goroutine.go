package pkgroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 10

// MaxRecordedErrors bounds the errors kept for Wait; older ones are dropped
// after being logged.
const MaxRecordedErrors = 100

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// Task errors are logged when they happen; the most recent MaxRecordedErrors
// of them are returned by Wait.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      *sync.WaitGroup
	sema    chan struct{}
	running atomic.Int64
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}

	return &Manager{
		wg:   &sync.WaitGroup{},
		sema: make(chan struct{}, maxGoroutine), // Semaphore to limit goroutines
	}
}

// Go schedules a function to run in a goroutine.
//
// When the manager is at its concurrency limit the call blocks until a slot
// frees up or pCtx is done; in the latter case the function is not run and a
// warning is logged. A panic inside f is recovered and recorded as an error.
func (g *Manager) Go(pCtx context.Context, f func(ctx context.Context) error) {
	select {
	case g.sema <- struct{}{}: // Acquire a semaphore slot
	case <-pCtx.Done():
		slog.WarnContext(pCtx, "goroutine canceled before start", "because", pCtx.Err())
		return
	}

	g.wg.Add(1)
	g.running.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			<-g.sema // Release semaphore slot
			g.running.Add(-1)

			if rvr := recover(); rvr != nil {
				stack := debug.Stack()
				slog.ErrorContext(pCtx, "panic occurred in goroutine", "because", rvr, "stack", string(stack))
				g.record(pCtx, fmt.Errorf("goroutine panic: %v", rvr))
			}
		}()

		select {
		case <-pCtx.Done():
			slog.WarnContext(pCtx, "goroutine canceled", "because", pCtx.Err())
		default:
			if err := f(pCtx); err != nil {
				g.record(pCtx, err)
			}
		}
	}()
}

// Running returns how many scheduled functions have not finished yet.
func (g *Manager) Running() int {
	return int(g.running.Load())
}

func (g *Manager) record(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "goroutine returned an error", "error", err)

	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.errs) == MaxRecordedErrors {
		copy(g.errs, g.errs[1:])
		g.errs = g.errs[:len(g.errs)-1]
	}
	g.errs = append(g.errs, err)
}

// Wait blocks until all scheduled goroutines finish and returns the recorded
// errors, clearing them.
func (g *Manager) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()

	err := errors.Join(g.errs...)
	g.errs = nil
	return err
}
