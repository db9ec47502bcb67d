package goport

import (
	"context"
	"sync"
	"time"

	"cmdshell-go/errcode"
	"cmdshell-go/osal"
)

type threadPort struct{}

func (threadPort) Create(cfg osal.ThreadConfig) (osal.PortThread, error) {
	return &thread{cfg: cfg}, nil
}

func (threadPort) Sleep(d time.Duration) { time.Sleep(d) }

// thread runs the configured worker on a goroutine. StackSize and
// Priority are accepted for contract compatibility; the Go scheduler
// manages both.
type thread struct {
	cfg osal.ThreadConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *thread) running() bool {
	if t.done == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *thread) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running() {
		return errcode.Busy
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	go func() {
		defer close(done)
		t.cfg.Worker(ctx, t.cfg.Param)
	}()
	return nil
}

// Stop cancels the worker context. Best-effort: a worker blocked in an
// unbounded wait keeps running until its owner wakes it.
func (t *thread) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel == nil {
		return errcode.InvalidArgs
	}
	t.cancel()
	return nil
}

func (t *thread) Join(d time.Duration) error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return errcode.InvalidArgs
	}
	if d < 0 {
		<-done
		return nil
	}
	select {
	case <-done:
		return nil
	case <-time.After(d):
		return errcode.Timeout
	}
}

func (t *thread) Suspend() error { return errcode.Unsupported }
func (t *thread) Resume() error  { return errcode.Unsupported }

func (t *thread) Delete() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running() {
		return errcode.Busy
	}
	t.cancel = nil
	t.done = nil
	return nil
}
