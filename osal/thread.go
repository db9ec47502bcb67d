package osal

import (
	"time"

	"cmdshell-go/errcode"
)

// Thread is a binding-managed worker thread handle.
type Thread struct {
	inst *Instance
	slot int
	h    PortThread
}

func (in *Instance) ThreadCreate(cfg ThreadConfig) (*Thread, error) {
	if in == nil || cfg.Worker == nil {
		return nil, errcode.InvalidArgs
	}
	p, err := in.bound()
	if err != nil {
		return nil, err
	}
	if p.Threads == nil {
		return nil, errcode.Unsupported
	}
	h, err := p.Threads.Create(cfg)
	if err != nil {
		return nil, err
	}
	t := &Thread{inst: in, h: h}
	in.mu.Lock()
	t.slot = storeSlot(in.threads, t)
	in.mu.Unlock()
	if t.slot < 0 {
		_ = h.Delete()
		return nil, errcode.NoResource
	}
	return t, nil
}

// Sleep delays the calling thread.
func (in *Instance) Sleep(d time.Duration) error {
	p, err := in.bound()
	if err != nil {
		return err
	}
	if p.Threads == nil {
		return errcode.Unsupported
	}
	p.Threads.Sleep(d)
	return nil
}

func (t *Thread) Slot() int { return t.slot }

// Delete frees the thread handle. The caller must stop the worker first;
// a binding may refuse with errcode.Busy while the worker is running, in
// which case the handle stays valid.
func (t *Thread) Delete() error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	if err := t.h.Delete(); err != nil {
		return err
	}
	t.inst.mu.Lock()
	freeSlot(t.inst.threads, t.slot)
	t.inst.mu.Unlock()
	t.h = nil
	return nil
}

func (t *Thread) Start() error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	return t.h.Start()
}

// Stop requests the worker to finish. Best-effort: a worker blocked in an
// unbounded wait must additionally be woken by its owner (the shell posts
// a shutdown message for exactly this reason).
func (t *Thread) Stop() error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	return t.h.Stop()
}

// Join blocks until the worker has returned, up to d; a negative d waits
// without bound.
func (t *Thread) Join(d time.Duration) error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	return t.h.Join(d)
}

func (t *Thread) Suspend() error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	return t.h.Suspend()
}

func (t *Thread) Resume() error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	return t.h.Resume()
}
