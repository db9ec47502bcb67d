package osal

import (
	"time"

	"cmdshell-go/errcode"
)

// Timer is a software timer handle.
type Timer struct {
	inst *Instance
	slot int
	h    PortTimer
}

func (in *Instance) TimerCreate(cfg TimerConfig) (*Timer, error) {
	if in == nil || cfg.Expired == nil || cfg.Period <= 0 {
		return nil, errcode.InvalidArgs
	}
	p, err := in.bound()
	if err != nil {
		return nil, err
	}
	if p.Timers == nil {
		return nil, errcode.Unsupported
	}
	h, err := p.Timers.Create(cfg)
	if err != nil {
		return nil, err
	}
	t := &Timer{inst: in, h: h}
	in.mu.Lock()
	t.slot = storeSlot(in.timers, t)
	in.mu.Unlock()
	if t.slot < 0 {
		_ = h.Delete()
		return nil, errcode.NoResource
	}
	return t, nil
}

func (t *Timer) Slot() int { return t.slot }

func (t *Timer) Delete() error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	t.inst.mu.Lock()
	freeSlot(t.inst.timers, t.slot)
	t.inst.mu.Unlock()
	err := t.h.Delete()
	t.h = nil
	return err
}

func (t *Timer) Start() error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	return t.h.Start()
}

func (t *Timer) Stop() error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	return t.h.Stop()
}

// Reset restarts the period from now.
func (t *Timer) Reset() error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	return t.h.Reset()
}

func (t *Timer) SetPeriod(d time.Duration) error {
	if t == nil || t.h == nil {
		return errcode.InvalidArgs
	}
	if d <= 0 {
		return errcode.InvalidArgs
	}
	return t.h.SetPeriod(d)
}
