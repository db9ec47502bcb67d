package osal

import (
	"time"

	"cmdshell-go/errcode"
)

// Lock is a mutual-exclusion handle for shared resources accessed from
// multiple tasks. Not usable from interrupt context.
type Lock struct {
	inst *Instance
	slot int
	h    PortLock
}

func (in *Instance) LockCreate() (*Lock, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	p, err := in.bound()
	if err != nil {
		return nil, err
	}
	if p.Locks == nil {
		return nil, errcode.Unsupported
	}
	h, err := p.Locks.Create()
	if err != nil {
		return nil, err
	}
	l := &Lock{inst: in, h: h}
	in.mu.Lock()
	l.slot = storeSlot(in.locks, l)
	in.mu.Unlock()
	if l.slot < 0 {
		_ = h.Delete()
		return nil, errcode.NoResource
	}
	return l, nil
}

func (l *Lock) Slot() int { return l.slot }

func (l *Lock) Delete() error {
	if l == nil || l.h == nil {
		return errcode.InvalidArgs
	}
	l.inst.mu.Lock()
	freeSlot(l.inst.locks, l.slot)
	l.inst.mu.Unlock()
	err := l.h.Delete()
	l.h = nil
	return err
}

func (l *Lock) Lock() error {
	if l == nil || l.h == nil {
		return errcode.InvalidArgs
	}
	return l.h.Lock()
}

func (l *Lock) Unlock() error {
	if l == nil || l.h == nil {
		return errcode.InvalidArgs
	}
	return l.h.Unlock()
}

// Semaphore is a counting semaphore handle.
type Semaphore struct {
	inst *Instance
	slot int
	h    PortSemaphore
}

// SemaphoreCreate fails with errcode.InvalidArgs when initValue exceeds
// maxCount.
func (in *Instance) SemaphoreCreate(maxCount, initValue int) (*Semaphore, error) {
	if in == nil || maxCount <= 0 || initValue < 0 || initValue > maxCount {
		return nil, errcode.InvalidArgs
	}
	p, err := in.bound()
	if err != nil {
		return nil, err
	}
	if p.Sems == nil {
		return nil, errcode.Unsupported
	}
	h, err := p.Sems.Create(maxCount, initValue)
	if err != nil {
		return nil, err
	}
	s := &Semaphore{inst: in, h: h}
	in.mu.Lock()
	s.slot = storeSlot(in.sems, s)
	in.mu.Unlock()
	if s.slot < 0 {
		_ = h.Delete()
		return nil, errcode.NoResource
	}
	return s, nil
}

func (s *Semaphore) Slot() int { return s.slot }

func (s *Semaphore) Delete() error {
	if s == nil || s.h == nil {
		return errcode.InvalidArgs
	}
	s.inst.mu.Lock()
	freeSlot(s.inst.sems, s.slot)
	s.inst.mu.Unlock()
	err := s.h.Delete()
	s.h = nil
	return err
}

// Acquire blocks without bound.
func (s *Semaphore) Acquire() error {
	if s == nil || s.h == nil {
		return errcode.InvalidArgs
	}
	return s.h.Acquire(WaitForever)
}

// AcquireTimeout blocks up to timeout; errcode.Timeout on expiry.
func (s *Semaphore) AcquireTimeout(timeout time.Duration) error {
	if s == nil || s.h == nil {
		return errcode.InvalidArgs
	}
	return s.h.Acquire(timeout)
}

// Release increments the count; errcode.Overflow past maxCount.
func (s *Semaphore) Release() error {
	if s == nil || s.h == nil {
		return errcode.InvalidArgs
	}
	return s.h.Release()
}

// Count returns the current count, always within [0, maxCount].
func (s *Semaphore) Count() (int, error) {
	if s == nil || s.h == nil {
		return 0, errcode.InvalidArgs
	}
	return s.h.Count(), nil
}
