package goport

import (
	"time"

	"cmdshell-go/errcode"
	"cmdshell-go/osal"
)

// ---- locks ----

type lockPort struct{}

func (lockPort) Create() (osal.PortLock, error) {
	return &lock{ch: make(chan struct{}, 1)}, nil
}

// lock is channel-based so that an unlock without a matching lock is a
// reportable error instead of a runtime panic.
type lock struct {
	ch chan struct{}
}

func (l *lock) Delete() error { return nil }

func (l *lock) Lock() error {
	l.ch <- struct{}{}
	return nil
}

func (l *lock) Unlock() error {
	select {
	case <-l.ch:
		return nil
	default:
		return errcode.PortError
	}
}

// ---- counting semaphores ----

type semPort struct{}

func (semPort) Create(maxCount, initValue int) (osal.PortSemaphore, error) {
	s := &sem{tokens: make(chan struct{}, maxCount)}
	for i := 0; i < initValue; i++ {
		s.tokens <- struct{}{}
	}
	return s, nil
}

type sem struct {
	tokens chan struct{}
}

func (s *sem) Delete() error { return nil }

func (s *sem) Acquire(timeout time.Duration) error {
	tc, stop := after(timeout)
	defer stop()
	select {
	case <-s.tokens:
		return nil
	case <-tc:
		return errcode.Timeout
	}
}

func (s *sem) Release() error {
	select {
	case s.tokens <- struct{}{}:
		return nil
	default:
		return errcode.Overflow
	}
}

func (s *sem) Count() int { return len(s.tokens) }
