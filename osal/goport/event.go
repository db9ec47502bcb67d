package goport

import (
	"sync"
	"time"

	"cmdshell-go/errcode"
	"cmdshell-go/osal"
)

type eventPort struct{}

func (eventPort) Create() (osal.PortEventGroup, error) {
	return &eventGroup{gen: make(chan struct{})}, nil
}

// eventGroup wakes waiters by closing a generation channel on every Set.
// Waiters re-check their condition after each wake, so all/any semantics
// live entirely on the waiting side.
type eventGroup struct {
	mu   sync.Mutex
	bits osal.EventBits
	gen  chan struct{}
}

func (g *eventGroup) Delete() error { return nil }

func (g *eventGroup) Set(bits osal.EventBits) error {
	g.mu.Lock()
	g.bits |= bits
	close(g.gen)
	g.gen = make(chan struct{})
	g.mu.Unlock()
	return nil
}

func (g *eventGroup) Clear(bits osal.EventBits) error {
	g.mu.Lock()
	g.bits &^= bits
	g.mu.Unlock()
	return nil
}

func (g *eventGroup) Active() osal.EventBits {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bits
}

func (g *eventGroup) Wait(mask osal.EventBits, clearOnExit, waitAll bool, timeout time.Duration) (osal.EventBits, error) {
	tc, stop := after(timeout)
	defer stop()
	for {
		g.mu.Lock()
		satisfied := g.bits&mask == mask
		if !waitAll {
			satisfied = g.bits&mask != 0
		}
		if satisfied {
			snap := g.bits
			if clearOnExit {
				g.bits &^= mask
			}
			g.mu.Unlock()
			return snap, nil
		}
		wake := g.gen
		g.mu.Unlock()

		select {
		case <-wake:
		case <-tc:
			g.mu.Lock()
			snap := g.bits
			g.mu.Unlock()
			return snap, errcode.Timeout
		}
	}
}
