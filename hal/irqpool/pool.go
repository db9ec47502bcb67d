// Package irqpool maps a hardware peripheral handle back to the software
// object that owns it. Vendor interrupt callbacks carry no user context,
// so the static trampolines use this table to recover their owner.
package irqpool

import (
	"sync"

	"cmdshell-go/errcode"
)

// Pool is a fixed-capacity handle-resolution table. The historical design
// allowed exactly one active link; the capacity is now a parameter so more
// than one port can be open at a time.
type Pool[K comparable, V comparable] struct {
	mu    sync.RWMutex
	links []link[K, V]
}

type link[K comparable, V comparable] struct {
	hw    K
	owner V
	used  bool
}

// New returns a pool with the given number of slots (minimum 1).
func New[K comparable, V comparable](capacity int) *Pool[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool[K, V]{links: make([]link[K, V], capacity)}
}

// Add registers a hardware-handle -> owner link. A handle can be linked at
// most once; a full table is a distinct failure.
func (p *Pool[K, V]) Add(hw K, owner V) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	free := -1
	for i := range p.links {
		if p.links[i].used {
			if p.links[i].hw == hw {
				return errcode.InUse
			}
			continue
		}
		if free < 0 {
			free = i
		}
	}
	if free < 0 {
		return errcode.TableFull
	}
	p.links[free] = link[K, V]{hw: hw, owner: owner, used: true}
	return nil
}

// RemoveByOwner unlinks every entry owned by owner.
func (p *Pool[K, V]) RemoveByOwner(owner V) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	found := false
	for i := range p.links {
		if p.links[i].used && p.links[i].owner == owner {
			p.links[i] = link[K, V]{}
			found = true
		}
	}
	if !found {
		return errcode.NotFound
	}
	return nil
}

// Lookup resolves a hardware handle to its owner. Called from the
// interrupt trampolines; read-locked only.
func (p *Pool[K, V]) Lookup(hw K) (V, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for i := range p.links {
		if p.links[i].used && p.links[i].hw == hw {
			return p.links[i].owner, true
		}
	}
	var zero V
	return zero, false
}

// Len returns the number of active links.
func (p *Pool[K, V]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := 0
	for i := range p.links {
		if p.links[i].used {
			n++
		}
	}
	return n
}
