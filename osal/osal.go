// Package osal is the operating-system abstraction layer: portable
// synchronization and scheduling primitives addressed through handles held
// in fixed-capacity slot tables. A concrete binding is injected through
// the Portable table; the instance itself never talks to an RTOS directly.
package osal

import (
	"sync"

	"cmdshell-go/errcode"
)

// Capacities bounds each slot table. Zero fields take the defaults.
type Capacities struct {
	Queues     int
	Locks      int
	Semaphores int
	Streams    int
	Timers     int
	Events     int
	Threads    int
}

// DefaultCapacities matches a small single-shell deployment.
func DefaultCapacities() Capacities {
	return Capacities{
		Queues:     4,
		Locks:      4,
		Semaphores: 4,
		Streams:    2,
		Timers:     4,
		Events:     2,
		Threads:    2,
	}
}

func (c *Capacities) normalize() {
	d := DefaultCapacities()
	if c.Queues <= 0 {
		c.Queues = d.Queues
	}
	if c.Locks <= 0 {
		c.Locks = d.Locks
	}
	if c.Semaphores <= 0 {
		c.Semaphores = d.Semaphores
	}
	if c.Streams <= 0 {
		c.Streams = d.Streams
	}
	if c.Timers <= 0 {
		c.Timers = d.Timers
	}
	if c.Events <= 0 {
		c.Events = d.Events
	}
	if c.Threads <= 0 {
		c.Threads = d.Threads
	}
}

// Instance owns the slot tables and the portable binding. Handles are
// created and destroyed individually by their owners, independent of the
// instance lifetime.
type Instance struct {
	parent   any
	name     string
	portable *Portable

	mu      sync.Mutex
	queues  []*Queue
	locks   []*Lock
	sems    []*Semaphore
	streams []*StreamBuffer
	timers  []*Timer
	events  []*EventGroup
	threads []*Thread
}

// New returns a zero-initialized instance bound to the given portable
// table. A nil portable is allowed; every operation then fails with
// errcode.NotBound until the caller provides one via Bind.
func New(parent any, name string, p *Portable, caps Capacities) *Instance {
	caps.normalize()
	return &Instance{
		parent:   parent,
		name:     name,
		portable: p,
		queues:   make([]*Queue, caps.Queues),
		locks:    make([]*Lock, caps.Locks),
		sems:     make([]*Semaphore, caps.Semaphores),
		streams:  make([]*StreamBuffer, caps.Streams),
		timers:   make([]*Timer, caps.Timers),
		events:   make([]*EventGroup, caps.Events),
		threads:  make([]*Thread, caps.Threads),
	}
}

func (in *Instance) Name() string { return in.name }
func (in *Instance) Parent() any  { return in.parent }

// Bind replaces the portable table.
func (in *Instance) Bind(p *Portable) error {
	if in == nil || p == nil {
		return errcode.InvalidArgs
	}
	in.portable = p
	return nil
}

// Deinit clears every slot table. Port-side handles still held by owners
// remain valid; only the instance's bookkeeping is dropped.
func (in *Instance) Deinit() error {
	if in == nil {
		return errcode.InvalidArgs
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	clearSlots(in.queues)
	clearSlots(in.locks)
	clearSlots(in.sems)
	clearSlots(in.streams)
	clearSlots(in.timers)
	clearSlots(in.events)
	clearSlots(in.threads)
	return nil
}

// bound reports the portable table, distinguishing an unbound instance
// from a nil one.
func (in *Instance) bound() (*Portable, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	if in.portable == nil {
		return nil, errcode.NotBound
	}
	return in.portable, nil
}

// ---- slot helpers ----

func storeSlot[T any](slots []*T, v *T) int {
	for i := range slots {
		if slots[i] == nil {
			slots[i] = v
			return i
		}
	}
	return -1
}

func freeSlot[T any](slots []*T, slot int) {
	if slot >= 0 && slot < len(slots) {
		slots[slot] = nil
	}
}

func getSlot[T any](slots []*T, index int) (*T, error) {
	if index < 0 || index >= len(slots) {
		return nil, errcode.InvalidArgs
	}
	return slots[index], nil
}

func clearSlots[T any](slots []*T) {
	for i := range slots {
		slots[i] = nil
	}
}

// ---- slot accessors (stable-index handle recovery) ----

func (in *Instance) QueueHandleGet(index int) (*Queue, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return getSlot(in.queues, index)
}

func (in *Instance) LockHandleGet(index int) (*Lock, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return getSlot(in.locks, index)
}

func (in *Instance) SemaphoreHandleGet(index int) (*Semaphore, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return getSlot(in.sems, index)
}

func (in *Instance) StreamHandleGet(index int) (*StreamBuffer, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return getSlot(in.streams, index)
}

func (in *Instance) TimerHandleGet(index int) (*Timer, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return getSlot(in.timers, index)
}

func (in *Instance) EventGroupHandleGet(index int) (*EventGroup, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return getSlot(in.events, index)
}

func (in *Instance) ThreadHandleGet(index int) (*Thread, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return getSlot(in.threads, index)
}

// ---- critical sections ----

// CriticalEnter begins a short scheduler-masking section.
func (in *Instance) CriticalEnter() error {
	p, err := in.bound()
	if err != nil {
		return err
	}
	if p.Crit == nil {
		return errcode.Unsupported
	}
	p.Crit.Enter()
	return nil
}

// CriticalExit ends the section started by CriticalEnter.
func (in *Instance) CriticalExit() error {
	p, err := in.bound()
	if err != nil {
		return err
	}
	if p.Crit == nil {
		return errcode.Unsupported
	}
	p.Crit.Exit()
	return nil
}
