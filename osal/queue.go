package osal

import (
	"time"

	"cmdshell-go/errcode"
)

// Queue is a message queue handle occupying one slot in its instance.
type Queue struct {
	inst *Instance
	slot int
	h    PortQueue
}

// QueueCreate allocates a queue of depth items through the portable
// binding and stores the handle in the first free slot.
func (in *Instance) QueueCreate(itemSize, depth int) (*Queue, error) {
	if in == nil || itemSize <= 0 || depth <= 0 {
		return nil, errcode.InvalidArgs
	}
	p, err := in.bound()
	if err != nil {
		return nil, err
	}
	if p.Queues == nil {
		return nil, errcode.Unsupported
	}
	h, err := p.Queues.Create(itemSize, depth)
	if err != nil {
		return nil, err
	}
	q := &Queue{inst: in, h: h}
	in.mu.Lock()
	q.slot = storeSlot(in.queues, q)
	in.mu.Unlock()
	if q.slot < 0 {
		_ = h.Delete()
		return nil, errcode.NoResource
	}
	return q, nil
}

// Slot returns the stable slot index for later QueueHandleGet recovery.
func (q *Queue) Slot() int { return q.slot }

// Delete destroys the queue and frees its slot.
func (q *Queue) Delete() error {
	if q == nil || q.h == nil {
		return errcode.InvalidArgs
	}
	q.inst.mu.Lock()
	freeSlot(q.inst.queues, q.slot)
	q.inst.mu.Unlock()
	err := q.h.Delete()
	q.h = nil
	return err
}

// Put enqueues without blocking.
func (q *Queue) Put(item any) error {
	if q == nil || q.h == nil {
		return errcode.InvalidArgs
	}
	return q.h.Put(item)
}

// Post enqueues, blocking up to timeout for space.
func (q *Queue) Post(item any, timeout time.Duration) error {
	if q == nil || q.h == nil {
		return errcode.InvalidArgs
	}
	return q.h.Post(item, timeout)
}

// Get dequeues without blocking. An empty queue returns errcode.Empty.
func (q *Queue) Get() (any, error) {
	if q == nil || q.h == nil {
		return nil, errcode.InvalidArgs
	}
	return q.h.Get()
}

// Wait dequeues, blocking without bound.
func (q *Queue) Wait() (any, error) {
	if q == nil || q.h == nil {
		return nil, errcode.InvalidArgs
	}
	return q.h.Wait()
}

// Pend dequeues, blocking up to timeout. A timeout is a normal outcome
// reported as errcode.Timeout.
func (q *Queue) Pend(timeout time.Duration) (any, error) {
	if q == nil || q.h == nil {
		return nil, errcode.InvalidArgs
	}
	return q.h.Pend(timeout)
}

// Reset discards everything currently queued.
func (q *Queue) Reset() error {
	if q == nil || q.h == nil {
		return errcode.InvalidArgs
	}
	return q.h.Reset()
}
