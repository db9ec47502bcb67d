// Package goport binds the OSAL portable table to the Go runtime: queues
// on buffered channels, threads on goroutines, timers on time.Timer. It is
// the host-side counterpart of an RTOS binding and backs the unit tests
// and the host shell binary.
package goport

import (
	"sync"
	"time"

	"cmdshell-go/errcode"
	"cmdshell-go/osal"
)

// New returns a fully populated portable table.
func New() *osal.Portable {
	return &osal.Portable{
		Name:    "goport",
		Queues:  queuePort{},
		Locks:   lockPort{},
		Sems:    semPort{},
		Threads: threadPort{},
		Timers:  timerPort{},
		Events:  eventPort{},
		Streams: streamPort{},
		Crit:    &critSection{},
	}
}

// after returns a timeout channel, nil for the infinite sentinel. The
// returned stop func releases the timer.
func after(timeout time.Duration) (<-chan time.Time, func()) {
	if timeout < 0 {
		return nil, func() {}
	}
	t := time.NewTimer(timeout)
	return t.C, func() { t.Stop() }
}

// ---- queues ----

type queuePort struct{}

func (queuePort) Create(itemSize, depth int) (osal.PortQueue, error) {
	// Items are stored as values; itemSize bounds nothing here but is
	// validated upstream to keep the portable contract uniform.
	return &queue{ch: make(chan any, depth), done: make(chan struct{})}, nil
}

type queue struct {
	ch       chan any
	done     chan struct{}
	closeOne sync.Once
}

func (q *queue) Delete() error {
	q.closeOne.Do(func() { close(q.done) })
	return nil
}

func (q *queue) Put(item any) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return errcode.Overflow
	}
}

func (q *queue) Post(item any, timeout time.Duration) error {
	tc, stop := after(timeout)
	defer stop()
	select {
	case q.ch <- item:
		return nil
	case <-tc:
		return errcode.Timeout
	case <-q.done:
		return errcode.PortError
	}
}

func (q *queue) Get() (any, error) {
	select {
	case item := <-q.ch:
		return item, nil
	default:
		return nil, errcode.Empty
	}
}

func (q *queue) Wait() (any, error) {
	select {
	case item := <-q.ch:
		return item, nil
	case <-q.done:
		return nil, errcode.PortError
	}
}

func (q *queue) Pend(timeout time.Duration) (any, error) {
	tc, stop := after(timeout)
	defer stop()
	select {
	case item := <-q.ch:
		return item, nil
	case <-tc:
		return nil, errcode.Timeout
	case <-q.done:
		return nil, errcode.PortError
	}
}

func (q *queue) Reset() error {
	for {
		select {
		case <-q.ch:
		default:
			return nil
		}
	}
}

// ---- critical sections ----

// critSection masks nothing on a hosted runtime; a plain mutex provides
// the exclusion the contract asks for.
type critSection struct {
	mu sync.Mutex
}

func (c *critSection) Enter() { c.mu.Lock() }
func (c *critSection) Exit()  { c.mu.Unlock() }
