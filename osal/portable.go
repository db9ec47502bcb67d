package osal

import (
	"context"
	"time"
)

// WaitForever is the infinite-wait sentinel accepted by every blocking
// operation that takes a timeout.
const WaitForever time.Duration = -1

// Portable is the plugin boundary to a concrete RTOS or scheduler binding.
// Each family is optional: a nil family degrades that family's operations
// to errcode.Unsupported while the rest of the instance keeps working.
type Portable struct {
	Name string

	Queues  QueuePort
	Locks   LockPort
	Sems    SemaphorePort
	Threads ThreadPort
	Timers  TimerPort
	Events  EventPort
	Streams StreamPort
	Crit    CriticalPort
}

// ---- queues ----

type QueuePort interface {
	Create(itemSize, depth int) (PortQueue, error)
}

// PortQueue is a binding-owned message queue. Get never blocks; Wait
// blocks without bound; Pend and Post block up to the given timeout.
type PortQueue interface {
	Delete() error
	Put(item any) error
	Post(item any, timeout time.Duration) error
	Get() (any, error)
	Wait() (any, error)
	Pend(timeout time.Duration) (any, error)
	Reset() error
}

// ---- locks ----

type LockPort interface {
	Create() (PortLock, error)
}

// PortLock is a mutual-exclusion object for task context. Not for use
// from interrupt context.
type PortLock interface {
	Delete() error
	Lock() error
	Unlock() error
}

// ---- counting semaphores ----

type SemaphorePort interface {
	Create(maxCount, initValue int) (PortSemaphore, error)
}

type PortSemaphore interface {
	Delete() error
	Acquire(timeout time.Duration) error
	Release() error
	Count() int
}

// ---- threads ----

type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityMiddle
	PriorityHigh
	PriorityUltra
)

// ThreadConfig describes a worker to run on a binding-managed thread.
// The context is cancelled by Stop; workers must honour it at their
// blocking points.
type ThreadConfig struct {
	Worker    func(ctx context.Context, param any)
	Name      string
	StackSize int
	Param     any
	Priority  Priority
}

type ThreadPort interface {
	Create(cfg ThreadConfig) (PortThread, error)
	Sleep(d time.Duration)
}

// PortThread is a binding-owned thread. Delete requires the worker to have
// returned; deleting a running thread is undefined.
type PortThread interface {
	Delete() error
	Start() error
	Stop() error
	// Join blocks until the worker has returned, up to d; a negative d
	// waits without bound.
	Join(d time.Duration) error
	Suspend() error
	Resume() error
}

// ---- software timers ----

type TimerConfig struct {
	Expired    func(param any)
	Param      any
	AutoReload bool
	Period     time.Duration
}

type TimerPort interface {
	Create(cfg TimerConfig) (PortTimer, error)
}

type PortTimer interface {
	Delete() error
	Start() error
	Stop() error
	Reset() error
	SetPeriod(d time.Duration) error
}

// ---- event groups ----

type EventBits uint32

type EventPort interface {
	Create() (PortEventGroup, error)
}

type PortEventGroup interface {
	Delete() error
	Set(bits EventBits) error
	Clear(bits EventBits) error
	// Wait blocks until the mask condition holds (all bits when waitAll,
	// any bit otherwise) or the timeout expires. It returns the bit
	// snapshot taken when the condition was met. With clearOnExit only
	// the bits in mask are cleared.
	Wait(mask EventBits, clearOnExit, waitAll bool, timeout time.Duration) (EventBits, error)
	Active() EventBits
}

// ---- stream buffers ----

type StreamPort interface {
	Create(size, triggerLevel int) (PortStream, error)
}

type PortStream interface {
	Delete() error
	Send(p []byte, timeout time.Duration) (int, error)
	Receive(p []byte, timeout time.Duration) (int, error)
	Reset() error
	IsEmpty() bool
}

// ---- critical sections ----

// CriticalPort provides short, scheduler-masking exclusion.
type CriticalPort interface {
	Enter()
	Exit()
}
