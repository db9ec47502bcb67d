package serialport

import (
	"errors"
	"sync/atomic"

	"cmdshell-go/hal/irqpool"
)

var (
	errNotStarted     = errors.New("serialport: driver not started")
	errAlreadyStarted = errors.New("serialport: driver already started")
)

// Driver is the vendor peripheral boundary. Completion and receive events
// are delivered to the package trampolines keyed only by the peripheral
// handle; vendor callback signatures carry no user context, which is why
// the handle pool exists.
type Driver interface {
	// Handle returns the stable peripheral handle used as the trampoline
	// key, the moral equivalent of a register base address.
	Handle() uintptr
	// Start registers the driver's interrupt sources and arms reception.
	Start() error
	// Stop aborts in-flight transfers and unregisters.
	Stop() error
	// Transmit begins an interrupt-driven send of p. Completion arrives
	// through TxCompleteISR.
	Transmit(p []byte) error
}

// Rearmer is implemented by drivers whose reception must be re-armed
// after every received chunk.
type Rearmer interface {
	Rearm() error
}

// portPoolSlots bounds the number of simultaneously open ports.
const portPoolSlots = 4

var ports = irqpool.New[uintptr, *Port](portPoolSlots)

var handleCounter atomic.Uintptr

// AllocHandle mints a process-unique peripheral handle for drivers that
// have no natural hardware address.
func AllocHandle() uintptr {
	return handleCounter.Add(1)
}

// RxReceivedISR is the static receive trampoline. It recovers the owning
// port, pushes the received bytes into its ring, re-arms reception and
// then invokes the optional user callback. It never blocks and never
// allocates on the push path.
func RxReceivedISR(hw uintptr, data []byte) {
	p, ok := ports.Lookup(hw)
	if !ok {
		return
	}
	p.rx.Push(data)
	if r, ok := p.drv.(Rearmer); ok {
		_ = r.Rearm()
	}
	p.EmitRxReceived(len(data))
}

// TxCompleteISR is the static transmit-complete trampoline.
func TxCompleteISR(hw uintptr) {
	p, ok := ports.Lookup(hw)
	if !ok {
		return
	}
	p.txDone()
}

// ErrorISR is the static error trampoline.
func ErrorISR(hw uintptr, err error) {
	p, ok := ports.Lookup(hw)
	if !ok {
		return
	}
	p.EmitRxTxError(err)
}
