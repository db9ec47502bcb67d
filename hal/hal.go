// Package hal is the hardware-abstraction base for byte transports. A
// concrete port (a serial peripheral, a loopback for tests) plugs in
// through the Port interface; users of the transport hold the Instance
// and never see the hardware.
package hal

import (
	"sync"

	"cmdshell-go/errcode"
)

// Capability flags a port advertises and callbacks are keyed by.
type Capability uint8

const (
	CapRxReceived Capability = 1 << iota
	CapTxComplete
	CapRxTxError
)

// Port is the transport vtable implemented per peripheral.
type Port interface {
	Open() error
	Close() error
	// Read drains staged receive bytes into p and reports how many were
	// produced.
	Read(p []byte) (int, error)
	// Write stages p and starts an interrupt-driven transmit.
	Write(p []byte) error
	// SetTxMode/SetRxMode switch an optional half-duplex transceiver.
	SetTxMode() error
	SetRxMode() error
	IsReadDataAvailable() bool
	Capabilities() Capability
}

// Instance is the base transport object. Port subtypes embed it as their
// first field so &sub.Instance upcasts.
type Instance struct {
	parent any
	name   string
	port   Port

	mu         sync.Mutex
	rxReceived func(n int)
	txComplete func()
	rxTxError  func(err error)
}

// Init binds the base to its port. Called once by the port subtype's
// constructor.
func (h *Instance) Init(parent any, name string, port Port) error {
	if h == nil || port == nil {
		return errcode.InvalidArgs
	}
	h.parent = parent
	h.name = name
	h.port = port
	return nil
}

func (h *Instance) Name() string { return h.name }
func (h *Instance) Parent() any  { return h.parent }

func (h *Instance) bound() (Port, error) {
	if h == nil {
		return nil, errcode.InvalidArgs
	}
	if h.port == nil {
		return nil, errcode.NotBound
	}
	return h.port, nil
}

// ---- delegated transport operations ----

func (h *Instance) Open() error {
	p, err := h.bound()
	if err != nil {
		return err
	}
	return p.Open()
}

func (h *Instance) Close() error {
	p, err := h.bound()
	if err != nil {
		return err
	}
	return p.Close()
}

func (h *Instance) Read(p []byte) (int, error) {
	port, err := h.bound()
	if err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, errcode.InvalidArgs
	}
	return port.Read(p)
}

func (h *Instance) Write(p []byte) error {
	port, err := h.bound()
	if err != nil {
		return err
	}
	if len(p) == 0 {
		return errcode.InvalidArgs
	}
	return port.Write(p)
}

func (h *Instance) SetTxMode() error {
	p, err := h.bound()
	if err != nil {
		return err
	}
	return p.SetTxMode()
}

func (h *Instance) SetRxMode() error {
	p, err := h.bound()
	if err != nil {
		return err
	}
	return p.SetRxMode()
}

func (h *Instance) IsReadDataAvailable() bool {
	p, err := h.bound()
	if err != nil {
		return false
	}
	return p.IsReadDataAvailable()
}

// ---- callback slots ----

// OnRxReceived installs the receive callback. Fails with
// errcode.Unsupported when the port does not advertise CapRxReceived.
func (h *Instance) OnRxReceived(fn func(n int)) error {
	p, err := h.bound()
	if err != nil {
		return err
	}
	if p.Capabilities()&CapRxReceived == 0 {
		return errcode.Unsupported
	}
	h.mu.Lock()
	h.rxReceived = fn
	h.mu.Unlock()
	return nil
}

func (h *Instance) OnTxComplete(fn func()) error {
	p, err := h.bound()
	if err != nil {
		return err
	}
	if p.Capabilities()&CapTxComplete == 0 {
		return errcode.Unsupported
	}
	h.mu.Lock()
	h.txComplete = fn
	h.mu.Unlock()
	return nil
}

func (h *Instance) OnRxTxError(fn func(err error)) error {
	p, err := h.bound()
	if err != nil {
		return err
	}
	if p.Capabilities()&CapRxTxError == 0 {
		return errcode.Unsupported
	}
	h.mu.Lock()
	h.rxTxError = fn
	h.mu.Unlock()
	return nil
}

// ---- emitters, invoked by the port's interrupt trampolines ----

// EmitRxReceived invokes the user receive callback if one is set. Must
// not block; runs on the interrupt path.
func (h *Instance) EmitRxReceived(n int) {
	h.mu.Lock()
	fn := h.rxReceived
	h.mu.Unlock()
	if fn != nil {
		fn(n)
	}
}

func (h *Instance) EmitTxComplete() {
	h.mu.Lock()
	fn := h.txComplete
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (h *Instance) EmitRxTxError(err error) {
	h.mu.Lock()
	fn := h.rxTxError
	h.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}
