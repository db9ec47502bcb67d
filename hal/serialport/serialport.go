// Package serialport is the serial transport port: a hal.Instance subtype
// owning the receive ring buffer, the TX staging buffer and the vendor
// driver binding. Interrupt-side delivery happens through the package
// trampolines in driver.go.
package serialport

import (
	"sync"

	"cmdshell-go/errcode"
	"cmdshell-go/hal"
	"cmdshell-go/hal/ringbuf"
)

const (
	DefaultRingSize  = 256
	DefaultTxBufSize = 256
)

// Transceiver switches the direction pins of a half-duplex line driver.
// Optional; ports without one treat SetTxMode/SetRxMode as no-ops.
type Transceiver interface {
	SetTx() error
	SetRx() error
}

type Config struct {
	Name        string
	RingSize    int // receive ring capacity, power of two
	TxBufSize   int // transmit staging capacity
	Transceiver Transceiver
}

// Port is the hardware-specific transport instance. The embedded
// hal.Instance is the upcast surface handed to the shell.
type Port struct {
	hal.Instance

	cfg Config
	drv Driver
	rx  *ringbuf.Ring

	txMu       sync.Mutex
	txBuf      []byte
	txPending  int // staged bytes not yet confirmed sent
	txInFlight int // bytes handed to the driver, awaiting completion
	txBusy     bool

	openMu sync.Mutex
	opened bool
}

// New builds a closed port around the given vendor driver.
func New(parent any, cfg Config, drv Driver) (*Port, error) {
	if drv == nil {
		return nil, errcode.InvalidArgs
	}
	if cfg.RingSize == 0 {
		cfg.RingSize = DefaultRingSize
	}
	if cfg.TxBufSize <= 0 {
		cfg.TxBufSize = DefaultTxBufSize
	}
	rx, err := ringbuf.New(cfg.RingSize)
	if err != nil {
		return nil, err
	}
	p := &Port{
		cfg:   cfg,
		drv:   drv,
		rx:    rx,
		txBuf: make([]byte, cfg.TxBufSize),
	}
	if err := p.Instance.Init(parent, cfg.Name, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Port) Capabilities() hal.Capability {
	return hal.CapRxReceived | hal.CapTxComplete | hal.CapRxTxError
}

// Open resets the buffers, links the peripheral handle to this port and
// arms reception. Any failure rolls the registration back.
func (p *Port) Open() error {
	p.openMu.Lock()
	defer p.openMu.Unlock()
	if p.opened {
		return errcode.Busy
	}

	p.rx.Reset()
	p.txMu.Lock()
	p.txPending = 0
	p.txInFlight = 0
	p.txBusy = false
	p.txMu.Unlock()

	if err := ports.Add(p.drv.Handle(), p); err != nil {
		return err
	}
	if err := p.drv.Start(); err != nil {
		_ = ports.RemoveByOwner(p)
		return errcode.Wrap(errcode.PortError, "serialport.open", err)
	}
	p.opened = true
	return nil
}

// Close aborts in-flight transfers, unlinks the trampolines and flushes
// the buffers. Closing a closed port is a no-op.
func (p *Port) Close() error {
	p.openMu.Lock()
	defer p.openMu.Unlock()
	if !p.opened {
		return nil
	}
	err := p.drv.Stop()
	_ = ports.RemoveByOwner(p)
	p.rx.Reset()
	p.txMu.Lock()
	p.txPending = 0
	p.txInFlight = 0
	p.txBusy = false
	p.txMu.Unlock()
	p.opened = false
	if err != nil {
		return errcode.Wrap(errcode.PortError, "serialport.close", err)
	}
	return nil
}

// Write stages p behind any pending bytes and starts an interrupt-driven
// transmit if one is not already running. Rejected outright when p cannot
// ever fit or would overflow the bytes still pending.
func (p *Port) Write(b []byte) error {
	if len(b) == 0 {
		return errcode.InvalidArgs
	}
	if len(b) > len(p.txBuf) {
		return errcode.Overflow
	}
	if !p.isOpen() {
		return errcode.NotBound
	}

	p.txMu.Lock()
	if p.txPending+len(b) > len(p.txBuf) {
		p.txMu.Unlock()
		return errcode.Overflow
	}
	copy(p.txBuf[p.txPending:], b)
	p.txPending += len(b)
	start := !p.txBusy
	var chunk []byte
	if start {
		p.txBusy = true
		p.txInFlight = p.txPending
		chunk = append([]byte(nil), p.txBuf[:p.txInFlight]...)
	}
	p.txMu.Unlock()

	if start {
		if err := p.drv.Transmit(chunk); err != nil {
			p.txMu.Lock()
			p.txBusy = false
			p.txInFlight = 0
			p.txPending = 0
			p.txMu.Unlock()
			return errcode.Wrap(errcode.PortError, "serialport.write", err)
		}
	}
	return nil
}

// txDone is called from the TX-complete trampoline. It retires the
// in-flight chunk, chains the next one if bytes were staged meanwhile and
// reports completion only when everything has drained.
func (p *Port) txDone() {
	p.txMu.Lock()
	copy(p.txBuf, p.txBuf[p.txInFlight:p.txPending])
	p.txPending -= p.txInFlight
	p.txInFlight = 0
	var chunk []byte
	if p.txPending > 0 {
		p.txInFlight = p.txPending
		chunk = append([]byte(nil), p.txBuf[:p.txInFlight]...)
	} else {
		p.txBusy = false
	}
	p.txMu.Unlock()

	if chunk != nil {
		if err := p.drv.Transmit(chunk); err != nil {
			p.txMu.Lock()
			p.txBusy = false
			p.txInFlight = 0
			p.txPending = 0
			p.txMu.Unlock()
			p.EmitRxTxError(err)
		}
		return
	}
	p.EmitTxComplete()
}

// Read rejects a destination smaller than the bytes currently staged,
// otherwise drains the ring in FIFO order.
func (p *Port) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, errcode.InvalidArgs
	}
	if staged := p.rx.Used(); len(b) < staged {
		return 0, errcode.Overflow
	}
	return p.rx.Pop(b), nil
}

func (p *Port) IsReadDataAvailable() bool { return !p.rx.IsEmpty() }

func (p *Port) SetTxMode() error {
	if p.cfg.Transceiver == nil {
		return nil
	}
	return p.cfg.Transceiver.SetTx()
}

func (p *Port) SetRxMode() error {
	if p.cfg.Transceiver == nil {
		return nil
	}
	return p.cfg.Transceiver.SetRx()
}

// RxUsed reports the bytes currently staged in the receive ring.
func (p *Port) RxUsed() int { return p.rx.Used() }

func (p *Port) isOpen() bool {
	p.openMu.Lock()
	defer p.openMu.Unlock()
	return p.opened
}
