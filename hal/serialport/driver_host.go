//go:build !rp2040 && !rp2350

package serialport

import (
	"sync"

	"github.com/goburrow/serial"
)

// HostDriver drives a real serial device through goburrow/serial. A
// reader goroutine plays the role of the receive interrupt: it delivers
// chunks to the trampolines exactly as a vendor ISR would.
type HostDriver struct {
	cfg serial.Config
	hw  uintptr

	mu   sync.Mutex
	port serial.Port
	done chan struct{}
	wg   sync.WaitGroup
}

func NewHostDriver(cfg serial.Config) *HostDriver {
	return &HostDriver{cfg: cfg, hw: AllocHandle()}
}

func (d *HostDriver) Handle() uintptr { return d.hw }

func (d *HostDriver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port != nil {
		return errAlreadyStarted
	}
	port, err := serial.Open(&d.cfg)
	if err != nil {
		return err
	}
	d.port = port
	d.done = make(chan struct{})
	d.wg.Add(1)
	go d.readLoop(port, d.done)
	return nil
}

func (d *HostDriver) readLoop(port serial.Port, done chan struct{}) {
	defer d.wg.Done()
	buf := make([]byte, 64)
	for {
		select {
		case <-done:
			return
		default:
		}
		n, err := port.Read(buf)
		if n > 0 {
			RxReceivedISR(d.hw, buf[:n])
		}
		if err != nil && err != serial.ErrTimeout {
			select {
			case <-done:
			default:
				ErrorISR(d.hw, err)
			}
			return
		}
	}
}

func (d *HostDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return nil
	}
	close(d.done)
	err := d.port.Close()
	d.wg.Wait()
	d.port = nil
	return err
}

func (d *HostDriver) Transmit(p []byte) error {
	d.mu.Lock()
	port := d.port
	d.mu.Unlock()
	if port == nil {
		return errNotStarted
	}
	// The OS write is synchronous; run it off the caller's thread so the
	// port sees the same split-phase completion a TX interrupt gives it.
	go func() {
		if _, err := port.Write(p); err != nil {
			ErrorISR(d.hw, err)
			return
		}
		TxCompleteISR(d.hw)
	}()
	return nil
}
