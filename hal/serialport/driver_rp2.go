//go:build rp2040 || rp2350

package serialport

import (
	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// UartxDriver binds an interrupt-driven uartx UART on RP2 targets. The
// uartx ISR fills its own software buffer and signals Readable; a drain
// goroutine forwards chunks to the trampolines.
type UartxDriver struct {
	u    *uartx.UART
	hw   uintptr
	done chan struct{}
}

func NewUartxDriver(u *uartx.UART) *UartxDriver {
	return &UartxDriver{u: u, hw: AllocHandle()}
}

func (d *UartxDriver) Handle() uintptr { return d.hw }

func (d *UartxDriver) Start() error {
	if d.done != nil {
		return errAlreadyStarted
	}
	d.done = make(chan struct{})
	go func(done chan struct{}) {
		var chunk [64]byte
		for {
			select {
			case <-done:
				return
			case <-d.u.Readable():
				for {
					n := d.u.TryRead(chunk[:])
					if n == 0 {
						break
					}
					RxReceivedISR(d.hw, chunk[:n])
				}
			}
		}
	}(d.done)
	return nil
}

func (d *UartxDriver) Stop() error {
	if d.done == nil {
		return nil
	}
	close(d.done)
	d.done = nil
	return nil
}

func (d *UartxDriver) Transmit(p []byte) error {
	go func() {
		if _, err := d.u.Write(p); err != nil {
			ErrorISR(d.hw, err)
			return
		}
		if err := d.u.Flush(); err != nil {
			ErrorISR(d.hw, err)
			return
		}
		TxCompleteISR(d.hw)
	}()
	return nil
}
