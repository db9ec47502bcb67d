package serialport

import (
	"sync"
	"time"

	"tinygo.org/x/drivers"
)

// UARTDriver adapts any tinygo.org/x/drivers UART as a vendor driver.
// The drivers interface is polling-only, so a poll goroutine stands in
// for the receive interrupt.
type UARTDriver struct {
	uart drivers.UART
	hw   uintptr
	poll time.Duration

	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

func NewUARTDriver(uart drivers.UART, poll time.Duration) *UARTDriver {
	if poll <= 0 {
		poll = time.Millisecond
	}
	return &UARTDriver{uart: uart, poll: poll, hw: AllocHandle()}
}

func (d *UARTDriver) Handle() uintptr { return d.hw }

func (d *UARTDriver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return errAlreadyStarted
	}
	d.done = make(chan struct{})
	d.wg.Add(1)
	go d.pollLoop(d.done)
	return nil
}

func (d *UARTDriver) pollLoop(done chan struct{}) {
	defer d.wg.Done()
	var chunk [64]byte
	for {
		select {
		case <-done:
			return
		default:
		}
		if d.uart.Buffered() > 0 {
			if n, err := d.uart.Read(chunk[:]); err == nil && n > 0 {
				RxReceivedISR(d.hw, chunk[:n])
				continue
			}
		}
		time.Sleep(d.poll)
	}
}

func (d *UARTDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done == nil {
		return nil
	}
	close(d.done)
	d.wg.Wait()
	d.done = nil
	return nil
}

func (d *UARTDriver) Transmit(p []byte) error {
	go func() {
		if _, err := d.uart.Write(p); err != nil {
			ErrorISR(d.hw, err)
			return
		}
		TxCompleteISR(d.hw)
	}()
	return nil
}
