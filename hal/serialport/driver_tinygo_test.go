package serialport

import (
	"sync"
	"testing"
	"time"
)

// fakeUART models the drivers UART surface: a Reader/Writer with a
// Buffered count and no per-byte access.
type fakeUART struct {
	mu sync.Mutex
	rx []byte
	tx []byte
}

func (u *fakeUART) Buffered() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rx)
}

func (u *fakeUART) Read(p []byte) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := copy(p, u.rx)
	u.rx = u.rx[n:]
	return n, nil
}

func (u *fakeUART) Write(p []byte) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tx = append(u.tx, p...)
	return len(p), nil
}

func (u *fakeUART) stage(s string) {
	u.mu.Lock()
	u.rx = append(u.rx, s...)
	u.mu.Unlock()
}

func (u *fakeUART) sent() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return string(u.tx)
}

func TestUARTDriver_PollDeliversStagedBytes(t *testing.T) {
	u := &fakeUART{}
	drv := NewUARTDriver(u, time.Millisecond)
	p := openPort(t, drv)

	var mu sync.Mutex
	received := 0
	if err := p.OnRxReceived(func(n int) {
		mu.Lock()
		received += n
		mu.Unlock()
	}); err != nil {
		t.Fatalf("OnRxReceived: %v", err)
	}

	u.stage("AT\r\n")
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := received
		mu.Unlock()
		if n == 4 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("received = %d bytes, want 4", n)
		}
		time.Sleep(time.Millisecond)
	}

	buf := make([]byte, 16)
	n, err := p.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "AT\r\n" {
		t.Fatalf("Read = %q, want AT\\r\\n", buf[:n])
	}
}

func TestUARTDriver_TransmitCompletes(t *testing.T) {
	u := &fakeUART{}
	drv := NewUARTDriver(u, time.Millisecond)
	p := openPort(t, drv)

	done := make(chan struct{}, 1)
	if err := p.OnTxComplete(func() { done <- struct{}{} }); err != nil {
		t.Fatalf("OnTxComplete: %v", err)
	}

	if err := p.Write([]byte("OK\r\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("transmit never completed")
	}
	if got := u.sent(); got != "OK\r\n" {
		t.Fatalf("sent = %q, want OK\\r\\n", got)
	}
}
