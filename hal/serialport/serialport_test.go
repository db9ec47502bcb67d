package serialport

import (
	"errors"
	"sync"
	"testing"

	"cmdshell-go/errcode"
)

// mockDriver records transmits and lets tests inject failures. Completion
// is driven explicitly through the package trampolines, the way a real
// interrupt controller would.
type mockDriver struct {
	hw       uintptr
	startErr error
	txErr    error

	mu      sync.Mutex
	started bool
	sent    [][]byte
	rearms  int
}

func newMockDriver() *mockDriver {
	return &mockDriver{hw: AllocHandle()}
}

func (d *mockDriver) Handle() uintptr { return d.hw }

func (d *mockDriver) Start() error {
	if d.startErr != nil {
		return d.startErr
	}
	d.mu.Lock()
	d.started = true
	d.mu.Unlock()
	return nil
}

func (d *mockDriver) Stop() error {
	d.mu.Lock()
	d.started = false
	d.mu.Unlock()
	return nil
}

func (d *mockDriver) Transmit(p []byte) error {
	if d.txErr != nil {
		return d.txErr
	}
	d.mu.Lock()
	d.sent = append(d.sent, append([]byte(nil), p...))
	d.mu.Unlock()
	return nil
}

func (d *mockDriver) Rearm() error {
	d.mu.Lock()
	d.rearms++
	d.mu.Unlock()
	return nil
}

func (d *mockDriver) sentChunks() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]byte, len(d.sent))
	copy(out, d.sent)
	return out
}

func openPort(t *testing.T, drv Driver) *Port {
	t.Helper()
	p, err := New(nil, Config{Name: t.Name(), RingSize: 64, TxBufSize: 16}, drv)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestNew_RejectsBadArguments(t *testing.T) {
	if _, err := New(nil, Config{}, nil); errcode.Of(err) != errcode.InvalidArgs {
		t.Fatalf("New(nil driver) = %v, want invalid_args", err)
	}
	if _, err := New(nil, Config{RingSize: 100}, newMockDriver()); errcode.Of(err) != errcode.InvalidArgs {
		t.Fatalf("New(ring 100) = %v, want invalid_args", err)
	}
}

func TestOpen_TwiceIsBusy_CloseIsIdempotent(t *testing.T) {
	p := openPort(t, newMockDriver())
	if err := p.Open(); errcode.Of(err) != errcode.Busy {
		t.Fatalf("second Open = %v, want busy", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close = %v, want nil", err)
	}
}

func TestOpen_RollsBackOnStartFailure(t *testing.T) {
	drv := newMockDriver()
	drv.startErr = errors.New("uart dead")
	p, err := New(nil, Config{Name: "t"}, drv)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Open(); errcode.Of(err) != errcode.PortError {
		t.Fatalf("Open = %v, want port_error", err)
	}
	// The failed open must not leave the handle linked.
	if _, ok := ports.Lookup(drv.hw); ok {
		t.Fatal("handle still linked after failed Open")
	}
	// And the port must be reopenable once the fault clears.
	drv.startErr = nil
	if err := p.Open(); err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	p.Close()
}

func TestOpen_DuplicateHandleRejected(t *testing.T) {
	drv := newMockDriver()
	openPort(t, drv)

	clone := &mockDriver{hw: drv.hw}
	p2, err := New(nil, Config{Name: "clone"}, clone)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p2.Open(); errcode.Of(err) != errcode.InUse {
		t.Fatalf("Open with linked handle = %v, want in_use", err)
	}
}

func TestWrite_Bounds(t *testing.T) {
	drv := newMockDriver()
	p := openPort(t, drv) // TxBufSize 16

	if err := p.Write(nil); errcode.Of(err) != errcode.InvalidArgs {
		t.Fatalf("Write(nil) = %v, want invalid_args", err)
	}
	if err := p.Write(make([]byte, 17)); errcode.Of(err) != errcode.Overflow {
		t.Fatalf("Write(17) = %v, want overflow", err)
	}

	// First write occupies the staging buffer until completion.
	if err := p.Write(make([]byte, 12)); err != nil {
		t.Fatalf("Write(12): %v", err)
	}
	if err := p.Write(make([]byte, 8)); errcode.Of(err) != errcode.Overflow {
		t.Fatalf("Write past pending = %v, want overflow", err)
	}
}

func TestWrite_ClosedPortNotBound(t *testing.T) {
	p, err := New(nil, Config{Name: "t"}, newMockDriver())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Write([]byte("x")); errcode.Of(err) != errcode.NotBound {
		t.Fatalf("Write on closed = %v, want not_bound", err)
	}
}

func TestWrite_ChainsStagedBytesAcrossCompletions(t *testing.T) {
	drv := newMockDriver()
	p := openPort(t, drv)

	var completions int
	if err := p.OnTxComplete(func() { completions++ }); err != nil {
		t.Fatalf("OnTxComplete: %v", err)
	}

	if err := p.Write([]byte("abc")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Staged behind the in-flight chunk, not transmitted yet.
	if err := p.Write([]byte("def")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := drv.sentChunks(); len(got) != 1 || string(got[0]) != "abc" {
		t.Fatalf("chunks before completion = %q, want [abc]", got)
	}

	TxCompleteISR(drv.hw)
	if got := drv.sentChunks(); len(got) != 2 || string(got[1]) != "def" {
		t.Fatalf("chunks after first completion = %q, want [abc def]", got)
	}
	if completions != 0 {
		t.Fatalf("completion reported with bytes still pending")
	}

	TxCompleteISR(drv.hw)
	if completions != 1 {
		t.Fatalf("completions = %d, want 1", completions)
	}
}

func TestReceive_TrampolineToRead(t *testing.T) {
	drv := newMockDriver()
	p := openPort(t, drv)

	var notified int
	if err := p.OnRxReceived(func(n int) { notified += n }); err != nil {
		t.Fatalf("OnRxReceived: %v", err)
	}

	RxReceivedISR(drv.hw, []byte("AT\r\n"))
	if notified != 4 {
		t.Fatalf("notified = %d, want 4", notified)
	}
	if !p.IsReadDataAvailable() {
		t.Fatal("IsReadDataAvailable = false after receive")
	}
	if drv.rearms != 1 {
		t.Fatalf("rearms = %d, want 1", drv.rearms)
	}

	// A destination smaller than the staged bytes is rejected whole.
	small := make([]byte, 2)
	if _, err := p.Read(small); errcode.Of(err) != errcode.Overflow {
		t.Fatalf("short Read = %v, want overflow", err)
	}

	buf := make([]byte, 16)
	n, err := p.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "AT\r\n" {
		t.Fatalf("Read = %q, want AT\\r\\n", buf[:n])
	}
	if p.IsReadDataAvailable() {
		t.Fatal("IsReadDataAvailable = true after drain")
	}
}

func TestErrorISR_ReachesCallback(t *testing.T) {
	drv := newMockDriver()
	p := openPort(t, drv)

	var got error
	if err := p.OnRxTxError(func(err error) { got = err }); err != nil {
		t.Fatalf("OnRxTxError: %v", err)
	}
	fault := errors.New("framing error")
	ErrorISR(drv.hw, fault)
	if got != fault {
		t.Fatalf("error callback got %v, want %v", got, fault)
	}
}

func TestTrampolines_IgnoreUnknownHandles(t *testing.T) {
	hw := AllocHandle()
	RxReceivedISR(hw, []byte("x"))
	TxCompleteISR(hw)
	ErrorISR(hw, errors.New("stray"))
}
