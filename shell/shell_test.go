package shell

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cmdshell-go/errcode"
	"cmdshell-go/hal"
	"cmdshell-go/osal"
	"cmdshell-go/osal/goport"
)

// pipePort is an in-memory transport. Writes complete synchronously and
// tests inject input through push, which raises the receive callback the
// way a real interrupt would.
type pipePort struct {
	hal.Instance

	mu  sync.Mutex
	rx  []byte
	out []byte
}

func newPipePort(t *testing.T) *pipePort {
	t.Helper()
	p := &pipePort{}
	if err := p.Instance.Init(nil, t.Name(), p); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return p
}

func (p *pipePort) Open() error  { return nil }
func (p *pipePort) Close() error { return nil }

func (p *pipePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if len(b) < len(p.rx) {
		p.mu.Unlock()
		return 0, errcode.Overflow
	}
	n := copy(b, p.rx)
	p.rx = p.rx[:0]
	p.mu.Unlock()
	return n, nil
}

func (p *pipePort) Write(b []byte) error {
	p.mu.Lock()
	p.out = append(p.out, b...)
	p.mu.Unlock()
	p.EmitTxComplete()
	return nil
}

func (p *pipePort) SetTxMode() error { return nil }
func (p *pipePort) SetRxMode() error { return nil }

func (p *pipePort) IsReadDataAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rx) > 0
}

func (p *pipePort) Capabilities() hal.Capability {
	return hal.CapRxReceived | hal.CapTxComplete | hal.CapRxTxError
}

// push stages input and raises the receive interrupt.
func (p *pipePort) push(s string) {
	p.mu.Lock()
	p.rx = append(p.rx, s...)
	p.mu.Unlock()
	p.EmitRxReceived(len(s))
}

func (p *pipePort) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.out)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newRunningShell(t *testing.T, limits Limits) (*Shell, *pipePort) {
	t.Helper()
	osi := osal.New(nil, t.Name(), goport.New(), osal.Capacities{})
	pp := newPipePort(t)
	sh := &Shell{}
	if err := sh.Init(osi, &pp.Instance, nil, "shell0", limits); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { sh.Deinit() })
	if err := sh.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return sh, pp
}

func TestShell_DispatchesAssembledLine(t *testing.T) {
	sh, pp := newRunningShell(t, Limits{})

	got := make(chan []string, 2)
	cmd := &Command{
		Name: "AT",
		Run: func(argc int, argv []string) error {
			if argc != len(argv) {
				t.Errorf("argc = %d, want %d", argc, len(argv))
			}
			got <- append([]string(nil), argv...)
			return sh.Output("OK\r\n")
		},
	}
	if err := sh.CmdAttach(cmd); err != nil {
		t.Fatalf("CmdAttach: %v", err)
	}

	recv := func(want ...string) {
		t.Helper()
		select {
		case argv := <-got:
			if len(argv) != len(want) {
				t.Fatalf("argv = %q, want %q", argv, want)
			}
			for i := range want {
				if argv[i] != want[i] {
					t.Fatalf("argv = %q, want %q", argv, want)
				}
			}
		case <-time.After(2 * time.Second):
			t.Fatal("command never dispatched")
		}
	}

	pp.push("AT\r\n")
	recv("AT")
	waitFor(t, "command output", func() bool {
		return strings.Contains(pp.written(), "OK\r\n")
	})

	pp.push("AT probe\r\n")
	recv("AT", "probe")
}

func TestShell_UnknownCommandReported(t *testing.T) {
	_, pp := newRunningShell(t, Limits{})
	pp.push("nope\r\n")
	waitFor(t, "unknown-command reply", func() bool {
		return strings.Contains(pp.written(), "unknown command: nope\r\n")
	})
}

func TestShell_CommandErrorReported(t *testing.T) {
	sh, pp := newRunningShell(t, Limits{})
	if err := sh.CmdAttach(&Command{
		Name: "boom",
		Run:  func(int, []string) error { return errors.New("kaput") },
	}); err != nil {
		t.Fatalf("CmdAttach: %v", err)
	}
	pp.push("boom\r\n")
	waitFor(t, "error reply", func() bool {
		return strings.Contains(pp.written(), "error: kaput\r\n")
	})
}

func TestShell_OverlongLineFlushed(t *testing.T) {
	sh, pp := newRunningShell(t, Limits{MaxLine: 8})

	got := make(chan string, 1)
	if err := sh.CmdAttach(&Command{
		Name: "ping",
		Run: func(_ int, argv []string) error {
			got <- argv[0]
			return nil
		},
	}); err != nil {
		t.Fatalf("CmdAttach: %v", err)
	}

	pp.push("aaaaaaaaaaaaaaaa\r\n")
	waitFor(t, "overflow reply", func() bool {
		return strings.Contains(pp.written(), "error: line too long\r\n")
	})

	// The discarded prefix must not leak into the next line.
	pp.push("ping\r\n")
	select {
	case name := <-got:
		if name != "ping" {
			t.Fatalf("argv[0] = %q, want ping", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command after overflow never dispatched")
	}
}

func TestShell_TransportErrorDiscardsPartialLine(t *testing.T) {
	sh, pp := newRunningShell(t, Limits{})

	got := make(chan []string, 1)
	if err := sh.CmdAttach(&Command{
		Name: "ping",
		Run: func(_ int, argv []string) error {
			got <- append([]string(nil), argv...)
			return nil
		},
	}); err != nil {
		t.Fatalf("CmdAttach: %v", err)
	}

	pp.push("pi") // partial line, no terminator
	time.Sleep(20 * time.Millisecond)
	pp.EmitRxTxError(errors.New("overrun"))
	time.Sleep(20 * time.Millisecond)

	pp.push("ping\r\n")
	select {
	case argv := <-got:
		if len(argv) != 1 || argv[0] != "ping" {
			t.Fatalf("argv = %q, want [ping]", argv)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command after transport error never dispatched")
	}
}

func TestShell_EmptyLinesIgnored(t *testing.T) {
	_, pp := newRunningShell(t, Limits{})
	pp.push("\r\n\r\n\n")
	time.Sleep(50 * time.Millisecond)
	if out := pp.written(); out != "" {
		t.Fatalf("output = %q, want none for empty lines", out)
	}
}

func TestShell_Lifecycle(t *testing.T) {
	osi := osal.New(nil, t.Name(), goport.New(), osal.Capacities{})
	pp := newPipePort(t)
	sh := &Shell{}

	if err := sh.CmdAttach(&Command{Name: "x", Run: func(int, []string) error { return nil }}); errcode.Of(err) != errcode.NotBound {
		t.Fatalf("CmdAttach before Init = %v, want not_bound", err)
	}

	if err := sh.Init(osi, &pp.Instance, nil, "shell0", Limits{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := sh.State(); got != StateInitialized {
		t.Fatalf("State = %v, want initialized", got)
	}
	if err := sh.Init(osi, &pp.Instance, nil, "shell0", Limits{}); errcode.Of(err) != errcode.Busy {
		t.Fatalf("second Init = %v, want busy", err)
	}

	if err := sh.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sh.State(); got != StateRunning {
		t.Fatalf("State = %v, want running", got)
	}
	if err := sh.Run(); errcode.Of(err) != errcode.Busy {
		t.Fatalf("Run while running = %v, want busy", err)
	}

	if err := sh.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := sh.State(); got != StateStopped {
		t.Fatalf("State = %v, want stopped", got)
	}

	// Stop joins the worker, so a restart succeeds immediately.
	if err := sh.Run(); err != nil {
		t.Fatalf("Run after Stop: %v", err)
	}
	if err := sh.Deinit(); err != nil {
		t.Fatalf("Deinit: %v", err)
	}
	if got := sh.State(); got != StateUninitialized {
		t.Fatalf("State after Deinit = %v, want uninitialized", got)
	}

	// A deinitialized shell's port must be inert and bindable again.
	pp.push("x\r\n")
	if err := sh.Init(osi, &pp.Instance, nil, "shell0", Limits{}); err != nil {
		t.Fatalf("re-Init: %v", err)
	}
	if err := sh.Run(); err != nil {
		t.Fatalf("Run after re-Init: %v", err)
	}
	pp.push("nope\r\n")
	waitFor(t, "dispatch after re-Init", func() bool {
		return strings.Contains(pp.written(), "unknown command: nope\r\n")
	})
	if err := sh.Deinit(); err != nil {
		t.Fatalf("final Deinit: %v", err)
	}
}

func TestShell_RestartLoopIsDeterministic(t *testing.T) {
	sh, pp := newRunningShell(t, Limits{})

	for i := 0; i < 20; i++ {
		pp.push("junk") // partial line left for the next worker to flush
		if err := sh.Stop(); err != nil {
			t.Fatalf("Stop #%d: %v", i, err)
		}
		if err := sh.Run(); err != nil {
			t.Fatalf("Run #%d: %v", i, err)
		}
	}

	pp.push("\r\nnope\r\n")
	waitFor(t, "dispatch after restarts", func() bool {
		return strings.Contains(pp.written(), "unknown command: nope\r\n")
	})
}

func TestShell_DrainsBurstLargerThanBuffer(t *testing.T) {
	sh, pp := newRunningShell(t, Limits{}) // MaxLine 128, drain starts at 256

	got := make(chan struct{}, 1)
	if err := sh.CmdAttach(&Command{
		Name: "ping",
		Run: func(int, []string) error {
			got <- struct{}{}
			return nil
		},
	}); err != nil {
		t.Fatalf("CmdAttach: %v", err)
	}

	// One burst larger than the drain buffer; the transport refuses a
	// short destination, so the worker must grow to pop it.
	pp.push(strings.Repeat("a", 300) + "\r\n")
	waitFor(t, "overflow reply", func() bool {
		return strings.Contains(pp.written(), "error: line too long\r\n")
	})

	pp.push("ping\r\n")
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("command after burst never dispatched")
	}
}

func TestShell_CommandTableCapacity(t *testing.T) {
	sh, _ := newRunningShell(t, Limits{MaxCommands: 2})
	run := func(int, []string) error { return nil }

	if err := sh.CmdAttach(&Command{Name: "a", Run: run}); err != nil {
		t.Fatalf("CmdAttach a: %v", err)
	}
	if err := sh.CmdAttach(&Command{Name: "b", Run: run}); err != nil {
		t.Fatalf("CmdAttach b: %v", err)
	}
	if err := sh.CmdAttach(&Command{Name: "c", Run: run}); errcode.Of(err) != errcode.TableFull {
		t.Fatalf("CmdAttach c = %v, want table_full", err)
	}
}

func TestRegistry_AddRemoveSemantics(t *testing.T) {
	var r Registry
	run := func(int, []string) error { return nil }
	cmd := &Command{Name: "ver", Run: run}

	if err := r.Add(nil); errcode.Of(err) != errcode.InvalidArgs {
		t.Fatalf("Add(nil) = %v, want invalid_args", err)
	}
	if err := r.Add(&Command{Name: "ver"}); errcode.Of(err) != errcode.InvalidArgs {
		t.Fatalf("Add without Run = %v, want invalid_args", err)
	}
	if err := r.Add(cmd); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := r.Add(cmd); errcode.Of(err) != errcode.InUse {
		t.Fatalf("Add twice = %v, want in_use", err)
	}
	if err := r.Add(&Command{Name: "ver", Run: run}); errcode.Of(err) != errcode.InUse {
		t.Fatalf("Add same name = %v, want in_use", err)
	}

	if got, ok := r.Lookup("ver"); !ok || got != cmd {
		t.Fatalf("Lookup = %v %v", got, ok)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("Lookup(missing) = true")
	}

	if err := r.Remove(cmd); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := r.Remove(cmd); errcode.Of(err) != errcode.NotFound {
		t.Fatalf("Remove absent = %v, want not_found", err)
	}
}

func TestExec_LockHooksBracketRun(t *testing.T) {
	var trace []string
	cmd := &Command{
		Name:   "guarded",
		Lock:   func() { trace = append(trace, "lock") },
		Unlock: func() { trace = append(trace, "unlock") },
		Run: func(argc int, argv []string) error {
			trace = append(trace, "run")
			if argc != len(argv) {
				t.Errorf("argc = %d, want %d", argc, len(argv))
			}
			return nil
		},
	}
	if err := Exec(cmd, []string{"guarded", "arg"}); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	want := "lock,run,unlock"
	if got := strings.Join(trace, ","); got != want {
		t.Fatalf("trace = %s, want %s", got, want)
	}
}
