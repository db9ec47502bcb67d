// Package shell ties one OSAL instance, one HAL transport and a command
// registry together behind a message-driven worker thread. The receive
// interrupt posts queue messages; the worker drains the transport,
// assembles lines, tokenizes them and dispatches to registered commands.
package shell

import (
	"context"
	"sync"
	"time"

	"github.com/google/shlex"

	"cmdshell-go/errcode"
	"cmdshell-go/hal"
	"cmdshell-go/osal"
	"cmdshell-go/x/mathx"
)

type State uint8

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateStopped
)

type msgKind uint8

const (
	msgRxReceived msgKind = iota
	msgTxComplete
	msgRxTxError
	msgShutdown
)

type message struct {
	kind msgKind
	n    int
	err  error
}

// msgItemSize bounds the port-side copy of one queue item.
const msgItemSize = 24

// txWaitTimeout bounds the wait for a transmit-complete message so a dead
// line cannot wedge the worker.
const txWaitTimeout = time.Second

// stopJoinTimeout bounds Stop's wait for the worker to unwind after the
// shutdown message is posted.
const stopJoinTimeout = time.Second

// Limits bounds the shell's fixed structures. Zero fields take defaults.
type Limits struct {
	MaxCommands int
	MaxArgv     int
	MaxLine     int
	QueueDepth  int
}

func (l *Limits) normalize() {
	if l.MaxCommands <= 0 {
		l.MaxCommands = 16
	}
	if l.MaxArgv <= 0 {
		l.MaxArgv = 8
	}
	if l.MaxLine <= 0 {
		l.MaxLine = 128
	}
	if l.QueueDepth <= 0 {
		l.QueueDepth = 8
	}
}

// Shell is one dispatch loop instance.
type Shell struct {
	parent any
	name   string
	os     *osal.Instance
	hw     *hal.Instance
	reg    Registry
	limits Limits

	q      *osal.Queue
	thread *osal.Thread

	mu    sync.Mutex
	state State

	// worker-thread state, touched only by the worker
	line      []byte
	drain     []byte
	discard   bool // overlong line; swallow until the next terminator
	pendingRx bool
	stopReq   bool
}

// Init binds the shell to its collaborators, creates the message queue
// and attaches the worker to an OSAL thread slot. Any failure rolls the
// partial setup back.
func (s *Shell) Init(os *osal.Instance, hw *hal.Instance, parent any, name string, limits Limits) error {
	if s == nil || os == nil || hw == nil {
		return errcode.InvalidArgs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUninitialized {
		return errcode.Busy
	}
	limits.normalize()

	q, err := os.QueueCreate(msgItemSize, limits.QueueDepth)
	if err != nil {
		return err
	}
	thread, err := os.ThreadCreate(osal.ThreadConfig{
		Worker:   s.worker,
		Name:     name + ".worker",
		Priority: osal.PriorityMiddle,
	})
	if err != nil {
		_ = q.Delete()
		return err
	}

	if err := hw.OnRxReceived(func(n int) {
		_ = q.Put(message{kind: msgRxReceived, n: n})
	}); err != nil {
		_ = thread.Delete()
		_ = q.Delete()
		return err
	}
	if err := hw.OnTxComplete(func() {
		_ = q.Put(message{kind: msgTxComplete})
	}); err != nil {
		_ = hw.OnRxReceived(nil)
		_ = thread.Delete()
		_ = q.Delete()
		return err
	}
	if err := hw.OnRxTxError(func(e error) {
		_ = q.Put(message{kind: msgRxTxError, err: e})
	}); err != nil {
		_ = hw.OnTxComplete(nil)
		_ = hw.OnRxReceived(nil)
		_ = thread.Delete()
		_ = q.Delete()
		return err
	}

	s.parent = parent
	s.name = name
	s.os = os
	s.hw = hw
	s.limits = limits
	s.q = q
	s.thread = thread
	s.line = make([]byte, 0, limits.MaxLine)
	s.drain = make([]byte, mathx.Max(limits.MaxLine, 256))
	s.state = StateInitialized
	return nil
}

func (s *Shell) Name() string { return s.name }

func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CmdAttach registers a command; a full table is a capacity error.
func (s *Shell) CmdAttach(cmd *Command) error {
	if s == nil {
		return errcode.InvalidArgs
	}
	s.mu.Lock()
	if s.state == StateUninitialized {
		s.mu.Unlock()
		return errcode.NotBound
	}
	s.mu.Unlock()
	if s.reg.Len() >= s.limits.MaxCommands {
		return errcode.TableFull
	}
	return s.reg.Add(cmd)
}

// Commands returns a snapshot of the attached commands.
func (s *Shell) Commands() []*Command {
	if s == nil {
		return nil
	}
	return s.reg.Commands()
}

func (s *Shell) CmdDetach(cmd *Command) error {
	if s == nil {
		return errcode.InvalidArgs
	}
	return s.reg.Remove(cmd)
}

// Run flushes stale messages and starts the worker thread. Stop joins
// the previous worker, so no worker can be unwinding here.
func (s *Shell) Run() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInitialized && s.state != StateStopped {
		return errcode.Busy
	}
	if err := s.q.Reset(); err != nil {
		return err
	}
	if err := s.thread.Start(); err != nil {
		return err
	}
	s.state = StateRunning
	return nil
}

// Stop wakes the worker with a shutdown message, asks the portable layer
// to stop the thread and joins the worker. On a join timeout the shell
// stays running and the caller may retry.
func (s *Shell) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return nil
	}
	_ = s.q.Put(message{kind: msgShutdown})
	_ = s.thread.Stop()
	if err := s.thread.Join(stopJoinTimeout); err != nil {
		return err
	}
	s.state = StateStopped
	return nil
}

// Deinit stops the worker, detaches every command and clears all
// references.
func (s *Shell) Deinit() error {
	if s == nil {
		return errcode.InvalidArgs
	}
	_ = s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateUninitialized {
		return nil
	}
	if s.hw != nil {
		// The port must stop posting to the queue before it is deleted.
		_ = s.hw.OnRxReceived(nil)
		_ = s.hw.OnTxComplete(nil)
		_ = s.hw.OnRxTxError(nil)
	}
	if s.thread != nil {
		_ = s.thread.Delete()
		s.thread = nil
	}
	if s.q != nil {
		_ = s.q.Delete()
		s.q = nil
	}
	s.reg.clear()
	s.os = nil
	s.hw = nil
	s.parent = nil
	s.state = StateUninitialized
	return nil
}

// Output writes text through the transport and waits for the transmit to
// complete. Commands use this as their write path; callable only on the
// worker thread.
func (s *Shell) Output(text string) error {
	if s == nil || text == "" {
		return errcode.InvalidArgs
	}
	return s.writeAndWait(text)
}

// ---- worker ----

func (s *Shell) worker(ctx context.Context, _ any) {
	// Worker-owned state resets here, not in Run, so nothing races a
	// previous incarnation.
	s.stopReq = false
	s.pendingRx = false
	s.discard = false
	s.line = s.line[:0]
	for {
		item, err := s.q.Wait()
		if err != nil {
			return // queue deleted under us
		}
		if ctx.Err() != nil {
			return
		}
		msg, ok := item.(message)
		if !ok {
			continue
		}
		switch msg.kind {
		case msgShutdown:
			return
		case msgRxTxError:
			// Transport errors are recoverable: discard in-flight input
			// and resume waiting.
			s.line = s.line[:0]
			s.discard = false
		case msgTxComplete:
			// Stale completion from a flushed write; nothing to do.
		case msgRxReceived:
			s.drainInput()
		}
		if s.pendingRx {
			// Input arrived while a write was settling; service it now.
			s.pendingRx = false
			s.drainInput()
		}
		if s.stopReq || ctx.Err() != nil {
			return
		}
	}
}

// drainInput empties the transport's staged bytes into the line-assembly
// buffer and dispatches every completed line.
func (s *Shell) drainInput() {
	for s.hw.IsReadDataAvailable() {
		n, err := s.hw.Read(s.drain)
		if errcode.Of(err) == errcode.Overflow {
			// A burst staged more bytes than the drain buffer holds and
			// the transport refuses partial pops; grow to match.
			s.drain = make([]byte, 2*len(s.drain))
			continue
		}
		if err != nil || n == 0 {
			return
		}
		for _, b := range s.drain[:n] {
			switch b {
			case '\r', '\n':
				if s.discard {
					s.discard = false
					s.line = s.line[:0]
					break
				}
				if len(s.line) > 0 {
					line := string(s.line)
					s.line = s.line[:0]
					s.dispatch(line)
				}
			default:
				if s.discard {
					break
				}
				if len(s.line) >= s.limits.MaxLine {
					s.discard = true
					s.line = s.line[:0]
					s.reply("error: line too long")
					break
				}
				s.line = append(s.line, b)
			}
			if s.stopReq {
				return
			}
		}
	}
}

// dispatch tokenizes one assembled line and executes the named command.
// Unknown commands and malformed lines are reported on the output stream,
// never escalated.
func (s *Shell) dispatch(line string) {
	argv, err := shlex.Split(line)
	if err != nil {
		s.reply("error: " + err.Error())
		return
	}
	if len(argv) == 0 {
		return
	}
	if len(argv) > s.limits.MaxArgv {
		s.reply("error: too many arguments")
		return
	}
	cmd, ok := s.reg.Lookup(argv[0])
	if !ok {
		s.reply("unknown command: " + argv[0])
		return
	}
	if err := Exec(cmd, argv); err != nil {
		s.reply("error: " + err.Error())
	}
}

// reply writes a line of shell output, swallowing transport failures:
// the error path already flushed state and there is nobody else to tell.
func (s *Shell) reply(text string) {
	_ = s.writeAndWait(text + "\r\n")
}

// writeAndWait performs one transport write and blocks until the matching
// transmit-complete message arrives. Receive messages that interleave are
// remembered and serviced after the write settles.
func (s *Shell) writeAndWait(text string) error {
	if err := s.hw.Write([]byte(text)); err != nil {
		return err
	}
	for {
		item, err := s.q.Pend(txWaitTimeout)
		if err != nil {
			return err
		}
		msg, ok := item.(message)
		if !ok {
			continue
		}
		switch msg.kind {
		case msgTxComplete:
			return nil
		case msgRxReceived:
			s.pendingRx = true
		case msgRxTxError:
			s.line = s.line[:0]
			s.discard = false
			if msg.err != nil {
				return errcode.Wrap(errcode.PortError, "shell.write", msg.err)
			}
			return errcode.PortError
		case msgShutdown:
			s.stopReq = true
			return errcode.Busy
		}
	}
}
