package config

import (
	"fmt"

	"cmdshell-go/x/mathx"
)

// Validate checks a normalized config against the bounds the runtime's
// fixed structures assume.
func Validate(cfg *Config) error {
	s := &cfg.Serial
	if s.Device == "" {
		return fmt.Errorf("serial: device required")
	}
	if s.BaudRate <= 0 {
		return fmt.Errorf("serial: invalid baud_rate %d", s.BaudRate)
	}
	if !mathx.IsPow2(s.RingSize) || s.RingSize < 2 {
		return fmt.Errorf("serial: ring_size must be a power of two >= 2, got %d", s.RingSize)
	}
	if s.TxBufSize <= 0 {
		return fmt.Errorf("serial: invalid tx_buf_size %d", s.TxBufSize)
	}
	switch s.Parity {
	case "N", "E", "O":
	default:
		return fmt.Errorf("serial: parity must be N, E or O, got %q", s.Parity)
	}

	sh := &cfg.Shell
	if sh.MaxCommands <= 0 || sh.MaxArgv <= 0 || sh.QueueDepth <= 0 {
		return fmt.Errorf("shell: bounds must be positive")
	}
	if sh.MaxLine < 2 {
		return fmt.Errorf("shell: max_line too small: %d", sh.MaxLine)
	}
	if sh.MaxLine > s.RingSize {
		return fmt.Errorf("shell: max_line %d exceeds serial ring_size %d", sh.MaxLine, s.RingSize)
	}

	o := &cfg.OSAL
	for _, v := range []int{o.Queues, o.Locks, o.Semaphores, o.Streams, o.Timers, o.Events, o.Threads} {
		if v < 0 {
			return fmt.Errorf("osal: capacities must be non-negative")
		}
	}
	return nil
}
