package goport

import (
	"sync"
	"time"

	"cmdshell-go/errcode"
	"cmdshell-go/osal"
)

type streamPort struct{}

func (streamPort) Create(size, triggerLevel int) (osal.PortStream, error) {
	return &stream{
		size:    size,
		trigger: triggerLevel,
		gen:     make(chan struct{}),
	}, nil
}

// stream is a bounded byte queue. Readers block until the trigger level
// is buffered; a timed-out reader drains whatever is there.
type stream struct {
	mu      sync.Mutex
	buf     []byte
	size    int
	trigger int
	gen     chan struct{}
}

func (s *stream) Delete() error { return nil }

func (s *stream) wakeLocked() {
	close(s.gen)
	s.gen = make(chan struct{})
}

func (s *stream) Send(p []byte, timeout time.Duration) (int, error) {
	tc, stop := after(timeout)
	defer stop()
	sent := 0
	for {
		s.mu.Lock()
		if space := s.size - len(s.buf); space > 0 {
			n := len(p) - sent
			if n > space {
				n = space
			}
			s.buf = append(s.buf, p[sent:sent+n]...)
			sent += n
			s.wakeLocked()
			if sent == len(p) {
				s.mu.Unlock()
				return sent, nil
			}
		}
		wake := s.gen
		s.mu.Unlock()

		select {
		case <-wake:
		case <-tc:
			return sent, errcode.Timeout
		}
	}
}

func (s *stream) Receive(p []byte, timeout time.Duration) (int, error) {
	tc, stop := after(timeout)
	defer stop()
	need := s.trigger
	if need > len(p) {
		need = len(p)
	}
	for {
		s.mu.Lock()
		if len(s.buf) >= need {
			n := s.popLocked(p)
			s.mu.Unlock()
			return n, nil
		}
		wake := s.gen
		s.mu.Unlock()

		select {
		case <-wake:
		case <-tc:
			s.mu.Lock()
			n := s.popLocked(p)
			s.mu.Unlock()
			if n == 0 {
				return 0, errcode.Timeout
			}
			return n, nil
		}
	}
}

func (s *stream) popLocked(p []byte) int {
	n := copy(p, s.buf)
	if n > 0 {
		s.buf = append(s.buf[:0], s.buf[n:]...)
		s.wakeLocked()
	}
	return n
}

func (s *stream) Reset() error {
	s.mu.Lock()
	s.buf = s.buf[:0]
	s.wakeLocked()
	s.mu.Unlock()
	return nil
}

func (s *stream) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf) == 0
}
