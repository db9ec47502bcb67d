package osal

import (
	"time"

	"cmdshell-go/errcode"
)

// StreamBuffer is a byte stream with a read trigger level (watermark).
type StreamBuffer struct {
	inst *Instance
	slot int
	h    PortStream
}

// StreamCreate fails with errcode.InvalidArgs when the trigger level
// exceeds the buffer size.
func (in *Instance) StreamCreate(size, triggerLevel int) (*StreamBuffer, error) {
	if in == nil || size <= 0 || triggerLevel <= 0 || triggerLevel > size {
		return nil, errcode.InvalidArgs
	}
	p, err := in.bound()
	if err != nil {
		return nil, err
	}
	if p.Streams == nil {
		return nil, errcode.Unsupported
	}
	h, err := p.Streams.Create(size, triggerLevel)
	if err != nil {
		return nil, err
	}
	s := &StreamBuffer{inst: in, h: h}
	in.mu.Lock()
	s.slot = storeSlot(in.streams, s)
	in.mu.Unlock()
	if s.slot < 0 {
		_ = h.Delete()
		return nil, errcode.NoResource
	}
	return s, nil
}

func (s *StreamBuffer) Slot() int { return s.slot }

func (s *StreamBuffer) Delete() error {
	if s == nil || s.h == nil {
		return errcode.InvalidArgs
	}
	s.inst.mu.Lock()
	freeSlot(s.inst.streams, s.slot)
	s.inst.mu.Unlock()
	err := s.h.Delete()
	s.h = nil
	return err
}

// Send copies p into the stream, blocking up to timeout for space.
func (s *StreamBuffer) Send(p []byte, timeout time.Duration) (int, error) {
	if s == nil || s.h == nil || len(p) == 0 {
		return 0, errcode.InvalidArgs
	}
	return s.h.Send(p, timeout)
}

// SendBlocking is Send with no bound.
func (s *StreamBuffer) SendBlocking(p []byte) (int, error) {
	return s.Send(p, WaitForever)
}

// Receive fills p, blocking up to timeout for the trigger level to be
// reached. On timeout it returns whatever is available.
func (s *StreamBuffer) Receive(p []byte, timeout time.Duration) (int, error) {
	if s == nil || s.h == nil || len(p) == 0 {
		return 0, errcode.InvalidArgs
	}
	return s.h.Receive(p, timeout)
}

// ReceiveBlocking is Receive with no bound.
func (s *StreamBuffer) ReceiveBlocking(p []byte) (int, error) {
	return s.Receive(p, WaitForever)
}

func (s *StreamBuffer) Reset() error {
	if s == nil || s.h == nil {
		return errcode.InvalidArgs
	}
	return s.h.Reset()
}

func (s *StreamBuffer) IsEmpty() (bool, error) {
	if s == nil || s.h == nil {
		return false, errcode.InvalidArgs
	}
	return s.h.IsEmpty(), nil
}
