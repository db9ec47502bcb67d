package osal

import (
	"time"

	"cmdshell-go/errcode"
)

// EventGroup is a set of independently settable bits tasks can wait on
// with all-bits or any-bit semantics.
type EventGroup struct {
	inst *Instance
	slot int
	h    PortEventGroup
}

func (in *Instance) EventGroupCreate() (*EventGroup, error) {
	if in == nil {
		return nil, errcode.InvalidArgs
	}
	p, err := in.bound()
	if err != nil {
		return nil, err
	}
	if p.Events == nil {
		return nil, errcode.Unsupported
	}
	h, err := p.Events.Create()
	if err != nil {
		return nil, err
	}
	g := &EventGroup{inst: in, h: h}
	in.mu.Lock()
	g.slot = storeSlot(in.events, g)
	in.mu.Unlock()
	if g.slot < 0 {
		_ = h.Delete()
		return nil, errcode.NoResource
	}
	return g, nil
}

func (g *EventGroup) Slot() int { return g.slot }

func (g *EventGroup) Delete() error {
	if g == nil || g.h == nil {
		return errcode.InvalidArgs
	}
	g.inst.mu.Lock()
	freeSlot(g.inst.events, g.slot)
	g.inst.mu.Unlock()
	err := g.h.Delete()
	g.h = nil
	return err
}

func (g *EventGroup) SetBits(bits EventBits) error {
	if g == nil || g.h == nil {
		return errcode.InvalidArgs
	}
	if bits == 0 {
		return errcode.InvalidArgs
	}
	return g.h.Set(bits)
}

func (g *EventGroup) ClearBits(bits EventBits) error {
	if g == nil || g.h == nil {
		return errcode.InvalidArgs
	}
	if bits == 0 {
		return errcode.InvalidArgs
	}
	return g.h.Clear(bits)
}

// WaitBits blocks until the mask condition holds or timeout expires and
// returns the bit snapshot taken at satisfaction time.
func (g *EventGroup) WaitBits(mask EventBits, clearOnExit, waitAll bool, timeout time.Duration) (EventBits, error) {
	if g == nil || g.h == nil {
		return 0, errcode.InvalidArgs
	}
	if mask == 0 {
		return 0, errcode.InvalidArgs
	}
	return g.h.Wait(mask, clearOnExit, waitAll, timeout)
}

// ActiveBits returns a non-blocking snapshot of the currently set bits.
func (g *EventGroup) ActiveBits() (EventBits, error) {
	if g == nil || g.h == nil {
		return 0, errcode.InvalidArgs
	}
	return g.h.Active(), nil
}
