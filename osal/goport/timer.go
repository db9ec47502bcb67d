package goport

import (
	"sync"
	"time"

	"cmdshell-go/errcode"
	"cmdshell-go/osal"
)

type timerPort struct{}

func (timerPort) Create(cfg osal.TimerConfig) (osal.PortTimer, error) {
	return &swTimer{cfg: cfg}, nil
}

type swTimer struct {
	mu      sync.Mutex
	cfg     osal.TimerConfig
	stopCh  chan struct{}
	running bool
}

func (t *swTimer) Delete() error {
	return t.Stop()
}

func (t *swTimer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return errcode.Busy
	}
	t.startLocked()
	return nil
}

func (t *swTimer) startLocked() {
	stop := make(chan struct{})
	t.stopCh = stop
	t.running = true
	period := t.cfg.Period
	go func() {
		tm := time.NewTimer(period)
		defer tm.Stop()
		for {
			select {
			case <-stop:
				return
			case <-tm.C:
				t.cfg.Expired(t.cfg.Param)
				if !t.cfg.AutoReload {
					t.mu.Lock()
					if t.stopCh == stop {
						t.running = false
					}
					t.mu.Unlock()
					return
				}
				tm.Reset(period)
			}
		}
	}()
}

func (t *swTimer) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	return nil
}

func (t *swTimer) stopLocked() {
	if t.stopCh != nil {
		close(t.stopCh)
		t.stopCh = nil
	}
	t.running = false
}

// Reset restarts the period from now.
func (t *swTimer) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.startLocked()
	return nil
}

func (t *swTimer) SetPeriod(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg.Period = d
	if t.running {
		t.stopLocked()
		t.startLocked()
	}
	return nil
}
