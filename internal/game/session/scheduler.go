package session

import (
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from firing. Safe to call multiple times.
	Stop()
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	// AfterFunc calls fn once, after d, on a goroutine of the scheduler's
	// choosing.
	AfterFunc(d time.Duration, fn func()) Timer
}

// ClockScheduler schedules on the wall clock.
type ClockScheduler struct{}

// AfterFunc implements Scheduler.
func (ClockScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return NewStepTimer(d, fn)
}

// StepTimer fires a callback after a duration unless stopped.
// It is safe for concurrent use.
type StepTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewStepTimer creates and starts a timer that calls onFire after duration.
// onFire is called in a separate goroutine.
//
// Precondition: onFire must not be nil.
// Postcondition: onFire will be called unless Stop is called first.
func NewStepTimer(duration time.Duration, onFire func()) *StepTimer {
	st := &StepTimer{}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.timer = time.AfterFunc(duration, func() {
		st.mu.Lock()
		stopped := st.stopped
		st.mu.Unlock()
		if !stopped {
			onFire()
		}
	})
	return st
}

// Stop implements Timer.
//
// Postcondition: onFire will not be called after Stop returns, unless it
// had already started.
func (st *StepTimer) Stop() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.stopped = true
	st.timer.Stop()
}

// ManualScheduler queues callbacks until the caller fires them. It lets
// tests and step-through tools drive a Controller without real delays.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	owner   *ManualScheduler
}

func (t *manualTimer) Stop() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.stopped = true
}

// AfterFunc implements Scheduler.
func (m *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{delay: d, fn: fn, owner: m}
	m.pending = append(m.pending, t)
	return t
}

// Pending returns the number of queued callbacks that have not been stopped.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}

// FireNext runs the oldest callback that has not been stopped.
//
// Postcondition: Returns the callback's scheduled delay and true, or false
// when nothing is pending.
func (m *ManualScheduler) FireNext() (time.Duration, bool) {
	m.mu.Lock()
	var next *manualTimer
	for len(m.pending) > 0 {
		t := m.pending[0]
		m.pending = m.pending[1:]
		if !t.stopped {
			next = t
			break
		}
	}
	m.mu.Unlock()

	if next == nil {
		return 0, false
	}
	next.fn()
	return next.delay, true
}

// Drain fires callbacks until none are pending or limit have run, and
// returns the delays in firing order.
func (m *ManualScheduler) Drain(limit int) []time.Duration {
	var delays []time.Duration
	for len(delays) < limit {
		d, ok := m.FireNext()
		if !ok {
			break
		}
		delays = append(delays, d)
	}
	return delays
}
