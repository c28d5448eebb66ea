package frame

import (
	"time"
)

// Epoch is the starting time of a Manual driver created with NewManual.
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Manual is a deterministic driver. Nothing happens until the caller steps it:
// Frame runs one frame, Advance moves the clock and fires timers, Drain runs
// posted functions. It is not safe for concurrent use.
type Manual struct {
	q        *queue
	now      time.Time
	interval time.Duration
	frames   uint64
}

// NewManual creates a manual driver starting at Epoch with a 60 FPS frame
// interval.
func NewManual() *Manual {
	return &Manual{
		q:        newQueue(),
		now:      Epoch,
		interval: DefaultFrameInterval,
	}
}

// SetInterval changes the amount of virtual time each Frame consumes.
func (m *Manual) SetInterval(d time.Duration) {
	if d > 0 {
		m.interval = d
	}
}

func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) RequestFrame(fn FrameFunc) Handle { return m.q.requestFrame(fn) }

func (m *Manual) CancelFrame(h Handle) { m.q.cancelFrame(h) }

func (m *Manual) AfterFunc(d time.Duration, fn func()) Handle {
	return m.q.afterFunc(m.now.Add(d), fn)
}

func (m *Manual) CancelTimer(h Handle) { m.q.cancelTimer(h) }

func (m *Manual) Post(fn func()) { m.q.post(fn) }

// Sleep moves the clock forward without firing timers. Measurement hosts in
// tests use it to simulate rendering cost inside a batch.
func (m *Manual) Sleep(d time.Duration) {
	m.now = m.now.Add(d)
}

// Advance moves the clock forward by d, running posted functions and every
// timer that falls due along the way.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		m.q.runPosted()
		at, ok := m.q.nextDeadline()
		if !ok || at.After(target) {
			break
		}
		if at.After(m.now) {
			m.now = at
		}
		m.q.fireTimers(m.now)
	}
	m.now = target
	m.q.runPosted()
}

// Drain runs posted functions until none remain.
func (m *Manual) Drain() {
	for m.q.runPosted() > 0 {
	}
}

// Frame advances one frame interval and runs the frame callbacks that were
// requested before the call. It returns the number of callbacks run.
func (m *Manual) Frame() int {
	m.Advance(m.interval)
	m.frames++
	return m.q.runFrames(m.now)
}

// RunFrames runs until no frame callbacks are pending or max frames have
// elapsed. It returns the number of frames stepped.
func (m *Manual) RunFrames(max int) int {
	n := 0
	for n < max && m.q.pendingFrames() > 0 {
		m.Frame()
		n++
	}
	return n
}

// Pending reports the number of frame callbacks waiting for the next frame.
func (m *Manual) Pending() int { return m.q.pendingFrames() }

// PendingTimers reports the number of armed timers.
func (m *Manual) PendingTimers() int { return m.q.pendingTimers() }

// FrameCount reports how many frames have been stepped.
func (m *Manual) FrameCount() uint64 { return m.frames }
