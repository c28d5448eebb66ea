// Package frame provides the scheduling model the layout engine runs on: a
// single logical thread that interleaves per-frame callbacks, timers and
// posted input events.
//
// Two drivers are provided. Loop runs at a fixed frame rate on the goroutine
// that calls Run and is the driver for real front ends. Manual steps frames
// and time explicitly and is used by tests and benchmarks.
package frame

import (
	"time"
)

// Handle identifies a scheduled frame callback or timer. The zero Handle is
// never issued and cancelling it is a no-op.
type Handle uint64

// FrameFunc is invoked once on the next frame with the frame timestamp.
type FrameFunc func(now time.Time)

// Scheduler schedules work for the next frame.
type Scheduler interface {
	RequestFrame(fn FrameFunc) Handle
	CancelFrame(h Handle)
}

// Timers runs a function after a delay on the driver's thread.
type Timers interface {
	AfterFunc(d time.Duration, fn func()) Handle
	CancelTimer(h Handle)
}

// Clock reports the driver's notion of the current time.
type Clock interface {
	Now() time.Time
}

// Driver is the full scheduling surface consumed by the viewport.
type Driver interface {
	Scheduler
	Timers
	Clock

	// Post queues fn to run on the driver's thread. It is safe to call from
	// any goroutine and is how input events reach the engine.
	Post(fn func())
}

// DefaultFrameInterval is the frame period assumed when none is configured.
const DefaultFrameInterval = time.Second / 60

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}
