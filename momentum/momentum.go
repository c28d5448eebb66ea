// Package momentum turns raw touch input into scroll deltas and, when the
// finger lifts, keeps scrolling with a friction-decayed velocity.
package momentum

import (
	"math"
	"time"

	"github.com/agiangrant/vlist/frame"
)

// Options configures a Simulator.
type Options struct {
	// Friction is the per-frame velocity multiplier while coasting (< 1).
	Friction float64
	// MinVelocity in px/ms below which coasting stops.
	MinVelocity float64
	// FrameMs is the frame duration assumed when converting velocity to a
	// per-frame delta.
	FrameMs float64
	// MaxSampleAge discards the release velocity when the finger rested
	// longer than this before lifting.
	MaxSampleAge time.Duration
	// Registry, when set, lets a touch-start on any simulator cancel the
	// momentum of every other simulator in the window.
	Registry *Registry
}

// DefaultOptions returns the standard touch feel: 0.95 friction per frame at
// 60 FPS.
func DefaultOptions() Options {
	return Options{
		Friction:     0.95,
		MinVelocity:  0.02,
		FrameMs:      1000.0 / 60,
		MaxSampleAge: 100 * time.Millisecond,
	}
}

// Target receives scroll deltas. ScrollBy reports whether the position
// changed; coasting stops when the target cannot move any further.
type Target interface {
	ScrollBy(dx, dy float64) bool
}

// Phase is the simulator state.
type Phase int

const (
	Idle Phase = iota
	Touching
	Coasting
)

func (p Phase) String() string {
	switch p {
	case Touching:
		return "touching"
	case Coasting:
		return "coasting"
	default:
		return "idle"
	}
}

// Simulator tracks one touch gesture at a time.
type Simulator struct {
	sched  frame.Scheduler
	clock  frame.Clock
	target Target
	opts   Options

	phase    Phase
	lastX    float64
	lastY    float64
	lastTime time.Time
	vx, vy   float64 // px per ms

	handle frame.Handle
	frames int
}

// New creates a simulator writing to target.
func New(sched frame.Scheduler, clock frame.Clock, target Target, opts Options) *Simulator {
	def := DefaultOptions()
	if opts.Friction <= 0 || opts.Friction >= 1 {
		opts.Friction = def.Friction
	}
	if opts.MinVelocity <= 0 {
		opts.MinVelocity = def.MinVelocity
	}
	if opts.FrameMs <= 0 {
		opts.FrameMs = def.FrameMs
	}
	if opts.MaxSampleAge <= 0 {
		opts.MaxSampleAge = def.MaxSampleAge
	}
	s := &Simulator{
		sched:  sched,
		clock:  clock,
		target: target,
		opts:   opts,
	}
	if opts.Registry != nil {
		opts.Registry.Add(s)
	}
	return s
}

// Phase returns the current state.
func (s *Simulator) Phase() Phase { return s.phase }

// Velocity returns the current velocity in px/ms.
func (s *Simulator) Velocity() (vx, vy float64) { return s.vx, s.vy }

// CoastFrames returns how many frames the last coast lasted.
func (s *Simulator) CoastFrames() int { return s.frames }

// TouchStart begins a gesture. Any momentum in the window is cancelled first.
func (s *Simulator) TouchStart(x, y float64) {
	if s.opts.Registry != nil {
		s.opts.Registry.CancelAll()
	} else {
		s.Cancel()
	}
	s.phase = Touching
	s.lastX, s.lastY = x, y
	s.lastTime = s.clock.Now()
	s.vx, s.vy = 0, 0
}

// TouchMove applies the finger movement to the target 1:1 and samples the
// velocity.
func (s *Simulator) TouchMove(x, y float64) {
	if s.phase != Touching {
		return
	}
	now := s.clock.Now()
	dx := s.lastX - x
	dy := s.lastY - y
	if dt := float64(now.Sub(s.lastTime)) / float64(time.Millisecond); dt > 0 {
		s.vx = dx / dt
		s.vy = dy / dt
	}
	s.lastX, s.lastY = x, y
	s.lastTime = now
	if dx != 0 || dy != 0 {
		s.target.ScrollBy(dx, dy)
	}
}

// TouchEnd releases the finger and starts coasting when the gesture was fast
// enough.
func (s *Simulator) TouchEnd() {
	if s.phase != Touching {
		return
	}
	if s.clock.Now().Sub(s.lastTime) > s.opts.MaxSampleAge {
		s.vx, s.vy = 0, 0
	}
	if !s.fastEnough() {
		s.stop()
		return
	}
	s.phase = Coasting
	s.frames = 0
	s.schedule()
}

// Cancel stops any coasting immediately.
func (s *Simulator) Cancel() {
	if s.handle != 0 {
		s.sched.CancelFrame(s.handle)
		s.handle = 0
	}
	if s.phase == Coasting {
		s.stop()
	}
}

// Close cancels and leaves the registry.
func (s *Simulator) Close() {
	s.Cancel()
	s.phase = Idle
	if s.opts.Registry != nil {
		s.opts.Registry.Remove(s)
	}
}

func (s *Simulator) fastEnough() bool {
	return math.Abs(s.vx) >= s.opts.MinVelocity || math.Abs(s.vy) >= s.opts.MinVelocity
}

func (s *Simulator) stop() {
	s.phase = Idle
	s.vx, s.vy = 0, 0
}

func (s *Simulator) schedule() {
	s.handle = s.sched.RequestFrame(s.step)
}

func (s *Simulator) step(time.Time) {
	s.handle = 0
	if s.phase != Coasting {
		return
	}
	s.frames++

	s.vx *= s.opts.Friction
	s.vy *= s.opts.Friction
	if !s.fastEnough() {
		s.stop()
		return
	}

	if !s.target.ScrollBy(s.vx*s.opts.FrameMs, s.vy*s.opts.FrameMs) {
		s.stop()
		return
	}
	s.schedule()
}
