package frame

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/agiangrant/vlist/logger"
)

// LoopConfig configures the fixed-rate loop.
type LoopConfig struct {
	// TargetFPS is the desired frames per second (default: 60).
	TargetFPS int

	Logger logger.Logger
}

// DefaultLoopConfig returns sensible defaults.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		TargetFPS: 60,
	}
}

// Loop is a fixed-rate driver for non-browser targets. Every callback, timer
// and posted function runs on the goroutine that called Run.
type Loop struct {
	q      *queue
	config LoopConfig
	log    logger.Logger

	targetFrameTime time.Duration
	startTime       time.Time

	running    atomic.Bool
	frameCount atomic.Uint64
	wake       chan struct{}

	onFrame func(now time.Time)
}

// NewLoop creates a loop with the specified configuration.
func NewLoop(config LoopConfig) *Loop {
	if config.TargetFPS < 1 {
		config.TargetFPS = 60
	}
	return &Loop{
		q:               newQueue(),
		config:          config,
		log:             logger.OrDiscard(config.Logger),
		targetFrameTime: time.Second / time.Duration(config.TargetFPS),
		wake:            make(chan struct{}, 1),
	}
}

// OnFrame sets a callback invoked after the frame callbacks of every tick.
// Front ends use it to repaint.
func (l *Loop) OnFrame(fn func(now time.Time)) {
	l.onFrame = fn
}

func (l *Loop) Now() time.Time { return time.Now() }

func (l *Loop) RequestFrame(fn FrameFunc) Handle { return l.q.requestFrame(fn) }

func (l *Loop) CancelFrame(h Handle) { l.q.cancelFrame(h) }

func (l *Loop) AfterFunc(d time.Duration, fn func()) Handle {
	return l.q.afterFunc(time.Now().Add(d), fn)
}

func (l *Loop) CancelTimer(h Handle) { l.q.cancelTimer(h) }

// Post queues fn for the loop goroutine and wakes it.
func (l *Loop) Post(fn func()) {
	l.q.post(fn)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return nil
	}
	defer l.running.Store(false)

	l.startTime = time.Now()
	ticker := time.NewTicker(l.targetFrameTime)
	defer ticker.Stop()

	l.log.Debug("frame loop started", "fps", l.config.TargetFPS)
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("frame loop stopped", "frames", l.frameCount.Load())
			return ctx.Err()
		case <-l.wake:
			l.q.runPosted()
			l.q.fireTimers(time.Now())
		case now := <-ticker.C:
			l.tick(now)
		}
	}
}

func (l *Loop) tick(now time.Time) {
	l.q.runPosted()
	l.q.fireTimers(now)
	l.q.runFrames(now)
	l.frameCount.Add(1)
	if l.onFrame != nil {
		l.onFrame(now)
	}
}

// IsRunning reports whether Run is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Stats returns loop statistics.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		FrameCount:    l.frameCount.Load(),
		PendingFrames: l.q.pendingFrames(),
		PendingTimers: l.q.pendingTimers(),
	}
}

// LoopStats contains loop statistics.
type LoopStats struct {
	FrameCount    uint64
	PendingFrames int
	PendingTimers int
}
