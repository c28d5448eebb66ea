package frame

import (
	"sort"
	"sync"
	"time"
)

type timer struct {
	at time.Time
	fn func()
}

// queue holds the pending work shared by every driver. Callbacks are always
// invoked without the lock held so they may schedule or cancel freely.
type queue struct {
	mu     sync.Mutex
	next   Handle
	frames map[Handle]FrameFunc
	order  []Handle
	timers map[Handle]*timer
	posted []func()
}

func newQueue() *queue {
	return &queue{
		frames: make(map[Handle]FrameFunc),
		timers: make(map[Handle]*timer),
	}
}

func (q *queue) handle() Handle {
	q.next++
	return q.next
}

func (q *queue) requestFrame(fn FrameFunc) Handle {
	q.mu.Lock()
	defer q.mu.Unlock()
	h := q.handle()
	q.frames[h] = fn
	q.order = append(q.order, h)
	return h
}

func (q *queue) cancelFrame(h Handle) {
	q.mu.Lock()
	delete(q.frames, h)
	q.mu.Unlock()
}

func (q *queue) afterFunc(at time.Time, fn func()) Handle {
	q.mu.Lock()
	defer q.mu.Unlock()
	h := q.handle()
	q.timers[h] = &timer{at: at, fn: fn}
	return h
}

func (q *queue) cancelTimer(h Handle) {
	q.mu.Lock()
	delete(q.timers, h)
	q.mu.Unlock()
}

func (q *queue) post(fn func()) {
	q.mu.Lock()
	q.posted = append(q.posted, fn)
	q.mu.Unlock()
}

// runPosted runs every function posted before the call.
func (q *queue) runPosted() int {
	q.mu.Lock()
	batch := q.posted
	q.posted = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// runFrames runs the frame callbacks requested before the call. Callbacks
// requested while the batch runs wait for the next frame.
func (q *queue) runFrames(now time.Time) int {
	q.mu.Lock()
	batch := q.order
	q.order = nil
	q.mu.Unlock()

	ran := 0
	for _, h := range batch {
		q.mu.Lock()
		fn, ok := q.frames[h]
		delete(q.frames, h)
		q.mu.Unlock()
		if !ok {
			continue
		}
		fn(now)
		ran++
	}
	return ran
}

// fireTimers runs timers due at now in deadline order. Timers armed by the
// callbacks themselves are not considered until the next call.
func (q *queue) fireTimers(now time.Time) int {
	q.mu.Lock()
	var due []Handle
	for h, t := range q.timers {
		if !t.at.After(now) {
			due = append(due, h)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		a, b := q.timers[due[i]], q.timers[due[j]]
		if a.at.Equal(b.at) {
			return due[i] < due[j]
		}
		return a.at.Before(b.at)
	})
	q.mu.Unlock()

	fired := 0
	for _, h := range due {
		q.mu.Lock()
		t, ok := q.timers[h]
		delete(q.timers, h)
		q.mu.Unlock()
		if !ok {
			continue
		}
		t.fn()
		fired++
	}
	return fired
}

func (q *queue) pendingFrames() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

func (q *queue) pendingTimers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.timers)
}

// nextDeadline reports the earliest timer deadline.
func (q *queue) nextDeadline() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var earliest time.Time
	found := false
	for _, t := range q.timers {
		if !found || t.at.Before(earliest) {
			earliest = t.at
			found = true
		}
	}
	return earliest, found
}
