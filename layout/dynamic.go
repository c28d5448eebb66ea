package layout

import (
	"errors"
	"time"

	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/logger"
)

const (
	// DefaultBatchSize is the number of items measured per frame before any
	// self-tuning has happened.
	DefaultBatchSize = 50

	// DefaultBatchBudget is the wall-clock time a batch may take before the
	// batch size is halved.
	DefaultBatchBudget = 60 * time.Millisecond
)

// DynamicOptions configures a DynamicPass.
type DynamicOptions struct {
	BatchSize   int
	BatchBudget time.Duration
	Width       float64
	Logger      logger.Logger

	// OnProgress is called after every batch that measured at least one item.
	OnProgress func(Progress)
	// OnComplete is called once when every record is complete.
	OnComplete func()
}

// Progress summarises a dynamic pass.
type Progress struct {
	Measured  int
	Total     int
	BatchSize int
	Batches   int
	Done      bool
}

// DynamicPass discovers true item heights in the background. Each frame it
// measures a bounded batch starting at a circular cursor that the viewport
// relocates to whatever the user is looking at, so nearby items are measured
// first. The batch size halves whenever a batch overruns its time budget.
type DynamicPass[T any] struct {
	cache *Cache
	items []T
	host  Measurer[T]
	sched frame.Scheduler
	clock frame.Clock
	opts  DynamicOptions
	log   logger.Logger

	cursor     Cursor
	measured   int
	batchSize  int
	batches    int
	width      float64
	started    bool
	inProgress bool
	done       bool

	handle     frame.Handle
	generation uint64
}

// NewDynamicPass prepares a pass over cache. It does nothing until Start.
func NewDynamicPass[T any](cache *Cache, items []T, host Measurer[T], sched frame.Scheduler, clock frame.Clock, opts DynamicOptions) *DynamicPass[T] {
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchBudget <= 0 {
		opts.BatchBudget = DefaultBatchBudget
	}
	p := &DynamicPass[T]{
		cache:     cache,
		items:     items,
		host:      host,
		sched:     sched,
		clock:     clock,
		opts:      opts,
		log:       logger.With(logger.OrDiscard(opts.Logger), "component", "dynamic-pass"),
		cursor:    NewCursor(cache.Len(), 0),
		measured:  cache.Complete(),
		batchSize: opts.BatchSize,
		width:     opts.Width,
	}
	p.done = p.measured >= cache.Len()
	return p
}

// Start schedules the first batch. It is a no-op once the pass is complete or
// already running.
func (p *DynamicPass[T]) Start() {
	p.started = true
	if p.done {
		p.finish()
		return
	}
	if p.inProgress {
		return
	}
	p.inProgress = true
	p.schedule()
}

func (p *DynamicPass[T]) schedule() {
	gen := p.generation
	p.handle = p.sched.RequestFrame(func(time.Time) {
		if gen != p.generation {
			return
		}
		p.handle = 0
		p.Step()
		if p.inProgress {
			p.schedule()
		}
	})
}

// Cancel abandons any scheduled batch. A callback that was already queued
// sees a newer generation and returns without touching the cache.
func (p *DynamicPass[T]) Cancel() {
	p.generation++
	if p.handle != 0 {
		p.sched.CancelFrame(p.handle)
		p.handle = 0
	}
	p.inProgress = false
}

// Relocate moves the cursor so the next batch starts at index.
func (p *DynamicPass[T]) Relocate(index int) {
	if p.done {
		return
	}
	p.cursor.Seek(index)
}

// Cursor returns the index the next batch starts at.
func (p *DynamicPass[T]) Cursor() int {
	return p.cursor.Index()
}

// SetWidth changes the width items are measured at. Heights measured at a
// different width are discarded and, if the pass was started, it restarts.
func (p *DynamicPass[T]) SetWidth(width float64) {
	if width == p.width {
		return
	}
	p.width = width
	if p.measured == 0 {
		return
	}

	wasStarted := p.started
	p.Cancel()
	p.cache.reset()
	p.cursor.Seek(0)
	p.measured = 0
	p.batchSize = p.opts.BatchSize
	p.batches = 0
	p.done = p.cache.Len() == 0
	p.log.Debug("width changed, remeasuring", "width", width, "items", p.cache.Len())
	if wasStarted {
		p.Start()
	}
}

// InProgress reports whether batches are being scheduled.
func (p *DynamicPass[T]) InProgress() bool { return p.inProgress }

// Done reports whether every record has been measured.
func (p *DynamicPass[T]) Done() bool { return p.done }

// BatchSize returns the current (self-tuned) batch size.
func (p *DynamicPass[T]) BatchSize() int { return p.batchSize }

// Progress returns a snapshot of the pass.
func (p *DynamicPass[T]) Progress() Progress {
	return Progress{
		Measured:  p.measured,
		Total:     p.cache.Len(),
		BatchSize: p.batchSize,
		Batches:   p.batches,
		Done:      p.done,
	}
}

// Step measures one batch synchronously and reports whether the pass is
// complete. Scheduled frames call it; tests may call it directly.
func (p *DynamicPass[T]) Step() bool {
	if p.done {
		return true
	}
	n := p.cache.Len()
	if n == 0 || p.measured >= n {
		p.finish()
		return true
	}
	if p.host == nil || !p.host.Ready() {
		p.log.Debug("measurement host not ready, deferring", "cursor", p.cursor.Index())
		return false
	}

	start := p.clock.Now()
	records := p.cache.records
	spacing := p.cache.spacing
	currTop := records[p.cursor.Index()].Top
	minTouched := n
	measuredNow := 0

	for visited := 0; visited < n && measuredNow < p.batchSize && p.measured < n; visited++ {
		i := p.cursor.Index()
		r := &records[i]
		if !r.Complete {
			h, err := p.host.Measure(p.items[i], i, p.width)
			if errors.Is(err, ErrHostUnavailable) {
				p.log.Debug("measurement host went away mid-batch", "index", i)
				break
			}
			if err != nil {
				p.log.Warn("measurement failed, using default height", "index", i, "error", err)
				h = p.cache.defaultHeight
			}
			p.cache.setHeight(i, h, true)
			p.measured++
			measuredNow++
			if i < minTouched {
				minTouched = i
			}
		}
		r.Top = currTop
		currTop += r.Height + spacing
		if p.cursor.Next() == 0 {
			currTop = 0
		}
	}

	if minTouched < n {
		p.cache.RefreshFrom(minTouched)
	}
	p.batches++

	elapsed := p.clock.Now().Sub(start)
	if elapsed > p.opts.BatchBudget && p.batchSize > 1 {
		p.batchSize /= 2
		p.log.Debug("batch over budget, shrinking", "elapsed", elapsed, "batchSize", p.batchSize)
	}

	if p.measured >= n {
		p.finish()
		return true
	}
	if measuredNow > 0 && p.opts.OnProgress != nil {
		p.opts.OnProgress(p.Progress())
	}
	return false
}

// finish freezes the pass with every offset recomputed in order. Callbacks
// fire only on the transition to done.
func (p *DynamicPass[T]) finish() {
	first := !p.done
	p.Cancel()
	p.cursor.Seek(0)
	p.cache.RefreshOffsets()
	p.done = true
	if !first {
		return
	}
	p.log.Debug("measurement complete", "items", p.cache.Len(), "batches", p.batches)
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(p.Progress())
	}
	if p.opts.OnComplete != nil {
		p.opts.OnComplete()
	}
}
