// Package viewport hosts a layout cache inside a scroll container: it turns
// native scroll, resize, wheel and touch signals into a visible index range
// and exposes imperative scrolling to the owner.
package viewport

import (
	"math"

	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/layout"
	"github.com/agiangrant/vlist/logger"
	"github.com/agiangrant/vlist/momentum"
)

// State mirrors the scroll container plus the derived visible range.
type State struct {
	ScrollTop   float64
	ScrollLeft  float64
	FrameWidth  float64
	FrameHeight float64

	// First and Last bound the overscanned visible range [First, Last).
	First int
	Last  int
	// Page is the first strictly visible index.
	Page int

	IsScrollEnd bool
	IsFocused   bool
	IsScrolling bool
}

// ScrollEvent describes one scroll notification.
type ScrollEvent struct {
	Top  float64
	Left float64
}

// WheelEvent is a wheel signal in pixels.
type WheelEvent struct {
	DeltaX float64
	DeltaY float64
}

// Callbacks are the owner's hooks. Every field is optional.
type Callbacks struct {
	OnScroll     func(ev ScrollEvent, deltaY, deltaX float64, focused bool)
	OnPageChange func(page int, isScrollEnd bool)
	// OnWheel returns true to consume the event. The return value is ignored
	// in passive mode.
	OnWheel func(ev WheelEvent) bool
	// OnInvalidate asks the owner to re-render the visible rows.
	OnInvalidate func()
	// OnMeasured reports dynamic measurement progress.
	OnMeasured func(layout.Progress)
}

// Row is one visible item as handed to the renderer.
type Row[T any] struct {
	Index       int
	Item        T
	Top         float64
	Height      float64
	IsScrolling bool
	IsFocused   bool
	// Centered asks the renderer to center the row horizontally.
	Centered bool
}

// Offset returns the horizontal offset of a row of the given width inside a
// frame, honouring Centered.
func (r Row[T]) Offset(rowWidth, frameWidth float64) float64 {
	if !r.Centered || rowWidth >= frameWidth {
		return 0
	}
	return math.Floor((frameWidth - rowWidth) / 2)
}

// RenderFunc draws one row.
type RenderFunc[T any] func(row Row[T])

// Controller is the viewport of a virtualized list. All methods must be
// called from the driver's goroutine.
type Controller[T any] struct {
	opts      Options
	driver    frame.Driver
	container Container
	cb        Callbacks
	log       logger.Logger

	items    []T
	strategy layout.Strategy[T]
	cache    *layout.Cache
	dyn      *layout.DynamicPass[T]

	state    State
	rawFirst int
	rawLast  int
	lastPage int
	lastEnd  bool

	scrollTimer frame.Handle
	silent      bool
	silentTimer frame.Handle

	locator      Locator
	pendingFocus *focusRequest
	focusFrame   frame.Handle

	touch  *momentum.Simulator
	closed bool
}

// New creates a controller on container and registers itself as the
// container's listener. The list starts empty.
func New[T any](driver frame.Driver, container Container, opts Options, cb Callbacks) *Controller[T] {
	opts = opts.withDefaults()
	c := &Controller[T]{
		opts:      opts,
		driver:    driver,
		container: container,
		cb:        cb,
		log:       logger.With(logger.OrDiscard(opts.Logger), "component", "viewport"),
		strategy:  layout.StrategyFor[T](nil, nil),
		cache:     layout.NewCache(0, opts.DefaultItemHeight, opts.Spacing),
		lastPage:  -1,
	}
	c.state.FrameWidth = container.ClientWidth()
	c.state.FrameHeight = container.ClientHeight()
	c.state.ScrollTop = container.ScrollTop()
	c.state.ScrollLeft = container.ScrollLeft()
	c.touch = momentum.New(driver, driver, scrollTarget[T]{c}, opts.Momentum)
	container.SetListener(c)
	return c
}

// SetItems replaces the item sequence. Any measurement in flight for the old
// sequence is abandoned and the cache is rebuilt from scratch.
func (c *Controller[T]) SetItems(items []T, s layout.Strategy[T]) {
	if c.closed {
		return
	}
	if c.dyn != nil {
		c.dyn.Cancel()
		c.dyn = nil
	}
	if s == nil {
		s = layout.StrategyFor[T](nil, nil)
	}
	c.items = items
	c.strategy = s
	c.cache = layout.Build(items, s, c.opts.DefaultItemHeight, c.opts.Spacing)

	c.log.Debug("items replaced", "count", len(items), "dynamic", s.Dynamic())

	c.rawFirst, c.rawLast = 0, 0
	c.lastPage = -1
	c.syncContent()
	c.ComputeVisibleRange()
	c.state.IsScrollEnd = c.atEnd()
	c.notifyPage()

	// a new pass starts at index 0; scrolling relocates it from there
	if m, ok := s.(layout.MeasuredHeight[T]); ok && m.Dynamic() {
		c.dyn = layout.NewDynamicPass(c.cache, items, m.Host, c.driver, c.driver, layout.DynamicOptions{
			BatchSize:   c.opts.BatchSize,
			BatchBudget: c.opts.BatchBudget,
			Width:       c.state.FrameWidth,
			Logger:      c.opts.Logger,
			OnProgress:  c.onMeasured,
		})
		c.dyn.Start()
	}
	c.invalidate()
}

// Refresh reruns the static pass over the current sequence, picking up
// changed provided heights. Measured heights already in the cache are kept.
func (c *Controller[T]) Refresh() {
	if c.closed {
		return
	}
	if err := layout.StaticPass(c.cache, c.items, c.strategy); err != nil {
		c.log.Error("static pass failed", "error", err)
		return
	}
	c.syncContent()
	c.ComputeVisibleRange()
	c.invalidate()
}

// Items returns the current sequence.
func (c *Controller[T]) Items() []T { return c.items }

// Cache returns the layout cache of the current sequence.
func (c *Controller[T]) Cache() *layout.Cache { return c.cache }

// Measurement returns the progress of dynamic measurement. ok is false in
// provided-height mode.
func (c *Controller[T]) Measurement() (p layout.Progress, ok bool) {
	if c.dyn == nil {
		return layout.Progress{}, false
	}
	return c.dyn.Progress(), true
}

// State returns a snapshot of the viewport state.
func (c *Controller[T]) State() State { return c.state }

// Options returns the effective options.
func (c *Controller[T]) Options() Options { return c.opts }

// SetLocator installs the lookup used by ScrollToItem selectors.
func (c *Controller[T]) SetLocator(l Locator) { c.locator = l }

// OnResize records a new frame size. A zero-height frame leaves the visible
// range untouched.
func (c *Controller[T]) OnResize(width, height float64) {
	if c.closed {
		return
	}
	c.state.FrameWidth, c.state.FrameHeight = width, height
	if height <= 0 || width < 0 {
		c.log.Debug("skipping empty frame", "width", width, "height", height)
		return
	}
	// a collapsed frame may already have carried the new width
	if c.dyn != nil {
		c.dyn.SetWidth(width)
	}
	c.syncContent()
	c.ComputeVisibleRange()
	c.state.IsScrollEnd = c.atEnd()
	c.notifyPage()
	c.invalidate()
}

// OnScroll handles a native scroll event.
func (c *Controller[T]) OnScroll(top, left float64) {
	if c.closed {
		return
	}
	dy := top - c.state.ScrollTop
	dx := left - c.state.ScrollLeft
	c.state.ScrollTop, c.state.ScrollLeft = top, left

	c.ComputeVisibleRange()
	c.state.IsScrollEnd = c.atEnd()
	c.markScrolling()

	if c.consumeSilent() {
		c.log.Debug("silent scroll", "top", top)
		c.invalidate()
		return
	}
	c.notifyPage()
	if c.cb.OnScroll != nil {
		c.cb.OnScroll(ScrollEvent{Top: top, Left: left}, dy, dx, c.state.IsFocused)
	}
	c.invalidate()
}

// OnScrollEnd handles the native scroll-end signal.
func (c *Controller[T]) OnScrollEnd() {
	if c.closed {
		return
	}
	c.clearSilent()
	if f := c.pendingFocus; f != nil && f.afterEnd {
		c.pendingFocus = nil
		c.scheduleFocus(f)
	}
}

// OnWheel handles a wheel event. The container is scrolled by the event's
// deltas unless an active-mode callback consumes it.
func (c *Controller[T]) OnWheel(ev WheelEvent) {
	if c.closed {
		return
	}
	c.state.IsFocused = false
	consumed := false
	if c.cb.OnWheel != nil {
		consumed = c.cb.OnWheel(ev)
	}
	if consumed && !c.opts.Passive {
		return
	}
	if ev.DeltaX != 0 || ev.DeltaY != 0 {
		c.container.ScrollTo(c.container.ScrollTop()+ev.DeltaY, c.container.ScrollLeft()+ev.DeltaX, Instant)
	}
}

// OnTouchStart begins a touch gesture on the list.
func (c *Controller[T]) OnTouchStart(x, y float64) {
	if c.closed {
		return
	}
	c.state.IsFocused = false
	c.touch.TouchStart(x, y)
}

// OnTouchMove tracks the finger 1:1.
func (c *Controller[T]) OnTouchMove(x, y float64) {
	if !c.closed {
		c.touch.TouchMove(x, y)
	}
}

// OnTouchEnd releases the finger and may start momentum.
func (c *Controller[T]) OnTouchEnd() {
	if !c.closed {
		c.touch.TouchEnd()
	}
}

// OnGlobalTouchStart cancels momentum when a touch begins anywhere in the
// window.
func (c *Controller[T]) OnGlobalTouchStart() {
	c.touch.Cancel()
}

// Momentum exposes the touch simulator.
func (c *Controller[T]) Momentum() *momentum.Simulator { return c.touch }

// ComputeVisibleRange resolves the overscanned visible range for the current
// scroll position. If neither edge resolves, the previous range is kept.
func (c *Controller[T]) ComputeVisibleRange() {
	n := c.cache.Len()
	if n == 0 {
		c.rawFirst, c.rawLast = 0, 0
		c.state.First, c.state.Last, c.state.Page = 0, 0, 0
		return
	}
	if c.state.FrameHeight <= 0 {
		return
	}

	top := c.state.ScrollTop
	bottom := top + c.state.FrameHeight
	extent := c.cache.ScrollExtent()
	var topPct, bottomPct float64
	if extent > 0 {
		topPct = top / extent
		bottomPct = bottom / extent
	}

	first, okFirst := layout.FindFirst(c.cache, top, topPct)
	last, okLast := layout.FindLast(c.cache, bottom, bottomPct)
	switch {
	case !okFirst && !okLast:
		c.log.Debug("visible range unresolved, keeping previous", "top", top)
		return
	case !okFirst:
		first = min(c.rawFirst, max(last-1, 0))
	case !okLast:
		last = max(c.rawLast, first+1)
	}
	last = min(max(last, first), n)
	c.rawFirst, c.rawLast = first, last

	c.state.Page = first
	c.state.First = max(first-c.opts.Overscan, 0)
	c.state.Last = min(last+c.opts.Overscan, n)

	if c.dyn != nil && !c.dyn.Done() {
		c.dyn.Relocate(c.state.First)
	}
}

// VisibleRows returns the rows of the current visible range.
func (c *Controller[T]) VisibleRows() []Row[T] {
	rows := make([]Row[T], 0, c.state.Last-c.state.First)
	c.Render(func(r Row[T]) { rows = append(rows, r) })
	return rows
}

// Render calls fn once per visible row, in index order, and returns the
// number of rows rendered.
func (c *Controller[T]) Render(fn RenderFunc[T]) int {
	n := 0
	for i := c.state.First; i < c.state.Last && i < len(c.items); i++ {
		rec := c.cache.At(i)
		fn(Row[T]{
			Index:       i,
			Item:        c.items[i],
			Top:         rec.Style.Top,
			Height:      rec.Style.Height,
			IsScrolling: c.state.IsScrolling,
			IsFocused:   c.state.IsFocused,
			Centered:    c.opts.CenterItems,
		})
		n++
	}
	return n
}

// ShowScrollbar reports whether renderers should draw a scrollbar.
func (c *Controller[T]) ShowScrollbar() bool { return !c.opts.HideScrollbar }

// Close cancels measurement, momentum and every pending timer. The
// controller ignores all signals afterwards.
func (c *Controller[T]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.dyn != nil {
		c.dyn.Cancel()
	}
	c.touch.Close()
	if c.scrollTimer != 0 {
		c.driver.CancelTimer(c.scrollTimer)
		c.scrollTimer = 0
	}
	c.clearSilent()
	if c.focusFrame != 0 {
		c.driver.CancelFrame(c.focusFrame)
		c.focusFrame = 0
	}
	c.pendingFocus = nil
	c.container.SetListener(nil)
}

func (c *Controller[T]) onMeasured(p layout.Progress) {
	c.syncContent()
	c.ComputeVisibleRange()
	c.state.IsScrollEnd = c.atEnd()
	if p.Done {
		c.log.Debug("measurement complete", "items", p.Total, "batches", p.Batches, "batch_size", p.BatchSize)
	}
	if c.cb.OnMeasured != nil {
		c.cb.OnMeasured(p)
	}
	c.invalidate()
}

func (c *Controller[T]) syncContent() {
	c.container.SetContentSize(max(c.state.FrameWidth, c.opts.ContentWidth), c.cache.TotalHeight())
}

func (c *Controller[T]) atEnd() bool {
	return c.state.ScrollTop+c.state.FrameHeight >= c.cache.TotalHeight()-1
}

func (c *Controller[T]) markScrolling() {
	c.state.IsScrolling = true
	if c.scrollTimer != 0 {
		c.driver.CancelTimer(c.scrollTimer)
	}
	c.scrollTimer = c.driver.AfterFunc(c.opts.ScrollDebounce, func() {
		c.scrollTimer = 0
		c.state.IsScrolling = false
		c.invalidate()
	})
}

func (c *Controller[T]) notifyPage() {
	if c.cache.Len() == 0 {
		return
	}
	page, end := c.state.Page, c.state.IsScrollEnd
	if page == c.lastPage && end == c.lastEnd {
		return
	}
	c.lastPage, c.lastEnd = page, end
	if c.cb.OnPageChange != nil {
		c.cb.OnPageChange(page, end)
	}
}

func (c *Controller[T]) setSilent() {
	c.silent = true
	if c.silentTimer != 0 {
		c.driver.CancelTimer(c.silentTimer)
	}
	c.silentTimer = c.driver.AfterFunc(c.opts.SilentWindow, func() {
		c.silentTimer = 0
		c.silent = false
	})
}

func (c *Controller[T]) clearSilent() {
	c.silent = false
	if c.silentTimer != 0 {
		c.driver.CancelTimer(c.silentTimer)
		c.silentTimer = 0
	}
}

// consumeSilent reports whether the current scroll event is suppressed.
// Without a scroll-end signal only one event is suppressed.
func (c *Controller[T]) consumeSilent() bool {
	if !c.silent {
		return false
	}
	if !c.container.SupportsScrollEnd() {
		c.clearSilent()
	}
	return true
}

func (c *Controller[T]) invalidate() {
	if c.cb.OnInvalidate != nil {
		c.cb.OnInvalidate()
	}
}

// scrollTarget adapts the controller to momentum.Target.
type scrollTarget[T any] struct {
	c *Controller[T]
}

func (t scrollTarget[T]) ScrollBy(dx, dy float64) bool {
	c := t.c.container
	top, left := c.ScrollTop(), c.ScrollLeft()
	c.ScrollTo(top+dy, left+dx, Instant)
	return c.ScrollTop() != top || c.ScrollLeft() != left
}
