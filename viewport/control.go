package viewport

import (
	"math"
	"time"
)

// Locator finds a descendant of a rendered item. top is relative to the
// item's top edge.
type Locator interface {
	Locate(index int, selector string) (top, height float64, ok bool)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(index int, selector string) (top, height float64, ok bool)

func (f LocatorFunc) Locate(index int, selector string) (float64, float64, bool) {
	return f(index, selector)
}

// ScrollToItemOptions configures ScrollToItem.
type ScrollToItemOptions struct {
	// OffsetTop is subtracted from the item's top.
	OffsetTop float64
	Behavior  Behavior
	// Selector names a descendant that must end up inside the frame.
	Selector string
}

// ScrollOptions configures ScrollTo. Nil fields keep the current position.
type ScrollOptions struct {
	Top      *float64
	Left     *float64
	Behavior Behavior
}

// Offset returns a pointer to v for ScrollOptions.
func Offset(v float64) *float64 { return &v }

// animator is implemented by containers that animate smooth scrolls.
type animator interface {
	Animating() bool
}

type focusRequest struct {
	index    int
	selector string
	afterEnd bool
}

// ScrollToItem aligns the top of item index, minus OffsetTop, with the top
// of the frame and marks the viewport focused. It returns false and does
// nothing for an empty list or an index out of range.
func (c *Controller[T]) ScrollToItem(index int, opts ScrollToItemOptions) bool {
	if c.closed || index < 0 || index >= c.cache.Len() {
		return false
	}
	top := c.cache.At(index).Top - opts.OffsetTop
	c.state.IsFocused = true
	c.touch.Cancel()

	c.pendingFocus = nil
	if c.focusFrame != 0 {
		c.driver.CancelFrame(c.focusFrame)
		c.focusFrame = 0
	}

	c.container.ScrollTo(top, c.container.ScrollLeft(), opts.Behavior)

	if opts.Selector == "" || c.locator == nil {
		return true
	}
	f := &focusRequest{index: index, selector: opts.Selector}
	// a smooth scroll still in flight moves the item; wait for it to land
	if a, ok := c.container.(animator); ok && a.Animating() && c.container.SupportsScrollEnd() {
		f.afterEnd = true
		c.pendingFocus = f
		return true
	}
	c.scheduleFocus(f)
	return true
}

func (c *Controller[T]) scheduleFocus(f *focusRequest) {
	c.focusFrame = c.driver.RequestFrame(func(time.Time) {
		c.focusFrame = 0
		c.revealSelector(f)
	})
}

// revealSelector scrolls silently so the located element is inside the
// frame. An element already fully visible is left alone.
func (c *Controller[T]) revealSelector(f *focusRequest) {
	if c.closed || f.index >= c.cache.Len() {
		return
	}
	relTop, height, ok := c.locator.Locate(f.index, f.selector)
	if !ok {
		c.log.Debug("selector not found", "index", f.index, "selector", f.selector)
		return
	}
	elTop := c.cache.At(f.index).Top + relTop
	elBottom := elTop + height
	viewTop := c.container.ScrollTop()
	viewBottom := viewTop + c.state.FrameHeight
	if elTop >= viewTop && elBottom <= viewBottom {
		return
	}
	target := elTop
	if elBottom > viewBottom && height <= c.state.FrameHeight && elTop >= viewTop {
		target = elBottom - c.state.FrameHeight
	}
	c.ScrollTo(ScrollOptions{Top: Offset(target)}, true)
}

// ScrollTo passes through to the container. A silent scroll suppresses the
// scroll callback and page notification for the scroll it causes.
func (c *Controller[T]) ScrollTo(opts ScrollOptions, silent bool) {
	if c.closed {
		return
	}
	top, left := c.container.ScrollTop(), c.container.ScrollLeft()
	if opts.Top != nil {
		top = clamp(*opts.Top, 0, c.MaxScrollTop())
	}
	if opts.Left != nil {
		left = math.Max(0, *opts.Left)
	}
	if silent && (top != c.container.ScrollTop() || left != c.container.ScrollLeft()) {
		c.setSilent()
	}
	c.container.ScrollTo(top, left, opts.Behavior)
}

// AddScrollDeltaY scrolls vertically by delta and returns the new top.
func (c *Controller[T]) AddScrollDeltaY(delta float64) float64 {
	c.ScrollTo(ScrollOptions{Top: Offset(c.container.ScrollTop() + delta)}, false)
	return c.container.ScrollTop()
}

// AddScrollDeltaX scrolls horizontally by delta and returns the new left.
func (c *Controller[T]) AddScrollDeltaX(delta float64) float64 {
	c.ScrollTo(ScrollOptions{Left: Offset(c.container.ScrollLeft() + delta)}, false)
	return c.container.ScrollLeft()
}

func (c *Controller[T]) ScrollTop() float64  { return c.container.ScrollTop() }
func (c *Controller[T]) ScrollLeft() float64 { return c.container.ScrollLeft() }

// ScrollHeight returns the total content height.
func (c *Controller[T]) ScrollHeight() float64 { return c.cache.TotalHeight() }

// MaxScrollTop returns content height minus frame height, floored at 0.
func (c *Controller[T]) MaxScrollTop() float64 {
	return math.Max(0, c.cache.TotalHeight()-c.state.FrameHeight)
}

// ScrollTopPercentage returns the scroll top as a fraction of the clamped
// scroll extent, the same estimate position search seeds from.
func (c *Controller[T]) ScrollTopPercentage() float64 {
	extent := c.cache.ScrollExtent()
	if extent <= 0 {
		return 0
	}
	return math.Min(1, c.container.ScrollTop()/extent)
}
