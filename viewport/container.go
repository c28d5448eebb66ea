package viewport

import (
	"math"
	"time"

	"github.com/agiangrant/vlist/frame"
)

// Behavior selects how a programmatic scroll moves.
type Behavior int

const (
	Instant Behavior = iota
	Smooth
)

func (b Behavior) String() string {
	if b == Smooth {
		return "smooth"
	}
	return "instant"
}

// Listener receives the native signals of a scroll container.
type Listener interface {
	OnScroll(top, left float64)
	OnScrollEnd()
	OnResize(width, height float64)
}

// Container is the scrollable element hosting the list. Its scroll position
// is the single source of truth; the controller only mirrors it.
type Container interface {
	ScrollTop() float64
	ScrollLeft() float64
	ClientWidth() float64
	ClientHeight() float64
	// SetContentSize sets the scrollable extent. Positions beyond the new
	// extent are clamped and reported as a scroll.
	SetContentSize(width, height float64)
	ScrollTo(top, left float64, behavior Behavior)
	// SupportsScrollEnd reports whether the container emits OnScrollEnd.
	SupportsScrollEnd() bool
	SetListener(l Listener)
}

// ScrollConfig configures smooth scrolling.
type ScrollConfig struct {
	Duration time.Duration
	Easing   EasingFunc
}

// DefaultScrollConfig is a 250ms EaseOutCubic animation.
func DefaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		Duration: 250 * time.Millisecond,
		Easing:   EaseOutCubic,
	}
}

// MemoryContainer is an in-memory scroll container. It clamps positions,
// reports every change to its listener synchronously and animates smooth
// scrolls on the driver's frames.
type MemoryContainer struct {
	driver frame.Driver
	config ScrollConfig

	top, left         float64
	contentW, content float64
	clientW, clientH  float64
	scrollEnd         bool
	listener          Listener

	anim *scrollAnimation
}

type scrollAnimation struct {
	handle           frame.Handle
	start            time.Time
	fromTop, toTop   float64
	fromLeft, toLeft float64
}

// ContainerOption configures a MemoryContainer.
type ContainerOption func(*MemoryContainer)

// WithScrollEnd controls whether the container emits scroll-end signals.
// Containers emit them by default.
func WithScrollEnd(enabled bool) ContainerOption {
	return func(c *MemoryContainer) { c.scrollEnd = enabled }
}

// WithScrollConfig overrides the smooth-scroll animation.
func WithScrollConfig(cfg ScrollConfig) ContainerOption {
	return func(c *MemoryContainer) {
		if cfg.Duration > 0 {
			c.config.Duration = cfg.Duration
		}
		if cfg.Easing != nil {
			c.config.Easing = cfg.Easing
		}
	}
}

// NewMemoryContainer creates an empty container of size 0x0.
func NewMemoryContainer(driver frame.Driver, opts ...ContainerOption) *MemoryContainer {
	c := &MemoryContainer{
		driver:    driver,
		config:    DefaultScrollConfig(),
		scrollEnd: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryContainer) ScrollTop() float64    { return c.top }
func (c *MemoryContainer) ScrollLeft() float64   { return c.left }
func (c *MemoryContainer) ClientWidth() float64  { return c.clientW }
func (c *MemoryContainer) ClientHeight() float64 { return c.clientH }

// ContentHeight returns the scrollable height.
func (c *MemoryContainer) ContentHeight() float64 { return c.content }

func (c *MemoryContainer) SupportsScrollEnd() bool { return c.scrollEnd }

func (c *MemoryContainer) SetListener(l Listener) { c.listener = l }

// Animating reports whether a smooth scroll is in flight.
func (c *MemoryContainer) Animating() bool { return c.anim != nil }

// MaxScrollTop returns the largest reachable scroll top.
func (c *MemoryContainer) MaxScrollTop() float64 {
	return math.Max(0, c.content-c.clientH)
}

func (c *MemoryContainer) maxScrollLeft() float64 {
	return math.Max(0, c.contentW-c.clientW)
}

// Resize changes the client size and notifies the listener.
func (c *MemoryContainer) Resize(width, height float64) {
	c.clientW, c.clientH = width, height
	if c.listener != nil {
		c.listener.OnResize(width, height)
	}
	c.reclamp()
}

func (c *MemoryContainer) SetContentSize(width, height float64) {
	c.contentW, c.content = math.Max(0, width), math.Max(0, height)
	c.reclamp()
}

func (c *MemoryContainer) reclamp() {
	top := clamp(c.top, 0, c.MaxScrollTop())
	left := clamp(c.left, 0, c.maxScrollLeft())
	if top != c.top || left != c.left {
		c.stopAnimation()
		c.set(top, left)
		c.emitEnd()
	}
}

// ScrollTo moves to the clamped position. Instant scrolls emit one scroll
// and one scroll-end; smooth scrolls emit a scroll per frame and a scroll-end
// on arrival. A scroll to the current position emits nothing.
func (c *MemoryContainer) ScrollTo(top, left float64, behavior Behavior) {
	top = clamp(top, 0, c.MaxScrollTop())
	left = clamp(left, 0, c.maxScrollLeft())
	c.stopAnimation()
	if top == c.top && left == c.left {
		return
	}
	if behavior == Smooth && c.driver != nil {
		c.anim = &scrollAnimation{
			start:    c.driver.Now(),
			fromTop:  c.top,
			toTop:    top,
			fromLeft: c.left,
			toLeft:   left,
		}
		c.anim.handle = c.driver.RequestFrame(c.animate)
		return
	}
	c.set(top, left)
	c.emitEnd()
}

func (c *MemoryContainer) animate(now time.Time) {
	a := c.anim
	if a == nil {
		return
	}
	progress := 1.0
	if c.config.Duration > 0 {
		progress = math.Min(1, float64(now.Sub(a.start))/float64(c.config.Duration))
	}
	eased := c.config.Easing(progress)
	top := lerp(a.fromTop, a.toTop, eased)
	left := lerp(a.fromLeft, a.toLeft, eased)
	if progress >= 1 {
		top, left = a.toTop, a.toLeft
	}
	// the listener may start another scroll from inside set
	if progress < 1 {
		a.handle = c.driver.RequestFrame(c.animate)
	} else {
		c.anim = nil
	}
	c.set(top, left)
	if progress >= 1 && c.anim == nil {
		c.emitEnd()
	}
}

func (c *MemoryContainer) stopAnimation() {
	if c.anim == nil {
		return
	}
	c.driver.CancelFrame(c.anim.handle)
	c.anim = nil
}

func (c *MemoryContainer) set(top, left float64) {
	if top == c.top && left == c.left {
		return
	}
	c.top, c.left = top, left
	if c.listener != nil {
		c.listener.OnScroll(top, left)
	}
}

func (c *MemoryContainer) emitEnd() {
	if c.scrollEnd && c.listener != nil {
		c.listener.OnScrollEnd()
	}
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
