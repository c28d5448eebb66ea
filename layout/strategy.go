package layout

import (
	"errors"
	"fmt"
)

// ErrHostUnavailable is returned by a Measurer that cannot render yet. The
// dynamic pass treats it as "try again on a later frame".
var ErrHostUnavailable = errors.New("layout: measurement host unavailable")

// ErrLengthMismatch is returned when a cache is paired with a sequence of a
// different length.
var ErrLengthMismatch = errors.New("layout: cache length does not match sequence")

// HeightFunc returns the height of an item without rendering it.
type HeightFunc[T any] func(item T, index int) float64

// Measurer renders items off-screen and reports their true height at the
// given frame width.
type Measurer[T any] interface {
	// Ready reports whether Measure can be called. A host that is not ready
	// is polled again on later frames.
	Ready() bool
	Measure(item T, index int, width float64) (float64, error)
}

// Strategy selects how item heights are obtained for one sequence. It has
// exactly two implementations, ProvidedHeight and MeasuredHeight.
type Strategy[T any] interface {
	// Dynamic reports whether a background measurement pass is required.
	Dynamic() bool

	seed(c *Cache, items []T)
}

// ProvidedHeight computes every height synchronously from Fn.
type ProvidedHeight[T any] struct {
	Fn HeightFunc[T]
}

func (ProvidedHeight[T]) Dynamic() bool { return false }

func (p ProvidedHeight[T]) seed(c *Cache, items []T) {
	for i := range items {
		c.setHeight(i, p.Fn(items[i], i), true)
	}
}

// MeasuredHeight leaves placeholder (or previously measured) heights in the
// cache and defers to the dynamic pass driven by Host.
type MeasuredHeight[T any] struct {
	Host Measurer[T]
}

// Dynamic reports true only when there is a host to measure with.
func (m MeasuredHeight[T]) Dynamic() bool { return m.Host != nil }

func (MeasuredHeight[T]) seed(*Cache, []T) {}

// StrategyFor picks ProvidedHeight when fn is set and MeasuredHeight
// otherwise.
func StrategyFor[T any](fn HeightFunc[T], host Measurer[T]) Strategy[T] {
	if fn != nil {
		return ProvidedHeight[T]{Fn: fn}
	}
	return MeasuredHeight[T]{Host: host}
}

// StaticPass fills c for items in one synchronous sweep and refreshes every
// offset. Calling it again with unchanged inputs leaves c unchanged.
func StaticPass[T any](c *Cache, items []T, s Strategy[T]) error {
	if c.Len() != len(items) {
		return fmt.Errorf("%w: cache %d, items %d", ErrLengthMismatch, c.Len(), len(items))
	}
	if s != nil {
		s.seed(c, items)
	}
	c.RefreshOffsets()
	return nil
}

// Build creates a fresh cache for items and runs the static pass over it.
func Build[T any](items []T, s Strategy[T], defaultHeight, spacing float64) *Cache {
	c := NewCache(len(items), defaultHeight, spacing)
	// lengths match by construction
	_ = StaticPass(c, items, s)
	return c
}
