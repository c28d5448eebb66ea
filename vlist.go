// Package vlist renders very long lists by laying out only the rows in view.
//
// Heights come either from a function of each item or from a measurement
// host that renders items off-screen a batch per frame. The controller keeps
// the visible range, scroll state and touch momentum in step with a scroll
// container and asks the owner to re-render through Callbacks.
package vlist

import (
	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/layout"
	"github.com/agiangrant/vlist/logger"
	"github.com/agiangrant/vlist/viewport"
)

type (
	Controller[T any] = viewport.Controller[T]
	Row[T any]        = viewport.Row[T]
	Callbacks         = viewport.Callbacks
	Container         = viewport.Container
)

// New wires a controller for items to container using cfg. Heights come from
// heightFn when it is set and from host otherwise.
func New[T any](cfg Config, driver frame.Driver, container Container, cb Callbacks, log logger.Logger, items []T, heightFn layout.HeightFunc[T], host layout.Measurer[T]) *Controller[T] {
	ctl := viewport.New[T](driver, container, cfg.ViewportOptions(log), cb)
	ctl.SetItems(items, layout.StrategyFor(heightFn, host))
	return ctl
}

// NewInMemory is New over a MemoryContainer of the given frame size, for
// hosts that draw the rows themselves.
func NewInMemory[T any](cfg Config, driver frame.Driver, width, height float64, cb Callbacks, log logger.Logger, items []T, heightFn layout.HeightFunc[T], host layout.Measurer[T]) (*Controller[T], *viewport.MemoryContainer) {
	mc := viewport.NewMemoryContainer(driver, viewport.WithScrollConfig(cfg.ScrollConfig()))
	ctl := New(cfg, driver, mc, cb, log, items, heightFn, host)
	mc.Resize(width, height)
	return ctl, mc
}
