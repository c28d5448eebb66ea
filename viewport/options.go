package viewport

import (
	"time"

	"github.com/agiangrant/vlist/layout"
	"github.com/agiangrant/vlist/logger"
	"github.com/agiangrant/vlist/momentum"
)

// Options configures a Controller.
type Options struct {
	// DefaultItemHeight is the placeholder height for unmeasured items.
	DefaultItemHeight float64
	// Overscan is the number of extra items rendered on each side.
	Overscan int
	// Spacing is the vertical gap between items.
	Spacing float64
	// ContentWidth is the scrollable width. Anything up to the frame width
	// means the list only scrolls vertically.
	ContentWidth float64

	BatchSize   int
	BatchBudget time.Duration

	// ScrollDebounce is how long after the last scroll the list stops
	// reporting itself as scrolling.
	ScrollDebounce time.Duration
	// SilentWindow bounds how long a silent programmatic scroll may suppress
	// scroll callbacks when no scroll-end arrives.
	SilentWindow time.Duration

	// Passive wheel handling: the wheel callback cannot consume events.
	Passive       bool
	HideScrollbar bool
	CenterItems   bool

	Momentum momentum.Options
	Logger   logger.Logger
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		DefaultItemHeight: 50,
		Overscan:          3,
		BatchSize:         layout.DefaultBatchSize,
		BatchBudget:       layout.DefaultBatchBudget,
		ScrollDebounce:    650 * time.Millisecond,
		SilentWindow:      150 * time.Millisecond,
		Momentum:          momentum.DefaultOptions(),
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DefaultItemHeight <= 0 {
		o.DefaultItemHeight = def.DefaultItemHeight
	}
	if o.Overscan < 0 {
		o.Overscan = 0
	}
	if o.Spacing < 0 {
		o.Spacing = 0
	}
	if o.BatchSize < 1 {
		o.BatchSize = def.BatchSize
	}
	if o.BatchBudget <= 0 {
		o.BatchBudget = def.BatchBudget
	}
	if o.ScrollDebounce <= 0 {
		o.ScrollDebounce = def.ScrollDebounce
	}
	if o.SilentWindow <= 0 {
		o.SilentWindow = def.SilentWindow
	}
	return o
}
