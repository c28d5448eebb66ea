package measure

import (
	"fmt"
	"strings"
	"time"

	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/internal/ffi"
	"github.com/agiangrant/vlist/internal/lru"
	"github.com/agiangrant/vlist/layout"
	"github.com/agiangrant/vlist/logger"
)

// TextMetrics measures text in pixels. *ffi.Library implements it.
type TextMetrics interface {
	MeasureWidth(text, font string, size float64) (float64, error)
	Measure(text, font string, size float64) (ffi.Metrics, error)
}

// DefaultRetryInterval bounds how often a missing library is looked for.
const DefaultRetryInterval = time.Second

// wordCacheSize bounds the per-host cache of measured word widths.
const wordCacheSize = 10000

// NativeOptions configures a Native host.
type NativeOptions struct {
	Font string
	Size float64
	// LineSpacing multiplies the font's line height. Defaults to 1.2.
	LineSpacing float64
	// Padding is added to every item's height.
	Padding       float64
	RetryInterval time.Duration
	Clock         frame.Clock
	// Open loads the metrics backend. Defaults to loading the native library.
	Open   func() (TextMetrics, error)
	Logger logger.Logger
}

// Native measures items with the native text engine, word-wrapping at the
// measured pixel width. It reports not ready until the library loads.
type Native[T any] struct {
	text func(T) string
	opts NativeOptions
	log  logger.Logger

	lib         TextMetrics
	attempted   bool
	lastAttempt time.Time
	lineHeight  float64
	spaceWidth  float64
	words       *lru.Cache[float64]
}

// NewNative creates a native host for items rendered by text.
func NewNative[T any](text func(T) string, opts NativeOptions) *Native[T] {
	if opts.Size <= 0 {
		opts.Size = 14
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = 1.2
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.Clock == nil {
		opts.Clock = frame.SystemClock
	}
	if opts.Open == nil {
		opts.Open = func() (TextMetrics, error) {
			lib, err := ffi.Open("")
			if err != nil {
				return nil, err
			}
			return lib, nil
		}
	}
	return &Native[T]{
		text:  text,
		opts:  opts,
		log:   logger.With(logger.OrDiscard(opts.Logger), "component", "native-host"),
		words: lru.New[float64](wordCacheSize),
	}
}

// Ready loads the backend on first use and retries a failed load at most
// once per RetryInterval.
func (n *Native[T]) Ready() bool {
	if n.lib != nil {
		return true
	}
	now := n.opts.Clock.Now()
	if n.attempted && now.Sub(n.lastAttempt) < n.opts.RetryInterval {
		return false
	}
	n.attempted = true
	n.lastAttempt = now

	lib, err := n.opts.Open()
	if err != nil {
		n.log.Debug("text library unavailable", "error", err)
		return false
	}
	m, err := lib.Measure("Mg", n.opts.Font, n.opts.Size)
	if err != nil {
		n.log.Warn("text library cannot measure", "error", err)
		return false
	}
	space, err := lib.MeasureWidth(" ", n.opts.Font, n.opts.Size)
	if err != nil {
		return false
	}
	n.lib = lib
	n.lineHeight = m.Height * n.opts.LineSpacing
	n.spaceWidth = space
	n.log.Info("text library loaded", "line_height", n.lineHeight)
	return true
}

// LineHeight returns the height of one line once the host is ready.
func (n *Native[T]) LineHeight() float64 { return n.lineHeight }

// Measure returns the height of item wrapped at width pixels.
func (n *Native[T]) Measure(item T, index int, width float64) (float64, error) {
	if n.lib == nil {
		return 0, layout.ErrHostUnavailable
	}
	lines := 0
	for _, para := range strings.Split(n.text(item), "\n") {
		c, err := n.countLines(para, width)
		if err != nil {
			return 0, fmt.Errorf("measure item %d: %w", index, err)
		}
		lines += c
	}
	return float64(lines)*n.lineHeight + n.opts.Padding, nil
}

func (n *Native[T]) countLines(para string, width float64) (int, error) {
	words := strings.Fields(para)
	if len(words) == 0 || width <= 0 {
		return 1, nil
	}
	lines, lineW := 1, 0.0
	for _, word := range words {
		w, err := n.wordWidth(word)
		if err != nil {
			return 0, err
		}
		switch {
		case lineW == 0:
			lineW = w
		case lineW+n.spaceWidth+w <= width:
			lineW += n.spaceWidth + w
		default:
			lines++
			lineW = w
		}
	}
	return lines, nil
}

// wordWidth memoizes library calls per word.
func (n *Native[T]) wordWidth(word string) (float64, error) {
	if w, ok := n.words.Get(word); ok {
		return w, nil
	}
	w, err := n.lib.MeasureWidth(word, n.opts.Font, n.opts.Size)
	if err != nil {
		return 0, err
	}
	n.words.Put(word, w)
	return w, nil
}

// CacheStats reports word width cache hits and misses.
func (n *Native[T]) CacheStats() (hits, misses uint64) { return n.words.Stats() }
