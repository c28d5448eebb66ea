package viewport

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/layout"
)

type scrollCall struct {
	ev      ScrollEvent
	dy, dx  float64
	focused bool
	at      time.Time
}

type pageCall struct {
	page int
	end  bool
}

type recorder struct {
	clock       frame.Clock
	scrolls     []scrollCall
	pages       []pageCall
	invalidated int
	progress    []layout.Progress
	wheel       func(WheelEvent) bool
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnScroll: func(ev ScrollEvent, dy, dx float64, focused bool) {
			r.scrolls = append(r.scrolls, scrollCall{ev, dy, dx, focused, r.clock.Now()})
		},
		OnPageChange: func(page int, end bool) {
			r.pages = append(r.pages, pageCall{page, end})
		},
		OnWheel: func(ev WheelEvent) bool {
			if r.wheel != nil {
				return r.wheel(ev)
			}
			return false
		},
		OnInvalidate: func() { r.invalidated++ },
		OnMeasured:   func(p layout.Progress) { r.progress = append(r.progress, p) },
	}
}

type harness struct {
	m   *frame.Manual
	mc  *MemoryContainer
	ctl *Controller[int]
	rec *recorder
}

func newHarness(opts Options, copts ...ContainerOption) *harness {
	m := frame.NewManual()
	mc := NewMemoryContainer(m, copts...)
	rec := &recorder{clock: m}
	ctl := New[int](m, mc, opts, rec.callbacks())
	mc.Resize(300, 200)
	return &harness{m: m, mc: mc, ctl: ctl, rec: rec}
}

func seq(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func fixed(h float64) layout.Strategy[int] {
	return layout.ProvidedHeight[int]{Fn: func(int, int) float64 { return h }}
}

func scenarioOptions() Options {
	opts := DefaultOptions()
	opts.DefaultItemHeight = 20
	opts.Overscan = 3
	return opts
}

type heightHost struct {
	calls  []int
	widths []float64
}

func (h *heightHost) Ready() bool { return true }

func (h *heightHost) Measure(item, index int, width float64) (float64, error) {
	h.calls = append(h.calls, index)
	h.widths = append(h.widths, width)
	return float64(10 + item%3*10), nil
}

func TestEmptyList(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(nil, fixed(20))

	st := h.ctl.State()
	assert.Equal(t, 0, st.First)
	assert.Equal(t, 0, st.Last)
	assert.Empty(t, h.ctl.VisibleRows())
	assert.Equal(t, 0.0, h.ctl.ScrollHeight())
	assert.Equal(t, 0.0, h.ctl.ScrollTopPercentage())
	assert.False(t, h.ctl.ScrollToItem(0, ScrollToItemOptions{}))
	assert.Empty(t, h.rec.pages)
	assert.Empty(t, h.rec.scrolls)
}

func TestScrollResolvesVisibleRange(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))
	assert.Equal(t, 20000.0, h.ctl.ScrollHeight())
	assert.Equal(t, 20000.0, h.mc.ContentHeight())

	h.ctl.ScrollTo(ScrollOptions{Top: Offset(10000)}, false)

	st := h.ctl.State()
	assert.Equal(t, 10000.0, st.ScrollTop)
	assert.Equal(t, 500, st.Page)
	assert.Equal(t, 497, st.First)
	assert.Equal(t, 513, st.Last)
	assert.False(t, st.IsScrollEnd)

	rows := h.ctl.VisibleRows()
	require.Len(t, rows, 16)
	assert.Equal(t, 497, rows[0].Index)
	assert.Equal(t, 9940.0, rows[0].Top)
	assert.Equal(t, 20.0, rows[0].Height)
	assert.True(t, rows[0].IsScrolling)

	assert.Equal(t, []pageCall{{0, false}, {500, false}}, h.rec.pages)
	require.Len(t, h.rec.scrolls, 1)
	assert.Equal(t, 10000.0, h.rec.scrolls[0].dy)
	assert.Equal(t, 0.5, h.ctl.ScrollTopPercentage())
}

func TestVisibleRangeClampsAtEdges(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))

	st := h.ctl.State()
	assert.Equal(t, 0, st.First)
	assert.Equal(t, 13, st.Last)

	h.ctl.ScrollTo(ScrollOptions{Top: Offset(1e9)}, false)
	st = h.ctl.State()
	assert.Equal(t, 19800.0, st.ScrollTop)
	assert.Equal(t, 1000, st.Last)
	assert.Equal(t, 987, st.First)
}

func TestScrollEndWithinOnePixel(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))

	h.ctl.ScrollTo(ScrollOptions{Top: Offset(19798.5)}, false)
	assert.False(t, h.ctl.State().IsScrollEnd)

	h.ctl.ScrollTo(ScrollOptions{Top: Offset(19799.5)}, false)
	assert.True(t, h.ctl.State().IsScrollEnd)
	last := h.rec.pages[len(h.rec.pages)-1]
	assert.True(t, last.end)
	assert.Equal(t, 19800.0, h.ctl.MaxScrollTop())
}

func TestScrollToItemFocusesAndWheelUnfocuses(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))

	require.True(t, h.ctl.ScrollToItem(100, ScrollToItemOptions{OffsetTop: 40}))
	assert.Equal(t, 1960.0, h.ctl.ScrollTop())
	require.Len(t, h.rec.scrolls, 1)
	assert.True(t, h.rec.scrolls[0].focused)

	h.ctl.OnWheel(WheelEvent{DeltaY: 40})
	require.Len(t, h.rec.scrolls, 2)
	assert.False(t, h.rec.scrolls[1].focused)
	assert.Equal(t, 40.0, h.rec.scrolls[1].dy)
	assert.Equal(t, 2000.0, h.ctl.ScrollTop())
}

func TestScrollToItemOutOfRange(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(10), fixed(20))

	assert.False(t, h.ctl.ScrollToItem(-1, ScrollToItemOptions{}))
	assert.False(t, h.ctl.ScrollToItem(10, ScrollToItemOptions{}))
	assert.False(t, h.ctl.State().IsFocused)
	assert.Empty(t, h.rec.scrolls)
}

func TestScrollToItemRevealsSelectorSilently(t *testing.T) {
	tests := []struct {
		name    string
		relTop  float64
		wantTop float64
	}{
		{"below frame", 300, 4150},
		{"already visible", 10, 4000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(scenarioOptions())
			h.ctl.SetItems(seq(50), fixed(400))
			h.ctl.SetLocator(LocatorFunc(func(index int, selector string) (float64, float64, bool) {
				if index != 10 || selector != ".hit" {
					return 0, 0, false
				}
				return tt.relTop, 50, true
			}))

			require.True(t, h.ctl.ScrollToItem(10, ScrollToItemOptions{Selector: ".hit"}))
			assert.Equal(t, 4000.0, h.ctl.ScrollTop())
			h.m.Frame()

			assert.Equal(t, tt.wantTop, h.ctl.ScrollTop())
			assert.Equal(t, tt.wantTop, h.ctl.State().ScrollTop)
			assert.Len(t, h.rec.scrolls, 1)
		})
	}
}

func TestIsScrollingDebounce(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))

	h.ctl.AddScrollDeltaY(100)
	assert.True(t, h.ctl.State().IsScrolling)

	h.m.Advance(600 * time.Millisecond)
	assert.True(t, h.ctl.State().IsScrolling)

	h.ctl.AddScrollDeltaY(100)
	h.m.Advance(600 * time.Millisecond)
	assert.True(t, h.ctl.State().IsScrolling)

	h.m.Advance(100 * time.Millisecond)
	assert.False(t, h.ctl.State().IsScrolling)
}

func TestZeroHeightResizeIsSkipped(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))
	h.ctl.ScrollTo(ScrollOptions{Top: Offset(2000)}, false)
	before := h.ctl.State()

	h.mc.Resize(300, 0)
	st := h.ctl.State()
	assert.Equal(t, before.First, st.First)
	assert.Equal(t, before.Last, st.Last)

	h.mc.Resize(300, 400)
	st = h.ctl.State()
	assert.Equal(t, 97, st.First)
	assert.Equal(t, 123, st.Last)
}

func TestUnresolvedRangeKeepsPrevious(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))
	h.ctl.ScrollTo(ScrollOptions{Top: Offset(5000)}, false)
	before := h.ctl.State()

	h.ctl.OnScroll(math.NaN(), 0)
	st := h.ctl.State()
	assert.Equal(t, before.First, st.First)
	assert.Equal(t, before.Last, st.Last)
	assert.Equal(t, before.Page, st.Page)
}

func TestSilentScrollSuppressesCallbacks(t *testing.T) {
	tests := []struct {
		name      string
		scrollEnd bool
	}{
		{"with scroll-end", true},
		{"without scroll-end", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(scenarioOptions(), WithScrollEnd(tt.scrollEnd))
			h.ctl.SetItems(seq(1000), fixed(20))
			pages := len(h.rec.pages)

			h.ctl.ScrollTo(ScrollOptions{Top: Offset(5000)}, true)
			assert.Equal(t, 5000.0, h.ctl.State().ScrollTop)
			assert.Equal(t, 250, h.ctl.State().Page)
			assert.Empty(t, h.rec.scrolls)
			assert.Len(t, h.rec.pages, pages)

			h.ctl.ScrollTo(ScrollOptions{Top: Offset(5100)}, false)
			require.Len(t, h.rec.scrolls, 1)
			assert.Equal(t, 100.0, h.rec.scrolls[0].dy)
			assert.Equal(t, 1, h.m.PendingTimers())
		})
	}
}

func TestSilentScrollToCurrentPositionArmsNothing(t *testing.T) {
	h := newHarness(scenarioOptions(), WithScrollEnd(false))
	h.ctl.SetItems(seq(1000), fixed(20))

	h.ctl.ScrollTo(ScrollOptions{Top: Offset(0)}, true)
	h.ctl.ScrollTo(ScrollOptions{Top: Offset(100)}, false)
	assert.Len(t, h.rec.scrolls, 1)
}

func TestSilentWindowTimesOut(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))
	start := h.m.Now()

	h.ctl.ScrollTo(ScrollOptions{Top: Offset(8000), Behavior: Smooth}, true)
	frames := h.m.RunFrames(100)

	assert.Equal(t, 8000.0, h.ctl.ScrollTop())
	require.NotEmpty(t, h.rec.scrolls)
	assert.Less(t, len(h.rec.scrolls), frames)
	for _, s := range h.rec.scrolls {
		assert.GreaterOrEqual(t, s.at.Sub(start), 150*time.Millisecond)
	}
}

func TestSmoothScrollEmitsScrollEnd(t *testing.T) {
	m := frame.NewManual()
	mc := NewMemoryContainer(m)
	l := &listener{}
	mc.SetListener(l)
	mc.Resize(100, 100)
	mc.SetContentSize(100, 5000)

	mc.ScrollTo(1000, 0, Smooth)
	assert.True(t, mc.Animating())
	assert.Empty(t, l.tops)

	m.RunFrames(100)
	assert.False(t, mc.Animating())
	assert.Equal(t, 1000.0, mc.ScrollTop())
	assert.Equal(t, 1, l.ends)
	for i := 1; i < len(l.tops); i++ {
		assert.Greater(t, l.tops[i], l.tops[i-1])
	}
	// ease-out covers more than half the distance in the first half
	assert.Greater(t, l.tops[len(l.tops)/2], 500.0)
}

func TestContainerClampsAndReclamps(t *testing.T) {
	m := frame.NewManual()
	mc := NewMemoryContainer(m)
	l := &listener{}
	mc.SetListener(l)
	mc.Resize(100, 100)
	mc.SetContentSize(100, 500)

	mc.ScrollTo(-20, 0, Instant)
	assert.Empty(t, l.tops)

	mc.ScrollTo(1000, 0, Instant)
	assert.Equal(t, 400.0, mc.ScrollTop())

	mc.SetContentSize(100, 300)
	assert.Equal(t, 200.0, mc.ScrollTop())
	assert.Equal(t, []float64{400, 200}, l.tops)
	assert.Equal(t, 2, l.ends)
}

type listener struct {
	tops    []float64
	ends    int
	resizes int
}

func (l *listener) OnScroll(top, _ float64) { l.tops = append(l.tops, top) }
func (l *listener) OnScrollEnd()            { l.ends++ }
func (l *listener) OnResize(_, _ float64)   { l.resizes++ }

func TestWheelModes(t *testing.T) {
	tests := []struct {
		name    string
		passive bool
		consume bool
		wantTop float64
	}{
		{"active not consumed", false, false, 60},
		{"active consumed", false, true, 0},
		{"passive ignores consume", true, true, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := scenarioOptions()
			opts.Passive = tt.passive
			h := newHarness(opts)
			h.ctl.SetItems(seq(100), fixed(20))
			h.rec.wheel = func(WheelEvent) bool { return tt.consume }

			h.ctl.OnWheel(WheelEvent{DeltaY: 60})
			assert.Equal(t, tt.wantTop, h.ctl.ScrollTop())
		})
	}
}

func TestTouchDragAndMomentum(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))

	h.ctl.OnTouchStart(0, 500)
	h.m.Sleep(16 * time.Millisecond)
	h.ctl.OnTouchMove(0, 468)
	assert.Equal(t, 32.0, h.ctl.ScrollTop())
	h.ctl.OnTouchEnd()

	h.m.RunFrames(1000)
	assert.Greater(t, h.ctl.ScrollTop(), 32.0)
	assert.Equal(t, "idle", h.ctl.Momentum().Phase().String())
}

func TestGlobalTouchStartCancelsMomentum(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), fixed(20))

	h.ctl.OnTouchStart(0, 500)
	h.m.Sleep(16 * time.Millisecond)
	h.ctl.OnTouchMove(0, 468)
	h.ctl.OnTouchEnd()
	h.m.Frame()
	top := h.ctl.ScrollTop()

	h.ctl.OnGlobalTouchStart()
	h.m.RunFrames(10)
	assert.Equal(t, top, h.ctl.ScrollTop())
}

func TestAddScrollDelta(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(100), fixed(20))

	assert.Equal(t, 150.0, h.ctl.AddScrollDeltaY(150))
	assert.Equal(t, 100.0, h.ctl.AddScrollDeltaY(-50))
	assert.Equal(t, 0.0, h.ctl.AddScrollDeltaY(-500))
	assert.Equal(t, 1800.0, h.ctl.AddScrollDeltaY(1e6))
	assert.Equal(t, 0.0, h.ctl.AddScrollDeltaX(30))
}

func TestDynamicMeasurementStartsAtVisibleRange(t *testing.T) {
	h := newHarness(scenarioOptions())
	host := &heightHost{}
	h.ctl.SetItems(seq(1000), layout.MeasuredHeight[int]{Host: host})
	assert.Equal(t, 20000.0, h.ctl.ScrollHeight())

	h.ctl.ScrollTo(ScrollOptions{Top: Offset(10000)}, false)
	first := h.ctl.State().First
	h.m.Frame()

	require.NotEmpty(t, host.calls)
	assert.Equal(t, first, host.calls[0])
	assert.Equal(t, 300.0, host.widths[0])

	h.m.RunFrames(100)
	p, ok := h.ctl.Measurement()
	require.True(t, ok)
	assert.True(t, p.Done)
	assert.Equal(t, h.ctl.ScrollHeight(), h.mc.ContentHeight())
	assert.True(t, h.rec.progress[len(h.rec.progress)-1].Done)
}

func TestReplacingItemsAbandonsMeasurement(t *testing.T) {
	h := newHarness(scenarioOptions())
	host := &heightHost{}
	h.ctl.SetItems(seq(500), layout.MeasuredHeight[int]{Host: host})
	h.m.Frame()
	calls := len(host.calls)
	require.Positive(t, calls)

	h.ctl.SetItems(seq(30), fixed(10))
	assert.Equal(t, 0, h.m.Pending())
	h.m.RunFrames(10)

	assert.Len(t, host.calls, calls)
	assert.Equal(t, 300.0, h.ctl.ScrollHeight())
	assert.Equal(t, 300.0, h.mc.ContentHeight())
	_, ok := h.ctl.Measurement()
	assert.False(t, ok)
}

func TestWidthChangeRemeasures(t *testing.T) {
	h := newHarness(scenarioOptions())
	host := &heightHost{}
	h.ctl.SetItems(seq(40), layout.MeasuredHeight[int]{Host: host})
	h.m.RunFrames(10)
	p, _ := h.ctl.Measurement()
	require.True(t, p.Done)

	h.mc.Resize(120, 200)
	h.m.RunFrames(10)
	assert.Equal(t, 120.0, host.widths[len(host.widths)-1])
	assert.Len(t, host.calls, 80)
}

func TestWidthChangeWhileCollapsedRemeasures(t *testing.T) {
	h := newHarness(scenarioOptions())
	host := &heightHost{}
	h.ctl.SetItems(seq(40), layout.MeasuredHeight[int]{Host: host})
	h.m.RunFrames(10)
	require.Len(t, host.calls, 40)

	h.mc.Resize(120, 0)
	h.m.RunFrames(10)
	assert.Len(t, host.calls, 40)

	h.mc.Resize(120, 200)
	h.m.RunFrames(10)
	assert.Len(t, host.calls, 80)
	assert.Equal(t, 120.0, host.widths[len(host.widths)-1])
	p, _ := h.ctl.Measurement()
	assert.True(t, p.Done)
}

func TestReplacingMeasuredItemsStartsAtZero(t *testing.T) {
	h := newHarness(scenarioOptions())
	old := &heightHost{}
	h.ctl.SetItems(seq(1000), layout.MeasuredHeight[int]{Host: old})
	h.ctl.ScrollTo(ScrollOptions{Top: Offset(10000)}, false)
	h.m.Frame()
	require.NotEmpty(t, old.calls)
	require.NotEqual(t, 0, old.calls[0])
	oldCalls := len(old.calls)

	fresh := &heightHost{}
	h.ctl.SetItems(seq(1000), layout.MeasuredHeight[int]{Host: fresh})
	for _, i := range []int{0, 500, 999} {
		rec := h.ctl.Cache().At(i)
		assert.Equal(t, 20.0, rec.Height, "item %d", i)
		assert.False(t, rec.Complete, "item %d", i)
	}

	h.m.Frame()
	assert.Len(t, old.calls, oldCalls)
	require.Len(t, fresh.calls, layout.DefaultBatchSize)
	assert.Equal(t, seq(layout.DefaultBatchSize), fresh.calls)
}

func TestContentWidthEnablesHorizontalScroll(t *testing.T) {
	opts := scenarioOptions()
	opts.ContentWidth = 500
	h := newHarness(opts)
	h.ctl.SetItems(seq(100), fixed(20))

	assert.Equal(t, 30.0, h.ctl.AddScrollDeltaX(30))
	assert.Equal(t, 200.0, h.ctl.AddScrollDeltaX(1e6))
	require.NotEmpty(t, h.rec.scrolls)
	last := h.rec.scrolls[len(h.rec.scrolls)-1]
	assert.Equal(t, 170.0, last.dx)
	assert.Equal(t, 0.0, last.dy)

	h.ctl.OnWheel(WheelEvent{DeltaX: -50})
	assert.Equal(t, 150.0, h.ctl.ScrollLeft())

	// narrower than the frame: vertical only
	h.mc.Resize(600, 200)
	assert.Equal(t, 0.0, h.ctl.ScrollLeft())
	assert.Equal(t, 0.0, h.ctl.AddScrollDeltaX(30))
}

func TestCloseCancelsPendingWork(t *testing.T) {
	h := newHarness(scenarioOptions())
	h.ctl.SetItems(seq(1000), layout.MeasuredHeight[int]{Host: &heightHost{}})
	h.ctl.AddScrollDeltaY(100)
	require.Positive(t, h.m.Pending())
	require.Positive(t, h.m.PendingTimers())

	h.ctl.Close()
	assert.Equal(t, 0, h.m.Pending())
	assert.Equal(t, 0, h.m.PendingTimers())

	scrolls := len(h.rec.scrolls)
	h.mc.ScrollTo(500, 0, Instant)
	assert.Len(t, h.rec.scrolls, scrolls)
}

func TestRowOffset(t *testing.T) {
	tests := []struct {
		centered bool
		width    float64
		want     float64
	}{
		{false, 50, 0},
		{true, 50, 125},
		{true, 51, 124},
		{true, 400, 0},
	}
	for _, tt := range tests {
		r := Row[int]{Centered: tt.centered}
		assert.Equal(t, tt.want, r.Offset(tt.width, 300))
	}
}

func TestEasingByName(t *testing.T) {
	assert.NotNil(t, EasingByName("linear"))
	assert.NotNil(t, EasingByName(""))
	assert.Nil(t, EasingByName("wobble"))
	assert.InDelta(t, 1.0, EaseOutCubic(1), 1e-12)
	assert.InDelta(t, 0.0, EaseOutCubic(0), 1e-12)
}
