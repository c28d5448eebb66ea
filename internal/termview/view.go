package termview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/sync/errgroup"

	"github.com/agiangrant/vlist/config"
	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/internal/source"
	"github.com/agiangrant/vlist/layout"
	"github.com/agiangrant/vlist/logger"
	"github.com/agiangrant/vlist/measure"
	"github.com/agiangrant/vlist/viewport"
)

const (
	// WheelRows is how far one wheel notch scrolls.
	WheelRows = 3
	// ScrollCols is how far one left or right step scrolls a static view.
	ScrollCols = 4
)

var (
	gutterStyle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	focusStyle     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	statusStyle    = tcell.StyleDefault.Reverse(true)
	trackStyle     = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	thumbStyle     = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	errScreenClosed = errors.New("termview: screen closed")
)

// Options configures a View.
type Options struct {
	Config config.Config
	// Static gives every line a height of one row and skips measurement.
	Static bool
	// Style is a chroma style name. Empty selects DefaultStyle.
	Style  string
	Logger logger.Logger
}

// View shows a document in a terminal. All methods must run on the driver's
// goroutine.
type View struct {
	screen ScreenDriver
	driver frame.Driver
	doc    *source.Document
	opts   Options
	log    logger.Logger

	container *viewport.MemoryContainer
	ctl       *viewport.Controller[source.Line]
	cells     *measure.Cells[source.Line]
	hl        *Highlighter

	width, height int
	dirty         bool
	dragging      bool
	jump          int
	focused       int
}

// New builds a view of doc sized to the screen.
func New(screen ScreenDriver, driver frame.Driver, doc *source.Document, opts Options) *View {
	v := &View{
		screen:  screen,
		driver:  driver,
		doc:     doc,
		opts:    opts,
		log:     logger.With(logger.OrDiscard(opts.Logger), "component", "termview"),
		cells:   measure.NewCells(func(l source.Line) string { return l.Text }),
		hl:      NewHighlighter(doc.Language, doc.Name, opts.Style),
		focused: -1,
	}
	v.build()
	w, h := screen.Size()
	v.resize(w, h)
	return v
}

func (v *View) build() {
	cfg := v.opts.Config
	v.container = viewport.NewMemoryContainer(v.driver, viewport.WithScrollConfig(cfg.ScrollConfig()))

	// terminal heights are rows, not pixels
	vo := cfg.ViewportOptions(v.opts.Logger)
	vo.DefaultItemHeight = 1
	vo.Spacing = math.Round(vo.Spacing)
	if v.opts.Static {
		// unwrapped lines scroll sideways
		vo.ContentWidth = float64(v.longestLine())
	}

	v.ctl = viewport.New[source.Line](v.driver, v.container, vo, viewport.Callbacks{
		OnInvalidate: func() { v.dirty = true },
		OnMeasured: func(p layout.Progress) {
			if p.Done {
				v.log.Debug("document measured", "lines", p.Total, "batches", p.Batches)
			}
		},
	})

	var s layout.Strategy[source.Line]
	if v.opts.Static {
		s = layout.ProvidedHeight[source.Line]{Fn: func(source.Line, int) float64 { return 1 }}
	} else {
		s = layout.MeasuredHeight[source.Line]{Host: v.cells}
	}
	v.ctl.SetItems(v.doc.Lines, s)
}

func (v *View) longestLine() int {
	w := 0
	for _, l := range v.doc.Lines {
		for _, seg := range measure.Wrap(l.Text, 0, v.cells.TabWidth) {
			w = max(w, runewidth.StringWidth(seg))
		}
	}
	return w
}

// Controller returns the hosted viewport controller.
func (v *View) Controller() *viewport.Controller[source.Line] { return v.ctl }

// Dirty reports whether a redraw is pending.
func (v *View) Dirty() bool { return v.dirty }

// Reconfigure rebuilds the controller with cfg and returns to the line that
// was at the top of the frame.
func (v *View) Reconfigure(cfg config.Config) {
	page := v.ctl.State().Page
	v.ctl.Close()
	v.opts.Config = cfg
	v.build()
	v.resize(v.width, v.height)
	if page > 0 {
		v.ctl.ScrollToItem(page, viewport.ScrollToItemOptions{})
	}
	v.log.Info("configuration applied", "page", page)
}

// Close stops measurement and pending timers.
func (v *View) Close() { v.ctl.Close() }

func (v *View) rows() int { return max(v.height-1, 0) }

func (v *View) gutterWidth() int {
	return len(strconv.Itoa(len(v.doc.Lines))) + 1
}

func (v *View) textWidth() int {
	w := v.width - v.gutterWidth()
	if v.ctl.ShowScrollbar() {
		w--
	}
	return max(w, 0)
}

func (v *View) resize(w, h int) {
	v.width, v.height = w, h
	tw := v.textWidth()
	v.cells.SetWidth(tw)
	v.container.Resize(float64(tw), float64(v.rows()))
	v.dirty = true
}

// HandleEvent applies one terminal event and reports whether the view
// should quit.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		v.resize(w, h)
		v.screen.Sync()
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventMouse:
		v.handleMouse(ev)
	}
	return false
}

func (v *View) handleKey(ev *tcell.EventKey) bool {
	page := float64(max(v.rows()-1, 1))
	jump := v.jump
	v.jump = 0

	switch ev.Key() {
	case tcell.KeyEsc, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		v.ctl.AddScrollDeltaY(-1)
	case tcell.KeyDown:
		v.ctl.AddScrollDeltaY(1)
	case tcell.KeyLeft:
		v.ctl.AddScrollDeltaX(-ScrollCols)
	case tcell.KeyRight:
		v.ctl.AddScrollDeltaX(ScrollCols)
	case tcell.KeyPgUp:
		v.ctl.AddScrollDeltaY(-page)
	case tcell.KeyPgDn:
		v.ctl.AddScrollDeltaY(page)
	case tcell.KeyHome:
		v.scrollToLine(1, viewport.Smooth)
	case tcell.KeyEnd:
		v.scrollToEnd()
	case tcell.KeyEnter:
		if jump > 0 {
			v.scrollToLine(jump, viewport.Instant)
		}
	case tcell.KeyRune:
		switch r := ev.Rune(); {
		case r == 'q':
			return true
		case r >= '0' && r <= '9':
			v.jump = jump*10 + int(r-'0')
		case r == 'j':
			v.ctl.AddScrollDeltaY(1)
		case r == 'k':
			v.ctl.AddScrollDeltaY(-1)
		case r == 'h':
			v.ctl.AddScrollDeltaX(-ScrollCols)
		case r == 'l':
			v.ctl.AddScrollDeltaX(ScrollCols)
		case r == ' ':
			v.ctl.AddScrollDeltaY(page)
		case r == 'g' && jump == 0:
			v.scrollToLine(1, viewport.Smooth)
		case r == 'G' && jump == 0:
			v.scrollToEnd()
		case r == 'g', r == 'G':
			v.scrollToLine(jump, viewport.Instant)
		}
	}
	return false
}

// scrollToLine focuses the 1-based line n, clamped to the document.
func (v *View) scrollToLine(n int, behavior viewport.Behavior) {
	n = min(max(n, 1), len(v.doc.Lines))
	if v.ctl.ScrollToItem(n-1, viewport.ScrollToItemOptions{Behavior: behavior}) {
		v.focused = n - 1
		v.dirty = true
	}
}

func (v *View) scrollToEnd() {
	v.ctl.ScrollTo(viewport.ScrollOptions{
		Top:      viewport.Offset(v.ctl.MaxScrollTop()),
		Behavior: viewport.Smooth,
	}, false)
}

func (v *View) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelUp != 0:
		v.ctl.OnWheel(viewport.WheelEvent{DeltaY: -WheelRows})
	case buttons&tcell.WheelDown != 0:
		v.ctl.OnWheel(viewport.WheelEvent{DeltaY: WheelRows})
	case buttons&tcell.WheelLeft != 0:
		v.ctl.OnWheel(viewport.WheelEvent{DeltaX: -WheelRows})
	case buttons&tcell.WheelRight != 0:
		v.ctl.OnWheel(viewport.WheelEvent{DeltaX: WheelRows})
	case buttons&tcell.Button1 != 0:
		if v.dragging {
			v.ctl.OnTouchMove(float64(x), float64(y))
			return
		}
		v.ctl.OnGlobalTouchStart()
		if y < v.rows() {
			v.dragging = true
			v.ctl.OnTouchStart(float64(x), float64(y))
		}
	default:
		if v.dragging {
			v.dragging = false
			v.ctl.OnTouchEnd()
		}
	}
}

// Draw repaints the whole screen.
func (v *View) Draw() {
	v.dirty = false
	v.screen.Clear()

	rows := v.rows()
	gutter := v.gutterWidth()
	tw := v.textWidth()
	top := v.ctl.ScrollTop()
	left := int(math.Round(v.ctl.ScrollLeft()))
	state := v.ctl.State()

	v.ctl.Render(func(r viewport.Row[source.Line]) {
		y0 := int(math.Round(r.Top - top))
		limit := max(int(math.Round(r.Height)), 1)
		for i, text := range v.rowLines(r.Item) {
			if i >= limit {
				break
			}
			y := y0 + i
			if y < 0 || y >= rows {
				continue
			}
			if i == 0 {
				st := gutterStyle
				if r.IsFocused && r.Index == v.focused {
					st = focusStyle
				}
				v.drawString(0, y, gutter, fmt.Sprintf("%*d", gutter-1, r.Item.No), st)
			}
			x := gutter + int(r.Offset(float64(runewidth.StringWidth(text)), float64(tw)))
			v.drawText(x, y, gutter+tw, text, left)
		}
	})
	if !state.IsFocused {
		v.focused = -1
	}

	if v.ctl.ShowScrollbar() {
		v.drawScrollbar(gutter+tw, rows)
	}
	v.drawStatus()
	v.screen.Show()
}

func (v *View) rowLines(l source.Line) []string {
	if v.opts.Static {
		return measure.Wrap(l.Text, 0, v.cells.TabWidth)
	}
	return v.cells.Lines(l)
}

// drawText draws text from column x, hiding its first skip columns.
func (v *View) drawText(x, y, maxX int, text string, skip int) {
	styles := v.hl.Styles(text)
	i, col := 0, 0
	for _, r := range text {
		st := styles[i]
		i++
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col < skip {
			col += w
			continue
		}
		if x+w > maxX {
			return
		}
		v.screen.SetContent(x, y, r, nil, st)
		x += w
	}
}

func (v *View) drawString(x, y, maxX int, s string, st tcell.Style) int {
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > maxX {
			break
		}
		v.screen.SetContent(x, y, r, nil, st)
		x += w
	}
	return x
}

func (v *View) drawScrollbar(col, rows int) {
	if rows <= 0 || col >= v.width {
		return
	}
	total := v.ctl.ScrollHeight()
	thumb := rows
	if total > float64(rows) {
		thumb = max(int(float64(rows)*float64(rows)/total), 1)
	}
	pos := 0
	if maxTop := v.ctl.MaxScrollTop(); maxTop > 0 {
		pos = int(math.Round(v.ctl.ScrollTop() / maxTop * float64(rows-thumb)))
	}
	for y := 0; y < rows; y++ {
		if y >= pos && y < pos+thumb {
			v.screen.SetContent(col, y, '█', nil, thumbStyle)
		} else {
			v.screen.SetContent(col, y, '│', nil, trackStyle)
		}
	}
}

// StatusLine is the text of the bottom line.
func (v *View) StatusLine() string {
	state := v.ctl.State()
	n := len(v.doc.Lines)
	line := 0
	if n > 0 {
		line = state.Page + 1
	}
	s := fmt.Sprintf(" %s  %d/%d", v.doc.Name, line, n)
	if lang := v.hl.Language(); lang != "" {
		s += "  " + lang
	}
	if p, ok := v.ctl.Measurement(); ok && !p.Done {
		s += fmt.Sprintf("  measuring %d/%d", p.Measured, p.Total)
	}
	return s + fmt.Sprintf("  %3.0f%%", v.ctl.ScrollTopPercentage()*100)
}

func (v *View) drawStatus() {
	y := v.height - 1
	if y < 0 {
		return
	}
	x := v.drawString(0, y, v.width, v.StatusLine(), statusStyle)
	for ; x < v.width; x++ {
		v.screen.SetContent(x, y, ' ', nil, statusStyle)
	}
}

// Run pumps screen events into loop and repaints after every frame that
// changed something. It returns when ctx is done, the screen stops producing
// events, or the user quits, and not before the event pump has stopped.
func (v *View) Run(ctx context.Context, loop *frame.Loop) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	v.screen.EnableMouse()
	var g errgroup.Group
	g.Go(func() error {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				cancel(errScreenClosed)
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			loop.Post(func() {
				if v.HandleEvent(ev) {
					cancel(nil)
				}
			})
		}
	})

	loop.OnFrame(func(time.Time) {
		if v.dirty {
			v.Draw()
		}
	})
	v.Draw()

	err := loop.Run(ctx)
	cancel(nil)
	if !errors.Is(context.Cause(ctx), errScreenClosed) {
		// wake the pump so it sees the cancellation
		if perr := v.screen.PostEvent(tcell.NewEventInterrupt(nil)); perr != nil {
			v.log.Warn("cannot wake event pump", "error", perr)
		}
	}
	_ = g.Wait()

	if errors.Is(context.Cause(ctx), errScreenClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
