// Package measure provides off-screen measurement hosts for the dynamic
// layout pass.
package measure

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"github.com/agiangrant/vlist/layout"
)

// Cells measures items as word-wrapped terminal text. Heights are in rows.
type Cells[T any] struct {
	// Text renders an item to the string that will be drawn.
	Text func(T) string
	// LineHeight is the height of one wrapped line. Defaults to 1.
	LineHeight float64
	// TabWidth expands tabs to this many spaces. Defaults to 4.
	TabWidth int

	width int
}

// NewCells creates a cell host for items rendered by text.
func NewCells[T any](text func(T) string) *Cells[T] {
	return &Cells[T]{Text: text, LineHeight: 1, TabWidth: 4}
}

// SetWidth records the frame width in cells. The host is not ready until a
// positive width is known.
func (c *Cells[T]) SetWidth(width int) { c.width = width }

// Width returns the last width set.
func (c *Cells[T]) Width() int { return c.width }

func (c *Cells[T]) Ready() bool { return c.width > 0 }

// Measure returns the wrapped height of item at width cells. A zero width
// falls back to the width set with SetWidth.
func (c *Cells[T]) Measure(item T, _ int, width float64) (float64, error) {
	w := int(width)
	if w <= 0 {
		w = c.width
	}
	if w <= 0 {
		return 0, layout.ErrHostUnavailable
	}
	lh := c.LineHeight
	if lh <= 0 {
		lh = 1
	}
	lines := Wrap(c.Text(item), w, c.tabWidth())
	return float64(len(lines)) * lh, nil
}

// Lines returns the wrapped lines of item at the current width.
func (c *Cells[T]) Lines(item T) []string {
	return Wrap(c.Text(item), c.width, c.tabWidth())
}

func (c *Cells[T]) tabWidth() int {
	if c.TabWidth <= 0 {
		return 4
	}
	return c.TabWidth
}

// Wrap NFC-normalizes text, expands tabs, splits on newlines and word-wraps
// each line to width cells. Words wider than the line are broken. A width of
// zero or less disables wrapping. The result always has at least one line.
func Wrap(text string, width, tabWidth int) []string {
	text = norm.NFC.String(text)
	if tabWidth > 0 && strings.Contains(text, "\t") {
		text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", tabWidth))
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, wrapLine(strings.TrimSuffix(line, "\r"), width)...)
	}
	return out
}

func wrapLine(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}
	runes := []rune(s)
	var lines []string
	start := 0
	for start < len(runes) {
		w, end, lastSpace := 0, start, -1
		for end < len(runes) {
			rw := runewidth.RuneWidth(runes[end])
			if w+rw > width {
				break
			}
			if runes[end] == ' ' {
				lastSpace = end
			}
			w += rw
			end++
		}
		if end == len(runes) {
			lines = append(lines, string(runes[start:]))
			break
		}
		switch {
		case end == start:
			// a single rune wider than the line
			end = start + 1
		case runes[end] == ' ':
			// break on the space itself
		case lastSpace > start:
			end = lastSpace
		}
		lines = append(lines, strings.TrimRight(string(runes[start:end]), " "))
		start = end
		for start < len(runes) && runes[start] == ' ' {
			start++
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}
