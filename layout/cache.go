// Package layout computes and maintains the vertical geometry of a large,
// variable-height item sequence: the per-item layout cache, the static and
// incremental (measured) layout passes, and the search that maps a scroll
// offset back to item indices.
package layout

import (
	"fmt"
	"math"

	"github.com/mitchellh/hashstructure/v2"
)

// MaxScrollExtent is the largest scrollable height a host is assumed to
// honour. Scroll containers silently clamp taller content, so scroll
// percentages are computed against min(TotalHeight, MaxScrollExtent).
const MaxScrollExtent = 33554400

// Style is the positioning data a renderer needs for one item.
type Style struct {
	Top    float64
	Height float64
}

// Record is the layout state of one item.
type Record struct {
	Index int
	// Top is the offset from the start of the content. It always equals the
	// sum of Height+spacing over the preceding records.
	Top float64
	// Height is authoritative once Complete is set, a placeholder otherwise.
	Height   float64
	Complete bool
	Style    Style
}

// Bottom returns the offset just past the item, excluding spacing.
func (r Record) Bottom() float64 {
	return r.Top + r.Height
}

// Cache is the ordered layout of an item sequence plus its total height.
// It is mutated only by the layout passes.
type Cache struct {
	records       []Record
	spacing       float64
	defaultHeight float64
	total         float64
}

// NewCache creates a cache of n records with placeholder heights.
func NewCache(n int, defaultHeight, spacing float64) *Cache {
	if n < 0 {
		n = 0
	}
	c := &Cache{
		records:       make([]Record, n),
		spacing:       spacing,
		defaultHeight: defaultHeight,
	}
	for i := range c.records {
		c.records[i] = Record{Index: i, Height: defaultHeight}
	}
	c.RefreshOffsets()
	return c
}

// Len returns the number of records.
func (c *Cache) Len() int { return len(c.records) }

// Spacing returns the gap inserted between consecutive items.
func (c *Cache) Spacing() float64 { return c.spacing }

// DefaultHeight returns the placeholder height for unmeasured records.
func (c *Cache) DefaultHeight() float64 { return c.defaultHeight }

// TotalHeight returns the height of the whole content.
func (c *Cache) TotalHeight() float64 { return c.total }

// ScrollExtent returns the total height clamped to MaxScrollExtent.
func (c *Cache) ScrollExtent() float64 {
	return math.Min(c.total, MaxScrollExtent)
}

// At returns the record at index i. It panics if i is out of range.
func (c *Cache) At(i int) Record {
	return c.records[i]
}

// Records returns a copy of every record.
func (c *Cache) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Complete reports how many records carry an authoritative height.
func (c *Cache) Complete() int {
	n := 0
	for i := range c.records {
		if c.records[i].Complete {
			n++
		}
	}
	return n
}

// setHeight records a height without touching offsets.
func (c *Cache) setHeight(i int, h float64, complete bool) {
	if h < 0 || math.IsNaN(h) {
		h = 0
	}
	r := &c.records[i]
	r.Height = h
	r.Complete = complete
}

// reset restores every record to the placeholder height.
func (c *Cache) reset() {
	for i := range c.records {
		c.records[i].Height = c.defaultHeight
		c.records[i].Complete = false
	}
	c.RefreshOffsets()
}

// RefreshOffsets recomputes every top offset, cached style and the total.
func (c *Cache) RefreshOffsets() {
	c.RefreshFrom(0)
}

// RefreshFrom recomputes offsets from index i to the end, trusting the
// records before i.
func (c *Cache) RefreshFrom(i int) {
	n := len(c.records)
	if n == 0 {
		c.total = 0
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= n {
		return
	}

	top := 0.0
	if i > 0 {
		prev := c.records[i-1]
		top = prev.Top + prev.Height + c.spacing
	}
	for j := i; j < n; j++ {
		r := &c.records[j]
		r.Index = j
		r.Top = top
		r.Style = Style{Top: top, Height: r.Height}
		top += r.Height + c.spacing
	}
	c.total = top - c.spacing
}

// Fingerprint hashes the cache contents. Two caches with identical records,
// spacing and total have the same fingerprint.
func (c *Cache) Fingerprint() (uint64, error) {
	snapshot := struct {
		Records []Record
		Spacing float64
		Total   float64
	}{c.records, c.spacing, c.total}

	h, err := hashstructure.Hash(snapshot, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to hash layout cache: %w", err)
	}
	return h, nil
}
