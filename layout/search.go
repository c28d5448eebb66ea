package layout

import "math"

// FindFirst returns the index of the first item whose extent
// [top, top+height+spacing) contains edge, usually the scroll offset. pct is
// the estimated fractional position of edge within the content and seeds the
// search. ok is false when no item contains edge; callers keep their previous
// range in that case.
func FindFirst(c *Cache, edge, pct float64) (int, bool) {
	i, _, ok := findFirst(c, edge, pct)
	return i, ok
}

// FindLast returns one past the index of the last item intersecting edge,
// usually the scroll offset plus the frame height.
func FindLast(c *Cache, edge, pct float64) (int, bool) {
	i, _, ok := findLast(c, edge, pct)
	return i, ok
}

func findFirst(c *Cache, edge, pct float64) (index, steps int, ok bool) {
	n := c.Len()
	if n == 0 {
		return 0, 0, false
	}
	if edge <= 0 {
		return 0, 0, true
	}

	covers := func(r Record) bool {
		end := r.Top + r.Height + c.spacing
		if r.Index == n-1 {
			end = r.Bottom()
			return r.Top <= edge && edge <= end
		}
		return r.Top <= edge && edge < end
	}
	start := seed(n, pct)
	forward := edge >= c.records[start].Top
	return scan(c, start, forward, covers)
}

func findLast(c *Cache, edge, pct float64) (index, steps int, ok bool) {
	n := c.Len()
	if n == 0 {
		return 0, 0, false
	}
	if edge <= 0 {
		return 0, 0, true
	}
	if edge >= c.total {
		return n, 0, true
	}

	covers := func(r Record) bool {
		return r.Top < edge && edge <= r.Top+r.Height+c.spacing
	}
	start := seed(n, pct)
	forward := edge > c.records[start].Top
	i, steps, ok := scan(c, start, forward, covers)
	if !ok {
		return 0, steps, false
	}
	return i + 1, steps, true
}

// seed turns a fractional position into a starting index.
func seed(n int, pct float64) int {
	if math.IsNaN(pct) || pct < 0 {
		pct = 0
	}
	i := int(math.Floor(float64(n) * pct))
	if i >= n {
		i = n - 1
	}
	return i
}

// scan walks the cache circularly from start until covers matches or the walk
// returns to start.
func scan(c *Cache, start int, forward bool, covers func(Record) bool) (index, steps int, ok bool) {
	cur := NewCursor(c.Len(), start)
	for steps < cur.Len() {
		steps++
		if covers(c.records[cur.Index()]) {
			return cur.Index(), steps, true
		}
		if forward {
			cur.Next()
		} else {
			cur.Prev()
		}
	}
	return 0, steps, false
}
