package layout

// Cursor is an index into a sequence of fixed length that wraps from the last
// position back to the first and vice versa. Both Position Search and the
// dynamic pass walk the cache through it.
type Cursor struct {
	pos int
	n   int
}

// NewCursor returns a cursor over n positions starting at start. The start
// position is wrapped into range.
func NewCursor(n, start int) Cursor {
	c := Cursor{n: n}
	c.Seek(start)
	return c
}

// Len returns the number of positions.
func (c Cursor) Len() int { return c.n }

// Index returns the current position.
func (c Cursor) Index() int { return c.pos }

// Seek moves the cursor to i, wrapping it into range.
func (c *Cursor) Seek(i int) {
	if c.n <= 0 {
		c.pos = 0
		return
	}
	i %= c.n
	if i < 0 {
		i += c.n
	}
	c.pos = i
}

// Next advances one position and returns the new index.
func (c *Cursor) Next() int {
	if c.n > 0 {
		c.pos++
		if c.pos == c.n {
			c.pos = 0
		}
	}
	return c.pos
}

// Prev moves back one position and returns the new index.
func (c *Cursor) Prev() int {
	if c.n > 0 {
		c.pos--
		if c.pos < 0 {
			c.pos = c.n - 1
		}
	}
	return c.pos
}

// DistanceFrom returns how many forward steps separate start from the current
// position.
func (c Cursor) DistanceFrom(start int) int {
	if c.n <= 0 {
		return 0
	}
	d := (c.pos - start) % c.n
	if d < 0 {
		d += c.n
	}
	return d
}
