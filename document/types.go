package document

// Range is a half-open span of rune offsets: [From, To).
// From <= To after Normalize; the range is a caret when From == To.
type Range struct {
	From int
	To   int
}

func (r Range) Empty() bool { return r.From == r.To }

func (r Range) Len() int { return r.To - r.From }

// Contains reports whether pos falls inside the half-open range.
func (r Range) Contains(pos int) bool { return pos >= r.From && pos < r.To }

// Caret returns an empty range at pos.
func Caret(pos int) Range { return Range{From: pos, To: pos} }

func Normalize(r Range) Range {
	if r.From <= r.To {
		return r
	}
	return Range{From: r.To, To: r.From}
}

func clampInt(v, min, max int) int {
	if max < min {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampRange(r Range, docLen int) Range {
	return Range{
		From: clampInt(r.From, 0, docLen),
		To:   clampInt(r.To, 0, docLen),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
