package document

// AppliedEdit describes one effective edit of a change transaction. From/To
// are offsets in the document state at the moment this edit applied (edits in
// a multi-edit change compose in order).
type AppliedEdit struct {
	From    int
	To      int
	Insert  string
	Deleted string
}

func (e AppliedEdit) insertLen() int { return len([]rune(e.Insert)) }

// delta is the net length change the edit caused.
func (e AppliedEdit) delta() int { return e.insertLen() - (e.To - e.From) }

// Change is a normalized, versioned mutation payload. One Change is emitted
// per Apply call, however many edits it carried.
type Change struct {
	VersionBefore   uint64
	VersionAfter    uint64
	SelectionBefore Range
	SelectionAfter  Range
	Edits           []AppliedEdit
}

// SelectionChange is emitted when the main selection moves without the text
// changing.
type SelectionChange struct {
	Before  Range
	After   Range
	Version uint64
}

// MapPos maps a single position through every edit in the change. Positions
// at or before an edit are unchanged, positions at or after it shift by the
// edit's net length delta. A position strictly inside a replaced range
// collapses to the edit start and the second return is false.
func (c Change) MapPos(pos int) (int, bool) {
	ok := true
	for _, e := range c.Edits {
		p, edOK := mapPoint(e, pos)
		pos = p
		ok = ok && edOK
	}
	return pos, ok
}

// MapRange maps an anchor range through every edit in the change. An edit
// overlapping any interior offset of the range invalidates it (second return
// false); edits that merely abut a boundary do not. Insertions exactly at
// From shift a non-empty range so the covered text is preserved; insertions
// exactly at To never extend it.
func (c Change) MapRange(r Range) (Range, bool) {
	r = Normalize(r)
	for _, e := range c.Edits {
		if overlapsInterior(e, r) {
			return Range{}, false
		}
		shiftFrom := !r.Empty()
		from, okFrom := mapRangePoint(e, r.From, shiftFrom)
		to, okTo := mapRangePoint(e, r.To, false)
		if !okFrom || !okTo {
			return Range{}, false
		}
		r = Range{From: from, To: to}
	}
	return r, true
}

func mapPoint(e AppliedEdit, pos int) (int, bool) {
	switch {
	case pos <= e.From:
		return pos, true
	case pos >= e.To:
		return pos + e.delta(), true
	default:
		return e.From, false
	}
}

// mapRangePoint maps one range boundary. afterInsert selects whether an
// insertion exactly at the boundary pushes it right.
func mapRangePoint(e AppliedEdit, pos int, afterInsert bool) (int, bool) {
	switch {
	case pos < e.From:
		return pos, true
	case pos == e.From:
		if e.From == e.To && afterInsert {
			return pos + e.insertLen(), true
		}
		return pos, true
	case pos >= e.To:
		return pos + e.delta(), true
	default:
		return e.From, false
	}
}

func overlapsInterior(e AppliedEdit, r Range) bool {
	if e.From == e.To {
		// Pure insertion: only strictly inside the range counts.
		return e.From > r.From && e.From < r.To
	}
	return maxInt(e.From, r.From) < minInt(e.To, r.To)
}

func cloneChange(in Change) Change {
	out := in
	out.Edits = append([]AppliedEdit(nil), in.Edits...)
	return out
}
