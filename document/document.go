package document

import (
	"strings"
	"sync"
)

// Edit replaces the text in [From, To) with Insert. An empty range inserts.
type Edit struct {
	From   int
	To     int
	Insert string
}

// Document is the in-memory document state: text, version, and the main
// selection. It notifies subscribers once per effective change.
//
// All methods are safe for concurrent use. An internal lock serializes
// mutations; listeners run after the lock is released, on the mutating
// goroutine, so they may call back into the document freely. Callbacks for
// mutations issued from different goroutines carry their own before/after
// versions but are not delivered in a global order.
type Document struct {
	mu      sync.RWMutex
	text    []rune
	version uint64
	sel     Range

	lastChange    Change
	hasLastChange bool

	changeFns    []func(Change)
	selectionFns []func(SelectionChange)
}

func New(text string) *Document {
	return &Document{text: []rune(text)}
}

// Len returns the document length in runes.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.text)
}

func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return string(d.text)
}

// Slice returns the text covered by [from, to), clamped into bounds.
func (d *Document) Slice(from, to int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sliceLocked(from, to)
}

func (d *Document) sliceLocked(from, to int) string {
	r := Normalize(clampRange(Range{From: from, To: to}, len(d.text)))
	return string(d.text[r.From:r.To])
}

func (d *Document) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Selection returns the normalized main selection. An empty range is the
// caret position.
func (d *Document) Selection() Range {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sel
}

// SelectedText returns the text covered by the main selection.
func (d *Document) SelectedText() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sliceLocked(d.sel.From, d.sel.To)
}

// SetSelection moves the main selection without touching the text. Listeners
// registered via OnSelectionChange observe the move; the version still bumps
// so stale async results keyed to the old cursor are detectable.
func (d *Document) SetSelection(r Range) {
	d.mu.Lock()
	next := Normalize(clampRange(r, len(d.text)))
	if next == d.sel {
		d.mu.Unlock()
		return
	}
	before := d.sel
	d.sel = next
	d.version++
	ev := SelectionChange{Before: before, After: next, Version: d.version}
	fns := append(([]func(SelectionChange))(nil), d.selectionFns...)
	d.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// OnChange subscribes fn to text changes. Callbacks run synchronously, in
// registration order, after the change is fully applied.
func (d *Document) OnChange(fn func(Change)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.changeFns = append(d.changeFns, fn)
}

// OnSelectionChange subscribes fn to selection-only moves.
func (d *Document) OnSelectionChange(fn func(SelectionChange)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selectionFns = append(d.selectionFns, fn)
}

// LastChange returns the most recent effective change.
func (d *Document) LastChange() (Change, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.hasLastChange {
		return Change{}, false
	}
	return cloneChange(d.lastChange), true
}

// LineAt returns the line containing pos and the offset of its first rune.
// Lines are '\n'-delimited; the terminator is not part of the line.
func (d *Document) LineAt(pos int) (line string, start int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lineAt(d.text, pos)
}

func lineAt(text []rune, pos int) (line string, start int) {
	pos = clampInt(pos, 0, len(text))
	start = pos
	for start > 0 && text[start-1] != '\n' {
		start--
	}
	end := pos
	for end < len(text) && text[end] != '\n' {
		end++
	}
	return string(text[start:end]), start
}

// Apply applies a sequence of edits in order. Each edit's range is
// interpreted against the document state at the time that edit is applied.
// Ranges are clamped into bounds, no-op edits are elided, and at most one
// Change is emitted. The selection collapses to a caret at the end of the
// last effective edit.
func (d *Document) Apply(edits ...Edit) {
	if len(edits) == 0 {
		return
	}

	d.mu.Lock()
	change := Change{
		VersionBefore:   d.version,
		SelectionBefore: d.sel,
	}

	caret := d.sel.From
	for _, e := range edits {
		applied, nextCaret, changed := d.replaceRange(e)
		if !changed {
			continue
		}
		caret = nextCaret
		change.Edits = append(change.Edits, applied)
	}

	if len(change.Edits) == 0 {
		d.mu.Unlock()
		return
	}

	d.version++
	d.sel = Caret(clampInt(caret, 0, len(d.text)))
	change.VersionAfter = d.version
	change.SelectionAfter = d.sel
	d.lastChange = cloneChange(change)
	d.hasLastChange = true
	fns := append(([]func(Change))(nil), d.changeFns...)
	d.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

func (d *Document) replaceRange(e Edit) (applied AppliedEdit, caret int, changed bool) {
	r := Normalize(clampRange(Range{From: e.From, To: e.To}, len(d.text)))
	deleted := string(d.text[r.From:r.To])
	if deleted == e.Insert {
		return AppliedEdit{}, 0, false
	}

	ins := []rune(e.Insert)
	next := make([]rune, 0, len(d.text)-r.Len()+len(ins))
	next = append(next, d.text[:r.From]...)
	next = append(next, ins...)
	next = append(next, d.text[r.To:]...)
	d.text = next

	applied = AppliedEdit{
		From:    r.From,
		To:      r.To,
		Insert:  e.Insert,
		Deleted: deleted,
	}
	return applied, r.From + len(ins), true
}

// LineCount returns the number of '\n'-delimited lines.
func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.Count(string(d.text), "\n") + 1
}
