package document

// Snapshot is one consistent view of the document, captured under a single
// lock acquisition. Async consumers take a Snapshot when work is issued and
// compare it against a fresh one before applying the result; reading
// Version, Selection, and Text through separate accessors could observe a
// mutation in between.
type Snapshot struct {
	Version   uint64
	Selection Range
	Text      string
}

// Snapshot returns a consistent copy of the current state.
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{Version: d.version, Selection: d.sel, Text: string(d.text)}
}

// SelectedText returns the text covered by the snapshot's selection.
func (s Snapshot) SelectedText() string {
	text := []rune(s.Text)
	r := Normalize(clampRange(s.Selection, len(text)))
	return string(text[r.From:r.To])
}

// LineAt returns the line containing pos and the offset of its first rune,
// against the snapshot's text.
func (s Snapshot) LineAt(pos int) (line string, start int) {
	return lineAt([]rune(s.Text), pos)
}
