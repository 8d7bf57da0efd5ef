package assist

import "github.com/iw2rmb/glimmer/document"

// rewriteCandidate pairs an offered option with its apply text, filled in as
// the per-option rewrite prefetch resolves. An option with empty applyText
// cannot be committed yet.
type rewriteCandidate struct {
	RewriteOption
	applyText string
}

// rewriteState is everything tied to the current selection's rewrite flow.
// gen increments on every reset; async callbacks carrying an older gen are
// stale and must not touch the state.
type rewriteState struct {
	gen     uint64
	sel     document.Range
	open    bool
	options []rewriteCandidate
	query   RewriteQuery
}

// match picks what an uppercase letter commits. The custom preview has the
// highest priority; otherwise the first option whose label starts with the
// letter and whose rewrite has resolved wins.
func (rw *rewriteState) match(r rune) (applyText string, ok bool) {
	if rw.query.HasPreview && rw.query.Preview != "" && firstLetterIs(rw.query.Buffer, r) {
		return rw.query.Preview, true
	}
	for _, c := range rw.options {
		if c.applyText != "" && firstLetterIs(c.Label, r) {
			return c.applyText, true
		}
	}
	return "", false
}

func (s *Session) resetRewriteLocked() {
	gen := s.rw.gen + 1
	s.rw = rewriteState{gen: gen}
	if removed := s.anchors.clear(AnchorRewritePreview); len(removed) > 0 {
		s.pres.Clear(AnchorRewritePreview)
	}
	if removed := s.anchors.clear(AnchorRewriteOptions); len(removed) > 0 {
		s.pres.Clear(AnchorRewriteOptions)
	}
	s.deb.cancel(chCustomRewrite)
	s.deb.cancel(chRewriteOptions)
}

// appendQueryLocked extends the custom rewrite query by one letter and
// restarts the debounce window. The old preview belongs to the old buffer
// and is retired immediately.
func (s *Session) appendQueryLocked(r rune) {
	s.rw.query.Buffer += string(r)
	s.rw.query.Preview = ""
	s.rw.query.HasPreview = false
	if a := s.anchors.first(AnchorRewritePreview); a != nil {
		s.anchors.remove(a)
		s.pres.Clear(AnchorRewritePreview)
	}
	s.state = stateBuffering
	s.deb.trigger(chCustomRewrite, s.opts.RewriteDelay, s.fireCustomRewrite)
}

// fireRewriteOptions fetches the fixed option list for the selection, then
// prefetches each option's apply text so an uppercase commit can resolve
// synchronously.
func (s *Session) fireRewriteOptions() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	snap := s.doc.Snapshot()
	sel := snap.Selection
	if sel.Empty() {
		s.mu.Unlock()
		return
	}
	text := snap.SelectedText()
	gen := s.rw.gen
	ctx := s.ctx
	s.mu.Unlock()

	s.opts.Run(func() {
		options := s.gw.RewriteOptions(ctx, text)

		s.mu.Lock()
		live := s.doc.Snapshot()
		stale := s.closed || gen != s.rw.gen ||
			live.Selection != sel || live.SelectedText() != text
		if stale || len(options) == 0 {
			s.mu.Unlock()
			return
		}
		s.rw.open = true
		s.rw.options = make([]rewriteCandidate, len(options))
		for i, o := range options {
			s.rw.options[i] = rewriteCandidate{RewriteOption: o}
		}
		if s.state == stateSelectionActive {
			s.state = stateOptionsOpen
		}
		s.anchors.insert(&Anchor{
			Kind:         AnchorRewriteOptions,
			From:         sel.From,
			To:           sel.To,
			OriginalText: text,
			Payload:      options,
		})
		s.pres.RenderOptionsList(options, s.selectOption)
		s.mu.Unlock()

		for i := range options {
			s.prefetchOptionApply(i, gen, text)
		}
	})
}

// prefetchOptionApply resolves one option's apply text in the background.
func (s *Session) prefetchOptionApply(i int, gen uint64, text string) {
	s.mu.Lock()
	if s.closed || gen != s.rw.gen || i >= len(s.rw.options) {
		s.mu.Unlock()
		return
	}
	opt := s.rw.options[i].RewriteOption
	ctx := s.ctx
	s.mu.Unlock()

	instruction := opt.Description
	if instruction == "" {
		instruction = opt.Label
	}

	s.opts.Run(func() {
		out := s.gw.Rewrite(ctx, text, instruction)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.rw.gen || out == "" || i >= len(s.rw.options) {
			return
		}
		s.rw.options[i].applyText = out
	})
}

// fireCustomRewrite fetches a rewrite using the query buffer as the
// instruction. The result only installs if the buffer, selection, and
// selected text are all still exactly what they were at fire time.
func (s *Session) fireCustomRewrite() {
	s.mu.Lock()
	if s.closed || s.rw.query.empty() {
		s.mu.Unlock()
		return
	}
	snap := s.doc.Snapshot()
	sel := snap.Selection
	if sel.Empty() {
		s.mu.Unlock()
		return
	}
	text := snap.SelectedText()
	instruction := s.rw.query.Buffer
	gen := s.rw.gen
	ctx := s.ctx
	s.mu.Unlock()

	s.opts.Run(func() {
		out := s.gw.Rewrite(ctx, text, instruction)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.rw.gen || out == "" {
			return
		}
		if s.rw.query.Buffer != instruction {
			return // superseded by further typing
		}
		if live := s.doc.Snapshot(); live.Selection != sel || live.SelectedText() != text {
			return
		}
		s.rw.query.Preview = out
		s.rw.query.HasPreview = true
		s.anchors.insert(&Anchor{
			Kind:         AnchorRewritePreview,
			From:         sel.From,
			To:           sel.To,
			OriginalText: text,
			Payload:      out,
		})
		s.pres.RenderTooltip(sel, out,
			func() { s.commitRewriteIfCurrent(gen, sel, out) },
			func() { s.CancelRewrite() },
		)
	})
}

// selectOption is the Presenter's onSelect callback: commit an offered
// option by key, if its rewrite has resolved.
func (s *Session) selectOption(key string) {
	s.mu.Lock()
	if s.closed || !s.rw.open {
		s.mu.Unlock()
		return
	}
	var applyText string
	for _, c := range s.rw.options {
		if c.Key == key {
			applyText = c.applyText
			break
		}
	}
	sel := s.rw.sel
	gen := s.rw.gen
	s.mu.Unlock()

	if applyText == "" {
		return
	}
	s.commitRewriteIfCurrent(gen, sel, applyText)
}

// commitRewriteIfCurrent replaces the selection unless the rewrite flow was
// reset since the callback was armed.
func (s *Session) commitRewriteIfCurrent(gen uint64, sel document.Range, text string) {
	s.mu.Lock()
	if s.closed || gen != s.rw.gen {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.doc.Apply(document.Edit{From: sel.From, To: sel.To, Insert: text})
}

// CancelRewrite dismisses the option list, preview, and query buffer.
func (s *Session) CancelRewrite() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.resetRewriteLocked()
	sel := s.doc.Selection()
	if sel.Empty() {
		s.state = stateIdle
		return
	}
	s.state = stateSelectionActive
	s.rw.sel = sel
}
