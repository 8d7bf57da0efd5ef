package assist

import (
	"strings"

	"github.com/iw2rmb/glimmer/document"
)

// fireSuggestionScan runs a proofreading pass over the whole document. The
// result replaces the current suggestion set, but only if the text is still
// byte-identical to the scanned snapshot.
func (s *Session) fireSuggestionScan() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	full := s.doc.Text()
	if strings.TrimSpace(full) == "" {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.mu.Unlock()

	s.opts.Run(func() {
		suggestions := s.gw.TextSuggestions(ctx, full)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || s.doc.Text() != full {
			return
		}
		s.anchors.clear(AnchorSuggestion)
		for _, sg := range suggestions {
			s.anchors.insert(&Anchor{
				Kind:         AnchorSuggestion,
				From:         sg.From,
				To:           sg.To,
				OriginalText: sg.Original,
				Payload:      sg,
			})
		}
		s.renderSuggestionsLocked()
	})
}

// AcceptSuggestion replaces the flagged span with its suggested correction.
// Anchors no longer in the store (already accepted, dismissed, or
// invalidated by an edit) are ignored.
func (s *Session) AcceptSuggestion(a *Anchor) {
	s.mu.Lock()
	if s.closed || !s.anchors.contains(a) {
		s.mu.Unlock()
		return
	}
	sg, ok := a.Payload.(TextSuggestion)
	from, to := a.From, a.To
	s.anchors.remove(a)
	s.renderSuggestionsLocked()
	s.mu.Unlock()

	if !ok {
		return
	}
	s.doc.Apply(document.Edit{From: from, To: to, Insert: sg.Replacement})
}

// DismissSuggestion drops a flagged span without editing the document.
func (s *Session) DismissSuggestion(a *Anchor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.anchors.remove(a) {
		return
	}
	s.renderSuggestionsLocked()
}

// ShowTooltipAt surfaces the tooltip for the suggestion anchor covering pos,
// wiring its accept/dismiss callbacks. It reports whether anything was
// shown; hosts typically call it when the cursor rests inside an underline.
func (s *Session) ShowTooltipAt(pos int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	a := s.anchors.query(pos)
	if a == nil || a.Kind != AnchorSuggestion {
		return false
	}
	s.pres.RenderTooltip(a.Span(), a.Payload,
		func() { s.AcceptSuggestion(a) },
		func() { s.DismissSuggestion(a) },
	)
	return true
}

// SuggestionSpans returns the current flagged spans in document order,
// convenient for hosts rendering underlines from scratch.
func (s *Session) SuggestionSpans() []TextSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	anchors := s.anchors.byKind(AnchorSuggestion)
	out := make([]TextSuggestion, 0, len(anchors))
	for _, a := range anchors {
		sg, ok := a.Payload.(TextSuggestion)
		if !ok {
			continue
		}
		sg.From, sg.To = a.From, a.To // current mapped span
		out = append(out, sg)
	}
	return out
}
