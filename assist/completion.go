package assist

import (
	"strings"

	"github.com/iw2rmb/glimmer/document"
)

// fireInlineCompletion runs when the inline debounce window closes. It
// captures the line left of the caret plus the preceding line as context,
// fetches a continuation, and installs the ghost anchor only if the document
// and selection are still exactly as captured.
func (s *Session) fireInlineCompletion() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	snap := s.doc.Snapshot()
	sel := snap.Selection
	if !sel.Empty() {
		s.mu.Unlock()
		return
	}
	pos := sel.From
	line, start := snap.LineAt(pos)
	lineText := string([]rune(line)[:pos-start])
	if strings.TrimSpace(lineText) == "" {
		s.mu.Unlock()
		return
	}
	var prevLine string
	if start > 0 {
		prevLine, _ = snap.LineAt(start - 1)
	}
	ctx := s.ctx
	s.mu.Unlock()

	s.opts.Run(func() {
		text := s.gw.InlineCompletion(ctx, lineText, prevLine)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || text == "" || !s.snapshotMatches(snap) {
			return
		}
		s.anchors.insert(&Anchor{Kind: AnchorInline, From: pos, To: pos, Payload: text})
		s.pres.RenderInlineGhost(text, pos)
	})
}

// AcceptCompletion inserts the live ghost text at its anchor. With no live
// anchor it is a no-op, so accepting the same completion twice inserts once.
func (s *Session) AcceptCompletion() {
	s.mu.Lock()
	a := s.anchors.first(AnchorInline)
	if a == nil || s.closed {
		s.mu.Unlock()
		return
	}
	text, _ := a.Payload.(string)
	pos := a.From
	s.anchors.remove(a)
	s.pres.Clear(AnchorInline)
	s.mu.Unlock()

	if text == "" {
		return
	}
	s.doc.Apply(document.Edit{From: pos, To: pos, Insert: text})
}

// DismissCompletion drops the live ghost without editing the document.
func (s *Session) DismissCompletion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.anchors.first(AnchorInline); a != nil {
		s.anchors.remove(a)
		s.pres.Clear(AnchorInline)
	}
}
