package assist

import "github.com/iw2rmb/glimmer/document"

// anchorStore owns every live anchor. All access happens under the session
// lock.
type anchorStore struct {
	anchors []*Anchor
}

// exclusiveKind reports whether at most one anchor of the kind may live at a
// time. Suggestions are the only kind that accumulates.
func exclusiveKind(k AnchorKind) bool { return k != AnchorSuggestion }

// insert adds a new anchor, clearing any existing anchors of the same kind
// when the kind is exclusive. It returns the replaced anchors.
func (s *anchorStore) insert(a *Anchor) []*Anchor {
	var replaced []*Anchor
	if exclusiveKind(a.Kind) {
		replaced = s.clear(a.Kind)
	}
	s.anchors = append(s.anchors, a)
	return replaced
}

// apply re-maps every stored anchor through the change. Anchors whose range
// the change invalidated are removed and returned.
func (s *anchorStore) apply(c document.Change) []*Anchor {
	var dropped []*Anchor
	kept := s.anchors[:0]
	for _, a := range s.anchors {
		mapped, ok := c.MapRange(a.Span())
		if !ok {
			dropped = append(dropped, a)
			continue
		}
		a.From, a.To = mapped.From, mapped.To
		kept = append(kept, a)
	}
	s.anchors = kept
	return dropped
}

func (s *anchorStore) remove(target *Anchor) bool {
	for i, a := range s.anchors {
		if a == target {
			s.anchors = append(s.anchors[:i], s.anchors[i+1:]...)
			return true
		}
	}
	return false
}

func (s *anchorStore) contains(target *Anchor) bool {
	for _, a := range s.anchors {
		if a == target {
			return true
		}
	}
	return false
}

// clear removes every anchor of the kind and returns them.
func (s *anchorStore) clear(kind AnchorKind) []*Anchor {
	var removed []*Anchor
	kept := s.anchors[:0]
	for _, a := range s.anchors {
		if a.Kind == kind {
			removed = append(removed, a)
			continue
		}
		kept = append(kept, a)
	}
	s.anchors = kept
	return removed
}

// query finds an anchor whose range contains pos. Caret anchors (empty
// ranges) match at their position.
func (s *anchorStore) query(pos int) *Anchor {
	for _, a := range s.anchors {
		if a.Span().Contains(pos) || (a.From == a.To && pos == a.From) {
			return a
		}
	}
	return nil
}

func (s *anchorStore) first(kind AnchorKind) *Anchor {
	for _, a := range s.anchors {
		if a.Kind == kind {
			return a
		}
	}
	return nil
}

func (s *anchorStore) byKind(kind AnchorKind) []*Anchor {
	var out []*Anchor
	for _, a := range s.anchors {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}
