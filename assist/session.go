package assist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iw2rmb/glimmer/document"
)

// Default debounce delays per channel.
const (
	DefaultInlineDelay  = 500 * time.Millisecond
	DefaultRewriteDelay = 500 * time.Millisecond
	DefaultScanDelay    = 3 * time.Second
)

// Options configures a Session. The zero value gives the default delays,
// real timers, slog.Default(), and fetches on their own goroutines.
type Options struct {
	InlineDelay  time.Duration
	RewriteDelay time.Duration
	ScanDelay    time.Duration

	Logger *slog.Logger

	// StartTimer overrides timer creation (tests).
	StartTimer TimerFactory

	// Run executes one fetch. The default runs fn on a new goroutine;
	// tests substitute a synchronous or recording runner.
	Run func(fn func())
}

func normalizeOptions(o Options) Options {
	if o.InlineDelay <= 0 {
		o.InlineDelay = DefaultInlineDelay
	}
	if o.RewriteDelay <= 0 {
		o.RewriteDelay = DefaultRewriteDelay
	}
	if o.ScanDelay <= 0 {
		o.ScanDelay = DefaultScanDelay
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.StartTimer == nil {
		o.StartTimer = afterFunc
	}
	if o.Run == nil {
		o.Run = func(fn func()) { go fn() }
	}
	return o
}

// Session owns every piece of assist state for one document/editor pair:
// timers, cache (via the gateway), anchors, and the keystroke state machine.
// Constructing it subscribes to the document's change and selection streams.
//
// Session methods are safe for concurrent use; async results re-validate
// against the live document under the session lock before they install.
type Session struct {
	mu   sync.Mutex
	doc  *document.Document
	gw   *Gateway
	pres Presenter
	log  *slog.Logger
	opts Options

	anchors anchorStore
	state   inputState
	rw      rewriteState
	deb     debouncer

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

func NewSession(doc *document.Document, gw *Gateway, pres Presenter, opts Options) *Session {
	opts = normalizeOptions(opts)
	if pres == nil {
		pres = NopPresenter{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		doc:    doc,
		gw:     gw,
		pres:   pres,
		log:    opts.Logger,
		opts:   opts,
		deb:    debouncer{start: opts.StartTimer},
		ctx:    ctx,
		cancel: cancel,
	}
	doc.OnChange(s.handleChange)
	doc.OnSelectionChange(s.handleSelectionChange)
	return s
}

// Close stops all pending timers and cancels outstanding fetches. The
// session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.deb.cancelAll()
	s.cancel()
}

// AnchorAt returns the anchor covering pos, if any. Used by hosts to decide
// what tooltip or preview belongs at the cursor.
func (s *Session) AnchorAt(pos int) *Anchor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anchors.query(pos)
}

// Anchors returns copies of the live anchors of the given kind.
func (s *Session) Anchors(kind AnchorKind) []Anchor {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.anchors.byKind(kind)
	out := make([]Anchor, 0, len(live))
	for _, a := range live {
		out = append(out, *a)
	}
	return out
}

// RewriteQueryState returns the current custom-rewrite query record.
func (s *Session) RewriteQueryState() RewriteQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rw.query
}

// RewriteOptionsOpen returns the currently offered options, if the list is
// open.
func (s *Session) RewriteOptionsOpen() ([]RewriteOption, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rw.open {
		return nil, false
	}
	out := make([]RewriteOption, 0, len(s.rw.options))
	for _, c := range s.rw.options {
		out = append(out, c.RewriteOption)
	}
	return out, true
}

// HandleLetter resolves a letter keypress against the transient UI state and
// reports whether the key was consumed. Hosts call it from their keymap
// before default text insertion: false means "type the character normally".
func (s *Session) HandleLetter(r rune) bool {
	s.mu.Lock()
	if s.closed || s.doc.Selection().Empty() {
		s.mu.Unlock()
		return false
	}

	switch classifyLetter(s.state, r) {
	case actionBufferAppend:
		s.appendQueryLocked(r)
		s.mu.Unlock()
		return true

	case actionCommit:
		applyText, ok := s.rw.match(r)
		if !ok {
			// Swallow the key: options are on offer and a stray
			// character must not replace the selection.
			s.mu.Unlock()
			return true
		}
		sel := s.rw.sel
		s.mu.Unlock()
		s.doc.Apply(document.Edit{From: sel.From, To: sel.To, Insert: applyText})
		return true

	default:
		s.mu.Unlock()
		return false
	}
}

// handleChange reacts to a document edit: re-map anchors, drop the ghost,
// reset rewrite state, and schedule the follow-up fetches.
func (s *Session) handleChange(c document.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	dropped := s.anchors.apply(c)
	droppedKinds := map[AnchorKind]bool{}
	for _, a := range dropped {
		droppedKinds[a.Kind] = true
	}

	// The ghost was computed for the pre-edit text; retire it and let the
	// debounced refetch produce a fresh one.
	if a := s.anchors.first(AnchorInline); a != nil {
		s.anchors.remove(a)
		droppedKinds[AnchorInline] = true
	}

	s.resetRewriteLocked()
	s.state = stateIdle

	for kind := range droppedKinds {
		s.pres.Clear(kind)
	}
	s.renderSuggestionsLocked()

	s.deb.trigger(chSuggestionScan, s.opts.ScanDelay, s.fireSuggestionScan)
	if c.SelectionAfter.Empty() {
		s.deb.trigger(chInline, s.opts.InlineDelay, s.fireInlineCompletion)
	}
}

// handleSelectionChange reacts to a selection move without a text change.
func (s *Session) handleSelectionChange(ev document.SelectionChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.resetRewriteLocked()

	// A ghost is only valid with the caret parked on it.
	if a := s.anchors.first(AnchorInline); a != nil && ev.After != document.Caret(a.From) {
		s.anchors.remove(a)
		s.pres.Clear(AnchorInline)
	}

	if ev.After.Empty() {
		s.state = stateIdle
		s.deb.cancel(chInline)
		return
	}

	s.state = stateSelectionActive
	s.rw.sel = ev.After
	s.deb.trigger(chRewriteOptions, s.opts.RewriteDelay, s.fireRewriteOptions)
}

// snapshotMatches reports whether the live document still has the identity a
// fetch was issued for. Results are discarded strictly by snapshot identity,
// never by arrival order.
func (s *Session) snapshotMatches(snap document.Snapshot) bool {
	live := s.doc.Snapshot()
	return live.Version == snap.Version && live.Selection == snap.Selection
}

func (s *Session) renderSuggestionsLocked() {
	s.pres.Clear(AnchorSuggestion)
	for _, a := range s.anchors.byKind(AnchorSuggestion) {
		if sg, ok := a.Payload.(TextSuggestion); ok {
			s.pres.RenderUnderline(a.Span(), sg.Type)
		}
	}
}
