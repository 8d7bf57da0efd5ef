package assist

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iw2rmb/glimmer/ai"
	"github.com/iw2rmb/glimmer/document"
)

type fakeTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return !t.fired
}

// timerSet is a deterministic TimerFactory: timers never fire on their own.
type timerSet struct {
	timers []*fakeTimer
}

func (ts *timerSet) factory(_ time.Duration, fn func()) Timer {
	ft := &fakeTimer{fn: fn}
	ts.timers = append(ts.timers, ft)
	return ft
}

// fireAll runs every pending timer in creation order. Timers scheduled
// while firing stay pending.
func (ts *timerSet) fireAll() {
	pending := ts.timers
	for _, ft := range pending {
		if ft.stopped || ft.fired {
			continue
		}
		ft.fired = true
		ft.fn()
	}
}

type ghostCall struct {
	text string
	at   int
}

type underlineCall struct {
	span document.Range
	kind SuggestionType
}

type tooltipCall struct {
	span      document.Range
	payload   any
	onAccept  func()
	onDismiss func()
}

// recPresenter records render calls for assertions.
type recPresenter struct {
	ghosts      []ghostCall
	underlines  []underlineCall
	tooltips    []tooltipCall
	optionCalls [][]RewriteOption
	cleared     []AnchorKind
}

func (p *recPresenter) RenderInlineGhost(text string, at int) {
	p.ghosts = append(p.ghosts, ghostCall{text, at})
}

func (p *recPresenter) RenderUnderline(span document.Range, kind SuggestionType) {
	p.underlines = append(p.underlines, underlineCall{span, kind})
}

func (p *recPresenter) RenderTooltip(span document.Range, payload any, onAccept, onDismiss func()) {
	p.tooltips = append(p.tooltips, tooltipCall{span, payload, onAccept, onDismiss})
}

func (p *recPresenter) RenderOptionsList(options []RewriteOption, _ func(string)) {
	p.optionCalls = append(p.optionCalls, options)
}

func (p *recPresenter) Clear(kind AnchorKind) {
	p.cleared = append(p.cleared, kind)
}

type sessionFixture struct {
	doc    *document.Document
	sess   *Session
	client *fakeAI
	timers *timerSet
	pres   *recPresenter
}

// newFixture builds a session with fake timers and a synchronous fetch
// runner, so tests drive every async step by hand.
func newFixture(t *testing.T, text string, client *fakeAI) *sessionFixture {
	t.Helper()
	if client.jsonFn == nil {
		client.jsonFn = func(system, _ string) (string, error) {
			if system == ai.SystemTextSuggestions {
				return `{"suggestions":[]}`, nil
			}
			return `{"options":[]}`, nil
		}
	}
	doc := document.New(text)
	ts := &timerSet{}
	pres := &recPresenter{}
	sess := NewSession(doc, NewGateway(client, GatewayOptions{Logger: discardLogger()}), pres, Options{
		Logger:     discardLogger(),
		StartTimer: ts.factory,
		Run:        func(fn func()) { fn() },
	})
	t.Cleanup(sess.Close)
	return &sessionFixture{doc: doc, sess: sess, client: client, timers: ts, pres: pres}
}

func typeText(f *sessionFixture, s string) {
	for _, r := range s {
		pos := f.doc.Selection().From
		f.doc.Apply(document.Edit{From: pos, To: pos, Insert: string(r)})
	}
}

func TestDebounceCollapsesTriggersUsingLastSnapshot(t *testing.T) {
	client := &fakeAI{completeFn: func(system, _ string) (string, error) {
		if system == ai.SystemInlineCompletion {
			return "done", nil
		}
		return "", nil
	}}
	f := newFixture(t, "hello", client)
	f.doc.SetSelection(document.Caret(5))

	typeText(f, "wor") // three triggers inside the window
	f.timers.fireAll()

	if got := f.client.calls(ai.SystemInlineCompletion); got != 1 {
		t.Fatalf("inline fetches: got %d, want 1", got)
	}
	user := f.client.completeCalls[0].user
	if !strings.Contains(user, "hellowor") {
		t.Fatalf("fetch must use the last trigger's snapshot, prompt: %q", user)
	}
	if len(f.pres.ghosts) != 1 || f.pres.ghosts[0].text != " done" || f.pres.ghosts[0].at != 8 {
		t.Fatalf("ghost render: %+v", f.pres.ghosts)
	}
}

func TestStaleResultDiscardedAfterEdit(t *testing.T) {
	var queue []func()
	client := &fakeAI{completeFn: func(string, string) (string, error) { return "late", nil }}
	client.jsonFn = func(string, string) (string, error) { return `{"suggestions":[]}`, nil }

	doc := document.New("hello")
	ts := &timerSet{}
	pres := &recPresenter{}
	sess := NewSession(doc, NewGateway(client, GatewayOptions{Logger: discardLogger()}), pres, Options{
		Logger:     discardLogger(),
		StartTimer: ts.factory,
		Run:        func(fn func()) { queue = append(queue, fn) },
	})
	defer sess.Close()

	doc.Apply(document.Edit{From: 5, To: 5, Insert: "x"})
	ts.fireAll() // fetches captured, not yet resolved

	// The document diverges while the fetch is "in flight".
	doc.Apply(document.Edit{From: 6, To: 6, Insert: "y"})

	resolved := queue
	queue = nil
	for _, fn := range resolved {
		fn()
	}

	if len(pres.ghosts) != 0 {
		t.Fatalf("stale completion must be discarded, got %+v", pres.ghosts)
	}
	if got := len(sess.Anchors(AnchorInline)); got != 0 {
		t.Fatalf("stale anchor installed: %d", got)
	}
}

func TestLowercaseLettersBufferSingleFetch(t *testing.T) {
	client := &fakeAI{completeFn: func(system, _ string) (string, error) {
		if system == ai.SystemRewrite {
			return "REWRITTEN", nil
		}
		return "", nil
	}}
	f := newFixture(t, "The quick fox", client)
	f.doc.SetSelection(document.Range{From: 0, To: 3})

	if !f.sess.HandleLetter('c') {
		t.Fatalf("lowercase with selection must be consumed")
	}
	if !f.sess.HandleLetter('o') {
		t.Fatalf("second lowercase must be consumed")
	}
	f.timers.fireAll()

	if got := f.client.calls(ai.SystemRewrite); got != 1 {
		t.Fatalf("rewrite fetches: got %d, want 1", got)
	}
	if user := f.client.completeCalls[0].user; !strings.Contains(user, "Rewrite instruction: co\n") {
		t.Fatalf("instruction must be the full buffer, prompt: %q", user)
	}

	q := f.sess.RewriteQueryState()
	if q.Buffer != "co" || !q.HasPreview || q.Preview != "REWRITTEN" {
		t.Fatalf("query state: %+v", q)
	}
	if len(f.pres.tooltips) != 1 {
		t.Fatalf("preview tooltip renders: got %d, want 1", len(f.pres.tooltips))
	}
}

func TestUppercaseWithoutMatchIsSwallowed(t *testing.T) {
	client := &fakeAI{}
	f := newFixture(t, "The quick fox", client)
	f.doc.SetSelection(document.Range{From: 0, To: 3})

	if !f.sess.HandleLetter('C') {
		t.Fatalf("uppercase with selection must be consumed even without a match")
	}
	if got, want := f.doc.Text(), "The quick fox"; got != want {
		t.Fatalf("swallowed key must not edit: got %q", got)
	}
}

func optionFixture(t *testing.T, applyText string) *sessionFixture {
	t.Helper()
	client := &fakeAI{}
	client.jsonFn = func(system, _ string) (string, error) {
		if system == ai.SystemRewriteOptions {
			return `{"options":[{"key":"concise","label":"Condense","description":"Make it concise"}]}`, nil
		}
		return `{"suggestions":[]}`, nil
	}
	client.completeFn = func(system, user string) (string, error) {
		if system != ai.SystemRewrite {
			return "", nil
		}
		if strings.Contains(user, "Rewrite instruction: Make it concise\n") {
			return applyText, nil
		}
		return "custom out", nil
	}
	f := newFixture(t, "The quick fox", client)
	f.doc.SetSelection(document.Range{From: 0, To: 3})
	f.timers.fireAll() // options fetched, apply texts prefetched
	return f
}

func TestUppercaseCommitsMatchingOption(t *testing.T) {
	f := optionFixture(t, "foo")

	if len(f.pres.optionCalls) != 1 {
		t.Fatalf("options list renders: got %d, want 1", len(f.pres.optionCalls))
	}
	if !f.sess.HandleLetter('C') {
		t.Fatalf("matching uppercase must be consumed")
	}
	if got, want := f.doc.Text(), "foo quick fox"; got != want {
		t.Fatalf("commit: got %q, want %q", got, want)
	}
	if q := f.sess.RewriteQueryState(); q.Buffer != "" {
		t.Fatalf("buffer must clear after commit: %+v", q)
	}
	if _, open := f.sess.RewriteOptionsOpen(); open {
		t.Fatalf("options list must close after commit")
	}
}

func TestUppercaseNonMatchingLetterSwallowedWhileOptionsOpen(t *testing.T) {
	f := optionFixture(t, "foo")

	if !f.sess.HandleLetter('X') {
		t.Fatalf("non-matching uppercase must be swallowed while options are open")
	}
	if got, want := f.doc.Text(), "The quick fox"; got != want {
		t.Fatalf("swallowed key edited the document: %q", got)
	}
}

func TestCustomPreviewBeatsSameLetterOption(t *testing.T) {
	f := optionFixture(t, "fixed out")

	f.sess.HandleLetter('c') // buffer "c", same commit letter as "Condense"
	f.timers.fireAll()

	f.sess.HandleLetter('C')
	if got, want := f.doc.Text(), "custom out quick fox"; got != want {
		t.Fatalf("custom preview must win the tie: got %q, want %q", got, want)
	}
}

func TestAcceptCompletionTwiceInsertsOnce(t *testing.T) {
	client := &fakeAI{completeFn: func(system, _ string) (string, error) {
		if system == ai.SystemInlineCompletion {
			return "sat", nil
		}
		return "", nil
	}}
	f := newFixture(t, "The cat", client)
	f.doc.SetSelection(document.Caret(7))

	typeText(f, "!")
	f.timers.fireAll()
	if len(f.sess.Anchors(AnchorInline)) != 1 {
		t.Fatalf("expected a live ghost anchor")
	}

	f.sess.AcceptCompletion()
	after := f.doc.Text()
	if after != "The cat! sat" {
		t.Fatalf("accept: got %q, want %q", after, "The cat! sat")
	}

	f.sess.AcceptCompletion() // no live anchor: no-op
	if got := f.doc.Text(); got != after {
		t.Fatalf("second accept must be a no-op: got %q", got)
	}
}

func TestSelectionChangeClearsQueryBuffer(t *testing.T) {
	client := &fakeAI{}
	f := newFixture(t, "The quick fox", client)
	f.doc.SetSelection(document.Range{From: 0, To: 3})
	f.sess.HandleLetter('c')

	f.doc.SetSelection(document.Range{From: 4, To: 9})
	if q := f.sess.RewriteQueryState(); q.Buffer != "" || q.HasPreview {
		t.Fatalf("selection change must clear the query: %+v", q)
	}

	f.doc.SetSelection(document.Range{From: 4, To: 4})
	if got := f.sess.HandleLetter('c'); got {
		t.Fatalf("empty selection must type through")
	}
}

func TestSuggestionScanInstallsAndAccepts(t *testing.T) {
	client := &fakeAI{}
	client.jsonFn = func(system, _ string) (string, error) {
		if system == ai.SystemTextSuggestions {
			return `{"suggestions":[{"text":"Teh","type":"spelling","replacement":"The","description":"typo"}]}`, nil
		}
		return `{"options":[]}`, nil
	}
	f := newFixture(t, "Teh quick fox", client)
	f.doc.SetSelection(document.Caret(13))

	typeText(f, ".")
	f.timers.fireAll()

	spans := f.sess.SuggestionSpans()
	if len(spans) != 1 || spans[0].From != 0 || spans[0].To != 3 {
		t.Fatalf("suggestion spans: %+v", spans)
	}
	if len(f.pres.underlines) == 0 {
		t.Fatalf("underline must render")
	}

	if !f.sess.ShowTooltipAt(1) {
		t.Fatalf("tooltip expected over the flagged span")
	}
	a := f.sess.AnchorAt(1)
	if a == nil || a.Kind != AnchorSuggestion {
		t.Fatalf("anchor at 1: %+v", a)
	}
	f.sess.AcceptSuggestion(a)
	if got, want := f.doc.Text(), "The quick fox."; got != want {
		t.Fatalf("accept suggestion: got %q, want %q", got, want)
	}

	// The accepted anchor is gone; a second accept is a no-op.
	before := f.doc.Text()
	f.sess.AcceptSuggestion(a)
	if got := f.doc.Text(); got != before {
		t.Fatalf("second accept must be a no-op: got %q", got)
	}
}

func TestSuggestionAnchorsRemapAcrossEdits(t *testing.T) {
	client := &fakeAI{}
	client.jsonFn = func(system, _ string) (string, error) {
		if system == ai.SystemTextSuggestions {
			return `{"suggestions":[{"text":"teh","type":"spelling","replacement":"the","description":"typo"}]}`, nil
		}
		return `{"options":[]}`, nil
	}
	f := newFixture(t, "see teh fox", client)
	f.doc.SetSelection(document.Caret(11))

	typeText(f, "!")
	f.timers.fireAll()

	// Edit before the span: it must shift, and still cover "teh".
	f.doc.Apply(document.Edit{From: 0, To: 0, Insert: ">> "})
	spans := f.sess.SuggestionSpans()
	if len(spans) != 1 || spans[0].From != 7 || spans[0].To != 10 {
		t.Fatalf("remapped span: %+v", spans)
	}
	if got := f.doc.Slice(spans[0].From, spans[0].To); got != "teh" {
		t.Fatalf("covered text after remap: got %q", got)
	}

	// Edit inside the span: the anchor must drop, not corrupt.
	f.doc.Apply(document.Edit{From: 8, To: 9, Insert: "X"})
	if got := len(f.sess.SuggestionSpans()); got != 0 {
		t.Fatalf("invalidated anchor still present: %d", got)
	}
}

func TestGhostDroppedWhenCursorMoves(t *testing.T) {
	client := &fakeAI{completeFn: func(system, _ string) (string, error) {
		if system == ai.SystemInlineCompletion {
			return "sat", nil
		}
		return "", nil
	}}
	f := newFixture(t, "The cat", client)
	f.doc.SetSelection(document.Caret(7))

	typeText(f, "!")
	f.timers.fireAll()
	if len(f.sess.Anchors(AnchorInline)) != 1 {
		t.Fatalf("expected a live ghost")
	}

	f.doc.SetSelection(document.Caret(0))
	if got := len(f.sess.Anchors(AnchorInline)); got != 0 {
		t.Fatalf("ghost must drop when the caret leaves it: %d", got)
	}
}

func TestClosedSessionIgnoresEverything(t *testing.T) {
	client := &fakeAI{}
	f := newFixture(t, "The quick fox", client)
	f.doc.SetSelection(document.Range{From: 0, To: 3})
	f.sess.Close()

	if f.sess.HandleLetter('c') {
		t.Fatalf("closed session must not consume keys")
	}
	f.timers.fireAll()
	if got := len(f.client.completeCalls) + len(f.client.jsonCalls); got != 0 {
		t.Fatalf("closed session must not fetch: %d calls", got)
	}
}

// staticClient returns fixed results and records nothing, so it is safe for
// concurrent calls.
type staticClient struct{}

func (staticClient) Complete(_ context.Context, system, _ string) (string, error) {
	if system == ai.SystemInlineCompletion {
		return "next", nil
	}
	return "out", nil
}

func (staticClient) CompleteJSON(_ context.Context, system, _ string, out any) error {
	if system == ai.SystemTextSuggestions {
		return json.Unmarshal([]byte(`{"suggestions":[]}`), out)
	}
	return json.Unmarshal([]byte(`{"options":[]}`), out)
}

type firedTimer struct{}

func (firedTimer) Stop() bool { return false }

// Edits race against fetch goroutines reading the document; run with -race.
// Timers here fire immediately on their own goroutine, modeling a debounce
// window that has already elapsed when the next keystroke lands.
func TestConcurrentEditsWithLiveFetches(t *testing.T) {
	doc := document.New("hello")
	var wg sync.WaitGroup
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	sess := NewSession(doc, NewGateway(staticClient{}, GatewayOptions{Logger: discardLogger()}), nil, Options{
		Logger: discardLogger(),
		StartTimer: func(_ time.Duration, fn func()) Timer {
			spawn(fn)
			return firedTimer{}
		},
		Run: spawn,
	})

	for i := 0; i < 400; i++ {
		doc.Apply(document.Edit{From: doc.Len(), To: doc.Len(), Insert: "a"})
		if i%10 == 0 {
			doc.SetSelection(document.Range{From: 0, To: 3})
			doc.SetSelection(document.Caret(doc.Len()))
		}
	}
	wg.Wait()
	sess.Close()

	if got, want := doc.Len(), len("hello")+400; got != want {
		t.Fatalf("length after concurrent fetches: got %d, want %d", got, want)
	}
}
