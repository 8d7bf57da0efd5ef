package assist

import "github.com/iw2rmb/glimmer/document"

// AnchorKind discriminates the artifacts tracked by the anchor store.
type AnchorKind uint8

const (
	// AnchorInline is the ghost-text insertion point. At most one lives at
	// a time; inserting a new one clears the previous.
	AnchorInline AnchorKind = iota

	// AnchorRewritePreview is the pending custom-rewrite preview over the
	// selection.
	AnchorRewritePreview

	// AnchorRewriteOptions is the selection span the fixed option list was
	// fetched for.
	AnchorRewriteOptions

	// AnchorSuggestion is one flagged spelling/grammar/style span. Several
	// may coexist.
	AnchorSuggestion
)

func (k AnchorKind) String() string {
	switch k {
	case AnchorInline:
		return "inline"
	case AnchorRewritePreview:
		return "rewrite-preview"
	case AnchorRewriteOptions:
		return "rewrite-options"
	case AnchorSuggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

// SuggestionType classifies a flagged span.
type SuggestionType string

const (
	SuggestionSpelling SuggestionType = "spelling"
	SuggestionGrammar  SuggestionType = "grammar"
	SuggestionStyle    SuggestionType = "style"
)

// RewriteOption is one labeled rewrite strategy returned by the gateway.
// The label's first letter is the commit key (see HandleLetter).
type RewriteOption struct {
	Key         string
	Label       string
	Description string
}

// TextSuggestion is one flagged span with its proposed replacement. From/To
// are rune offsets into the scanned text.
type TextSuggestion struct {
	From        int
	To          int
	Type        SuggestionType
	Replacement string
	Description string
	Original    string
}

// Anchor is a tracked text range bound to an async-produced artifact. The
// store re-maps From/To through every document edit; an edit overlapping the
// interior drops the anchor instead.
//
// Payload holds the artifact: a string for AnchorInline and
// AnchorRewritePreview, []RewriteOption for AnchorRewriteOptions, and a
// TextSuggestion for AnchorSuggestion.
type Anchor struct {
	Kind         AnchorKind
	From         int
	To           int
	OriginalText string
	Payload      any
}

// Span returns the anchor's current range.
func (a *Anchor) Span() document.Range {
	return document.Range{From: a.From, To: a.To}
}

// RewriteQuery is the custom-rewrite query the user types over a selection,
// paired with the preview once a rewrite for that buffer has resolved.
type RewriteQuery struct {
	Buffer     string
	Preview    string
	HasPreview bool
}

func (q RewriteQuery) empty() bool { return q.Buffer == "" }
