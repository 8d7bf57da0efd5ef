package assist

import "github.com/iw2rmb/glimmer/document"

// Presenter is the rendering seam between the session and the host editor
// widget. The session decides what to show; the host decides how to draw it.
//
// Methods may be invoked while the session lock is held, so implementations
// must not call back into the session synchronously. The onAccept/onDismiss
// and onSelect callbacks are meant to be wired to user gestures and invoked
// later, from the host's event handling.
type Presenter interface {
	// RenderInlineGhost shows completion ghost text at a caret position.
	RenderInlineGhost(text string, at int)

	// RenderUnderline flags a span with a suggestion underline.
	RenderUnderline(span document.Range, kind SuggestionType)

	// RenderTooltip shows a hover/preview card for a span.
	RenderTooltip(span document.Range, payload any, onAccept, onDismiss func())

	// RenderOptionsList shows the rewrite option list for the current
	// selection. onSelect commits the option with the given key.
	RenderOptionsList(options []RewriteOption, onSelect func(key string))

	// Clear retires every affordance of the given kind.
	Clear(kind AnchorKind)
}

// NopPresenter discards everything. Useful for tests and headless hosts.
type NopPresenter struct{}

func (NopPresenter) RenderInlineGhost(string, int)                     {}
func (NopPresenter) RenderUnderline(document.Range, SuggestionType)    {}
func (NopPresenter) RenderTooltip(document.Range, any, func(), func()) {}
func (NopPresenter) RenderOptionsList([]RewriteOption, func(string))   {}
func (NopPresenter) Clear(AnchorKind)                                  {}
