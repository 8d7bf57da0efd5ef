// Package assist implements the decision layer of the AI writing assistant:
// a request gateway with per-operation result caching, debounced and
// cancellable fetches, an anchor store that re-maps async results across
// concurrent document edits, and the keystroke state machine that routes
// letter keypresses between typing, the custom rewrite query, and option
// commits.
//
// All state is owned by a Session constructed once per document/editor pair.
// Rendering is delegated to a host-supplied Presenter; the package never
// assumes a rendering technology.
package assist
