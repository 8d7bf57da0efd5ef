package assist

import "unicode"

// inputState tracks where letter keypresses are routed while a selection is
// active.
type inputState uint8

const (
	stateIdle inputState = iota
	stateSelectionActive
	stateBuffering
	stateOptionsOpen
)

func (s inputState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateSelectionActive:
		return "selection-active"
	case stateBuffering:
		return "buffering-custom-rewrite"
	case stateOptionsOpen:
		return "options-open"
	default:
		return "unknown"
	}
}

// letterAction is the routing decision for one letter keypress.
type letterAction uint8

const (
	// actionTypeThrough leaves the key to the editor's default handling.
	actionTypeThrough letterAction = iota

	// actionBufferAppend appends the letter to the custom rewrite query.
	actionBufferAppend

	// actionCommit attempts to commit the option matching the letter; the
	// session swallows the key if nothing matches.
	actionCommit
)

// classifyLetter routes a letter keypress. With no active selection (Idle)
// every key types through. With a selection, lowercase letters extend the
// custom rewrite query and uppercase letters request an option commit;
// non-letters type through and let the editor replace the selection.
func classifyLetter(st inputState, r rune) letterAction {
	if st == stateIdle {
		return actionTypeThrough
	}
	switch {
	case unicode.IsLower(r):
		return actionBufferAppend
	case unicode.IsUpper(r):
		return actionCommit
	default:
		return actionTypeThrough
	}
}

// firstLetterIs reports whether s begins with the letter r, compared
// case-insensitively. Option labels commit on the first letter of their
// action word.
func firstLetterIs(s string, r rune) bool {
	for _, first := range s {
		return unicode.ToUpper(first) == unicode.ToUpper(r)
	}
	return false
}
