package ai

import "fmt"

// System instructions for the four assist operations. The JSON shapes here
// are the ones the gateway decodes; keep them in sync with its raw structs.
const (
	SystemRewriteOptions = `You are a writing assistant. The user gives you a passage of markdown prose. Propose up to five distinct rewrite strategies for it. Respond in JSON: {"options":[{"key":"concise","label":"Condense","description":"Tighten the passage"}]}. Each label must begin with the word naming the action. Respond with {"options":[]} if nothing useful applies.`

	SystemRewrite = `You are a writing assistant. Rewrite the user's text following ONLY the rewrite instruction given. Respond with the rewritten text and nothing else: no commentary, no quotation marks, no markdown fences.`

	SystemInlineCompletion = `You are an autocomplete engine for markdown prose. Continue the user's current line naturally. Respond with the continuation only. Never repeat the text you were given. Keep it short: a phrase or one sentence.`

	SystemTextSuggestions = `You are a proofreader for markdown prose. Find spelling, grammar, and style problems. Respond in JSON: {"suggestions":[{"text":"<exact flagged substring>","type":"spelling","replacement":"<corrected text>","description":"<one-line reason>"}]}. "type" must be one of "spelling", "grammar", "style". "text" must be copied verbatim from the input. Respond with {"suggestions":[]} when the text is clean.`
)

// RewriteOptionsPrompt builds the user message for a rewrite-options call.
func RewriteOptionsPrompt(text string) string {
	return fmt.Sprintf("Passage:\n%s", text)
}

// RewritePrompt builds the user message for a rewrite call.
func RewritePrompt(text, instruction string) string {
	return fmt.Sprintf("Rewrite instruction: %s\n\nText:\n%s", instruction, text)
}

// InlineCompletionPrompt builds the user message for an inline completion.
// context carries surrounding document text (the preceding line).
func InlineCompletionPrompt(lineText, context string) string {
	if context == "" {
		return fmt.Sprintf("Current line:\n%s", lineText)
	}
	return fmt.Sprintf("Preceding context:\n%s\n\nCurrent line:\n%s", context, lineText)
}

// TextSuggestionsPrompt builds the user message for a proofreading scan.
func TextSuggestionsPrompt(fullText string) string {
	return fmt.Sprintf("Document:\n%s", fullText)
}
