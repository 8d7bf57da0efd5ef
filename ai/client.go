// Package ai wraps the external completion endpoint behind a small
// chat-style client interface: one system instruction, one user message, one
// text (or JSON-mode) completion back. Everything above this package treats
// the endpoint as a collaborator; prompt wording lives in prompts.go.
package ai

import (
	"context"
	"regexp"
)

// Client is the round-trip contract the assist layer depends on.
type Client interface {
	// Complete returns the raw text completion for the given system
	// instruction and user content.
	Complete(ctx context.Context, system, user string) (string, error)

	// CompleteJSON requests a JSON-mode completion and decodes it into out.
	CompleteJSON(ctx context.Context, system, user string, out any) error
}

var apiKeyRE = regexp.MustCompile(`^sk-[A-Za-z0-9]+$`)

// ValidAPIKey reports whether key matches the expected credential shape.
// Keys are held in memory only; nothing in this package persists them.
func ValidAPIKey(key string) bool {
	return apiKeyRE.MatchString(key)
}
