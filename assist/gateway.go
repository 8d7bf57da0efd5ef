package assist

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/iw2rmb/glimmer/ai"
)

// DefaultCacheTTL is how long a gateway cache entry stays valid.
const DefaultCacheTTL = 5 * time.Minute

// GatewayOptions configures a Gateway. The zero value uses the default TTL,
// the wall clock, and slog.Default().
type GatewayOptions struct {
	CacheTTL time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

// Gateway wraps the AI endpoint with typed operations and per-operation
// result caching keyed by exact input text. Failures never propagate: every
// operation degrades to its neutral zero value and the error is only logged,
// so callers treat "empty" as "no suggestion available".
//
// The gateway is a plain cache-aside layer; it does not deduplicate
// concurrent calls for an identical key.
type Gateway struct {
	client ai.Client
	cache  *resultCache
	log    *slog.Logger
}

func NewGateway(client ai.Client, opts GatewayOptions) *Gateway {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		client: client,
		cache:  newResultCache(ttl, opts.Now),
		log:    log,
	}
}

// RewriteOptions returns labeled rewrite strategies for text. An empty list
// means "no options".
func (g *Gateway) RewriteOptions(ctx context.Context, text string) []RewriteOption {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	key := "rewrite-options\x00" + text
	if v, ok := g.cache.get(key); ok {
		return v.([]RewriteOption)
	}

	var raw struct {
		Options []struct {
			Key         string `json:"key"`
			Label       string `json:"label"`
			Description string `json:"description"`
		} `json:"options"`
	}
	err := g.client.CompleteJSON(ctx, ai.SystemRewriteOptions, ai.RewriteOptionsPrompt(text), &raw)
	if err != nil {
		g.log.Warn("rewrite options fetch failed", "err", err)
		return nil
	}

	options := make([]RewriteOption, 0, len(raw.Options))
	for _, o := range raw.Options {
		if o.Label == "" {
			continue
		}
		options = append(options, RewriteOption{Key: o.Key, Label: o.Label, Description: o.Description})
	}
	g.cache.put(key, options)
	return options
}

// Rewrite returns text rewritten per the instruction, or "" on failure.
func (g *Gateway) Rewrite(ctx context.Context, text, instruction string) string {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(instruction) == "" {
		return ""
	}
	key := "rewrite\x00" + instruction + "\x00" + text
	if v, ok := g.cache.get(key); ok {
		return v.(string)
	}

	out, err := g.client.Complete(ctx, ai.SystemRewrite, ai.RewritePrompt(text, instruction))
	if err != nil {
		g.log.Warn("rewrite fetch failed", "err", err)
		return ""
	}
	out = strings.TrimSpace(out)
	g.cache.put(key, out)
	return out
}

// InlineCompletion returns the continuation for lineText, already joined per
// the spacing rule, or "" when there is nothing to offer. docContext carries
// surrounding text (the preceding line) and participates in the cache key.
func (g *Gateway) InlineCompletion(ctx context.Context, lineText, docContext string) string {
	if strings.TrimSpace(lineText) == "" {
		return ""
	}
	key := "inline\x00" + docContext + "\x00" + lineText
	if v, ok := g.cache.get(key); ok {
		return v.(string)
	}

	raw, err := g.client.Complete(ctx, ai.SystemInlineCompletion, ai.InlineCompletionPrompt(lineText, docContext))
	if err != nil {
		g.log.Warn("inline completion fetch failed", "err", err)
		return ""
	}

	joined := joinContinuation(lineText, sanitizeContinuation(lineText, raw))
	g.cache.put(key, joined)
	return joined
}

// sanitizeContinuation clamps the raw completion to a single line and strips
// a repeated lineText prefix.
func sanitizeContinuation(lineText, raw string) string {
	raw, _, _ = strings.Cut(raw, "\n")
	if lineText != "" && strings.HasPrefix(raw, lineText) {
		raw = raw[len(lineText):]
	}
	return strings.TrimRight(raw, " \t")
}

// joinContinuation inserts exactly one joiner space unless lineText already
// ends in whitespace or the continuation already starts with whitespace.
func joinContinuation(lineText, cont string) string {
	if cont == "" {
		return ""
	}
	if endsInSpace(lineText) || startsWithSpace(cont) {
		return cont
	}
	return " " + cont
}

func endsInSpace(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && unicode.IsSpace(r)
}

func startsWithSpace(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsSpace(r)
}

// TextSuggestions scans fullText for spelling/grammar/style problems. Spans
// come from the first exact occurrence of each flagged substring; a flag the
// endpoint did not copy verbatim from the input is silently dropped. There
// is no fuzzy or repeated-occurrence matching.
func (g *Gateway) TextSuggestions(ctx context.Context, fullText string) []TextSuggestion {
	if strings.TrimSpace(fullText) == "" {
		return nil
	}
	key := "suggestions\x00" + fullText
	if v, ok := g.cache.get(key); ok {
		return v.([]TextSuggestion)
	}

	var raw struct {
		Suggestions []struct {
			Text        string `json:"text"`
			Type        string `json:"type"`
			Replacement string `json:"replacement"`
			Description string `json:"description"`
		} `json:"suggestions"`
	}
	err := g.client.CompleteJSON(ctx, ai.SystemTextSuggestions, ai.TextSuggestionsPrompt(fullText), &raw)
	if err != nil {
		g.log.Warn("suggestion scan failed", "err", err)
		return nil
	}

	out := make([]TextSuggestion, 0, len(raw.Suggestions))
	for _, s := range raw.Suggestions {
		if s.Text == "" {
			continue
		}
		byteAt := strings.Index(fullText, s.Text)
		if byteAt < 0 {
			continue
		}
		from := utf8.RuneCountInString(fullText[:byteAt])
		out = append(out, TextSuggestion{
			From:        from,
			To:          from + utf8.RuneCountInString(s.Text),
			Type:        suggestionType(s.Type),
			Replacement: s.Replacement,
			Description: s.Description,
			Original:    s.Text,
		})
	}
	g.cache.put(key, out)
	return out
}

func suggestionType(s string) SuggestionType {
	switch SuggestionType(s) {
	case SuggestionSpelling, SuggestionGrammar, SuggestionStyle:
		return SuggestionType(s)
	default:
		return SuggestionStyle
	}
}
