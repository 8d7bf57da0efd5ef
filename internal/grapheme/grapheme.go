// Package grapheme wraps uniseg cluster segmentation for the few operations
// the presentation side needs when carving rendered lines around cursors and
// anchor spans.
package grapheme

import "github.com/rivo/uniseg"

// Clusters returns the grapheme clusters of text in visual order.
func Clusters(text string) []string {
	if text == "" {
		return nil
	}
	g := uniseg.NewGraphemes(text)
	out := make([]string, 0, len(text))
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Count returns the number of grapheme clusters in text.
func Count(text string) int {
	if text == "" {
		return 0
	}
	g := uniseg.NewGraphemes(text)
	n := 0
	for g.Next() {
		n++
	}
	return n
}

// Truncate returns at most max leading clusters of text. Negative max is
// treated as zero.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	g := uniseg.NewGraphemes(text)
	end := 0
	n := 0
	for g.Next() {
		if n == max {
			break
		}
		_, to := g.Positions()
		end = to
		n++
	}
	return text[:end]
}
