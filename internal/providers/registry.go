// Package providers implements the per-wire-format normalizers (OpenAI,
// Claude, Gemini) and the fixed-order registry that auto-detects or
// explicitly selects one of them for a given raw trace record.
//
// The shape is adapted from this codebase's original HTTP-proxy provider
// registry: a small interface implemented once per upstream format, with
// the registry owning an ordered list of instances rather than a type
// hierarchy.
package providers

import "github.com/tracecook/llmtrace/internal/cook"

// Registry returns the normalizers in detection order: Gemini first (its
// markers are the most distinctive), then Claude, then OpenAI as the
// permissive fallback. A record satisfying more than one detector is
// resolved by whichever normalizer appears first in this slice.
func Registry() []cook.Normalizer {
	return []cook.Normalizer{
		NewGeminiNormalizer(),
		NewClaudeNormalizer(),
		NewOpenAINormalizer(),
	}
}
