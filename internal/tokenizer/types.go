// Package tokenizer provides Thai-aware word segmentation. It wraps a
// pluggable segmentation backend (newmm, attacut, deepcut), adds a
// deterministic character-level fallback, and carries the custom-dictionary
// snapshot used for domain vocabulary.
package tokenizer

import "unicode"

// ContentType labels what a token is made of.
type ContentType string

const (
	ContentThai        ContentType = "thai"
	ContentLatin       ContentType = "latin"
	ContentNumeric     ContentType = "numeric"
	ContentPunctuation ContentType = "punctuation"
	ContentWhitespace  ContentType = "whitespace"
	ContentMixed       ContentType = "mixed"
)

// Token is a single surface token with byte offsets into the input.
type Token struct {
	Surface     string      `json:"surface"`
	StartByte   int         `json:"start_byte"`
	EndByte     int         `json:"end_byte"`
	ContentType ContentType `json:"content_type"`
}

// SegmentationResult is the immutable output of a segmentation call.
//
// Boundaries holds len(Tokens)+1 non-decreasing byte offsets: 0 followed by
// the end offset of each token. When a backend rewrites a token so it cannot
// be located in the input, its boundary is estimated by cumulative length
// and Estimated is set.
type SegmentationResult struct {
	Input        string  `json:"input"`
	Tokens       []Token `json:"tokens"`
	Boundaries   []int   `json:"boundaries"`
	Engine       string  `json:"engine"`
	ElapsedMS    float64 `json:"elapsed_ms"`
	FallbackUsed bool    `json:"fallback_used"`
	Estimated    bool    `json:"estimated,omitempty"`
}

// Surfaces returns just the token surfaces in order.
func (r *SegmentationResult) Surfaces() []string {
	out := make([]string, len(r.Tokens))
	for i, t := range r.Tokens {
		out[i] = t.Surface
	}
	return out
}

// IsThaiRune reports whether r is in the Thai Unicode block (U+0E00-U+0E7F).
func IsThaiRune(r rune) bool {
	return r >= 0x0E00 && r <= 0x0E7F
}

// ContainsThai reports whether s contains at least one Thai code point.
func ContainsThai(s string) bool {
	for _, r := range s {
		if IsThaiRune(r) {
			return true
		}
	}
	return false
}

// ThaiRatio returns the fraction of non-whitespace code points that are Thai.
// Used by the query side, which applies a permissive 30% threshold.
func ThaiRatio(s string) float64 {
	var thai, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if IsThaiRune(r) {
			thai++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(thai) / float64(total)
}
