// Package token post-processes segmentation output into index-ready
// token streams. Thai tokens get a trailing zero-width word marker;
// compound words are sub-split with a double marker; Latin and numeric
// tokens are space-padded so whitespace-splitting engines isolate them.
package token

import (
	"strings"
	"unicode"

	"github.com/thaisearch/thaitok/internal/tokenizer"
)

const (
	// WordMarker is the invisible word boundary appended to Thai tokens
	// (U+200B, zero-width space).
	WordMarker = "​"
	// CompoundMarker joins sub-tokens of a split compound.
	CompoundMarker = WordMarker + WordMarker
)

// ProcessedToken is one token ready for indexing.
type ProcessedToken struct {
	Original    string                `json:"original"`
	Processed   string                `json:"processed"`
	ContentType tokenizer.ContentType `json:"content_type"`
	IsCompound  bool                  `json:"is_compound"`
	SubTokens   []string              `json:"sub_tokens,omitempty"`
}

// Processor applies marker injection and compound splitting.
type Processor struct {
	handleCompounds bool
}

// NewProcessor builds a post-processor. handleCompounds enables the
// pattern-based compound sub-split for long Thai tokens.
func NewProcessor(handleCompounds bool) *Processor {
	return &Processor{handleCompounds: handleCompounds}
}

// Process converts a segmentation result into processed tokens.
func (p *Processor) Process(res *tokenizer.SegmentationResult) []ProcessedToken {
	if res == nil {
		return nil
	}
	out := make([]ProcessedToken, 0, len(res.Tokens))
	for _, tok := range res.Tokens {
		out = append(out, p.processSurface(tok.Surface))
	}
	return out
}

// ProcessSurfaces processes bare surfaces without position info.
func (p *Processor) ProcessSurfaces(surfaces []string) []ProcessedToken {
	out := make([]ProcessedToken, 0, len(surfaces))
	for _, s := range surfaces {
		out = append(out, p.processSurface(s))
	}
	return out
}

func (p *Processor) processSurface(surface string) ProcessedToken {
	ct := tokenizer.Classify(surface)
	pt := ProcessedToken{Original: surface, ContentType: ct}

	switch ct {
	case tokenizer.ContentThai:
		p.processThai(&pt)
	case tokenizer.ContentLatin, tokenizer.ContentNumeric:
		pt.Processed = " " + surface + " "
	case tokenizer.ContentMixed:
		pt.Processed = p.processMixed(surface)
	default:
		// Punctuation and whitespace pass through untouched.
		pt.Processed = surface
	}
	return pt
}

// processThai appends the word marker and, when enabled, sub-splits
// compound candidates. Sub-tokens are joined with the double marker and
// the whole unit still ends with the single word marker.
func (p *Processor) processThai(pt *ProcessedToken) {
	surface := pt.Original
	if p.handleCompounds && tokenizer.IsCompoundCandidate(surface) {
		parts, ok := tokenizer.SplitCompound(surface)
		if !ok {
			parts = tokenizer.MidpointSplit(surface)
			ok = len(parts) == 2
		}
		if ok {
			pt.IsCompound = true
			pt.SubTokens = parts
			pt.Processed = strings.Join(parts, CompoundMarker) + WordMarker
			return
		}
	}
	pt.Processed = surface + WordMarker
}

// processMixed splits a mixed surface into maximal single-category runs
// and applies the per-category rules to each run.
func (p *Processor) processMixed(surface string) string {
	var b strings.Builder
	for _, seg := range splitCategoryRuns(surface) {
		sub := p.processSurface(seg)
		b.WriteString(sub.Processed)
	}
	return b.String()
}

// categoryOf buckets a rune with the same category rules Classify uses
// for uniform strings, so runs split exactly at category changes and a
// non-Thai letter never lands in a different bucket at the two levels.
func categoryOf(r rune) tokenizer.ContentType {
	switch {
	case tokenizer.IsThaiRune(r):
		return tokenizer.ContentThai
	case unicode.IsSpace(r):
		return tokenizer.ContentWhitespace
	case unicode.IsDigit(r):
		return tokenizer.ContentNumeric
	case unicode.IsLetter(r):
		return tokenizer.ContentLatin
	default:
		return tokenizer.ContentPunctuation
	}
}

func splitCategoryRuns(s string) []string {
	var runs []string
	var cur []rune
	var curCat tokenizer.ContentType

	for _, r := range s {
		cat := categoryOf(r)
		if len(cur) > 0 && cat != curCat {
			runs = append(runs, string(cur))
			cur = cur[:0]
		}
		curCat = cat
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		runs = append(runs, string(cur))
	}
	return runs
}

// Strip removes all word and compound markers, recovering the original
// surface of a processed Thai token.
func Strip(processed string) string {
	return strings.ReplaceAll(processed, WordMarker, "")
}

// Render joins processed tokens into the indexable text stream.
func Render(tokens []ProcessedToken) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Processed)
	}
	return b.String()
}

// SeparatorSet returns every separator character this package can emit.
// The settings model must declare a superset of these to the search
// engine.
func SeparatorSet() []string {
	return []string{WordMarker, " "}
}
