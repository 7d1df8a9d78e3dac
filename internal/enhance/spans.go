package enhance

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// SpanKind tells how a highlight span was found.
type SpanKind string

const (
	SpanEngine   SpanKind = "Engine"
	SpanCompound SpanKind = "Compound"
	SpanPartial  SpanKind = "Partial"
	SpanFuzzy    SpanKind = "Fuzzy"
)

// Span is one highlight region in a field. Start and End are half-open
// code-point offsets over the plain (untagged) field text, so consumers
// slicing by characters land on the right region regardless of the
// UTF-8 width of Thai script. MatchedQuery is the query token that
// produced the span; engine spans carry none.
type Span struct {
	Start        int      `json:"start"`
	End          int      `json:"end"`
	Text         string   `json:"text"`
	Kind         SpanKind `json:"kind"`
	Confidence   float64  `json:"confidence"`
	MatchedQuery string   `json:"matched_query,omitempty"`
}

// highlightTags are the markup pairs recognized in engine-formatted
// views, in scan order.
var highlightTags = [][2]string{
	{"<em>", "</em>"},
	{"<strong>", "</strong>"},
	{"<mark>", "</mark>"},
	{"[HIGHLIGHT]", "[/HIGHLIGHT]"},
}

// extractEngineSpans pulls highlight spans out of a formatted field
// value. Offsets are counted in code points of the text with all tags
// removed, so they line up with the plain field.
func extractEngineSpans(formatted string) []Span {
	var spans []Span
	plainRunes := 0
	rest := formatted

	for len(rest) > 0 {
		openIdx, tag := nextTag(rest)
		if openIdx < 0 {
			break
		}
		plainRunes += utf8.RuneCountInString(rest[:openIdx])
		rest = rest[openIdx+len(tag[0]):]

		closeIdx := strings.Index(rest, tag[1])
		if closeIdx < 0 {
			// Unbalanced tag: treat the remainder as plain text.
			break
		}

		inner := rest[:closeIdx]
		if inner != "" {
			spans = append(spans, Span{
				Start:      plainRunes,
				End:        plainRunes + utf8.RuneCountInString(inner),
				Text:       inner,
				Kind:       SpanEngine,
				Confidence: 1.0,
			})
		}
		plainRunes += utf8.RuneCountInString(inner)
		rest = rest[closeIdx+len(tag[1]):]
	}

	return spans
}

// nextTag finds the earliest opening highlight tag in s.
func nextTag(s string) (int, [2]string) {
	best := -1
	var bestTag [2]string
	for _, tag := range highlightTags {
		if idx := strings.Index(s, tag[0]); idx >= 0 && (best < 0 || idx < best) {
			best = idx
			bestTag = tag
		}
	}
	return best, bestTag
}

// findOccurrences emits one span per occurrence of needle in text, with
// code-point offsets. matched records the query token the span answers.
func findOccurrences(text, needle string, kind SpanKind, confidence float64, matched string) []Span {
	if needle == "" {
		return nil
	}
	needleRunes := utf8.RuneCountInString(needle)
	var spans []Span
	byteOff, runeOff := 0, 0
	for {
		idx := strings.Index(text[byteOff:], needle)
		if idx < 0 {
			break
		}
		runeOff += utf8.RuneCountInString(text[byteOff : byteOff+idx])
		spans = append(spans, Span{
			Start:        runeOff,
			End:          runeOff + needleRunes,
			Text:         needle,
			Kind:         kind,
			Confidence:   confidence,
			MatchedQuery: matched,
		})
		byteOff += idx + len(needle)
		runeOff += needleRunes
	}
	return spans
}

// mergeSpans sorts by start offset and collapses overlapping spans into
// their union, keeping the kind, confidence, and matched token of the
// more confident input. The output contains no overlaps.
func mergeSpans(spans []Span) []Span {
	if len(spans) <= 1 {
		return spans
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	out := []Span{sorted[0]}
	for _, span := range sorted[1:] {
		last := &out[len(out)-1]
		if span.Start >= last.End {
			out = append(out, span)
			continue
		}
		if span.End > last.End {
			last.End = span.End
		}
		if span.Confidence > last.Confidence {
			last.Kind = span.Kind
			last.Confidence = span.Confidence
			last.Text = span.Text
			last.MatchedQuery = span.MatchedQuery
		}
	}
	return out
}

// fuzzyRatio is len(shorter)/len(longer) in runes when one string
// contains the other, else 0.
func fuzzyRatio(a, b string) float64 {
	shorter, longer := a, b
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}
	if shorter == "" || !strings.Contains(longer, shorter) {
		return 0
	}
	return float64(len([]rune(shorter))) / float64(len([]rune(longer)))
}
