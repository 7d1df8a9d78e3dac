// Package enhance re-scores search-engine hits for Thai queries and
// merges highlight spans from the engine's formatted view with spans
// found by compound and fuzzy matching.
package enhance

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/thaisearch/thaitok/internal/meili"
	"github.com/thaisearch/thaitok/internal/query"
	"github.com/thaisearch/thaitok/internal/tokenizer"
)

// Score caps. The combined multiplier never exceeds maxTotalBoost times
// the engine score.
const (
	maxCompoundBoost  = 2.0
	maxThaiExactBoost = 1.8
	titleBoost        = 1.4
	maxTotalBoost     = 4.0
	fuzzyThreshold    = 0.6
)

// Hit is one enhanced search result.
type Hit struct {
	Document      map[string]any    `json:"document"`
	Score         float64           `json:"score"`
	EnhancedScore float64           `json:"enhanced_score"`
	Spans         map[string][]Span `json:"spans"`
	TokenizedView map[string]string `json:"tokenized_view,omitempty"`
}

// Result is the enhanced search response.
type Result struct {
	Hits               []Hit   `json:"hits"`
	Query              string  `json:"query"`
	EstimatedTotalHits int64   `json:"estimated_total_hits"`
	ProcessingTimeMS   float64 `json:"processing_time_ms"`
}

// Options tunes enhancement.
type Options struct {
	// Fields are the searchable fields scanned for spans.
	Fields []string
	// RelevanceBoosting re-sorts hits by enhanced score. Off keeps the
	// engine's order.
	RelevanceBoosting bool
	// TokenizedView renders the "|"-joined word view per field.
	TokenizedView bool
}

// Enhancer post-processes engine results. Safe for concurrent use.
type Enhancer struct {
	segmenter *tokenizer.Segmenter
	opts      Options
	logger    *slog.Logger
}

// NewEnhancer builds an enhancer over the shared segmenter.
func NewEnhancer(seg *tokenizer.Segmenter, opts Options, logger *slog.Logger) *Enhancer {
	if len(opts.Fields) == 0 {
		opts.Fields = []string{"title", "content"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{segmenter: seg, opts: opts, logger: logger}
}

// Enhance re-scores and re-highlights every hit. A failure in one hit
// degrades that hit to its original form with no spans; it never aborts
// the rest.
func (e *Enhancer) Enhance(ctx context.Context, q *query.Result, resp *meili.SearchResponse) *Result {
	result := &Result{
		Query:              q.Original,
		EstimatedTotalHits: resp.EstimatedTotalHits,
		ProcessingTimeMS:   float64(resp.ProcessingTimeMs),
	}

	for _, raw := range resp.Hits {
		result.Hits = append(result.Hits, e.enhanceHit(ctx, q, raw))
	}

	if e.opts.RelevanceBoosting {
		stableSortByScore(result.Hits)
	}
	return result
}

func (e *Enhancer) enhanceHit(ctx context.Context, q *query.Result, raw map[string]any) (hit Hit) {
	base := engineScore(raw)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("hit enhancement failed, returning original", "panic", r)
			hit = Hit{Document: raw, Score: base, EnhancedScore: base, Spans: map[string][]Span{}}
		}
	}()

	hit = Hit{
		Document: raw,
		Score:    base,
		Spans:    map[string][]Span{},
	}

	formatted, _ := raw["_formatted"].(map[string]any)

	exactCompounds, partialCompounds, thaiExact := 0, 0, 0
	titleHighlighted := false

	for _, field := range e.opts.Fields {
		text, _ := raw[field].(string)
		var spans []Span

		if formatted != nil {
			if fv, ok := formatted[field].(string); ok {
				spans = append(spans, extractEngineSpans(fv)...)
			}
		}

		fieldExact, fieldPartial, fieldThai, found := e.matchSpans(ctx, q, text)
		spans = append(spans, found...)
		exactCompounds += fieldExact
		partialCompounds += fieldPartial
		thaiExact += fieldThai

		merged := mergeSpans(spans)
		if len(merged) > 0 {
			hit.Spans[field] = merged
			if field == "title" {
				titleHighlighted = true
			}
		}
	}

	hit.EnhancedScore = base * e.multiplier(exactCompounds, partialCompounds, thaiExact, titleHighlighted)

	if e.opts.TokenizedView {
		hit.TokenizedView = e.tokenizedView(ctx, raw)
	}
	return hit
}

// matchSpans scans one field for compound and fuzzy matches of the
// query tokens, returning the spans plus match counters for scoring.
func (e *Enhancer) matchSpans(ctx context.Context, q *query.Result, text string) (exact, partial, thai int, spans []Span) {
	if text == "" {
		return 0, 0, 0, nil
	}

	var fieldWords []string

	for _, tok := range q.Tokens {
		switch tok.Kind {
		case query.KindCompound:
			if occ := findOccurrences(text, tok.Original, SpanCompound, 1.0, tok.Original); len(occ) > 0 {
				spans = append(spans, occ...)
				exact++
			} else {
				for _, part := range tok.CompoundParts {
					if len([]rune(part)) < 2 {
						continue
					}
					if occ := findOccurrences(text, part, SpanPartial, 0.7, tok.Original); len(occ) > 0 {
						spans = append(spans, occ...)
						partial++
					}
				}
			}
		case query.KindPartial:
			if fieldWords == nil {
				fieldWords = e.segmentField(ctx, text)
			}
			spans = append(spans, fuzzySpans(text, tok.Original, fieldWords)...)
		}

		if tokenizer.ContainsThai(tok.Original) && strings.Contains(text, tok.Original) {
			thai++
		}
	}
	return exact, partial, thai, spans
}

// fuzzySpans emits a span for each Thai field word that fuzzy-matches
// the partial query token.
func fuzzySpans(text, partialTok string, fieldWords []string) []Span {
	var spans []Span
	for _, w := range fieldWords {
		if !tokenizer.ContainsThai(w) {
			continue
		}
		ratio := fuzzyRatio(partialTok, w)
		if ratio < fuzzyThreshold {
			continue
		}
		spans = append(spans, findOccurrences(text, w, SpanFuzzy, ratio, partialTok)...)
	}
	return spans
}

// segmentField returns the word surfaces of a field. Segmentation
// failures leave the field unmatched rather than failing the hit.
func (e *Enhancer) segmentField(ctx context.Context, text string) []string {
	res, err := e.segmenter.Segment(ctx, text)
	if err != nil {
		return []string{}
	}
	return res.Surfaces()
}

// multiplier combines the capped boosts. Exact compound matches weigh
// double the partial ones.
func (e *Enhancer) multiplier(exactCompounds, partialCompounds, thaiExact int, titleHighlighted bool) float64 {
	m := 1.0

	if exactCompounds > 0 || partialCompounds > 0 {
		compound := 1.0 + 0.3*float64(exactCompounds) + 0.15*float64(partialCompounds)
		m *= min(compound, maxCompoundBoost)
	}
	if thaiExact > 0 {
		m *= min(1.0+0.2*float64(thaiExact), maxThaiExactBoost)
	}
	if titleHighlighted {
		m *= titleBoost
	}
	return min(m, maxTotalBoost)
}

// tokenizedView renders each configured field as its words joined by a
// visible "|". Display only.
func (e *Enhancer) tokenizedView(ctx context.Context, raw map[string]any) map[string]string {
	view := map[string]string{}
	for _, field := range e.opts.Fields {
		text, ok := raw[field].(string)
		if !ok || text == "" {
			continue
		}
		if words := e.segmentField(ctx, text); len(words) > 0 {
			view[field] = strings.Join(words, "|")
		}
	}
	return view
}

// engineScore reads the engine ranking score, defaulting to 1.0.
func engineScore(raw map[string]any) float64 {
	for _, key := range []string{"_rankingScore", "_score"} {
		if v, ok := raw[key].(float64); ok && v > 0 {
			return v
		}
	}
	return 1.0
}

// stableSortByScore orders hits by enhanced score descending while
// keeping the engine order for ties.
func stableSortByScore(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].EnhancedScore > hits[j].EnhancedScore
	})
}

