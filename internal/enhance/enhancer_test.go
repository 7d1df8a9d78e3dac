package enhance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thaisearch/thaitok/internal/meili"
	"github.com/thaisearch/thaitok/internal/query"
	"github.com/thaisearch/thaitok/internal/tokenizer"
)

func newTestEnhancer(opts Options) *Enhancer {
	seg := tokenizer.NewSegmenter(nil, tokenizer.EngineNewMM, nil,
		tokenizer.WithKeepWhitespace(false))
	return NewEnhancer(seg, opts, nil)
}

func compoundQuery(surface string, parts []string) *query.Result {
	return &query.Result{
		Original: surface,
		Tokens: []query.Token{{
			Original:      surface,
			Processed:     surface,
			Kind:          query.KindCompound,
			CompoundParts: parts,
			Boost:         1.32,
		}},
	}
}

func TestExtractEngineSpans(t *testing.T) {
	tests := []struct {
		name      string
		formatted string
		wantTexts []string
	}{
		{"em", "ราคา <em>สวัสดี</em> ครับ", []string{"สวัสดี"}},
		{"strong", "<strong>word</strong> rest", []string{"word"}},
		{"mark", "a <mark>b</mark> c <mark>d</mark>", []string{"b", "d"}},
		{"custom", "x [HIGHLIGHT]ไทย[/HIGHLIGHT] y", []string{"ไทย"}},
		{"none", "no tags here", nil},
		{"unbalanced", "a <em>b", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spans := extractEngineSpans(tt.formatted)
			var texts []string
			for _, s := range spans {
				texts = append(texts, s.Text)
			}
			assert.Equal(t, tt.wantTexts, texts)
		})
	}
}

func TestExtractEngineSpans_OffsetsAgainstPlainText(t *testing.T) {
	spans := extractEngineSpans("ab <em>cd</em> ef")
	require.Len(t, spans, 1)

	plain := "ab cd ef"
	assert.Equal(t, "cd", plain[spans[0].Start:spans[0].End])
}

func TestExtractEngineSpans_CodePointOffsets(t *testing.T) {
	spans := extractEngineSpans("ราคา <em>สวัสดี</em> ครับ")
	require.Len(t, spans, 1)

	// Offsets count code points, not bytes: slicing the plain field as
	// runes must recover the highlighted region.
	plain := []rune("ราคา สวัสดี ครับ")
	assert.Equal(t, 5, spans[0].Start)
	assert.Equal(t, 11, spans[0].End)
	assert.Equal(t, "สวัสดี", string(plain[spans[0].Start:spans[0].End]))
}

func TestFindOccurrences_CodePointOffsets(t *testing.T) {
	spans := findOccurrences("การศึกษา", "การศึกษา", SpanCompound, 1.0, "การศึกษา")
	require.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 8, spans[0].End, "eight Thai code points, not their UTF-8 byte width")

	spans = findOccurrences("ไทย การศึกษา ไทย การศึกษา", "การศึกษา", SpanCompound, 1.0, "การศึกษา")
	require.Len(t, spans, 2)
	text := []rune("ไทย การศึกษา ไทย การศึกษา")
	for _, s := range spans {
		assert.Equal(t, "การศึกษา", string(text[s.Start:s.End]))
	}
}

func TestMergeSpans_NoOverlapsRemain(t *testing.T) {
	spans := []Span{
		{Start: 0, End: 10, Kind: SpanEngine, Confidence: 1.0},
		{Start: 5, End: 15, Kind: SpanFuzzy, Confidence: 0.6},
		{Start: 20, End: 25, Kind: SpanPartial, Confidence: 0.7},
		{Start: 24, End: 30, Kind: SpanCompound, Confidence: 1.0},
	}

	merged := mergeSpans(spans)
	require.Len(t, merged, 2)

	for i := 1; i < len(merged); i++ {
		assert.GreaterOrEqual(t, merged[i].Start, merged[i-1].End,
			"merged spans must not overlap")
	}

	assert.Equal(t, 0, merged[0].Start)
	assert.Equal(t, 15, merged[0].End)
	assert.Equal(t, SpanEngine, merged[0].Kind, "higher confidence wins")
	assert.Equal(t, SpanCompound, merged[1].Kind)
}

func TestFuzzyRatio(t *testing.T) {
	assert.InDelta(t, 1.0, fuzzyRatio("ไทย", "ไทย"), 0.001)
	assert.InDelta(t, 0.5, fuzzyRatio("กข", "กขคง"), 0.001)
	assert.Zero(t, fuzzyRatio("กข", "คงจฉ"))
	assert.Zero(t, fuzzyRatio("", "กข"))
}

func TestEnhance_CompoundExactMatchBoosts(t *testing.T) {
	e := newTestEnhancer(Options{})
	q := compoundQuery("การศึกษา", []string{"การ", "ศึกษา"})

	resp := &meili.SearchResponse{Hits: []map[string]any{
		{"id": "1", "title": "การศึกษาไทย", "content": "x"},
	}}

	result := e.Enhance(context.Background(), q, resp)
	require.Len(t, result.Hits, 1)

	hit := result.Hits[0]
	assert.Greater(t, hit.EnhancedScore, hit.Score)
	require.NotEmpty(t, hit.Spans["title"])
	assert.Equal(t, SpanCompound, hit.Spans["title"][0].Kind)
	assert.InDelta(t, 1.0, hit.Spans["title"][0].Confidence, 0.001)
}

func TestEnhance_SubComponentMatchLowerConfidence(t *testing.T) {
	e := newTestEnhancer(Options{})
	q := compoundQuery("การศึกษา", []string{"การ", "ศึกษา"})

	// The compound itself is absent; only the component appears.
	resp := &meili.SearchResponse{Hits: []map[string]any{
		{"id": "1", "title": "ศึกษาเพิ่มเติม"},
	}}

	result := e.Enhance(context.Background(), q, resp)
	hit := result.Hits[0]

	require.NotEmpty(t, hit.Spans["title"])
	assert.Equal(t, SpanPartial, hit.Spans["title"][0].Kind)
	assert.InDelta(t, 0.7, hit.Spans["title"][0].Confidence, 0.001)
}

func TestEnhance_SpansRecordMatchedQueryToken(t *testing.T) {
	e := newTestEnhancer(Options{})
	q := compoundQuery("การศึกษา", []string{"การ", "ศึกษา"})

	resp := &meili.SearchResponse{Hits: []map[string]any{
		{"id": "1", "title": "การศึกษาไทย"},
		{"id": "2", "title": "ศึกษาเพิ่มเติม"},
	}}

	result := e.Enhance(context.Background(), q, resp)

	exact := result.Hits[0].Spans["title"]
	require.NotEmpty(t, exact)
	assert.Equal(t, "การศึกษา", exact[0].MatchedQuery)

	// Sub-component spans still name the compound query token.
	partial := result.Hits[1].Spans["title"]
	require.NotEmpty(t, partial)
	assert.Equal(t, "การศึกษา", partial[0].MatchedQuery)
}

func TestEnhance_ScoreCap(t *testing.T) {
	e := newTestEnhancer(Options{})

	q := &query.Result{
		Original: "การศึกษา วิทยาศาสตร์ การเรียน",
		Tokens: []query.Token{
			{Original: "การศึกษา", Kind: query.KindCompound, CompoundParts: []string{"การ", "ศึกษา"}},
			{Original: "วิทยาศาสตร์", Kind: query.KindCompound, CompoundParts: []string{"วิทยา", "ศาสตร์"}},
			{Original: "การเรียน", Kind: query.KindCompound, CompoundParts: []string{"การ", "เรียน"}},
		},
	}

	title := "การศึกษา วิทยาศาสตร์ การเรียน การศึกษา วิทยาศาสตร์"
	resp := &meili.SearchResponse{Hits: []map[string]any{
		{"id": "1", "title": title, "content": title},
	}}

	result := e.Enhance(context.Background(), q, resp)
	hit := result.Hits[0]

	assert.LessOrEqual(t, hit.EnhancedScore, hit.Score*4.0+1e-9,
		"total multiplier is capped at 4.0")
}

func TestEnhance_RelevanceBoostingReorders(t *testing.T) {
	e := newTestEnhancer(Options{RelevanceBoosting: true})
	q := compoundQuery("การศึกษา", []string{"การ", "ศึกษา"})

	resp := &meili.SearchResponse{Hits: []map[string]any{
		{"id": "none", "title": "unrelated"},
		{"id": "match", "title": "การศึกษาไทย"},
	}}

	result := e.Enhance(context.Background(), q, resp)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, "match", result.Hits[0].Document["id"])
}

func TestEnhance_EngineOrderPreservedWithoutBoosting(t *testing.T) {
	e := newTestEnhancer(Options{})
	q := compoundQuery("การศึกษา", []string{"การ", "ศึกษา"})

	resp := &meili.SearchResponse{Hits: []map[string]any{
		{"id": "none", "title": "unrelated"},
		{"id": "match", "title": "การศึกษาไทย"},
	}}

	result := e.Enhance(context.Background(), q, resp)
	assert.Equal(t, "none", result.Hits[0].Document["id"])
}

func TestEnhance_FormattedViewSpansExtracted(t *testing.T) {
	e := newTestEnhancer(Options{})
	q := &query.Result{Original: "สวัสดี", Tokens: []query.Token{
		{Original: "สวัสดี", Kind: query.KindSimple},
	}}

	resp := &meili.SearchResponse{Hits: []map[string]any{
		{
			"id":    "1",
			"title": "สวัสดี ครับ",
			"_formatted": map[string]any{
				"title": "<em>สวัสดี</em> ครับ",
			},
		},
	}}

	result := e.Enhance(context.Background(), q, resp)
	require.NotEmpty(t, result.Hits[0].Spans["title"])
	assert.Equal(t, "สวัสดี", result.Hits[0].Spans["title"][0].Text)
}

func TestEnhance_PartialFuzzyMatch(t *testing.T) {
	e := newTestEnhancer(Options{})
	q := &query.Result{Original: "ศึกษา", Tokens: []query.Token{
		{Original: "ศึกษา", Kind: query.KindPartial, IsPartial: true},
	}}

	// Fallback segmentation yields one Thai word per run; the query token
	// is a substring with a ratio over 0.6.
	resp := &meili.SearchResponse{Hits: []map[string]any{
		{"id": "1", "title": "ศึกษาดี"},
	}}

	result := e.Enhance(context.Background(), q, resp)
	spans := result.Hits[0].Spans["title"]
	require.NotEmpty(t, spans)
	assert.Equal(t, SpanFuzzy, spans[0].Kind)
	assert.Greater(t, spans[0].Confidence, 0.6)
}

func TestEnhance_EmptyHitsAndMissingFields(t *testing.T) {
	e := newTestEnhancer(Options{})
	q := compoundQuery("การศึกษา", []string{"การ", "ศึกษา"})

	result := e.Enhance(context.Background(), q, &meili.SearchResponse{})
	assert.Empty(t, result.Hits)

	resp := &meili.SearchResponse{Hits: []map[string]any{{"id": "1"}}}
	result = e.Enhance(context.Background(), q, resp)
	require.Len(t, result.Hits, 1)
	assert.Empty(t, result.Hits[0].Spans)
	assert.InDelta(t, 1.0, result.Hits[0].EnhancedScore, 0.001)
}

func TestEnhance_TokenizedView(t *testing.T) {
	e := newTestEnhancer(Options{TokenizedView: true})
	q := &query.Result{Original: "สวัสดี", Tokens: []query.Token{
		{Original: "สวัสดี", Kind: query.KindSimple},
	}}

	resp := &meili.SearchResponse{Hits: []map[string]any{
		{"id": "1", "title": "สวัสดี Hello โลก"},
	}}

	result := e.Enhance(context.Background(), q, resp)
	view := result.Hits[0].TokenizedView["title"]
	assert.Contains(t, view, "|")
	assert.Contains(t, view, "สวัสดี")
}

func TestEngineScore(t *testing.T) {
	assert.InDelta(t, 0.87, engineScore(map[string]any{"_rankingScore": 0.87}), 0.001)
	assert.InDelta(t, 1.0, engineScore(map[string]any{}), 0.001)
}
