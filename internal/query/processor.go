// Package query turns raw search queries into segmented, classified,
// boosted token sets with expansion variants and completion candidates.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/thaisearch/thaitok/internal/errors"
	"github.com/thaisearch/thaitok/internal/tokenizer"
)

// Kind classifies a query token.
type Kind string

const (
	KindSimple   Kind = "Simple"
	KindCompound Kind = "Compound"
	KindPartial  Kind = "Partial"
	KindMixed    Kind = "Mixed"
	KindPhrase   Kind = "Phrase"
)

// thaiQueryThreshold is the permissive Thai-detection ratio for queries.
// Short mixed queries misclassify as Latin under the 50% document rule.
const thaiQueryThreshold = 0.3

// maxQueryRunes bounds accepted query length.
const maxQueryRunes = 512

// Token is one classified query token.
type Token struct {
	Original      string   `json:"original"`
	Processed     string   `json:"processed"`
	Kind          Kind     `json:"kind"`
	IsPartial     bool     `json:"is_partial"`
	CompoundParts []string `json:"compound_parts,omitempty"`
	Variants      []string `json:"variants"`
	Boost         float64  `json:"boost"`
}

// Result is the full query processing output.
type Result struct {
	Original    string         `json:"original"`
	Processed   string         `json:"processed"`
	Tokens      []Token        `json:"tokens"`
	Variants    []string       `json:"variants"`
	Completions []string       `json:"completions"`
	Metadata    map[string]any `json:"metadata"`
}

// Options tunes query processing.
type Options struct {
	// ExpandVariants merges per-token variants into Result.Variants.
	ExpandVariants bool
	// PartialMatching emits wildcard variants for every token.
	PartialMatching bool
	// CacheSize is the LRU size for processed queries.
	CacheSize int
}

// Processor processes queries. Safe for concurrent use.
type Processor struct {
	segmenter *tokenizer.Segmenter
	opts      Options
	cache     *lru.Cache[string, *Result]
	logger    *slog.Logger
}

// NewProcessor builds a query processor on top of the shared segmenter.
func NewProcessor(seg *tokenizer.Segmenter, opts Options, logger *slog.Logger) *Processor {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, _ := lru.New[string, *Result](opts.CacheSize)
	return &Processor{segmenter: seg, opts: opts, cache: cache, logger: logger}
}

// Process runs the full query pipeline.
func (p *Processor) Process(ctx context.Context, raw string) (*Result, error) {
	normalized := normalize(raw)
	if normalized == "" {
		return nil, errors.New(errors.ErrCodeQueryEmpty, "query is empty", nil)
	}
	if len([]rune(normalized)) > maxQueryRunes {
		return nil, errors.New(errors.ErrCodeQueryTooLong,
			fmt.Sprintf("query exceeds %d characters", maxQueryRunes), nil)
	}

	snapVersion := p.segmenter.Dictionary().Current().Version()
	cacheKey := fmt.Sprintf("%d:%s", snapVersion, normalized)
	if cached, ok := p.cache.Get(cacheKey); ok {
		return cached, nil
	}

	start := time.Now()
	seg, err := p.segmenter.Segment(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var tokens []Token
	for _, t := range seg.Tokens {
		if strings.TrimSpace(t.Surface) == "" {
			continue
		}
		tokens = append(tokens, p.buildToken(t.Surface))
	}

	result := &Result{
		Original:  raw,
		Processed: joinProcessed(tokens),
		Tokens:    tokens,
		Metadata: map[string]any{
			"thai_detected": tokenizer.ThaiRatio(normalized) >= thaiQueryThreshold,
			"engine":        seg.Engine,
			"elapsed_ms":    float64(time.Since(start).Microseconds()) / 1000.0,
			"token_count":   len(tokens),
		},
	}

	if p.opts.ExpandVariants {
		result.Variants = mergeVariants(tokens)
	}
	result.Completions = completions(tokens)

	p.cache.Add(cacheKey, result)
	return result, nil
}

// buildToken classifies one surface and computes its boost and variants.
func (p *Processor) buildToken(surface string) Token {
	kind, parts := classify(surface)
	runeLen := len([]rune(surface))

	boost := 1.0
	if kind == KindCompound {
		boost *= 1.2
	}
	if runeLen > 6 {
		boost *= 1.1
	}
	if runeLen <= 2 {
		boost *= 0.8
	}

	return Token{
		Original:      surface,
		Processed:     surface,
		Kind:          kind,
		IsPartial:     kind == KindPartial,
		CompoundParts: parts,
		Variants:      variants(surface, kind, parts, p.opts.PartialMatching),
		Boost:         boost,
	}
}

// classify applies the token classification rules in order.
func classify(surface string) (Kind, []string) {
	hasThai := tokenizer.ContainsThai(surface)
	trimmed := strings.TrimSpace(surface)

	if strings.ContainsAny(trimmed, " \t") {
		return KindPhrase, nil
	}
	if !hasThai {
		return KindSimple, nil
	}
	if hasLatin(surface) {
		return KindMixed, nil
	}
	if tokenizer.HasCompoundPrefix(surface) || tokenizer.HasCompoundSuffix(surface) {
		parts, _ := tokenizer.SplitCompound(surface)
		return KindCompound, parts
	}
	if len([]rune(surface)) <= 2 {
		return KindPartial, nil
	}
	// A token that ends with a prefix or starts with a suffix looks like
	// half of a compound: the other half is missing.
	if tokenizer.EndsWithPrefixPattern(surface) || tokenizer.StartsWithSuffixPattern(surface) {
		return KindPartial, nil
	}
	return KindSimple, nil
}

func hasLatin(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func joinProcessed(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Processed)
	}
	return strings.Join(parts, " ")
}

// normalize collapses whitespace runs to single spaces and trims.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
