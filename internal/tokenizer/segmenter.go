package tokenizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/blevesearch/segment"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default LRU size for segmentation results.
const DefaultCacheSize = 4096

// Segmenter turns strings into word tokens using a pluggable Thai
// segmentation backend. Thai runs go to the backend; non-Thai runs are
// segmented locally with UAX#29 rules so Latin words and numbers like
// "45,900" stay intact. Deterministic for a fixed (input, engine,
// dictionary snapshot); safe for concurrent use after construction.
type Segmenter struct {
	backend        Backend
	engine         string
	dict           *Dictionary
	cache          *lru.Cache[string, *SegmentationResult]
	keepWhitespace bool
	logger         *slog.Logger
}

// SegmenterOption configures a Segmenter.
type SegmenterOption func(*Segmenter)

// WithKeepWhitespace preserves whitespace tokens in results.
// Required for exact input reconstruction.
func WithKeepWhitespace(keep bool) SegmenterOption {
	return func(s *Segmenter) { s.keepWhitespace = keep }
}

// WithCacheSize sets the LRU cache size for segmentation results.
func WithCacheSize(n int) SegmenterOption {
	return func(s *Segmenter) {
		if n > 0 {
			cache, _ := lru.New[string, *SegmentationResult](n)
			s.cache = cache
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SegmenterOption {
	return func(s *Segmenter) { s.logger = logger }
}

// NewSegmenter creates a segmenter with the given primary engine.
// backend may be nil, in which case every call uses the character-level
// fallback. dict may be nil for no custom vocabulary.
func NewSegmenter(backend Backend, engine string, dict *Dictionary, opts ...SegmenterOption) *Segmenter {
	if engine == "" {
		engine = EngineNewMM
	}
	if dict == nil {
		dict = NewDictionary(nil, false)
	}
	cache, _ := lru.New[string, *SegmentationResult](DefaultCacheSize)

	s := &Segmenter{
		backend:        backend,
		engine:         engine,
		dict:           dict,
		cache:          cache,
		keepWhitespace: true,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the primary engine tag.
func (s *Segmenter) Engine() string { return s.engine }

// Dictionary returns the hot-reloadable custom dictionary.
func (s *Segmenter) Dictionary() *Dictionary { return s.dict }

// engineLabel is the observable engine tag for a plain segmentation with
// the given dictionary snapshot.
func (s *Segmenter) engineLabel(snap *Snapshot) string {
	if snap.Len() > 0 {
		return s.engine + "_custom"
	}
	return s.engine
}

// Segment splits text into word tokens.
//
// Empty or whitespace-only input returns an empty token list without
// touching the backend. Backend failures fall back to character-level
// segmentation labeled "fallback_char" with FallbackUsed set; they are not
// surfaced as errors. Only context cancellation returns an error.
func (s *Segmenter) Segment(ctx context.Context, text string) (*SegmentationResult, error) {
	return s.segment(ctx, text, false)
}

// SegmentCompound runs Segment and then re-segments every compound
// candidate (Thai token longer than six code points) with the other engines
// in fixed order, keeping the first split into two or more tokens. The
// result is labeled "{primary}_compound".
func (s *Segmenter) SegmentCompound(ctx context.Context, text string) (*SegmentationResult, error) {
	return s.segment(ctx, text, true)
}

func (s *Segmenter) segment(ctx context.Context, text string, compound bool) (*SegmentationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	snap := s.dict.Current()
	label := s.engineLabel(snap)
	if compound {
		label = s.engine + "_compound"
	}

	if strings.TrimSpace(text) == "" {
		return &SegmentationResult{
			Input:      text,
			Engine:     label,
			Boundaries: []int{0},
			ElapsedMS:  elapsedMS(start),
		}, nil
	}

	mode := "s"
	if compound {
		mode = "c"
	}
	cacheKey := fmt.Sprintf("%s:%s:%d:%s", mode, label, snap.Version(), text)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}

	surfaces, fallbackUsed := s.segmentRuns(ctx, text, snap)

	if compound && !fallbackUsed {
		surfaces = s.expandCompounds(ctx, surfaces)
	}
	if fallbackUsed {
		label = EngineFallbackChar
	}

	tokens, boundaries, estimated := locateTokens(text, surfaces)

	result := &SegmentationResult{
		Input:        text,
		Tokens:       tokens,
		Boundaries:   boundaries,
		Engine:       label,
		ElapsedMS:    elapsedMS(start),
		FallbackUsed: fallbackUsed,
		Estimated:    estimated,
	}

	s.cache.Add(cacheKey, result)
	return result, nil
}

// segmentRuns splits text into maximal Thai and non-Thai runs, sending Thai
// runs to the backend and non-Thai runs through the UAX#29 segmenter.
// A backend failure switches the whole input to the character fallback.
func (s *Segmenter) segmentRuns(ctx context.Context, text string, snap *Snapshot) (surfaces []string, fallbackUsed bool) {
	if s.backend == nil {
		return fallbackSegment(text, s.keepWhitespace), true
	}

	opts := BackendOptions{
		Engine:         s.engine,
		CustomDict:     snap.Words(),
		KeepWhitespace: s.keepWhitespace,
	}

	for _, run := range splitRuns(text) {
		if !run.thai {
			surfaces = append(surfaces, segmentNonThai(run.text, s.keepWhitespace)...)
			continue
		}

		words, err := s.backend.SegmentWords(ctx, run.text, opts)
		if err != nil {
			s.logger.Warn("segmentation backend failed, using character fallback",
				"engine", s.engine, "error", err)
			return fallbackSegment(text, s.keepWhitespace), true
		}
		surfaces = append(surfaces, words...)
	}

	return surfaces, false
}

// expandCompounds re-segments compound candidates with the other engines.
// Candidates come only from maximal Thai runs, so whitespace never appears
// inside one. An engine's split wins only if it produces two or more tokens.
func (s *Segmenter) expandCompounds(ctx context.Context, surfaces []string) []string {
	out := make([]string, 0, len(surfaces))
	for _, surface := range surfaces {
		if !IsCompoundCandidate(surface) {
			out = append(out, surface)
			continue
		}

		replaced := false
		for _, engine := range compoundRetryOrder {
			if engine == s.engine {
				continue
			}
			parts, err := s.backend.SegmentWords(ctx, surface, BackendOptions{Engine: engine})
			if err != nil || len(parts) < 2 {
				continue
			}
			out = append(out, parts...)
			replaced = true
			break
		}
		if !replaced {
			out = append(out, surface)
		}
	}
	return out
}

// run is a maximal same-script region of the input.
type run struct {
	text string
	thai bool
}

// splitRuns divides text into maximal Thai / non-Thai runs. Whitespace
// between Thai runs belongs to the non-Thai side.
func splitRuns(text string) []run {
	var runs []run
	var cur []rune
	curThai := false

	flush := func() {
		if len(cur) > 0 {
			runs = append(runs, run{text: string(cur), thai: curThai})
			cur = cur[:0]
		}
	}

	for _, r := range text {
		thai := IsThaiRune(r)
		if len(cur) > 0 && thai != curThai {
			flush()
		}
		curThai = thai
		cur = append(cur, r)
	}
	flush()
	return runs
}

// segmentNonThai splits a non-Thai run with UAX#29 word segmentation.
// Keeps "45,900" as one number token and isolates Latin words; punctuation
// comes out one segment at a time.
func segmentNonThai(text string, keepWhitespace bool) []string {
	var out []string
	seg := segment.NewWordSegmenterDirect([]byte(text))
	for seg.Segment() {
		tok := seg.Text()
		if !keepWhitespace && strings.TrimSpace(tok) == "" {
			continue
		}
		out = append(out, tok)
	}
	// A scanner error here means malformed UTF-8; fall back to whitespace
	// fields so the run is never silently dropped.
	if err := seg.Err(); err != nil {
		fields := strings.FieldsFunc(text, unicode.IsSpace)
		return fields
	}
	return out
}

// locateTokens assigns byte offsets to surfaces by scanning the original
// text left to right. A surface the scan cannot find (backend rewrite) gets
// an estimated position by cumulative length; this is flagged, not an error.
func locateTokens(text string, surfaces []string) (tokens []Token, boundaries []int, estimated bool) {
	boundaries = make([]int, 0, len(surfaces)+1)
	boundaries = append(boundaries, 0)

	cursor := 0
	for _, surface := range surfaces {
		start := -1
		if cursor <= len(text) {
			if idx := strings.Index(text[cursor:], surface); idx >= 0 {
				start = cursor + idx
			}
		}

		var end int
		if start >= 0 {
			end = start + len(surface)
			cursor = end
		} else {
			estimated = true
			start = cursor
			end = min(cursor+len(surface), len(text))
			cursor = end
		}

		tokens = append(tokens, Token{
			Surface:     surface,
			StartByte:   start,
			EndByte:     end,
			ContentType: Classify(surface),
		})
		boundaries = append(boundaries, end)
	}

	return tokens, boundaries, estimated
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
