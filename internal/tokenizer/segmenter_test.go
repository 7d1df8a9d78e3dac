package tokenizer

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend segments Thai text from a fixed vocabulary using greedy
// longest matching, mimicking a dictionary-based engine. Engines can be
// given distinct vocabularies to exercise the compound retry order.
type stubBackend struct {
	vocab     map[string][]string // engine -> known words
	failEver  bool
	callCount int
}

func newStubBackend(words ...string) *stubBackend {
	return &stubBackend{vocab: map[string][]string{EngineNewMM: words}}
}

func (b *stubBackend) SegmentWords(_ context.Context, text string, opts BackendOptions) ([]string, error) {
	b.callCount++
	if b.failEver {
		return nil, fmt.Errorf("backend down")
	}

	words := b.vocab[opts.Engine]
	if len(opts.CustomDict) > 0 {
		// Custom dictionary is the sole vocabulary for the custom variant.
		words = opts.CustomDict
	}

	var out []string
	remaining := text
	for len(remaining) > 0 {
		matched := ""
		for _, w := range words {
			if strings.HasPrefix(remaining, w) && len(w) > len(matched) {
				matched = w
			}
		}
		if matched == "" {
			// Consume one rune as its own token.
			r := []rune(remaining)[0]
			matched = string(r)
		}
		out = append(out, matched)
		remaining = remaining[len(matched):]
	}
	return out, nil
}

func TestSegment_EmptyInputSkipsBackend(t *testing.T) {
	backend := newStubBackend()
	seg := NewSegmenter(backend, EngineNewMM, nil)

	for _, input := range []string{"", "   ", "\t\n"} {
		res, err := seg.Segment(context.Background(), input)
		require.NoError(t, err)
		assert.Empty(t, res.Tokens)
		assert.Equal(t, []int{0}, res.Boundaries)
	}
	assert.Zero(t, backend.callCount, "backend must not be called for empty input")
}

func TestSegment_PureThai(t *testing.T) {
	backend := newStubBackend("สวัสดี", "ครับ")
	seg := NewSegmenter(backend, EngineNewMM, nil)

	res, err := seg.Segment(context.Background(), "สวัสดีครับ")
	require.NoError(t, err)

	assert.Equal(t, []string{"สวัสดี", "ครับ"}, res.Surfaces())
	assert.Equal(t, "newmm", res.Engine)
	assert.False(t, res.FallbackUsed)
	for _, tok := range res.Tokens {
		assert.Equal(t, ContentThai, tok.ContentType)
	}
}

func TestSegment_MixedContent(t *testing.T) {
	backend := newStubBackend("ราคา", "บาท")
	seg := NewSegmenter(backend, EngineNewMM, nil)

	res, err := seg.Segment(context.Background(), "Apple iPhone 15 Pro Max ราคา 45,900 บาท")
	require.NoError(t, err)

	surfaces := res.Surfaces()
	assert.Contains(t, surfaces, "Apple")
	assert.Contains(t, surfaces, "iPhone")
	assert.Contains(t, surfaces, "ราคา")
	assert.Contains(t, surfaces, "บาท")
	assert.Contains(t, surfaces, "45,900", "UAX#29 keeps the price as one token")

	var hasLatin, hasThai, hasNumeric bool
	for _, tok := range res.Tokens {
		switch tok.ContentType {
		case ContentLatin:
			hasLatin = true
		case ContentThai:
			hasThai = true
		case ContentNumeric:
			hasNumeric = true
		}
	}
	assert.True(t, hasLatin)
	assert.True(t, hasThai)
	assert.True(t, hasNumeric)
}

func TestSegment_ReconstructionWithWhitespace(t *testing.T) {
	backend := newStubBackend("ราคา", "บาท")
	seg := NewSegmenter(backend, EngineNewMM, nil, WithKeepWhitespace(true))

	input := "Apple ราคา 45,900 บาท"
	res, err := seg.Segment(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, input, strings.Join(res.Surfaces(), ""),
		"concatenated surfaces must reconstruct the input")
}

func TestSegment_BoundaryInvariants(t *testing.T) {
	backend := newStubBackend("ราคา", "บาท", "สวัสดี")
	seg := NewSegmenter(backend, EngineNewMM, nil)

	inputs := []string{
		"สวัสดี",
		"ราคา 45,900 บาท",
		"Hello ราคาโลก",
		"!!!",
	}

	for _, input := range inputs {
		res, err := seg.Segment(context.Background(), input)
		require.NoError(t, err)

		require.Len(t, res.Boundaries, len(res.Tokens)+1, "input %q", input)
		assert.Equal(t, 0, res.Boundaries[0])
		assert.LessOrEqual(t, res.Boundaries[len(res.Boundaries)-1], len(input))
		for i := 1; i < len(res.Boundaries); i++ {
			assert.GreaterOrEqual(t, res.Boundaries[i], res.Boundaries[i-1],
				"boundaries must be non-decreasing for %q", input)
		}
	}
}

func TestSegment_FallbackOnBackendFailure(t *testing.T) {
	backend := newStubBackend()
	backend.failEver = true
	seg := NewSegmenter(backend, EngineNewMM, nil)

	res, err := seg.Segment(context.Background(), "ทดสอบ abc!")
	require.NoError(t, err)

	assert.True(t, res.FallbackUsed)
	assert.Equal(t, EngineFallbackChar, res.Engine)

	surfaces := res.Surfaces()
	// Thai run grouped as one token; every non-Thai non-whitespace char alone.
	assert.Contains(t, surfaces, "ทดสอบ")
	assert.Contains(t, surfaces, "a")
	assert.Contains(t, surfaces, "b")
	assert.Contains(t, surfaces, "c")
	assert.Contains(t, surfaces, "!")
}

func TestSegment_NilBackendAlwaysFallsBack(t *testing.T) {
	seg := NewSegmenter(nil, EngineNewMM, nil)

	res, err := seg.Segment(context.Background(), "ทดสอบ")
	require.NoError(t, err)
	assert.True(t, res.FallbackUsed)
	assert.Equal(t, []string{"ทดสอบ"}, res.Surfaces())
}

func TestSegment_Deterministic(t *testing.T) {
	backend := newStubBackend("สวัสดี", "ครับ")
	seg := NewSegmenter(backend, EngineNewMM, nil)

	input := "สวัสดีครับ Hello"
	first, err := seg.Segment(context.Background(), input)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := seg.Segment(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, first.Surfaces(), again.Surfaces())
		assert.Equal(t, first.Boundaries, again.Boundaries)
		assert.Equal(t, first.Engine, again.Engine)
	}
}

func TestSegment_CustomDictionaryLabel(t *testing.T) {
	backend := newStubBackend("สวัสดี")
	dict := NewDictionary([]string{"สวัสดี"}, false)
	seg := NewSegmenter(backend, EngineNewMM, dict)

	res, err := seg.Segment(context.Background(), "สวัสดี")
	require.NoError(t, err)
	assert.Equal(t, "newmm_custom", res.Engine)
}

func TestSegment_DictionaryReloadChangesResult(t *testing.T) {
	backend := newStubBackend()
	dict := NewDictionary([]string{"สาหร่าย"}, false)
	seg := NewSegmenter(backend, EngineNewMM, dict)

	res1, err := seg.Segment(context.Background(), "สาหร่ายวากาเมะ")
	require.NoError(t, err)

	// After reload the longer entry wins; the cache must not serve the old
	// snapshot's answer.
	dict.Replace([]string{"สาหร่ายวากาเมะ"})
	res2, err := seg.Segment(context.Background(), "สาหร่ายวากาเมะ")
	require.NoError(t, err)

	assert.NotEqual(t, res1.Surfaces(), res2.Surfaces())
	assert.Equal(t, []string{"สาหร่ายวากาเมะ"}, res2.Surfaces())
}

func TestSegmentCompound_SplitsLongToken(t *testing.T) {
	backend := newStubBackend("เทคโนโลยีสารสนเทศ")
	// attacut knows the components of the compound.
	backend.vocab[EngineAttaCut] = []string{"เทคโนโลยี", "สารสนเทศ"}
	seg := NewSegmenter(backend, EngineNewMM, nil)

	res, err := seg.SegmentCompound(context.Background(), "เทคโนโลยีสารสนเทศ")
	require.NoError(t, err)

	assert.Equal(t, "newmm_compound", res.Engine)
	assert.Equal(t, []string{"เทคโนโลยี", "สารสนเทศ"}, res.Surfaces())
}

func TestSegmentCompound_KeepsUnsplittableCandidate(t *testing.T) {
	backend := newStubBackend("เทคโนโลยีสารสนเทศ")
	// No other engine can split the candidate: it is kept as-is.
	seg := NewSegmenter(backend, EngineNewMM, nil)

	res, err := seg.SegmentCompound(context.Background(), "เทคโนโลยีสารสนเทศ")
	require.NoError(t, err)
	assert.Equal(t, []string{"เทคโนโลยีสารสนเทศ"}, res.Surfaces())
}

func TestSegmentCompound_ShortTokensNotRetried(t *testing.T) {
	backend := newStubBackend("สวัสดี")
	seg := NewSegmenter(backend, EngineNewMM, nil)

	res, err := seg.SegmentCompound(context.Background(), "สวัสดี")
	require.NoError(t, err)

	// สวัสดี is exactly 6 runes, below the compound threshold.
	assert.Equal(t, []string{"สวัสดี"}, res.Surfaces())
	assert.Equal(t, 1, backend.callCount)
}

func TestSegment_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seg := NewSegmenter(newStubBackend(), EngineNewMM, nil)
	_, err := seg.Segment(ctx, "สวัสดี")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSegment_RandomThaiPropertyInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seg := NewSegmenter(nil, EngineNewMM, nil, WithKeepWhitespace(true))

	for i := 0; i < 100; i++ {
		runes := make([]rune, rng.Intn(40))
		for j := range runes {
			// Mix of Thai consonants, Latin, digits, and spaces.
			switch rng.Intn(4) {
			case 0:
				runes[j] = rune(0x0E01 + rng.Intn(46))
			case 1:
				runes[j] = rune('a' + rng.Intn(26))
			case 2:
				runes[j] = rune('0' + rng.Intn(10))
			default:
				runes[j] = ' '
			}
		}
		input := string(runes)

		res, err := seg.Segment(context.Background(), input)
		require.NoError(t, err)

		if strings.TrimSpace(input) == "" {
			assert.Empty(t, res.Tokens)
			continue
		}

		// Invariant 1: boundary coverage.
		require.Len(t, res.Boundaries, len(res.Tokens)+1)
		assert.Equal(t, 0, res.Boundaries[0])
		last := res.Boundaries[len(res.Boundaries)-1]
		assert.LessOrEqual(t, last, len(input))
		for j := 1; j < len(res.Boundaries); j++ {
			assert.GreaterOrEqual(t, res.Boundaries[j], res.Boundaries[j-1])
		}

		// Invariant 2: reconstruction with whitespace preserved.
		assert.Equal(t, input, strings.Join(res.Surfaces(), ""))

		// Invariant 4: determinism.
		again, err := seg.Segment(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, res.Surfaces(), again.Surfaces())
	}
}
