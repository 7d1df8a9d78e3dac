// Package settings builds and validates the search-engine settings
// bundle for Thai-tokenized indexes. The bundle declares the zero-width
// word marker as a separator and protects Thai combining marks from
// being treated as word breaks.
package settings

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/thaisearch/thaitok/internal/errors"
	"github.com/thaisearch/thaitok/internal/token"
)

// rankingRuleSet is the closed set of accepted ranking rules.
var rankingRuleSet = map[string]struct{}{
	"words":     {},
	"typo":      {},
	"proximity": {},
	"attribute": {},
	"sort":      {},
	"exactness": {},
}

// Settings is the search-engine configuration bundle. Field names match
// the engine's settings API exactly.
type Settings struct {
	SeparatorTokens      []string            `json:"separatorTokens"`
	NonSeparatorTokens   []string            `json:"nonSeparatorTokens"`
	Dictionary           []string            `json:"dictionary"`
	Synonyms             map[string][]string `json:"synonyms"`
	StopWords            []string            `json:"stopWords"`
	RankingRules         []string            `json:"rankingRules"`
	SearchableAttributes []string            `json:"searchableAttributes"`
	DisplayedAttributes  []string            `json:"displayedAttributes"`
	FilterableAttributes []string            `json:"filterableAttributes"`
	SortableAttributes   []string            `json:"sortableAttributes"`
}

// defaultNonSeparators are the Thai marks that must never break a word:
// the repetition marker, the abbreviation marker, and the combining
// vowel/tone marks U+0E31, U+0E34–U+0E3A, U+0E47–U+0E4E.
func defaultNonSeparators() []string {
	out := []string{"ๆ", "ฯ", "ั"}
	for r := rune(0x0E34); r <= 0x0E3A; r++ {
		out = append(out, string(r))
	}
	for r := rune(0x0E47); r <= 0x0E4E; r++ {
		out = append(out, string(r))
	}
	return out
}

// defaultStopWords are common Thai function words.
func defaultStopWords() []string {
	return []string{
		"ที่", "ซึ่ง", "อัน", "และ", "หรือ", "แต่", "ของ", "ใน", "บน",
		"กับ", "แก่", "โดย", "จาก", "ถึง", "ไป", "มา", "ว่า", "ให้",
		"ได้", "เป็น", "คือ", "จะ", "ก็", "ไม่", "นี้", "นั้น",
	}
}

// Default returns a settings bundle suitable for Thai text, with the
// given searchable attributes.
func Default(searchable []string) *Settings {
	if len(searchable) == 0 {
		searchable = []string{"title", "content"}
	}
	seps := append([]string{}, token.SeparatorSet()...)
	for _, s := range []string{"\t", "\n"} {
		if !contains(seps, s) {
			seps = append(seps, s)
		}
	}
	return &Settings{
		SeparatorTokens:      seps,
		NonSeparatorTokens:   defaultNonSeparators(),
		Dictionary:           []string{},
		Synonyms:             map[string][]string{},
		StopWords:            defaultStopWords(),
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		SearchableAttributes: append([]string{}, searchable...),
		DisplayedAttributes:  []string{},
		FilterableAttributes: []string{},
		SortableAttributes:   []string{},
	}
}

// Validate checks the bundle and returns every violation, not just the
// first one.
func (s *Settings) Validate() []error {
	var errs []error

	if len(s.SeparatorTokens) == 0 {
		errs = append(errs, errors.New(errors.ErrCodeInvalidSettings, "separatorTokens must not be empty", nil))
	} else {
		for _, required := range []string{token.WordMarker, " ", "\t", "\n"} {
			if !contains(s.SeparatorTokens, required) {
				errs = append(errs, errors.New(errors.ErrCodeInvalidSettings,
					fmt.Sprintf("separatorTokens missing required separator %q", required), nil))
			}
		}
	}

	if !hasThaiNonSeparator(s.NonSeparatorTokens) {
		errs = append(errs, errors.New(errors.ErrCodeInvalidSettings,
			"nonSeparatorTokens must include a Thai combining mark, ๆ, or ฯ", nil))
	}

	seen := map[string]struct{}{}
	for _, rule := range s.RankingRules {
		if _, ok := rankingRuleSet[rule]; !ok {
			errs = append(errs, errors.New(errors.ErrCodeInvalidSettings,
				fmt.Sprintf("unknown ranking rule %q", rule), nil))
			continue
		}
		if _, dup := seen[rule]; dup {
			errs = append(errs, errors.New(errors.ErrCodeInvalidSettings,
				fmt.Sprintf("duplicate ranking rule %q", rule), nil))
		}
		seen[rule] = struct{}{}
	}

	if len(s.SearchableAttributes) == 0 {
		errs = append(errs, errors.New(errors.ErrCodeInvalidSettings, "searchableAttributes must not be empty", nil))
	}

	return errs
}

// hasThaiNonSeparator reports whether any entry is a Thai combining
// mark or the ๆ / ฯ markers.
func hasThaiNonSeparator(entries []string) bool {
	for _, e := range entries {
		for _, r := range e {
			if r == 'ๆ' || r == 'ฯ' || isThaiCombining(r) {
				return true
			}
		}
	}
	return false
}

func isThaiCombining(r rune) bool {
	return r == 0x0E31 ||
		(r >= 0x0E34 && r <= 0x0E3A) ||
		(r >= 0x0E47 && r <= 0x0E4E)
}

// ValidateThaiText is the quick check: the word marker is a separator,
// a Thai combining mark (or ๆ/ฯ) is protected, and at least one
// attribute is searchable.
func ValidateThaiText(s *Settings) bool {
	return s != nil &&
		contains(s.SeparatorTokens, token.WordMarker) &&
		hasThaiNonSeparator(s.NonSeparatorTokens) &&
		len(s.SearchableAttributes) > 0
}

// AddDictionary appends words, deduplicating while preserving the first
// occurrence.
func (s *Settings) AddDictionary(words []string) {
	s.Dictionary = dedup(append(s.Dictionary, words...))
}

// AddSynonyms merges the given mapping into the bundle. Variant lists
// are set-unioned per canonical key; canonical keys are kept as-is.
func (s *Settings) AddSynonyms(synonyms map[string][]string) {
	if s.Synonyms == nil {
		s.Synonyms = map[string][]string{}
	}
	for canonical, variants := range synonyms {
		merged := dedup(append(s.Synonyms[canonical], variants...))
		sort.Strings(merged)
		s.Synonyms[canonical] = merged
	}
}

// UpdateStopWords replaces the stop word list.
func (s *Settings) UpdateStopWords(words []string) {
	s.StopWords = dedup(words)
}

// UpdateSearchableAttributes replaces the searchable attribute list.
func (s *Settings) UpdateSearchableAttributes(attrs []string) {
	s.SearchableAttributes = append([]string{}, attrs...)
}

// UpdateRankingRules replaces the ranking rule list. The new list is
// validated on the next Validate call, not here.
func (s *Settings) UpdateRankingRules(rules []string) {
	s.RankingRules = append([]string{}, rules...)
}

// UpdateDisplayedAttributes replaces the displayed attribute list.
func (s *Settings) UpdateDisplayedAttributes(attrs []string) {
	s.DisplayedAttributes = append([]string{}, attrs...)
}

// UpdateSeparatorTokens replaces the separator token list. Required
// separators are enforced by the next Validate call, not here.
func (s *Settings) UpdateSeparatorTokens(tokens []string) {
	s.SeparatorTokens = dedup(tokens)
}

// UpdateNonSeparatorTokens replaces the non-separator token list.
func (s *Settings) UpdateNonSeparatorTokens(tokens []string) {
	s.NonSeparatorTokens = dedup(tokens)
}

// UpdateFilterableAttributes replaces the filterable attribute list.
func (s *Settings) UpdateFilterableAttributes(attrs []string) {
	s.FilterableAttributes = append([]string{}, attrs...)
}

// UpdateSortableAttributes replaces the sortable attribute list.
func (s *Settings) UpdateSortableAttributes(attrs []string) {
	s.SortableAttributes = append([]string{}, attrs...)
}

// Export serializes the bundle to JSON.
func (s *Settings) Export() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Import parses a bundle previously produced by Export and validates it.
func Import(data []byte) (*Settings, error) {
	var s Settings
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSettings, err)
	}
	if errs := s.Validate(); len(errs) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidSettings,
			fmt.Sprintf("imported settings invalid: %d violation(s)", len(errs)), nil)
	}
	return &s, nil
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
