package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thaisearch/thaitok/internal/token"
)

func TestDefault_IsValid(t *testing.T) {
	s := Default([]string{"title", "content"})
	assert.Empty(t, s.Validate())
	assert.True(t, ValidateThaiText(s))

	assert.Contains(t, s.SeparatorTokens, token.WordMarker)
	assert.Contains(t, s.SeparatorTokens, " ")
	assert.Contains(t, s.SeparatorTokens, "\t")
	assert.Contains(t, s.SeparatorTokens, "\n")
	assert.Contains(t, s.NonSeparatorTokens, "ๆ")
	assert.Contains(t, s.NonSeparatorTokens, "ฯ")
	assert.NotEmpty(t, s.StopWords)
}

func TestDefault_EmptySearchableGetsFallback(t *testing.T) {
	s := Default(nil)
	assert.Equal(t, []string{"title", "content"}, s.SearchableAttributes)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	s := &Settings{
		SeparatorTokens:      []string{","},
		NonSeparatorTokens:   []string{"x"},
		RankingRules:         []string{"words", "words", "magic"},
		SearchableAttributes: nil,
	}

	errs := s.Validate()
	// Missing marker/space/tab/newline separators, no Thai non-separator,
	// unknown rule, duplicate rule, empty searchable attributes.
	assert.GreaterOrEqual(t, len(errs), 5)
}

func TestValidate_MarkerSeparatorRequired(t *testing.T) {
	s := Default([]string{"title"})
	s.SeparatorTokens = []string{" ", "\t", "\n"}

	errs := s.Validate()
	require.NotEmpty(t, errs)
	assert.False(t, ValidateThaiText(s))
}

func TestValidate_RejectsUnknownAndDuplicateRules(t *testing.T) {
	s := Default([]string{"title"})
	s.RankingRules = []string{"words", "typo", "words"}
	assert.NotEmpty(t, s.Validate())

	s.RankingRules = []string{"relevance"}
	assert.NotEmpty(t, s.Validate())

	s.RankingRules = []string{"exactness", "words"}
	assert.Empty(t, s.Validate(), "any order from the closed set is fine")
}

func TestAddDictionary_DeduplicatesPreservingOrder(t *testing.T) {
	s := Default(nil)
	s.AddDictionary([]string{"วากาเมะ", "ซูชิ", "วากาเมะ", ""})
	s.AddDictionary([]string{"ซูชิ", "ราเมน"})

	assert.Equal(t, []string{"วากาเมะ", "ซูชิ", "ราเมน"}, s.Dictionary)
}

func TestAddSynonyms_SetUnionPerKey(t *testing.T) {
	s := Default(nil)
	s.AddSynonyms(map[string][]string{"สาหร่าย": {"วากาเมะ"}})
	s.AddSynonyms(map[string][]string{"สาหร่าย": {"โนริ", "วากาเมะ"}})

	assert.ElementsMatch(t, []string{"วากาเมะ", "โนริ"}, s.Synonyms["สาหร่าย"])
}

func TestUpdateTokenLists(t *testing.T) {
	s := Default([]string{"title"})

	s.UpdateDisplayedAttributes([]string{"title", "summary"})
	assert.Equal(t, []string{"title", "summary"}, s.DisplayedAttributes)

	s.UpdateNonSeparatorTokens([]string{"ๆ", "ๆ", "ฯ"})
	assert.Equal(t, []string{"ๆ", "ฯ"}, s.NonSeparatorTokens)

	// Dropping the word marker is accepted by the setter but caught by
	// validation.
	s.UpdateSeparatorTokens([]string{" ", "\t", "\n"})
	assert.NotEmpty(t, s.Validate())

	s.UpdateSeparatorTokens([]string{token.WordMarker, " ", "\t", "\n"})
	assert.Empty(t, s.Validate())
}

func TestExportImport_RoundTrip(t *testing.T) {
	s := Default([]string{"title", "content"})
	s.AddDictionary([]string{"วากาเมะ"})
	s.AddSynonyms(map[string][]string{"สาหร่าย": {"วากาเมะ"}})

	data, err := s.Export()
	require.NoError(t, err)

	got, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestImport_RejectsInvalid(t *testing.T) {
	_, err := Import([]byte(`{"separatorTokens": []}`))
	assert.Error(t, err)

	_, err = Import([]byte(`not json`))
	assert.Error(t, err)

	_, err = Import([]byte(`{"unknownField": 1}`))
	assert.Error(t, err)
}
