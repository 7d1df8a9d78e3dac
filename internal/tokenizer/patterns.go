package tokenizer

import "unicode/utf8"

// Thai compound morphology. Compounds are commonly formed with a nominalizing
// prefix (การ "act of", ความ "state of", นัก / ผู้ "person who") or a
// classifier suffix (ศาสตร์ "-ology", วิทยา "science", กรรม "-ism/work",
// ภาพ "-ness/state").
var (
	// CompoundPrefixes in fixed match order.
	CompoundPrefixes = []string{"การ", "ความ", "นัก", "ผู้"}

	// CompoundSuffixes in fixed match order.
	CompoundSuffixes = []string{"ศาสตร์", "วิทยา", "กรรม", "ภาพ"}
)

// knownLongWords are frequent long Thai words that must never be sub-split:
// they are single morphemes or lexicalized beyond recovery.
var knownLongWords = map[string]struct{}{
	"มหาวิทยาลัย":   {},
	"โทรทัศน์":      {},
	"คอมพิวเตอร์":   {},
	"อินเทอร์เน็ต":  {},
	"ประเทศไทย":     {},
	"กรุงเทพมหานคร": {},
	"โรงพยาบาล":     {},
	"สาธารณรัฐ":     {},
}

// compoundCandidateMinRunes: Thai tokens longer than this are treated as
// potential compounds.
const compoundCandidateMinRunes = 6

// IsKnownLongWord reports whether s is on the do-not-split allowlist.
func IsKnownLongWord(s string) bool {
	_, ok := knownLongWords[s]
	return ok
}

// IsCompoundCandidate reports whether a token should go through the
// compound-aware pass: primarily Thai, longer than six code points, and not
// a known long word.
func IsCompoundCandidate(surface string) bool {
	if utf8.RuneCountInString(surface) <= compoundCandidateMinRunes {
		return false
	}
	if Classify(surface) != ContentThai {
		return false
	}
	return !IsKnownLongWord(surface)
}

// SplitCompound attempts a pattern-based split of a Thai compound.
// Prefix patterns are tried first, then suffixes, in their fixed order.
// Returns the components and true on a match; both parts must be non-empty
// and the remainder must carry more than one code point.
func SplitCompound(surface string) ([]string, bool) {
	runes := []rune(surface)

	for _, prefix := range CompoundPrefixes {
		plen := utf8.RuneCountInString(prefix)
		if len(runes) > plen+1 && string(runes[:plen]) == prefix {
			return []string{prefix, string(runes[plen:])}, true
		}
	}

	for _, suffix := range CompoundSuffixes {
		slen := utf8.RuneCountInString(suffix)
		if len(runes) > slen+1 && string(runes[len(runes)-slen:]) == suffix {
			return []string{string(runes[:len(runes)-slen]), suffix}, true
		}
	}

	return nil, false
}

// MidpointSplit splits a token in half at a rune boundary. Used as the last
// resort for long Thai tokens no pattern matches.
func MidpointSplit(surface string) []string {
	runes := []rune(surface)
	mid := len(runes) / 2
	return []string{string(runes[:mid]), string(runes[mid:])}
}

// HasCompoundPrefix reports whether s starts with a compound prefix and
// carries more than one additional code point.
func HasCompoundPrefix(s string) bool {
	runes := []rune(s)
	for _, prefix := range CompoundPrefixes {
		plen := utf8.RuneCountInString(prefix)
		if len(runes) > plen+1 && string(runes[:plen]) == prefix {
			return true
		}
	}
	return false
}

// HasCompoundSuffix reports whether s ends with a compound suffix and
// carries more than one additional code point.
func HasCompoundSuffix(s string) bool {
	runes := []rune(s)
	for _, suffix := range CompoundSuffixes {
		slen := utf8.RuneCountInString(suffix)
		if len(runes) > slen+1 && string(runes[len(runes)-slen:]) == suffix {
			return true
		}
	}
	return false
}

// EndsWithPrefixPattern reports whether s itself ends with a bare compound
// prefix, i.e. the "other half" of a compound seems to be missing.
func EndsWithPrefixPattern(s string) bool {
	for _, prefix := range CompoundPrefixes {
		if s == prefix {
			return true
		}
		if len(s) > len(prefix) && s[len(s)-len(prefix):] == prefix {
			return true
		}
	}
	return false
}

// StartsWithSuffixPattern reports whether s starts with a bare compound
// suffix, the mirror case of EndsWithPrefixPattern.
func StartsWithSuffixPattern(s string) bool {
	for _, suffix := range CompoundSuffixes {
		if s == suffix {
			return true
		}
		if len(s) > len(suffix) && s[:len(suffix)] == suffix {
			return true
		}
	}
	return false
}
