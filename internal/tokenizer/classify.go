package tokenizer

import "unicode"

// Classify labels a string by its dominant character category.
//
// Non-whitespace code points are counted per category; a category covering
// more than half wins, otherwise the string is mixed. Empty or
// whitespace-only input is whitespace. Thai combining marks count as Thai,
// so a string of bare marks still classifies as Thai.
func Classify(s string) ContentType {
	var thai, latin, numeric, punct, total int

	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case IsThaiRune(r):
			thai++
		case unicode.IsDigit(r):
			numeric++
		case unicode.IsLetter(r):
			latin++
		default:
			punct++
		}
	}

	if total == 0 {
		return ContentWhitespace
	}

	half := total / 2
	switch {
	case thai > half:
		return ContentThai
	case latin > half:
		return ContentLatin
	case numeric > half:
		return ContentNumeric
	case punct > half:
		return ContentPunctuation
	default:
		return ContentMixed
	}
}
