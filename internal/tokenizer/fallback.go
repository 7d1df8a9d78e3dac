package tokenizer

import "unicode"

// fallbackSegment is the deterministic character-level segmentation used
// when the backend fails. Runs of Thai code points become one token each;
// every non-Thai, non-whitespace character becomes its own token. Whitespace
// is kept as tokens only when keepWhitespace is set.
func fallbackSegment(text string, keepWhitespace bool) []string {
	var tokens []string
	var thaiRun []rune
	var wsRun []rune

	flushThai := func() {
		if len(thaiRun) > 0 {
			tokens = append(tokens, string(thaiRun))
			thaiRun = thaiRun[:0]
		}
	}
	flushWS := func() {
		if len(wsRun) > 0 {
			if keepWhitespace {
				tokens = append(tokens, string(wsRun))
			}
			wsRun = wsRun[:0]
		}
	}

	for _, r := range text {
		switch {
		case IsThaiRune(r):
			flushWS()
			thaiRun = append(thaiRun, r)
		case unicode.IsSpace(r):
			flushThai()
			wsRun = append(wsRun, r)
		default:
			flushThai()
			flushWS()
			tokens = append(tokens, string(r))
		}
	}
	flushThai()
	flushWS()

	return tokens
}
