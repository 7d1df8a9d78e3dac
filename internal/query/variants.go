package query

import "github.com/thaisearch/thaitok/internal/tokenizer"

// maxCompletions caps the completion list per query.
const maxCompletions = 10

// variants builds the expansion list for one token. The original is
// always first. Wildcard forms assume the engine understands trailing,
// leading, and surrounding asterisks as prefix/suffix/infix patterns.
func variants(surface string, kind Kind, parts []string, partialMatching bool) []string {
	out := []string{surface}

	if partialMatching {
		out = append(out, surface+"*", "*"+surface, "*"+surface+"*")
	}
	if kind == KindCompound {
		for _, part := range parts {
			if part != surface {
				out = append(out, part)
			}
		}
	}
	return dedup(out)
}

// mergeVariants flattens per-token variants into one deduplicated list.
func mergeVariants(tokens []Token) []string {
	var all []string
	for _, t := range tokens {
		all = append(all, t.Variants...)
	}
	return dedup(all)
}

// completions proposes full-word candidates for partial tokens by
// attaching the missing affix: a token that reads like the tail half of
// a compound gets the known prefixes prepended, one that reads like the
// head half gets the known suffixes appended.
func completions(tokens []Token) []string {
	var out []string
	for _, t := range tokens {
		if !t.IsPartial {
			continue
		}
		if tokenizer.StartsWithSuffixPattern(t.Original) || len([]rune(t.Original)) <= 2 {
			for _, prefix := range tokenizer.CompoundPrefixes {
				out = append(out, prefix+t.Original)
			}
		}
		if tokenizer.EndsWithPrefixPattern(t.Original) {
			for _, suffix := range tokenizer.CompoundSuffixes {
				out = append(out, t.Original+suffix)
			}
		}
	}
	out = dedup(out)
	if len(out) > maxCompletions {
		out = out[:maxCompletions]
	}
	return out
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
