package triage

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)

	htmlEntities = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
		"&amp;", "&",
	)

	sentenceEndRe = regexp.MustCompile(`[.!?](\s|$)`)
)

// StripHTML removes tags and decodes the handful of entities models and trackers emit.
func StripHTML(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(htmlEntities.Replace(htmlTagRe.ReplaceAllString(s, "")))
}

// truncateAtWhitespace keeps at most maxRunes runes of s, cutting at the last
// whitespace inside the kept prefix. A prefix with no whitespace is cut hard.
func truncateAtWhitespace(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	byteLimit := len(s)
	count := 0
	for i := range s {
		if count == maxRunes {
			byteLimit = i
			break
		}
		count++
	}

	prefix := s[:byteLimit]
	// the rune right after the prefix being whitespace means the cut is already on a boundary
	next, _ := utf8.DecodeRuneInString(s[byteLimit:])
	if unicode.IsSpace(next) {
		return strings.TrimRightFunc(prefix, unicode.IsSpace)
	}

	cut := strings.LastIndexFunc(prefix, unicode.IsSpace)
	if cut <= 0 {
		return prefix
	}
	return strings.TrimRightFunc(prefix[:cut], unicode.IsSpace)
}

// firstSentence returns the text up to and including the first sentence
// terminator, or up to the first line break, whichever comes first.
func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = strings.TrimSpace(s[:nl])
	}
	if loc := sentenceEndRe.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[:loc[0]+1])
	}
	return s
}

// limitSentences keeps the first max sentences of s.
func limitSentences(s string, max int) (string, bool) {
	ends := sentenceEndRe.FindAllStringIndex(s, -1)
	if len(ends) <= max {
		return s, false
	}
	return strings.TrimSpace(s[:ends[max-1][0]+1]), true
}

// normalizeLabel lower-cases a label and joins words with dashes.
func normalizeLabel(label string) string {
	label = strings.ToLower(StripHTML(label))
	return strings.Join(strings.Fields(label), "-")
}
