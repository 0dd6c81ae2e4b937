package prompts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxNameRunes = 60

var namePrefixes = []string{
	"my name is",
	"i am",
	"i'm",
	"this is",
	"it's",
	"name:",
	"call me",
	"我叫",
	"我是",
}

// ExtractName pulls a display name out of a free-form introduction such as
// "My name is Jane Doe, nice to meet you". Text without a known lead-in is
// returned trimmed.
func ExtractName(text string) string {
	s := strings.TrimSpace(text)
	lower := strings.ToLower(s)

	matched := false
	for _, p := range namePrefixes {
		if strings.HasPrefix(lower, p) && endsWord(lower, p) {
			s = strings.TrimSpace(s[len(p):])
			matched = true
			break
		}
	}
	if !matched {
		return s
	}

	if i := strings.IndexAny(s, ".,!?;。，！？；"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	if r := []rune(s); len(r) > maxNameRunes {
		s = strings.TrimSpace(string(r[:maxNameRunes]))
	}
	return s
}

// endsWord reports whether a Latin prefix stops at a word boundary, so "I
// Amara" is not read as "i am" + "ara". Prefixes ending in punctuation or CJK
// need no boundary.
func endsWord(lower, prefix string) bool {
	last, _ := utf8.DecodeLastRuneInString(prefix)
	if last >= utf8.RuneSelf || !(unicode.IsLetter(last) || last == '\'') {
		return true
	}
	next, _ := utf8.DecodeRuneInString(lower[len(prefix):])
	return next == utf8.RuneError || unicode.IsSpace(next) || unicode.IsPunct(next)
}
