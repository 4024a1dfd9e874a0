package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const charRefPattern = `&(?:#[0-9]{1,7}|#[xX][0-9a-fA-F]{1,6}|[A-Za-z][A-Za-z0-9]{1,31});`

var (
	// charRef matches a complete, semicolon-terminated character reference.
	charRef = regexp.MustCompile(charRefPattern)
	// leadingRef matches a reference at the start of a string.
	leadingRef = regexp.MustCompile(`^` + charRefPattern)
)

// decodeEntities turns character references in text into literal characters.
// Tag interiors, attribute values included, are copied untouched. A reference
// stays encoded when decoding it would open markup: "<" before a character
// that starts a tag, or "&" before one that starts another reference.
func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if startsTag(s, i) {
			end := tagEnd(s, i)
			b.WriteString(s[i:end])
			i = end
			continue
		}

		end := i + 1
		for end < len(s) && !startsTag(s, end) {
			end++
		}
		b.WriteString(decodeText(s[i:end], s[end:]))
		i = end
	}
	return b.String()
}

// decodeText decodes the references in one text run. rest is whatever follows
// the run and decides the fate of a reference at its very end.
func decodeText(text, rest string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	locs := charRef.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		ref := text[loc[0]:loc[1]]
		decoded := html.UnescapeString(ref)

		follower := followerAt(text, rest, loc[1])

		b.WriteString(text[last:loc[0]])
		if decoded == ref || unsafeDecode(decoded, follower) {
			b.WriteString(ref)
		} else {
			b.WriteString(decoded)
		}
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// followerAt returns the character that ends up at text[i] after decoding. A
// reference there counts as the first byte it decodes to, so a chain such as
// "&lt;&#115;" is judged by the "s" it produces.
func followerAt(text, rest string, i int) byte {
	if i >= len(text) {
		if rest == "" {
			return 0
		}
		return rest[0]
	}
	if text[i] == '&' {
		if ref := leadingRef.FindString(text[i:]); ref != "" {
			if decoded := html.UnescapeString(ref); decoded != "" {
				return decoded[0]
			}
		}
	}
	return text[i]
}

func unsafeDecode(decoded string, follower byte) bool {
	switch decoded {
	case "<":
		return opensTag(follower)
	case "&":
		return isASCIILetter(follower) || isASCIIDigit(follower) || follower == '#'
	default:
		return false
	}
}

func startsTag(s string, i int) bool {
	return s[i] == '<' && i+1 < len(s) && opensTag(s[i+1])
}

// opensTag reports whether c after '<' starts a tag, end tag, comment,
// doctype or processing instruction.
func opensTag(c byte) bool {
	return isASCIILetter(c) || c == '/' || c == '!' || c == '?'
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tagEnd returns the index just past the '>' closing the tag at s[start],
// skipping quoted attribute values. An unterminated tag runs to the end.
func tagEnd(s string, start int) int {
	var quote, prev byte
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case (c == '"' || c == '\'') && prev == '=':
			quote = c
		case c == '>':
			return i + 1
		}
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' && c != '\f' {
			prev = c
		}
	}
	return len(s)
}
