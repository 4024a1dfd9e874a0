package sanitize

import (
	"regexp"
	"strings"
)

// blockTags may not appear inside a paragraph.
var blockTags = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li",
	"blockquote", "pre", "hr", "div",
	"table", "thead", "tbody", "tr", "th", "td",
}

var tableTags = []string{"table", "thead", "tbody", "tr", "th", "td"}

const maxFixedPointPasses = 16

func alternation(tags []string) string {
	return strings.Join(tags, "|")
}

var (
	// <p> directly before a block open tag, and </p> directly after a block close tag.
	pBeforeBlockOpen  = regexp.MustCompile(`(?i)<p(?:\s[^>]*)?>\s*(<(?:` + alternation(blockTags) + `)(?:\s[^>]*)?/?>)`)
	pAfterBlockClose  = regexp.MustCompile(`(?i)(</(?:` + alternation(blockTags) + `)\s*>)\s*</p\s*>`)
	pAroundTableOpen  = regexp.MustCompile(`(?i)<p(?:\s[^>]*)?>\s*(<(?:` + alternation(tableTags) + `)(?:\s[^>]*)?>)`)
	pAroundTableClose = regexp.MustCompile(`(?i)(</(?:` + alternation(tableTags) + `)\s*>)\s*</p\s*>`)

	// RE2 has no backreferences, so each block tag gets its own
	// <p><tag>...</tag></p> pattern.
	pWrappingBlock = compileWrappers(blockTags)

	tableSpan       = regexp.MustCompile(`(?is)<table(?:\s[^>]*)?>.*?</table\s*>`)
	paragraphBreak  = regexp.MustCompile(`(?i)</p\s*>\s*<p(?:\s[^>]*)?>`)
	paragraphTagAny = regexp.MustCompile(`(?i)</?p(?:\s[^>]*)?>`)
)

func compileWrappers(tags []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(tags))
	for _, tag := range tags {
		if tag == "hr" {
			continue
		}
		res = append(res, regexp.MustCompile(
			`(?is)<p(?:\s[^>]*)?>\s*(<`+tag+`(?:\s[^>]*)?>.*?</`+tag+`\s*>)\s*</p\s*>`))
	}
	return res
}

// stripParagraphEdges removes paragraph tags that open right before a block or
// close right after one.
func stripParagraphEdges(s string) string {
	s = pBeforeBlockOpen.ReplaceAllString(s, "$1")
	return pAfterBlockClose.ReplaceAllString(s, "$1")
}

// unwrapTableParagraphs removes paragraphs wrapped around table structure.
func unwrapTableParagraphs(s string) string {
	s = pAroundTableOpen.ReplaceAllString(s, "$1")
	return pAroundTableClose.ReplaceAllString(s, "$1")
}

// unwrapBlockParagraphs replaces <p><block>...</block></p> with the block until
// nothing changes.
func unwrapBlockParagraphs(s string) string {
	for range maxFixedPointPasses {
		prev := s
		for _, re := range pWrappingBlock {
			s = re.ReplaceAllString(s, "$1")
		}
		if s == prev {
			break
		}
	}
	return s
}

// unwrapAll runs the three paragraph rules to a fixed point.
func unwrapAll(s string) string {
	for range maxFixedPointPasses {
		prev := s
		s = unwrapBlockParagraphs(unwrapTableParagraphs(stripParagraphEdges(s)))
		if s == prev {
			break
		}
	}
	return s
}

// stripTableParagraphs removes paragraph tags inside tables. Adjacent
// paragraphs become a line break so their text stays apart.
func stripTableParagraphs(s string) string {
	return tableSpan.ReplaceAllStringFunc(s, func(table string) string {
		table = paragraphBreak.ReplaceAllString(table, "<br>")
		return paragraphTagAny.ReplaceAllString(table, "")
	})
}
