package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// allowedElements is the complete tag allow-list. Everything else is stripped,
// keeping its text unless bluemonday drops the content (script, style, iframe,
// object and friends).
var allowedElements = []string{
	"h1", "h2", "h3", "h4", "h5", "h6",
	"p", "br", "hr",
	"ul", "ol", "li",
	"strong", "em", "u", "s", "code",
	"a", "img",
	"blockquote", "pre",
	"table", "thead", "tbody", "tr", "th", "td",
	"div", "span",
}

// allowedStyles are the only CSS properties kept in a style attribute.
var allowedStyles = []string{
	"color", "background-color",
	"text-align", "text-decoration",
	"font-weight", "font-style",
	"width", "height",
}

var linkTarget = regexp.MustCompile(`^_(blank|self|parent|top)$`)

// newPolicy builds the allow-list. The result is safe for concurrent use once
// built.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(allowedElements...)
	p.SkipElementsContent("object", "embed", "iframe", "script", "style")

	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).Globally()
	p.AllowAttrs("style").Globally()
	p.AllowStyles(allowedStyles...).Globally()

	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(linkTarget).OnElements("a")
	p.AllowAttrs("rel").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("width", "height").Matching(bluemonday.NumberOrPercent).OnElements("img")

	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")

	return p
}
