package sanitize

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.Blockquote: true, atom.Pre: true, atom.Hr: true, atom.Div: true, atom.P: true,
	atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tr: true, atom.Th: true, atom.Td: true,
}

// bodyContext is the element fragments are parsed into.
var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// normalizeDOM parses s as a body fragment, rebuilds the tree without
// paragraphs that wrap blocks, sit in tables or hold nothing, collapses
// newline-bearing whitespace between elements and serializes the result.
func normalizeDOM(s string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(s), bodyContext)
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}

	var rebuilt []*html.Node
	for _, n := range nodes {
		rebuilt = append(rebuilt, rebuild(n, false, false)...)
	}

	var b strings.Builder
	for _, n := range mergeText(rebuilt, false) {
		if err = html.Render(&b, n); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
	}
	return b.String(), nil
}

// rebuild returns the nodes that replace n. Children are rebuilt first and
// re-parented onto a copy of n, so the input tree is never mutated.
func rebuild(n *html.Node, inPre, inTable bool) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{{Type: html.TextNode, Data: n.Data}}
	case html.ElementNode:
	default:
		// comments and doctypes never survive the allow-list
		return nil
	}

	childPre := inPre || n.DataAtom == atom.Pre
	childTable := inTable || n.DataAtom == atom.Table

	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, rebuild(c, childPre, childTable)...)
	}
	children = mergeText(children, childPre)

	if n.DataAtom == atom.P {
		switch {
		case inTable:
			return children
		case isEmptyParagraph(children):
			return nil
		case wrapsOnlyBlocks(children):
			return children
		}
	}

	out := &html.Node{
		Type:      html.ElementNode,
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for _, c := range children {
		out.AppendChild(c)
	}
	return []*html.Node{out}
}

// mergeText joins adjacent text nodes, which appear once paragraphs are
// dropped or unwrapped, and collapses whitespace runs outside pre.
func mergeText(nodes []*html.Node, inPre bool) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if last := len(out) - 1; last >= 0 && n.Type == html.TextNode && out[last].Type == html.TextNode {
			out[last].Data += n.Data
			continue
		}
		out = append(out, n)
	}
	if !inPre {
		for _, n := range out {
			if n.Type == html.TextNode && isCollapsible(n.Data) {
				n.Data = "\n"
			}
		}
	}
	return out
}

// isCollapsible reports a whitespace-only run that spans a line break.
func isCollapsible(s string) bool {
	return strings.Contains(s, "\n") && strings.Trim(s, " \t\n\r\f") == ""
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// isEmptyParagraph reports children with no visible text anywhere below them
// and no img or hr. A non-breaking space counts as blank, and wrappers such as
// an empty span do not count as content.
func isEmptyParagraph(children []*html.Node) bool {
	for _, c := range children {
		if hasContent(c) {
			return false
		}
	}
	return true
}

func hasContent(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return !isBlank(n.Data)
	case html.ElementNode:
		if n.DataAtom == atom.Img || n.DataAtom == atom.Hr {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if hasContent(c) {
				return true
			}
		}
	}
	return false
}

// wrapsOnlyBlocks reports at least one element child, all of them block-level,
// with nothing but whitespace between them.
func wrapsOnlyBlocks(children []*html.Node) bool {
	sawBlock := false
	for _, c := range children {
		switch c.Type {
		case html.TextNode:
			if !isBlank(c.Data) {
				return false
			}
		case html.ElementNode:
			if !blockAtoms[c.DataAtom] {
				return false
			}
			sawBlock = true
		}
	}
	return sawBlock
}
