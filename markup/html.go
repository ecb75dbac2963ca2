package markup

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pagebox/pagebox/box"
)

// ParseHTML converts an HTML page or fragment into a document.
// Headings, paragraphs and list items produce rows; every other
// element descends transparently.
func ParseHTML(src []byte, opts ...DocOption) (*box.Document, error) {
	root, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, &ParseError{Msg: "invalid HTML", Err: err}
	}
	doc := newPage(opts...)
	walkHTML(doc, root)
	return doc, nil
}

func walkHTML(doc *box.Document, n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			if text := nodeText(n); text != "" {
				appendBlock(doc, headingRow(doc.Font, headingLevel(n.DataAtom), text))
			}
			return
		case atom.P:
			if text := nodeText(n); text != "" {
				appendBlock(doc, textRow(text))
			}
			return
		case atom.Li:
			if text := nodeText(n); text != "" {
				appendBlock(doc, bulletRow(text))
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkHTML(doc, c)
	}
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	}
	return 4
}

// nodeText concatenates the text nodes under n, collapsing runs of
// whitespace the way browsers render them.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
