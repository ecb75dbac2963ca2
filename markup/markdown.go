package markup

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pagebox/pagebox/box"
)

// ParseMarkdown converts markdown source into a document: headings
// become emphasized rows, paragraphs plain text rows, and list items
// bulleted rows. Inline styling is flattened to plain text.
func ParseMarkdown(src []byte, opts ...DocOption) (*box.Document, error) {
	doc := newPage(opts...)
	md := goldmark.New()
	tree := md.Parser().Parse(text.NewReader(src))
	walkMarkdown(doc, tree, src)
	return doc, nil
}

func walkMarkdown(doc *box.Document, node ast.Node, source []byte) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			appendBlock(doc, headingRow(doc.Font, n.Level, string(n.Text(source))))
		case *ast.Paragraph:
			if text := inlineText(n, source); text != "" {
				appendBlock(doc, textRow(text))
			}
		case *ast.List:
			walkMarkdown(doc, n, source)
		case *ast.ListItem:
			if text := listItemText(n, source); text != "" {
				appendBlock(doc, bulletRow(text))
			}
		}
	}
}

func appendBlock(doc *box.Document, row *box.Row) {
	doc.Children = append(doc.Children, row, spacerRow(doc.Font))
}

// inlineText flattens a block's inline children to plain text. Soft
// and hard line breaks become spaces; emphasis and code spans keep
// only their text.
func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
			continue
		}
		sb.Write(child.Text(source))
	}
	return strings.TrimSpace(sb.String())
}

// listItemText pulls the text of an item's first block; nested lists
// and further blocks are out of scope for the flat row mapping.
func listItemText(n *ast.ListItem, source []byte) string {
	child := n.FirstChild()
	if child == nil {
		return ""
	}
	if _, ok := child.(*ast.Paragraph); ok {
		return inlineText(child, source)
	}
	if _, ok := child.(*ast.TextBlock); ok {
		return inlineText(child, source)
	}
	return strings.TrimSpace(string(child.Text(source)))
}
