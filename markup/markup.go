// Package markup parses the XML box language into a document tree,
// and converts markdown and HTML sources into the same shape.
package markup

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/geom"
)

// ParseError reports malformed markup: bad XML, an unexpected element,
// a nesting violation, or an invalid attribute value.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "markup: " + e.Msg + ": " + e.Err.Error()
	}
	return "markup: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrf(err error, format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// Parse reads a complete box document from XML source.
func Parse(src []byte) (*box.Document, error) {
	xml := etree.NewDocument()
	if err := xml.ReadFromBytes(src); err != nil {
		return nil, &ParseError{Msg: "invalid XML", Err: err}
	}
	root := xml.Root()
	if root == nil {
		return nil, &ParseError{Msg: "no root element"}
	}
	if root.Tag != "document" {
		return nil, parseErrf(nil, "root element must be <document>, got <%s>", root.Tag)
	}
	return parseDocument(root)
}

func parseDocument(el *etree.Element) (*box.Document, error) {
	doc := &box.Document{
		Font: box.Font{Family: box.DefaultFamily, Size: box.DefaultFontSize},
	}
	var sawWidth, sawHeight bool
	for _, attr := range el.Attr {
		var err error
		switch attr.Key {
		case "width":
			doc.Width, err = geom.ParseDimension(attr.Value)
			sawWidth = true
		case "height":
			doc.Height, err = geom.ParseDimension(attr.Value)
			sawHeight = true
		case "padding":
			doc.Padding, err = geom.ParseSpacing(attr.Value)
		case "font-family":
			err = parseFamily(attr.Value, &doc.Font.Family)
		case "font-size":
			doc.Font.Size, err = geom.ParseFontSize(attr.Value)
		case "font-weight":
			var weight string
			if weight, err = parseWeight(attr.Value); err == nil {
				doc.Font.Bold = weight == box.WeightBold
			}
		}
		if err != nil {
			return nil, attrError(el, attr, err)
		}
	}
	if !sawWidth || !sawHeight {
		return nil, parseErrf(nil, "<document> requires width and height")
	}

	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.Element:
			if c.Tag != "row" {
				return nil, parseErrf(nil, "<document> cannot contain <%s>", c.Tag)
			}
			row, err := parseRow(c)
			if err != nil {
				return nil, err
			}
			doc.Children = append(doc.Children, row)
		case *etree.CharData:
			if strings.TrimSpace(c.Data) != "" {
				return nil, parseErrf(nil, "text content outside <col>")
			}
		}
	}
	return doc, nil
}

func parseRow(el *etree.Element) (*box.Row, error) {
	row := box.NewRow()
	for _, attr := range el.Attr {
		var err error
		switch attr.Key {
		case "width":
			row.Width, err = geom.ParseDimension(attr.Value)
		case "height":
			row.Height, err = geom.ParseDimension(attr.Value)
		case "min-height":
			row.MinHeight, err = geom.ParseDimension(attr.Value)
		case "max-height":
			row.MaxHeight, err = geom.ParseDimension(attr.Value)
		case "padding":
			row.Padding, err = geom.ParseSpacing(attr.Value)
		case "vertical-align":
			row.VAlign, err = parseVAlign(attr.Value)
		default:
			err = parseBorderAttr(attr, &row.Borders)
		}
		if err != nil {
			return nil, attrError(el, attr, err)
		}
	}

	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.Element:
			if c.Tag != "col" {
				return nil, parseErrf(nil, "<row> cannot contain <%s>", c.Tag)
			}
			col, err := parseCol(c)
			if err != nil {
				return nil, err
			}
			row.Children = append(row.Children, col)
		case *etree.CharData:
			if strings.TrimSpace(c.Data) != "" {
				return nil, parseErrf(nil, "text content outside <col>")
			}
		}
	}
	return row, nil
}

func parseCol(el *etree.Element) (*box.Col, error) {
	col := box.NewCol()
	for _, attr := range el.Attr {
		var err error
		switch attr.Key {
		case "width":
			col.Width, err = geom.ParseDimension(attr.Value)
		case "min-width":
			col.MinWidth, err = geom.ParseDimension(attr.Value)
		case "max-width":
			col.MaxWidth, err = geom.ParseDimension(attr.Value)
		case "height":
			col.Height, err = geom.ParseDimension(attr.Value)
		case "padding":
			col.Padding, err = geom.ParseSpacing(attr.Value)
		case "font-family":
			err = parseFamily(attr.Value, &col.Font.Family)
		case "font-size":
			col.Font.Size, err = geom.ParseFontSize(attr.Value)
		case "font-weight":
			col.Font.Weight, err = parseWeight(attr.Value)
		case "text-align":
			col.Align, err = parseAlign(attr.Value)
		case "vertical-align":
			col.VAlign, err = parseVAlign(attr.Value)
		default:
			err = parseBorderAttr(attr, &col.Borders)
		}
		if err != nil {
			return nil, attrError(el, attr, err)
		}
	}

	for _, child := range el.Child {
		switch c := child.(type) {
		case *etree.Element:
			switch c.Tag {
			case "img":
				img, err := parseImage(c)
				if err != nil {
					return nil, err
				}
				col.Children = append(col.Children, img)
			case "row":
				row, err := parseRow(c)
				if err != nil {
					return nil, err
				}
				col.Children = append(col.Children, row)
			default:
				return nil, parseErrf(nil, "<col> cannot contain <%s>", c.Tag)
			}
		case *etree.CharData:
			if text := strings.TrimSpace(c.Data); text != "" {
				col.Children = append(col.Children, &box.Text{Content: text})
			}
		}
	}
	return col, nil
}

func parseImage(el *etree.Element) (*box.Image, error) {
	src := el.SelectAttrValue("src", "")
	if strings.TrimSpace(src) == "" {
		return nil, parseErrf(nil, "<img> requires src")
	}
	img := box.NewImage(src)
	for _, attr := range el.Attr {
		var err error
		switch attr.Key {
		case "src":
		case "width":
			img.Width, err = geom.ParseDimension(attr.Value)
		case "height":
			img.Height, err = geom.ParseDimension(attr.Value)
		case "min-width":
			img.MinWidth, err = geom.ParseDimension(attr.Value)
		case "max-width":
			img.MaxWidth, err = geom.ParseDimension(attr.Value)
		case "min-height":
			img.MinHeight, err = geom.ParseDimension(attr.Value)
		case "max-height":
			img.MaxHeight, err = geom.ParseDimension(attr.Value)
		}
		if err != nil {
			return nil, attrError(el, attr, err)
		}
	}
	for _, child := range el.Child {
		if c, ok := child.(*etree.Element); ok {
			return nil, parseErrf(nil, "<img> cannot contain <%s>", c.Tag)
		}
		if c, ok := child.(*etree.CharData); ok && strings.TrimSpace(c.Data) != "" {
			return nil, parseErrf(nil, "<img> cannot contain text")
		}
	}
	return img, nil
}

// parseBorderAttr handles the border shorthand and its per-side
// variants. Later attributes override earlier ones in document order.
func parseBorderAttr(attr etree.Attr, borders *box.Borders) error {
	switch attr.Key {
	case "border":
		b, err := geom.ParseBorder(attr.Value)
		if err != nil {
			return err
		}
		*borders = box.UniformBorders(b)
	case "border-top":
		return parseSide(attr.Value, &borders.Top)
	case "border-right":
		return parseSide(attr.Value, &borders.Right)
	case "border-bottom":
		return parseSide(attr.Value, &borders.Bottom)
	case "border-left":
		return parseSide(attr.Value, &borders.Left)
	}
	return nil
}

func parseSide(value string, side *geom.Border) error {
	b, err := geom.ParseBorder(value)
	if err != nil {
		return err
	}
	*side = b
	return nil
}

func parseFamily(value string, out *string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fmt.Errorf("font-family must not be empty")
	}
	*out = v
	return nil
}

func parseWeight(value string) (string, error) {
	switch v := strings.TrimSpace(value); v {
	case box.WeightNormal, box.WeightBold:
		return v, nil
	}
	return "", fmt.Errorf("unknown font-weight %q", value)
}

func parseAlign(value string) (box.HAlign, error) {
	switch a := box.HAlign(strings.TrimSpace(value)); a {
	case box.AlignLeft, box.AlignCenter, box.AlignRight:
		return a, nil
	}
	return "", fmt.Errorf("unknown text-align %q", value)
}

func parseVAlign(value string) (box.VAlign, error) {
	switch a := box.VAlign(strings.TrimSpace(value)); a {
	case box.VAlignTop, box.VAlignCenter, box.VAlignBottom:
		return a, nil
	}
	return "", fmt.Errorf("unknown vertical-align %q", value)
}

func attrError(el *etree.Element, attr etree.Attr, err error) *ParseError {
	return parseErrf(err, "<%s> %s", el.Tag, attr.Key)
}
