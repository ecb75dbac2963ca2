package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const header = "%PDF-1.7\n%\xE2\xE3\xCF\xD3\n"

// object is one numbered body, serialized without its obj/endobj
// frame. Streams carry their dict and raw data separately so the
// /Length entry always matches.
type object struct {
	num    int
	body   string
	stream []byte
}

// Export serializes the accumulated page into a complete PDF file.
func (b *Backend) Export() ([]byte, error) {
	objs, err := b.objects()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(header)

	offsets := make(map[int]int, len(objs))
	for _, obj := range objs {
		offsets[obj.num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", obj.num)
		buf.WriteString(obj.body)
		if obj.stream != nil {
			buf.WriteString("\nstream\n")
			buf.Write(obj.stream)
			buf.WriteString("\nendstream")
		}
		buf.WriteString("\nendobj\n")
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objs)+1, len(objs), xrefOffset)
	return buf.Bytes(), nil
}

// WriteTo exports the document and writes it to path.
func (b *Backend) WriteTo(path string) error {
	data, err := b.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// objects lays out the document graph: catalog, page tree, page,
// content, then fonts and images in first-use order, and the info
// dict last.
func (b *Backend) objects() ([]object, error) {
	var objs []object
	add := func(body string, stream []byte) int {
		objs = append(objs, object{num: len(objs) + 1, body: body, stream: stream})
		return len(objs)
	}

	add("", nil) // 1: catalog, filled below
	add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>", nil)
	add("", nil) // 3: page, needs resource refs
	content := b.content.Bytes()
	filter := ""
	if b.compress {
		content = flate(content)
		filter = " /Filter /FlateDecode"
	}
	add(fmt.Sprintf("<< /Length %d%s >>", len(content), filter), content)

	var fontRes, xobjRes []string
	for _, f := range b.baseFonts {
		body := fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s%s >>", f.name, baseEncoding(f.name))
		fontRes = append(fontRes, fmt.Sprintf("/%s %d 0 R", f.res, add(body, nil)))
	}
	for _, f := range b.ttfFonts {
		ref, err := addEmbeddedFont(add, f)
		if err != nil {
			return nil, err
		}
		fontRes = append(fontRes, fmt.Sprintf("/%s %d 0 R", f.res, ref))
	}
	for _, img := range b.images {
		body := fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /%s /BitsPerComponent %d /Filter /%s /Length %d >>",
			img.width, img.height, img.colorSpace, img.bits, img.filter, len(img.data))
		xobjRes = append(xobjRes, fmt.Sprintf("/%s %d 0 R", img.res, add(body, img.data)))
	}
	add("<< /Producer (pagebox) >>", nil)

	var res strings.Builder
	res.WriteString("<<")
	if len(fontRes) > 0 {
		fmt.Fprintf(&res, " /Font << %s >>", strings.Join(fontRes, " "))
	}
	if len(xobjRes) > 0 {
		fmt.Fprintf(&res, " /XObject << %s >>", strings.Join(xobjRes, " "))
	}
	res.WriteString(" >>")

	objs[0].body = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[2].body = fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources %s /Contents 4 0 R >>",
		num(b.size.W), num(b.size.H), res.String())
	return objs, nil
}

func baseEncoding(name string) string {
	if name == "Symbol" || name == "ZapfDingbats" {
		return ""
	}
	return " /Encoding /WinAnsiEncoding"
}

func flate(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

// num formats a coordinate with enough precision for layout math and
// no exponent notation.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
