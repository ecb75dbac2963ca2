package pdf

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
)

// addEmbeddedFont writes the Type0 graph for a TrueType face: font
// program, descriptor, CID font, ToUnicode map, and the composite
// font itself. It returns the object number of the Type0 font.
func addEmbeddedFont(add func(string, []byte) int, f *embeddedFont) (int, error) {
	face := f.face
	if len(face.Data) == 0 {
		return 0, fmt.Errorf("font %s has no program to embed", face.Name)
	}
	name := psName(face.Name)

	fileRef := add(fmt.Sprintf("<< /Length %d /Length1 %d >>", len(face.Data), len(face.Data)), face.Data)

	descriptor := fmt.Sprintf("<< /Type /FontDescriptor /FontName /%s /Flags 4 /FontBBox [%s %s %s %s] /ItalicAngle %s /Ascent %s /Descent %s /CapHeight %s /StemV 80 /FontFile2 %d 0 R >>",
		name,
		num(face.BBox[0]), num(face.BBox[1]), num(face.BBox[2]), num(face.BBox[3]),
		num(face.ItalicAngle), num(face.Ascent), num(-face.Descent), num(face.CapHeight),
		fileRef)
	descRef := add(descriptor, nil)

	cid := fmt.Sprintf("<< /Type /Font /Subtype /CIDFontType2 /BaseFont /%s /CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /DW %d /W [%s] /CIDToGIDMap /Identity /FontDescriptor %d 0 R >>",
		name, face.DefaultWidth, widthRuns(face.Widths, face.DefaultWidth), descRef)
	cidRef := add(cid, nil)

	cmap := toUnicodeCMap(f.used)
	cmapRef := add(fmt.Sprintf("<< /Length %d >>", len(cmap)), cmap)

	composite := fmt.Sprintf("<< /Type /Font /Subtype /Type0 /BaseFont /%s /Encoding /Identity-H /DescendantFonts [%d 0 R] /ToUnicode %d 0 R >>",
		name, cidRef, cmapRef)
	return add(composite, nil), nil
}

// widthRuns compresses the glyph width table into "first last width"
// ranges, skipping glyphs already covered by the default width.
func widthRuns(widths map[int]int, dw int) string {
	gids := make([]int, 0, len(widths))
	for gid, w := range widths {
		if w != dw {
			gids = append(gids, gid)
		}
	}
	sort.Ints(gids)

	var sb strings.Builder
	for i := 0; i < len(gids); {
		start := gids[i]
		w := widths[start]
		j := i + 1
		for j < len(gids) && gids[j] == gids[j-1]+1 && widths[gids[j]] == w {
			j++
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d %d %d", start, gids[j-1], w)
		i = j
	}
	return sb.String()
}

// toUnicodeCMap maps the glyphs actually shown back to their source
// text so extraction and search keep working under Identity-H.
func toUnicodeCMap(used map[int]rune) []byte {
	gids := make([]int, 0, len(used))
	for gid := range used {
		gids = append(gids, gid)
	}
	sort.Ints(gids)

	var sb strings.Builder
	sb.WriteString("/CIDInit /ProcSet findresource begin\n12 dict begin\nbegincmap\n")
	sb.WriteString("/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n")
	sb.WriteString("/CMapName /Adobe-Identity-UCS def\n/CMapType 2 def\n")
	sb.WriteString("1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n")
	for start := 0; start < len(gids); start += 100 {
		end := start + 100
		if end > len(gids) {
			end = len(gids)
		}
		fmt.Fprintf(&sb, "%d beginbfchar\n", end-start)
		for _, gid := range gids[start:end] {
			fmt.Fprintf(&sb, "<%04X> <%s>\n", gid, utf16Hex(used[gid]))
		}
		sb.WriteString("endbfchar\n")
	}
	sb.WriteString("endcmap\nCMapName currentdict /CMap defineresource pop\nend\nend")
	return []byte(sb.String())
}

func utf16Hex(r rune) string {
	var sb strings.Builder
	for _, u := range utf16.Encode([]rune{r}) {
		fmt.Fprintf(&sb, "%04X", u)
	}
	return sb.String()
}

// psName strips characters that PDF name syntax cannot carry.
func psName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if r > '!' && r <= '~' && !strings.ContainsRune("()<>[]{}/%#", r) {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "Embedded"
	}
	return sb.String()
}
