package render

import (
	"encoding/base64"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/canvas"
	"github.com/pagebox/pagebox/geom"
)

func fixedDoc(w, h float64, rows ...*box.Row) *box.Document {
	return &box.Document{
		Width:    geom.Points(w),
		Height:   geom.Points(h),
		Font:     box.Font{Family: box.DefaultFamily, Size: box.DefaultFontSize},
		Children: rows,
	}
}

func fixedRow(w, h float64, cols ...*box.Col) *box.Row {
	return &box.Row{Width: geom.Points(w), Height: geom.Points(h), Children: cols}
}

func fixedCol(w, h float64, children ...box.Node) *box.Col {
	return &box.Col{Width: geom.Points(w), Height: geom.Points(h), Children: children}
}

func fixedImage(src string, w, h float64) *box.Image {
	return &box.Image{Src: src, Width: geom.Points(w), Height: geom.Points(h)}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func firstLineOp(ops []canvas.Op) int {
	for i, op := range ops {
		if _, ok := op.(canvas.LineOp); ok {
			return i
		}
	}
	return -1
}

func firstTextOp(ops []canvas.Op) int {
	for i, op := range ops {
		if _, ok := op.(canvas.TextOp); ok {
			return i
		}
	}
	return -1
}

func TestRenderFlipsTextOrigin(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	doc := fixedDoc(200, 400, fixedRow(200, 50, fixedCol(200, 50, &box.Text{Content: "hi"})))

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	texts := rec.TextOps()
	if len(texts) != 1 {
		t.Fatalf("got %d text ops, want 1", len(texts))
	}
	got := texts[0]
	if !approx(got.TopLeft.X, 0) || !approx(got.TopLeft.Y, 400) {
		t.Errorf("top left = (%g, %g), want (0, 400)", got.TopLeft.X, got.TopLeft.Y)
	}
	if !approx(got.Size.W, 200) || !approx(got.Size.H, 50) {
		t.Errorf("box = %gx%g, want 200x50", got.Size.W, got.Size.H)
	}
}

func TestRenderDocumentPaddingOffsetsContent(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	doc := fixedDoc(200, 400, fixedRow(140, 50, fixedCol(140, 50, &box.Text{Content: "hi"})))
	doc.Padding = geom.Uniform(30)

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := rec.TextOps()[0]
	if !approx(got.TopLeft.X, 30) || !approx(got.TopLeft.Y, 370) {
		t.Errorf("top left = (%g, %g), want (30, 370)", got.TopLeft.X, got.TopLeft.Y)
	}
}

func TestRenderStacksRowsDownward(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	doc := fixedDoc(200, 400,
		fixedRow(200, 100, fixedCol(200, 100, &box.Text{Content: "first"})),
		fixedRow(200, 60, fixedCol(200, 60, &box.Text{Content: "second"})),
	)

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	texts := rec.TextOps()
	if len(texts) != 2 {
		t.Fatalf("got %d text ops, want 2", len(texts))
	}
	if !approx(texts[0].TopLeft.Y, 400) {
		t.Errorf("first row text y = %g, want 400", texts[0].TopLeft.Y)
	}
	if !approx(texts[1].TopLeft.Y, 300) {
		t.Errorf("second row text y = %g, want 300", texts[1].TopLeft.Y)
	}
}

func TestRenderBorderGeometryAndOrder(t *testing.T) {
	border := func(width float64) geom.Border {
		return geom.Border{Style: geom.BorderSolid, Width: width, Color: geom.Color{}}
	}
	rec := canvas.NewRecorder(200, 400)
	row := fixedRow(200, 50, fixedCol(200, 50, &box.Text{Content: "x"}))
	row.Borders = box.Borders{Top: border(1), Right: border(2), Bottom: border(3), Left: border(4)}
	doc := fixedDoc(200, 400, row)

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	lines := rec.LineOps()
	if len(lines) != 4 {
		t.Fatalf("got %d line ops, want 4", len(lines))
	}
	want := []canvas.LineOp{
		{From: geom.Point{X: 0, Y: 400}, To: geom.Point{X: 200, Y: 400}},
		{From: geom.Point{X: 200, Y: 400}, To: geom.Point{X: 200, Y: 350}},
		{From: geom.Point{X: 0, Y: 350}, To: geom.Point{X: 200, Y: 350}},
		{From: geom.Point{X: 0, Y: 400}, To: geom.Point{X: 0, Y: 350}},
	}
	for i, line := range lines {
		if !approx(line.From.X, want[i].From.X) || !approx(line.From.Y, want[i].From.Y) ||
			!approx(line.To.X, want[i].To.X) || !approx(line.To.Y, want[i].To.Y) {
			t.Errorf("line %d = %+v, want %+v", i, line, want[i])
		}
	}

	var widths []float64
	strokes := 0
	for _, op := range rec.Ops {
		switch o := op.(type) {
		case canvas.LineWidthOp:
			widths = append(widths, o.Width)
		case canvas.StrokeOp:
			strokes++
		}
	}
	if len(widths) != 4 || widths[0] != 1 || widths[1] != 2 || widths[2] != 3 || widths[3] != 4 {
		t.Errorf("stroke widths = %v, want [1 2 3 4]", widths)
	}
	if strokes != 4 {
		t.Errorf("got %d strokes, want one per side", strokes)
	}

	if li, ti := firstLineOp(rec.Ops), firstTextOp(rec.Ops); li == -1 || ti == -1 || li > ti {
		t.Errorf("borders must draw before content: first line at %d, first text at %d", li, ti)
	}
}

func TestRenderSkipsAbsentBorderSides(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	row := fixedRow(200, 50)
	row.Borders = box.Borders{
		Top:  geom.Border{Style: geom.BorderSolid, Width: 1},
		Left: geom.Border{Style: geom.BorderDashed, Width: 1},
	}
	doc := fixedDoc(200, 400, row)

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	lines := rec.LineOps()
	if len(lines) != 2 {
		t.Fatalf("got %d line ops, want top and left only", len(lines))
	}
	if !approx(lines[0].From.Y, 400) || !approx(lines[0].To.Y, 400) {
		t.Errorf("first stroked side = %+v, want top edge", lines[0])
	}
	if !approx(lines[1].From.X, 0) || !approx(lines[1].To.X, 0) {
		t.Errorf("second stroked side = %+v, want left edge", lines[1])
	}
}

func TestRenderHorizontalAlignment(t *testing.T) {
	// Shifting text horizontally is the backend's per-line job; the
	// renderer hands over the full inner width with the alignment
	// forwarded so the offset is never applied twice.
	for _, align := range []box.HAlign{box.AlignLeft, box.AlignCenter, box.AlignRight} {
		t.Run(string(align), func(t *testing.T) {
			rec := canvas.NewRecorder(200, 400)
			col := fixedCol(200, 50, &box.Text{Content: "hi"})
			col.Align = align
			doc := fixedDoc(200, 400, fixedRow(200, 50, col))

			if err := New(rec).Render(doc); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			got := rec.TextOps()[0]
			if !approx(got.TopLeft.X, 0) {
				t.Errorf("x = %g, want 0", got.TopLeft.X)
			}
			if !approx(got.Size.W, 200) {
				t.Errorf("box width = %g, want 200", got.Size.W)
			}
			if got.Align != align {
				t.Errorf("align = %q, want %q", got.Align, align)
			}
		})
	}
}

func TestRenderVerticalAlignment(t *testing.T) {
	lineH := box.DefaultFontSize * 1.2
	cases := []struct {
		valign  box.VAlign
		wantTop float64
	}{
		{box.VAlignTop, 0},
		{box.VAlignCenter, 100/2 - box.DefaultFontSize/2},
		{box.VAlignBottom, 100 - lineH},
	}
	for _, tc := range cases {
		t.Run(string(tc.valign), func(t *testing.T) {
			rec := canvas.NewRecorder(200, 400)
			col := fixedCol(200, 100, &box.Text{Content: "hi"})
			col.VAlign = tc.valign
			doc := fixedDoc(200, 400, fixedRow(200, 100, col))

			if err := New(rec).Render(doc); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			got := rec.TextOps()[0]
			if want := 400 - tc.wantTop; !approx(got.TopLeft.Y, want) {
				t.Errorf("y = %g, want %g", got.TopLeft.Y, want)
			}
		})
	}
}

func TestRenderColumnInheritsRowVerticalAlignment(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	inheriting := fixedCol(100, 100, &box.Text{Content: "hi"})
	overriding := fixedCol(100, 100, &box.Text{Content: "hi"})
	overriding.VAlign = box.VAlignTop
	row := fixedRow(200, 100, inheriting, overriding)
	row.VAlign = box.VAlignBottom
	doc := fixedDoc(200, 400, row)

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	texts := rec.TextOps()
	lineH := box.DefaultFontSize * 1.2
	if want := 400 - (100 - lineH); !approx(texts[0].TopLeft.Y, want) {
		t.Errorf("inheriting column y = %g, want %g", texts[0].TopLeft.Y, want)
	}
	if !approx(texts[1].TopLeft.Y, 400) {
		t.Errorf("overriding column y = %g, want 400", texts[1].TopLeft.Y)
	}
}

func TestRenderTextBoxSpansAtLeastOneLine(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	doc := fixedDoc(200, 400, fixedRow(200, 5, fixedCol(200, 5, &box.Text{Content: "cramped"})))

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := rec.TextOps()[0]
	if want := box.DefaultFontSize * 1.2; !approx(got.Size.H, want) {
		t.Errorf("box height = %g, want one line %g", got.Size.H, want)
	}
}

func TestRenderCursorAdvancesPerChild(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	col := fixedCol(200, 200, &box.Text{Content: "a\nb\nc"}, &box.Text{Content: "x"})
	doc := fixedDoc(200, 400, fixedRow(200, 200, col))

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	texts := rec.TextOps()
	if len(texts) != 2 {
		t.Fatalf("got %d text ops, want 2", len(texts))
	}
	first := 3 * box.DefaultFontSize * 1.2
	if want := 400 - first; !approx(texts[1].TopLeft.Y, want) {
		t.Errorf("second run y = %g, want %g", texts[1].TopLeft.Y, want)
	}
}

func TestRenderAppliesColumnFontOverride(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	big := fixedCol(100, 50, &box.Text{Content: "big"})
	big.Font = box.FontOverride{Size: 24, Weight: box.WeightBold}
	plain := fixedCol(100, 50, &box.Text{Content: "plain"})
	doc := fixedDoc(200, 400, fixedRow(200, 50, big, plain))

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var fonts []canvas.FontOp
	var leadings []float64
	for _, op := range rec.Ops {
		switch o := op.(type) {
		case canvas.FontOp:
			fonts = append(fonts, o)
		case canvas.LeadingOp:
			leadings = append(leadings, o.Leading)
		}
	}
	if len(fonts) != 2 {
		t.Fatalf("got %d font ops, want 2", len(fonts))
	}
	if fonts[0].Size != 24 || !fonts[0].Bold {
		t.Errorf("override column font = %+v, want 24pt bold", fonts[0])
	}
	if fonts[1].Size != box.DefaultFontSize || fonts[1].Bold {
		t.Errorf("sibling column font = %+v, want default", fonts[1])
	}
	if !approx(leadings[0], 24*1.2) || !approx(leadings[1], box.DefaultFontSize*1.2) {
		t.Errorf("leadings = %v, want [28.8 14.4]", leadings)
	}
}

func TestRenderImagePlacement(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	col := fixedCol(200, 100, fixedImage("logo.png", 40, 30))
	col.Align = box.AlignCenter
	col.VAlign = box.VAlignBottom
	doc := fixedDoc(200, 400, fixedRow(200, 100, col))

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	images := rec.ImageOps()
	if len(images) != 1 {
		t.Fatalf("got %d image ops, want 1", len(images))
	}
	got := images[0]
	if got.Src.Path != "logo.png" {
		t.Errorf("path = %q, want logo.png", got.Src.Path)
	}
	if !approx(got.BottomLeft.X, 80) || !approx(got.BottomLeft.Y, 300) {
		t.Errorf("bottom left = (%g, %g), want (80, 300)", got.BottomLeft.X, got.BottomLeft.Y)
	}
	if !approx(got.Size.W, 40) || !approx(got.Size.H, 30) {
		t.Errorf("size = %gx%g, want 40x30", got.Size.W, got.Size.H)
	}
}

func TestRenderSkipsDegenerateImages(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	col := fixedCol(200, 100, fixedImage("logo.png", 0, 0), &box.Text{Content: "after"})
	doc := fixedDoc(200, 400, fixedRow(200, 100, col))

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := len(rec.ImageOps()); got != 0 {
		t.Fatalf("got %d image ops, want 0", got)
	}
	if got := rec.TextOps()[0].TopLeft.Y; !approx(got, 400) {
		t.Errorf("text after skipped image y = %g, want 400", got)
	}
}

func TestRenderStagesInlineImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0x89, 0x50, 0x4e, 0x47})
	src := "data:image/png;base64," + payload

	rec := canvas.NewRecorder(200, 400)
	doc := fixedDoc(200, 400, fixedRow(200, 100, fixedCol(200, 100, fixedImage(src, 40, 30))))

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	images := rec.ImageOps()
	if len(images) != 1 {
		t.Fatalf("got %d image ops, want 1", len(images))
	}
	path := images[0].Src.Path
	if path == src || filepath.Ext(path) != ".png" {
		t.Fatalf("staged path = %q, want transient .png file", path)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staged file %q still exists after render", path)
	}
}

func TestRenderRemovesInlineImageOnBackendFailure(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
	src := "data:image/jpeg;base64," + payload

	before, err := filepath.Glob(filepath.Join(os.TempDir(), "pagebox-img-*"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}

	rec := canvas.NewRecorder(200, 400)
	rec.ImageErr = errors.New("backend rejects images")
	doc := fixedDoc(200, 400, fixedRow(200, 100, fixedCol(200, 100, fixedImage(src, 40, 30))))

	renderErr := New(rec).Render(doc)
	if renderErr == nil {
		t.Fatal("Render succeeded, want backend failure")
	}
	var rerr *Error
	if !errors.As(renderErr, &rerr) {
		t.Fatalf("error type = %T, want *Error", renderErr)
	}
	if !errors.Is(renderErr, rec.ImageErr) {
		t.Errorf("error %v does not wrap the backend failure", renderErr)
	}

	after, err := filepath.Glob(filepath.Join(os.TempDir(), "pagebox-img-*"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(after) != len(before) {
		t.Errorf("transient files left behind: %d before, %d after", len(before), len(after))
	}
}

func TestRenderRejectsMalformedInlineImage(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"no payload", "data:image/png;base64"},
		{"not base64", "data:image/png,plain"},
		{"bad payload", "data:image/png;base64,!!!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := canvas.NewRecorder(200, 400)
			doc := fixedDoc(200, 400, fixedRow(200, 100, fixedCol(200, 100, fixedImage(tc.src, 40, 30))))
			err := New(rec).Render(doc)
			var rerr *Error
			if !errors.As(err, &rerr) {
				t.Fatalf("error = %v, want *Error", err)
			}
		})
	}
}

func TestRenderNestedRows(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	nested := fixedRow(180, 40, fixedCol(180, 40, &box.Text{Content: "inner"}))
	col := fixedCol(200, 100, nested, &box.Text{Content: "outer"})
	col.Padding = geom.Uniform(10)
	doc := fixedDoc(200, 400, fixedRow(200, 100, col))

	if err := New(rec).Render(doc); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	texts := rec.TextOps()
	if len(texts) != 2 {
		t.Fatalf("got %d text ops, want 2", len(texts))
	}
	if !approx(texts[0].TopLeft.X, 10) || !approx(texts[0].TopLeft.Y, 390) {
		t.Errorf("nested text at (%g, %g), want (10, 390)", texts[0].TopLeft.X, texts[0].TopLeft.Y)
	}
	if want := 400 - (10 + 40.0); !approx(texts[1].TopLeft.Y, want) {
		t.Errorf("text after nested row y = %g, want %g", texts[1].TopLeft.Y, want)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	rec := canvas.NewRecorder(200, 400)
	var rerr *Error

	if err := New(rec).Render(nil); !errors.As(err, &rerr) {
		t.Errorf("nil document error = %v, want *Error", err)
	}

	doc := fixedDoc(200, 400)
	doc.Width = geom.Dimension{Unit: geom.UnitPercent, Value: 50}
	if err := New(rec).Render(doc); !errors.As(err, &rerr) {
		t.Errorf("unresolved document error = %v, want *Error", err)
	}
}

func TestRenderWrapsBackendErrors(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		rec := canvas.NewRecorder(200, 400)
		rec.TextErr = errors.New("no glyphs")
		doc := fixedDoc(200, 400, fixedRow(200, 50, fixedCol(200, 50, &box.Text{Content: "hi"})))
		err := New(rec).Render(doc)
		if !errors.Is(err, rec.TextErr) {
			t.Errorf("error %v does not wrap the text failure", err)
		}
	})
	t.Run("stroke", func(t *testing.T) {
		rec := canvas.NewRecorder(200, 400)
		rec.StrokeErr = errors.New("pen broke")
		row := fixedRow(200, 50)
		row.Borders = box.Borders{Top: geom.Border{Style: geom.BorderSolid, Width: 1}}
		doc := fixedDoc(200, 400, row)
		err := New(rec).Render(doc)
		if !errors.Is(err, rec.StrokeErr) {
			t.Errorf("error %v does not wrap the stroke failure", err)
		}
	})
}
