package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/canvas"
	"github.com/pagebox/pagebox/fonts"
	"github.com/pagebox/pagebox/geom"
)

func decode(t *testing.T, b *Backend) image.Image {
	t.Helper()
	data, err := b.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output failed: %v", err)
	}
	return img
}

func dark(c color.Color) bool {
	r, g, _, _ := c.RGBA()
	return r < 0x8000 && g < 0x8000
}

func reddish(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r > 0xC000 && g < 0x4000 && b < 0x4000
}

// inkIn reports whether any pixel in the rectangle is dark.
func inkIn(img image.Image, x0, y0, x1, y1 int) bool {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if dark(img.At(x, y)) {
				return true
			}
		}
	}
	return false
}

func TestExportDimensions(t *testing.T) {
	tests := []struct {
		dpi          float64
		wantW, wantH int
	}{
		{72, 100, 200},
		{144, 200, 400},
	}
	for _, tt := range tests {
		b := New(geom.Size{W: 100, H: 200}, WithDPI(tt.dpi))
		got := decode(t, b).Bounds()
		if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
			t.Errorf("dpi %v: bounds = %dx%d, want %dx%d", tt.dpi, got.Dx(), got.Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestBackgroundIsWhite(t *testing.T) {
	img := decode(t, New(geom.Size{W: 50, H: 50}))
	r, g, b, _ := img.At(25, 25).RGBA()
	if r != 0xFFFF || g != 0xFFFF || b != 0xFFFF {
		t.Errorf("background pixel = %v, want white", img.At(25, 25))
	}
}

func TestTextMakesInk(t *testing.T) {
	b := New(geom.Size{W: 100, H: 200})
	if err := b.SetFont("Helvetica", 12, false); err != nil {
		t.Fatalf("SetFont failed: %v", err)
	}
	err := b.TextWrap(geom.Point{X: 10, Y: 190}, geom.Size{W: 80, H: 20}, "Hi", box.AlignLeft)
	if err != nil {
		t.Fatalf("TextWrap failed: %v", err)
	}
	img := decode(t, b)
	if !inkIn(img, 5, 5, 50, 30) {
		t.Error("no glyph ink near the text origin")
	}
}

func TestTextLineAdvance(t *testing.T) {
	b := New(geom.Size{W: 100, H: 200})
	if err := b.SetFont("Helvetica", 12, false); err != nil {
		t.Fatalf("SetFont failed: %v", err)
	}
	b.SetLineLeading(30)
	err := b.TextWrap(geom.Point{X: 10, Y: 190}, geom.Size{W: 80, H: 100}, "I\nI", box.AlignLeft)
	if err != nil {
		t.Fatalf("TextWrap failed: %v", err)
	}
	img := decode(t, b)

	if !inkIn(img, 5, 5, 40, 26) {
		t.Error("first line has no ink")
	}
	if inkIn(img, 5, 30, 40, 38) {
		t.Error("leading gap has ink")
	}
	if !inkIn(img, 5, 40, 40, 56) {
		t.Error("second line has no ink")
	}
}

func TestTextAlignmentShiftsInk(t *testing.T) {
	centroid := func(align box.HAlign) float64 {
		b := New(geom.Size{W: 100, H: 100})
		if err := b.SetFont("Helvetica", 12, false); err != nil {
			t.Fatalf("SetFont failed: %v", err)
		}
		err := b.TextWrap(geom.Point{X: 10, Y: 90}, geom.Size{W: 80, H: 20}, "Hi", align)
		if err != nil {
			t.Fatalf("TextWrap failed: %v", err)
		}
		img := decode(t, b)
		var sum, n float64
		bounds := img.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				if dark(img.At(x, y)) {
					sum += float64(x)
					n++
				}
			}
		}
		if n == 0 {
			t.Fatal("no ink drawn")
		}
		return sum / n
	}

	left, right := centroid(box.AlignLeft), centroid(box.AlignRight)
	if right-left < 30 {
		t.Errorf("right centroid %.1f not past left centroid %.1f", right, left)
	}
}

func TestTextRequiresFont(t *testing.T) {
	b := New(geom.Size{W: 100, H: 100})
	err := b.TextWrap(geom.Point{X: 0, Y: 90}, geom.Size{W: 80, H: 20}, "x", box.AlignLeft)
	if err == nil {
		t.Fatal("TextWrap without a font should fail")
	}
}

func TestSetFontRejectsBadSize(t *testing.T) {
	b := New(geom.Size{W: 100, H: 100})
	if err := b.SetFont("Helvetica", 0, false); err == nil {
		t.Fatal("SetFont should reject a zero size")
	}
}

func TestRegisteredFaceDraws(t *testing.T) {
	face, err := fonts.ParseFace("Go Regular", goregular.TTF)
	if err != nil {
		t.Fatalf("ParseFace failed: %v", err)
	}
	reg := fonts.NewRegistry()
	reg.Register("Inter", false, face)

	b := New(geom.Size{W: 100, H: 100}, WithRegistry(reg))
	if err := b.SetFont("Inter", 14, false); err != nil {
		t.Fatalf("SetFont failed: %v", err)
	}
	err = b.TextWrap(geom.Point{X: 10, Y: 90}, geom.Size{W: 80, H: 20}, "Hi", box.AlignLeft)
	if err != nil {
		t.Fatalf("TextWrap failed: %v", err)
	}
	if !inkIn(decode(t, b), 5, 5, 60, 35) {
		t.Error("registered face drew no ink")
	}
}

func TestLineSolid(t *testing.T) {
	b := New(geom.Size{W: 100, H: 100})
	b.SetStrokeColor(geom.Color{R: 1})
	b.SetLineWidth(2)
	b.SetLineStyle(geom.BorderSolid)
	b.Line(geom.Point{X: 10, Y: 50}, geom.Point{X: 90, Y: 50})
	if err := b.Stroke(); err != nil {
		t.Fatalf("Stroke failed: %v", err)
	}
	img := decode(t, b)

	if !reddish(img.At(50, 50)) {
		t.Errorf("midpoint pixel = %v, want red", img.At(50, 50))
	}
	if reddish(img.At(4, 50)) {
		t.Error("ink before the segment start")
	}
	if reddish(img.At(50, 60)) {
		t.Error("ink far below the segment")
	}
}

func TestLineDashedHasGaps(t *testing.T) {
	rowInk := func(style geom.BorderStyle) int {
		b := New(geom.Size{W: 100, H: 100})
		b.SetStrokeColor(geom.Color{R: 1})
		b.SetLineWidth(1)
		b.SetLineStyle(style)
		b.Line(geom.Point{X: 10, Y: 50}, geom.Point{X: 90, Y: 50})
		if err := b.Stroke(); err != nil {
			t.Fatalf("Stroke failed: %v", err)
		}
		img := decode(t, b)
		n := 0
		for x := 0; x < 100; x++ {
			if reddish(img.At(x, 50)) {
				n++
			}
		}
		return n
	}

	solid, dashed, dotted := rowInk(geom.BorderSolid), rowInk(geom.BorderDashed), rowInk(geom.BorderDotted)
	if dashed == 0 || dotted == 0 {
		t.Fatalf("patterned strokes drew nothing: dashed %d dotted %d", dashed, dotted)
	}
	if dashed >= solid {
		t.Errorf("dashed ink %d not sparser than solid %d", dashed, solid)
	}
	if dotted >= dashed {
		t.Errorf("dotted ink %d not sparser than dashed %d", dotted, dashed)
	}
}

func TestStrokeWithoutLines(t *testing.T) {
	b := New(geom.Size{W: 20, H: 20})
	b.SetStrokeColor(geom.Color{R: 1})
	if err := b.Stroke(); err != nil {
		t.Fatalf("Stroke failed: %v", err)
	}
	if reddish(decode(t, b).At(10, 10)) {
		t.Error("empty stroke drew ink")
	}
}

func writeTestPNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0x80, 0x80, 0x80, 0xFF
	}
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create image failed: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode image failed: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close image failed: %v", err)
	}
	return path
}

func TestImagePlacement(t *testing.T) {
	b := New(geom.Size{W: 100, H: 100})
	err := b.AddImage(canvas.ImageSource{Path: writeTestPNG(t)}, geom.Point{X: 10, Y: 10}, geom.Size{W: 20, H: 20})
	if err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}
	img := decode(t, b)

	r, g, bl, _ := img.At(20, 80).RGBA()
	for _, ch := range []uint32{r, g, bl} {
		if ch < 0x6000 || ch > 0xA000 {
			t.Fatalf("image pixel = %v, want mid gray", img.At(20, 80))
		}
	}
	if r, _, _, _ := img.At(50, 50).RGBA(); r != 0xFFFF {
		t.Error("ink outside the image rectangle")
	}
}

func TestImageMissingFile(t *testing.T) {
	b := New(geom.Size{W: 100, H: 100})
	err := b.AddImage(canvas.ImageSource{Path: filepath.Join(t.TempDir(), "nope.png")},
		geom.Point{}, geom.Size{W: 10, H: 10})
	if err == nil {
		t.Fatal("AddImage should fail for a missing file")
	}
}

func TestWriteTo(t *testing.T) {
	b := New(geom.Size{W: 40, H: 40})
	path := filepath.Join(t.TempDir(), "out.png")
	if err := b.WriteTo(path); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output failed: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("written file is not a PNG: %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 40 {
		t.Errorf("written size = %dx%d, want 40x40", cfg.Width, cfg.Height)
	}
}
