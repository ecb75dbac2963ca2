package pagebox

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/canvas"
	"github.com/pagebox/pagebox/geom"
	"github.com/pagebox/pagebox/layout"
	"github.com/pagebox/pagebox/markup"
	"github.com/pagebox/pagebox/observability"
)

const sample = `<document width="200pt" height="100pt">
  <row height="20pt"><col>Hello</col></row>
</document>`

func TestRenderBytesPDF(t *testing.T) {
	data, err := RenderBytes([]byte(sample))
	if err != nil {
		t.Fatalf("RenderBytes failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.7\n")) {
		t.Error("output is not a PDF")
	}
	if !bytes.HasSuffix(data, []byte("%%EOF\n")) {
		t.Error("PDF is not terminated")
	}
	if !bytes.Contains(data, []byte("(Hello) Tj")) {
		t.Error("text content missing from output")
	}
}

func TestRenderBytesPNG(t *testing.T) {
	data, err := RenderBytes([]byte(sample), WithFormat(FormatPNG))
	if err != nil {
		t.Fatalf("RenderBytes failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("image = %dx%d, want 200x100", cfg.Width, cfg.Height)
	}
}

func TestRenderCompression(t *testing.T) {
	plain, err := RenderBytes([]byte(sample))
	if err != nil {
		t.Fatalf("RenderBytes failed: %v", err)
	}
	packed, err := RenderBytes([]byte(sample), WithCompression(true))
	if err != nil {
		t.Fatalf("RenderBytes failed: %v", err)
	}
	if bytes.Contains(plain, []byte("/Filter /FlateDecode")) {
		t.Error("uncompressed output declares a filter")
	}
	if !bytes.Contains(packed, []byte("/Filter /FlateDecode")) {
		t.Error("compressed output lacks FlateDecode")
	}
}

func TestRenderWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := Render([]byte(sample), path); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.7\n")) {
		t.Error("written file is not a PDF")
	}
}

func TestRenderParseFailure(t *testing.T) {
	_, err := RenderBytes([]byte(`<page/>`))
	if err == nil {
		t.Fatal("RenderBytes should fail on bad markup")
	}
	var perr *markup.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("error %T is not a ParseError", err)
	}
}

func TestRenderLayoutFailure(t *testing.T) {
	_, err := RenderTree(nil)
	if err == nil {
		t.Fatal("RenderTree should fail on a nil tree")
	}
	var lerr *layout.Error
	if !errors.As(err, &lerr) {
		t.Errorf("error %T is not a layout error", err)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := RenderBytes([]byte(sample), WithFormat("svg"))
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("err = %v, want unknown format", err)
	}
}

func TestRenderTreeWithRecorder(t *testing.T) {
	doc := &box.Document{
		Width:  geom.Points(200),
		Height: geom.Points(100),
		Font:   box.Font{Family: box.DefaultFamily, Size: box.DefaultFontSize},
		Children: []*box.Row{
			box.NewRow(box.NewCol(&box.Text{Content: "recorded"})),
		},
	}

	var rec *canvas.Recorder
	_, err := RenderTree(doc, WithBackend(func(size geom.Size) canvas.Canvas {
		rec = canvas.NewRecorder(size.W, size.H)
		return rec
	}))
	if err != nil {
		t.Fatalf("RenderTree failed: %v", err)
	}

	if rec == nil {
		t.Fatal("backend factory never ran")
	}
	texts := rec.TextOps()
	if len(texts) != 1 || texts[0].Text != "recorded" {
		t.Fatalf("text ops = %+v, want one op", texts)
	}
	if !rec.CleanedUp {
		t.Error("canvas was not cleaned up")
	}
}

type capturedLog struct {
	msg    string
	fields map[string]interface{}
}

type captureLogger struct {
	logs *[]capturedLog
}

func (l captureLogger) log(msg string, fields []observability.Field) {
	entry := capturedLog{msg: msg, fields: map[string]interface{}{}}
	for _, f := range fields {
		entry.fields[f.Key()] = f.Value()
	}
	*l.logs = append(*l.logs, entry)
}

func (l captureLogger) Debug(msg string, fields ...observability.Field) { l.log(msg, fields) }
func (l captureLogger) Info(msg string, fields ...observability.Field)  { l.log(msg, fields) }
func (l captureLogger) Warn(msg string, fields ...observability.Field)  { l.log(msg, fields) }
func (l captureLogger) Error(msg string, fields ...observability.Field) { l.log(msg, fields) }
func (l captureLogger) With(...observability.Field) observability.Logger {
	return l
}

func TestRenderLogsStages(t *testing.T) {
	var logs []capturedLog
	_, err := RenderBytes([]byte(sample), WithLogger(captureLogger{logs: &logs}))
	if err != nil {
		t.Fatalf("RenderBytes failed: %v", err)
	}

	byMsg := map[string]capturedLog{}
	for _, entry := range logs {
		byMsg[entry.msg] = entry
	}
	for _, want := range []string{"markup parsed", "layout resolved", "document rendered", "document exported"} {
		if _, ok := byMsg[want]; !ok {
			t.Errorf("missing stage log %q", want)
		}
	}

	if got := byMsg["markup parsed"].fields[observability.MetricNodeCount]; got != 4 {
		t.Errorf("node count = %v, want 4", got)
	}
	if got, ok := byMsg["document exported"].fields[observability.MetricExportBytes].(int); !ok || got <= 0 {
		t.Errorf("export bytes = %v, want positive", got)
	}
}

func TestRenderAppliesMeasurerAndSizer(t *testing.T) {
	src := []byte(`<document width="100pt" height="100pt">
  <row><col><img src="missing.png"/></col></row>
</document>`)

	var rec *canvas.Recorder
	_, err := RenderTree(mustParse(t, src),
		WithImageSizer(layout.FileSizer{}),
		WithMeasurer(layout.Heuristic{WrapFactor: 0.5, WidthFactor: 0.6, LineRatio: 1.2}),
		WithBackend(func(size geom.Size) canvas.Canvas {
			rec = canvas.NewRecorder(size.W, size.H)
			return rec
		}))
	if err != nil {
		t.Fatalf("RenderTree failed: %v", err)
	}
	// The sizer cannot read the missing file, so both fit axes resolve
	// to zero and the renderer skips the degenerate image.
	if got := len(rec.ImageOps()); got != 0 {
		t.Errorf("image ops = %d, want 0", got)
	}
}

func mustParse(t *testing.T, src []byte) *box.Document {
	t.Helper()
	doc, err := markup.Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}
