package fonts

import (
	"strings"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/layout"
)

// FaceMeasurer measures text with real glyph metrics from registered
// faces. Families without a registered face fall back to the plain
// heuristic, so a document mixing embedded and base fonts still
// resolves.
type FaceMeasurer struct {
	reg      *Registry
	fallback layout.Measurer
}

// NewMeasurer returns a measurer backed by the registry.
func NewMeasurer(reg *Registry) *FaceMeasurer {
	return &FaceMeasurer{reg: reg, fallback: layout.DefaultHeuristic()}
}

func (m *FaceMeasurer) TextWidth(text string, font box.Font) float64 {
	face := m.reg.Face(font.Family, font.Bold)
	if face == nil {
		return m.fallback.TextWidth(text, font)
	}
	widest := 0.0
	for _, line := range strings.Split(text, "\n") {
		if w := face.TextAdvance(line) / 1000 * font.Size; w > widest {
			widest = w
		}
	}
	return widest
}

// TextHeight wraps with the same greedy word packing the backends
// draw with, so reserved height and drawn lines agree even when words
// pack imperfectly.
func (m *FaceMeasurer) TextHeight(text string, width float64, font box.Font) float64 {
	if m.reg.Face(font.Family, font.Bold) == nil {
		return m.fallback.TextHeight(text, width, font)
	}
	lines := layout.WrapLines(m, text, width, font)
	return float64(len(lines)) * m.LineHeight(font)
}

func (m *FaceMeasurer) LineHeight(font box.Font) float64 {
	face := m.reg.Face(font.Family, font.Bold)
	if face == nil {
		return m.fallback.LineHeight(font)
	}
	if face.Height > 0 {
		return face.Height / 1000 * font.Size
	}
	return (face.Ascent + face.Descent) / 1000 * font.Size
}
