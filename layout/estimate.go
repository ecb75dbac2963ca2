package layout

import (
	"strings"
	"unicode/utf8"

	"github.com/pagebox/pagebox/box"
)

// Measurer estimates the space a text run occupies. It is an
// injectable strategy: the resolver and the renderer both consult it,
// so substituting real glyph metrics never touches the resolution
// algorithm itself.
type Measurer interface {
	// TextWidth returns the natural single-line width (the widest
	// hard line, unwrapped).
	TextWidth(text string, font box.Font) float64
	// TextHeight returns the height of the text wrapped into the
	// given width.
	TextHeight(text string, width float64, font box.Font) float64
	// LineHeight returns the height of one line.
	LineHeight(font box.Font) float64
}

// Heuristic is the default measurement strategy: an
// average-character-width model with a fixed line-height ratio. It is
// deliberately approximate, not typography-accurate.
type Heuristic struct {
	// WrapFactor scales font size to an average character width when
	// wrapping text into an available width.
	WrapFactor float64
	// WidthFactor scales font size when estimating natural width. It
	// is wider than WrapFactor to compensate for right-aligned
	// clipping risk.
	WidthFactor float64
	// LineRatio scales font size to line height.
	LineRatio float64
}

// DefaultHeuristic returns the standard estimation constants.
func DefaultHeuristic() Heuristic {
	return Heuristic{WrapFactor: 0.5, WidthFactor: 0.6, LineRatio: 1.2}
}

func (h Heuristic) TextWidth(text string, font box.Font) float64 {
	widest := 0
	for _, line := range strings.Split(text, "\n") {
		if n := utf8.RuneCountInString(line); n > widest {
			widest = n
		}
	}
	return float64(widest) * font.Size * h.WidthFactor
}

func (h Heuristic) TextHeight(text string, width float64, font box.Font) float64 {
	return float64(h.lineCount(text, width, font)) * font.Size * h.LineRatio
}

func (h Heuristic) LineHeight(font box.Font) float64 {
	return font.Size * h.LineRatio
}

// lineCount splits on explicit newlines first, then wraps each hard
// line into ceil(len / charsPerLine) soft lines.
func (h Heuristic) lineCount(text string, width float64, font box.Font) int {
	perLine := 1
	if avg := font.Size * h.WrapFactor; avg > 0 {
		if n := int(width / avg); n > perLine {
			perLine = n
		}
	}
	total := 0
	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		if n == 0 {
			total++
			continue
		}
		total += (n + perLine - 1) / perLine
	}
	return total
}
