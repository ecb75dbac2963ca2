package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDimension parses a dimension attribute value: "<n>pt", "<n>px"
// (converted at 0.75 pt/px), "<n>%", "fill", or "fit".
func ParseDimension(s string) (Dimension, error) {
	v := strings.TrimSpace(s)
	switch v {
	case "":
		return Dimension{}, fmt.Errorf("empty dimension")
	case "fill":
		return Fill(), nil
	case "fit":
		return Fit(), nil
	}
	switch {
	case strings.HasSuffix(v, "pt"):
		n, err := parseNonNegative(strings.TrimSuffix(v, "pt"))
		if err != nil {
			return Dimension{}, fmt.Errorf("invalid dimension %q", s)
		}
		return Points(n), nil
	case strings.HasSuffix(v, "px"):
		n, err := parseNonNegative(strings.TrimSuffix(v, "px"))
		if err != nil {
			return Dimension{}, fmt.Errorf("invalid dimension %q", s)
		}
		return Pixels(n), nil
	case strings.HasSuffix(v, "%"):
		n, err := parseNonNegative(strings.TrimSuffix(v, "%"))
		if err != nil {
			return Dimension{}, fmt.Errorf("invalid dimension %q", s)
		}
		return Percent(n), nil
	}
	return Dimension{}, fmt.Errorf("invalid dimension %q", s)
}

// ParseSpacingToken parses a single spacing token: "<n>pt", "<n>px",
// or a bare "0".
func ParseSpacingToken(s string) (float64, error) {
	v := strings.TrimSpace(s)
	if v == "0" {
		return 0, nil
	}
	switch {
	case strings.HasSuffix(v, "pt"):
		return parseNonNegativeToken(strings.TrimSuffix(v, "pt"), s)
	case strings.HasSuffix(v, "px"):
		n, err := parseNonNegativeToken(strings.TrimSuffix(v, "px"), s)
		if err != nil {
			return 0, err
		}
		return n * PointsPerPixel, nil
	}
	return 0, fmt.Errorf("invalid spacing token %q", s)
}

// ParseSpacing parses the 1/2/4-value spacing shorthand. One value
// applies to all sides, two to (top/bottom, left/right), four to
// (top, right, bottom, left).
func ParseSpacing(s string) (Spacing, error) {
	fields := strings.Fields(s)
	vals := make([]float64, len(fields))
	for i, f := range fields {
		n, err := ParseSpacingToken(f)
		if err != nil {
			return Spacing{}, err
		}
		vals[i] = n
	}
	switch len(vals) {
	case 1:
		return Uniform(vals[0]), nil
	case 2:
		return Symmetric(vals[0], vals[1]), nil
	case 4:
		return Spacing{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
	return Spacing{}, fmt.Errorf("spacing needs 1, 2 or 4 values, got %d", len(vals))
}

// ParseBorder parses "none" or "<style> <width> <color>" with style
// one of solid, dashed, dotted.
func ParseBorder(s string) (Border, error) {
	v := strings.TrimSpace(s)
	if v == "none" {
		return Border{}, nil
	}
	fields := strings.Fields(v)
	if len(fields) != 3 {
		return Border{}, fmt.Errorf("invalid border %q", s)
	}
	style := BorderStyle(fields[0])
	switch style {
	case BorderSolid, BorderDashed, BorderDotted:
	default:
		return Border{}, fmt.Errorf("invalid border style %q", fields[0])
	}
	width, err := ParseSpacingToken(fields[1])
	if err != nil {
		return Border{}, fmt.Errorf("invalid border width %q", fields[1])
	}
	color, err := ParseColor(fields[2])
	if err != nil {
		return Border{}, err
	}
	return Border{Style: style, Width: width, Color: color}, nil
}

// ParseColor parses "#rrggbb" or "#rgb" hex colors.
func ParseColor(s string) (Color, error) {
	v := strings.TrimSpace(s)
	if !strings.HasPrefix(v, "#") {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	hex := v[1:]
	switch len(hex) {
	case 3:
		r, err1 := nibble(hex[0])
		g, err2 := nibble(hex[1])
		b, err3 := nibble(hex[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		// #abc expands to #aabbcc
		return Color{R: float64(r*17) / 255, G: float64(g*17) / 255, B: float64(b*17) / 255}, nil
	case 6:
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q", s)
		}
		return Color{
			R: float64(n>>16&0xff) / 255,
			G: float64(n>>8&0xff) / 255,
			B: float64(n&0xff) / 255,
		}, nil
	}
	return Color{}, fmt.Errorf("invalid color %q", s)
}

// ParseFontSize accepts "<n>pt", "<n>px", or a bare number meaning
// points. The size must be positive.
func ParseFontSize(s string) (float64, error) {
	v := strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("font size must be positive, got %q", s)
		}
		return n, nil
	}
	d, err := ParseDimension(v)
	if err != nil || d.Unit != UnitPoint {
		return 0, fmt.Errorf("invalid font size %q", s)
	}
	if d.Value <= 0 {
		return 0, fmt.Errorf("font size must be positive, got %q", s)
	}
	return d.Value, nil
}

// nibble parses a single hex digit.
func nibble(c byte) (uint8, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, fmt.Errorf("invalid hex digit %q", c)
}

func parseNonNegative(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("not a non-negative number: %q", s)
	}
	return n, nil
}

func parseNonNegativeToken(numPart, orig string) (float64, error) {
	n, err := parseNonNegative(numPart)
	if err != nil {
		return 0, fmt.Errorf("invalid spacing token %q", orig)
	}
	return n, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
