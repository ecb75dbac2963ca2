package layout

import (
	"strings"

	"github.com/pagebox/pagebox/box"
)

// WrapLines splits text into drawable lines: hard newlines always
// break, and words wrap greedily once the measured line exceeds the
// available width. A single word wider than the width gets a line of
// its own rather than being split mid-word.
func WrapLines(m Measurer, text string, width float64, font box.Font) []string {
	var lines []string
	for _, hard := range strings.Split(text, "\n") {
		words := strings.Fields(hard)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, word := range words[1:] {
			candidate := cur + " " + word
			if m.TextWidth(candidate, font) > width {
				lines = append(lines, cur)
				cur = word
				continue
			}
			cur = candidate
		}
		lines = append(lines, cur)
	}
	return lines
}
