package layout

import (
	"math"

	"github.com/pagebox/pagebox/box"
	"github.com/pagebox/pagebox/geom"
)

// rowStack resolves a vertical stack of rows inside a parent content
// box. Widths settle first (they never depend on heights), fixed,
// percent and fit heights next, and fill heights share whatever
// remains, each fill row clamped individually and never redistributed.
func (r *resolver) rowStack(rows []*box.Row, parentW, parentH float64, font box.Font) []*box.Row {
	type work struct {
		row    *box.Row
		width  float64
		colWs  []float64
		height float64
		fill   bool
	}
	items := make([]work, len(rows))

	used := 0.0
	fills := 0
	for i, row := range rows {
		w := r.rowWidth(row, parentW, font)
		innerW := math.Max(0, w-row.Padding.Horizontal())
		colWs := r.colWidths(row.Children, innerW, font)
		items[i] = work{row: row, width: w, colWs: colWs}

		if effective(row.Height, geom.Fit()).Unit == geom.UnitFill {
			items[i].fill = true
			fills++
			continue
		}
		h := clamp(r.rowNaturalHeight(row, colWs, parentH, font), row.MinHeight, row.MaxHeight, parentH)
		items[i].height = h
		used += h
	}

	if fills > 0 {
		share := math.Max(0, (parentH-used)/float64(fills))
		for i := range items {
			if items[i].fill {
				items[i].height = clamp(share, items[i].row.MinHeight, items[i].row.MaxHeight, parentH)
			}
		}
	}

	out := make([]*box.Row, len(items))
	for i, it := range items {
		out[i] = r.finishRow(it.row, it.width, it.height, it.colWs, font)
	}
	return out
}

// rowWidth resolves a row's width against the parent width and clamps
// it to [0, parentW]. Rows carry no min/max width fields.
func (r *resolver) rowWidth(row *box.Row, parentW float64, font box.Font) float64 {
	var w float64
	switch d := effective(row.Width, geom.Fill()); d.Unit {
	case geom.UnitPoint:
		w = d.Value
	case geom.UnitPercent:
		w = parentW * d.Value / 100
	case geom.UnitFill:
		w = parentW
	case geom.UnitFit:
		w = r.rowNaturalWidth(row, font)
	}
	return math.Min(math.Max(0, w), parentW)
}

// rowNaturalHeight computes a non-fill row's unclamped height. Fit is
// the tallest column at its provisional width, plus the row's own
// padding.
func (r *resolver) rowNaturalHeight(row *box.Row, colWs []float64, parentH float64, font box.Font) float64 {
	switch d := effective(row.Height, geom.Fit()); d.Unit {
	case geom.UnitPoint:
		return d.Value
	case geom.UnitPercent:
		return parentH * d.Value / 100
	case geom.UnitFill:
		// Fill only reaches here during shrink-wrap estimation, where
		// there is no remaining space to consume.
		return 0
	}
	tallest := 0.0
	for i, col := range row.Children {
		if h := r.colHeightForFit(col, colWs[i], col.Font.Apply(font)); h > tallest {
			tallest = h
		}
	}
	if len(row.Children) == 0 && row.Padding.Vertical() == 0 {
		return 0
	}
	return row.Padding.Vertical() + tallest
}

// colHeightForFit is a column's height contribution to a fit row.
// Fill falls back to the content estimate: inside a shrink-wrapped
// parent there is no remaining space for it to consume. Percent has
// no base yet and contributes nothing.
func (r *resolver) colHeightForFit(col *box.Col, colW float64, font box.Font) float64 {
	switch d := effective(col.Height, geom.Fill()); d.Unit {
	case geom.UnitPoint:
		return d.Value
	case geom.UnitPercent:
		return 0
	}
	innerW := math.Max(0, colW-col.Padding.Horizontal())
	return col.Padding.Vertical() + r.colContentHeight(col, innerW, font)
}

// colWidths resolves the horizontal axis of one column row: fixed,
// percent and fit columns first (each clamped min-then-max against
// the row's inner width), then fill columns share the remainder with
// individual clamping.
func (r *resolver) colWidths(cols []*box.Col, innerW float64, font box.Font) []float64 {
	ws := make([]float64, len(cols))
	used := 0.0
	var fillIdx []int
	for i, col := range cols {
		switch d := effective(col.Width, geom.Fill()); d.Unit {
		case geom.UnitPoint:
			ws[i] = clamp(d.Value, col.MinWidth, col.MaxWidth, innerW)
		case geom.UnitPercent:
			ws[i] = clamp(innerW*d.Value/100, col.MinWidth, col.MaxWidth, innerW)
		case geom.UnitFit:
			nat := col.Padding.Horizontal() + r.colNaturalContentWidth(col, col.Font.Apply(font))
			ws[i] = clamp(nat, col.MinWidth, col.MaxWidth, innerW)
		case geom.UnitFill:
			fillIdx = append(fillIdx, i)
			continue
		}
		used += ws[i]
	}
	if len(fillIdx) > 0 {
		share := math.Max(0, (innerW-used)/float64(len(fillIdx)))
		for _, i := range fillIdx {
			ws[i] = clamp(share, cols[i].MinWidth, cols[i].MaxWidth, innerW)
		}
	}
	return ws
}

// colNaturalContentWidth is the widest content piece of a column:
// the longest unwrapped text line, a fixed image width, or a nested
// row's summed column widths.
func (r *resolver) colNaturalContentWidth(col *box.Col, font box.Font) float64 {
	widest := 0.0
	for _, child := range col.Children {
		var w float64
		switch n := child.(type) {
		case *box.Text:
			w = r.measure.TextWidth(n.Content, font)
		case *box.Image:
			w = r.imageEstimate(n.Width, n.MinWidth, n.MaxWidth, n.Src, false)
		case *box.Row:
			w = r.rowNaturalWidth(n, font)
		}
		if w > widest {
			widest = w
		}
	}
	return widest
}

// rowNaturalWidth is the width a row claims when shrink-wrapped: the
// sum of its columns' natural widths plus its own padding.
func (r *resolver) rowNaturalWidth(row *box.Row, font box.Font) float64 {
	sum := 0.0
	for _, col := range row.Children {
		sum += r.colNaturalWidth(col, col.Font.Apply(font))
	}
	return row.Padding.Horizontal() + sum
}

// colNaturalWidth is the width a column claims in a shrink-wrap
// context: fixed widths directly, fit from content, relative widths
// nothing.
func (r *resolver) colNaturalWidth(col *box.Col, font box.Font) float64 {
	switch d := effective(col.Width, geom.Fill()); d.Unit {
	case geom.UnitPoint:
		return clamp(d.Value, col.MinWidth, col.MaxWidth, 0)
	case geom.UnitFit:
		nat := col.Padding.Horizontal() + r.colNaturalContentWidth(col, font)
		return clamp(nat, col.MinWidth, col.MaxWidth, 0)
	}
	return 0
}

// colContentHeight estimates the stacked height of a column's
// children at the column's inner width. Children stack in document
// order, so contributions sum.
func (r *resolver) colContentHeight(col *box.Col, innerW float64, font box.Font) float64 {
	total := 0.0
	for _, child := range col.Children {
		switch n := child.(type) {
		case *box.Text:
			total += r.measure.TextHeight(n.Content, innerW, font)
		case *box.Image:
			total += r.imageEstimate(n.Height, n.MinHeight, n.MaxHeight, n.Src, true)
		case *box.Row:
			w := r.rowWidth(n, innerW, font)
			colWs := r.colWidths(n.Children, math.Max(0, w-n.Padding.Horizontal()), font)
			h := r.rowNaturalHeight(n, colWs, 0, font)
			total += clamp(h, n.MinHeight, n.MaxHeight, 0)
		}
	}
	return total
}

// imageEstimate is an image's contribution to fit estimation on one
// axis: fixed values count directly, relative values have no base in
// a shrink-wrap context, and fit counts only with an ImageSizer.
func (r *resolver) imageEstimate(d, min, max geom.Dimension, src string, vertical bool) float64 {
	switch e := effective(d, geom.Fit()); e.Unit {
	case geom.UnitPoint:
		return clamp(e.Value, min, max, 0)
	case geom.UnitFit:
		if r.sizer != nil {
			if s, ok := r.sizer.Size(src); ok {
				v := s.W
				if vertical {
					v = s.H
				}
				return clamp(v, min, max, 0)
			}
		}
	}
	return 0
}

// finishRow recurses into a row's columns inside its inner content
// box and returns the resolved node with min/max cleared.
func (r *resolver) finishRow(row *box.Row, w, h float64, colWs []float64, font box.Font) *box.Row {
	innerH := math.Max(0, h-row.Padding.Vertical())
	cols := make([]*box.Col, len(row.Children))
	for i, col := range row.Children {
		cols[i] = r.finishCol(col, colWs[i], innerH, font)
	}
	return &box.Row{
		Width:    geom.Points(w),
		Height:   geom.Points(h),
		Padding:  row.Padding,
		Borders:  row.Borders,
		VAlign:   row.VAlign,
		Children: cols,
	}
}

// finishCol resolves a column's height against the row's inner
// height, then its children: text passes through, images resolve both
// axes independently, and nested rows resolve as a row stack inside
// the column's inner box.
func (r *resolver) finishCol(col *box.Col, w, rowInnerH float64, font box.Font) *box.Col {
	cf := col.Font.Apply(font)
	innerW := math.Max(0, w-col.Padding.Horizontal())

	var h float64
	switch d := effective(col.Height, geom.Fill()); d.Unit {
	case geom.UnitPoint:
		h = d.Value
	case geom.UnitPercent:
		h = rowInnerH * d.Value / 100
	case geom.UnitFill:
		h = rowInnerH
	case geom.UnitFit:
		h = col.Padding.Vertical() + r.colContentHeight(col, innerW, cf)
	}
	h = math.Min(math.Max(0, h), rowInnerH)
	innerH := math.Max(0, h-col.Padding.Vertical())

	children := make([]box.Node, len(col.Children))
	var nested []*box.Row
	var nestedIdx []int
	for i, child := range col.Children {
		switch n := child.(type) {
		case *box.Text:
			children[i] = &box.Text{Content: n.Content}
		case *box.Image:
			children[i] = r.finishImage(n, innerW, innerH)
		case *box.Row:
			nested = append(nested, n)
			nestedIdx = append(nestedIdx, i)
		}
	}
	if len(nested) > 0 {
		resolved := r.rowStack(nested, innerW, innerH, cf)
		for j, i := range nestedIdx {
			children[i] = resolved[j]
		}
	}

	return &box.Col{
		Width:    geom.Points(w),
		Height:   geom.Points(h),
		Padding:  col.Padding,
		Borders:  col.Borders,
		Font:     col.Font,
		Align:    col.Align,
		VAlign:   col.VAlign,
		Children: children,
	}
}

// finishImage resolves both image axes independently of text. Fit
// resolves to zero unless an ImageSizer knows the intrinsic size, in
// which case a single fit axis preserves the aspect ratio. Min/max
// clamp after, min first.
func (r *resolver) finishImage(img *box.Image, availW, availH float64) *box.Image {
	wd := effective(img.Width, geom.Fit())
	hd := effective(img.Height, geom.Fit())

	w, wFit := imageAxis(wd, availW)
	h, hFit := imageAxis(hd, availH)

	if r.sizer != nil && (wFit || hFit) {
		if s, ok := r.sizer.Size(img.Src); ok && s.W > 0 && s.H > 0 {
			switch {
			case wFit && hFit:
				w, h = s.W, s.H
			case wFit:
				w = h * s.W / s.H
			case hFit:
				h = w * s.H / s.W
			}
		}
	}

	return &box.Image{
		Src:    img.Src,
		Width:  geom.Points(clamp(w, img.MinWidth, img.MaxWidth, availW)),
		Height: geom.Points(clamp(h, img.MinHeight, img.MaxHeight, availH)),
	}
}

// imageAxis resolves one image axis against the available space and
// reports whether the axis was fit.
func imageAxis(d geom.Dimension, avail float64) (float64, bool) {
	switch d.Unit {
	case geom.UnitPoint:
		return d.Value, false
	case geom.UnitPercent:
		return avail * d.Value / 100, false
	case geom.UnitFill:
		return avail, false
	}
	return 0, true
}
