package box

// Default font context applied when a document declares none.
const (
	DefaultFamily   = "Helvetica"
	DefaultFontSize = 12.0
)

// Font weight keywords accepted by overrides.
const (
	WeightNormal = "normal"
	WeightBold   = "bold"
)

// Font is the effective font context cascading down the tree.
type Font struct {
	Family string
	Size   float64
	Bold   bool
}

// FontOverride is a node's partial font declaration. Zero-valued
// fields inherit from the parent context.
type FontOverride struct {
	Family string  // "" inherits
	Size   float64 // 0 inherits
	Weight string  // "" inherits, otherwise "normal" or "bold"
}

// Apply merges the override onto the inherited context, replacing
// only the fields the override declares.
func (o FontOverride) Apply(parent Font) Font {
	out := parent
	if o.Family != "" {
		out.Family = o.Family
	}
	if o.Size > 0 {
		out.Size = o.Size
	}
	switch o.Weight {
	case WeightNormal:
		out.Bold = false
	case WeightBold:
		out.Bold = true
	}
	return out
}

// IsZero reports whether the override declares nothing.
func (o FontOverride) IsZero() bool {
	return o.Family == "" && o.Size == 0 && o.Weight == ""
}
