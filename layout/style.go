package layout

// TextStyle describes typography of a single kind of line.
type TextStyle struct {
	FontSize     float64
	LineHeight   float64 // multiplier of FontSize
	Bold         bool
	MarginTop    float64
	MarginBottom float64
}

// LinePitch is height of a single wrapped line.
func (s TextStyle) LinePitch() float64 {
	return s.FontSize * s.LineHeight
}

// Style holds every number layout needs. Values reproduce the slide
// template the content is rendered with.
type Style struct {
	// Width of the content area.
	Width float64
	// BlockGap separates blocks, last block on a page has none.
	BlockGap float64
	// SpacerHeight is height of an empty line inside a block.
	SpacerHeight float64
	// LetterSpacing in em.
	LetterSpacing float64

	HeadingMajor TextStyle
	// Accent bar under major heading.
	BarGap    float64
	BarHeight float64

	HeadingMinor TextStyle
	Paragraph    TextStyle
	Numbered     TextStyle

	// ChipExtra is horizontal padding and margin around highlighted
	// (**bold**) fragment in plain paragraphs.
	ChipExtra float64

	// Tables are measured by their wrapper footprint only.
	TableMarginTop    float64
	TableMarginBottom float64
	TableHeight       float64
}

func DefaultStyle() Style {
	return Style{
		Width:         354,
		BlockGap:      16,
		SpacerHeight:  16,
		LetterSpacing: 0.01,
		HeadingMajor: TextStyle{
			FontSize: 24, LineHeight: 1.25, Bold: true,
			MarginTop: 16, MarginBottom: 12,
		},
		BarGap:    8,
		BarHeight: 6,
		HeadingMinor: TextStyle{
			FontSize: 18, LineHeight: 1.35, Bold: true,
			MarginTop: 16, MarginBottom: 8,
		},
		Paragraph: TextStyle{
			FontSize: 15, LineHeight: 1.5, MarginBottom: 4,
		},
		Numbered: TextStyle{
			FontSize: 15, LineHeight: 1.6, MarginBottom: 4,
		},
		ChipExtra:         12,
		TableMarginTop:    24,
		TableMarginBottom: 24,
		TableHeight:       2,
	}
}
