package layout

import (
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/image/font"

	"slidefit/block"
)

// Box is vertical box of a single rendered line of a block (or of a whole
// table block). Adjacent margins collapse, the larger one wins.
type Box struct {
	Kind   block.Kind
	Style  TextStyle
	Top    float64
	Height float64
	Bottom float64
	// Lines are wrapped text lines, empty for spacers and tables.
	Lines []Line
	// Bar is true for major headings which have accent bar under the title.
	Bar bool
}

// Workspace is measurement context of a single pagination run. Font faces
// and advance caches it holds are not safe for concurrent use, workspace
// must be closed when run ends.
type Workspace struct {
	fonts  *Fonts
	style  Style
	faces  map[faceKey]*face
	calls  int
	closed bool
}

// Open creates new measurement workspace with requested style.
func (f *Fonts) Open(style Style) *Workspace {
	return &Workspace{
		fonts: f,
		style: style,
		faces: make(map[faceKey]*face),
	}
}

// Style returns layout style workspace was opened with.
func (w *Workspace) Style() Style {
	return w.style
}

// Calls returns number of Measure calls made so far.
func (w *Workspace) Calls() int {
	return w.calls
}

// Close releases font faces and caches.
func (w *Workspace) Close() error {
	if w == nil || w.closed {
		return nil
	}
	var err error
	for k, f := range w.faces {
		err = multierr.Append(err, f.Close())
		delete(w.faces, k)
	}
	w.closed = true
	return err
}

func (w *Workspace) face(size float64, bold bool) *face {
	if w.closed {
		panic("measurement workspace is used after Close")
	}
	key := faceKey{size: size, bold: bold}
	if f, ok := w.faces[key]; ok {
		return f
	}
	ttf := w.fonts.Regular
	if bold {
		ttf = w.fonts.Bold
	}
	f := newFace(ttf, size, w.style.LetterSpacing)
	w.faces[key] = f
	return f
}

// FontFace returns face used for measuring text of given size and weight, so
// renderers could draw exactly what was measured. Face is owned by workspace.
func (w *Workspace) FontFace(size float64, bold bool) font.Face {
	return w.face(size, bold).Face
}

// Measure implements Oracle.
func (w *Workspace) Measure(blocks []block.Block) float64 {
	w.calls++
	return Stack(w.Boxes(blocks))
}

// Boxes lays out block sequence. Every block gets gap below it except the
// last one, the gap merges with bottom margin of block's last line.
func (w *Workspace) Boxes(blocks []block.Block) []Box {
	var boxes []Box
	for i, b := range blocks {
		bx := w.blockBoxes(b)
		if len(bx) == 0 {
			bx = []Box{{Kind: block.KindBlankSpacer}}
		}
		if i < len(blocks)-1 {
			last := &bx[len(bx)-1]
			last.Bottom = max(last.Bottom, w.style.BlockGap)
		}
		boxes = append(boxes, bx...)
	}
	return boxes
}

// Stack returns height of vertically stacked boxes. Measuring container
// establishes its own formatting context so outer margins of the first and
// the last box are part of the height.
func Stack(boxes []Box) float64 {
	if len(boxes) == 0 {
		return 0
	}
	h := boxes[0].Top
	for i, b := range boxes {
		h += b.Height
		if i+1 < len(boxes) {
			h += max(b.Bottom, boxes[i+1].Top)
		} else {
			h += b.Bottom
		}
	}
	return h
}

func (w *Workspace) blockBoxes(b block.Block) []Box {
	st := w.style
	if block.IsTable(b.Trimmed()) {
		return []Box{{
			Kind:   block.KindTable,
			Top:    st.TableMarginTop,
			Height: st.TableHeight,
			Bottom: st.TableMarginBottom,
		}}
	}

	var boxes []Box
	for _, line := range b.Lines() {
		trimmed := strings.TrimSpace(line)
		switch kind := block.Classify(trimmed); kind {
		case block.KindBlankSpacer:
			boxes = append(boxes, Box{Kind: kind, Height: st.SpacerHeight})
		case block.KindHeadingMajor:
			boxes = append(boxes, w.textBox(kind, block.HeadingTitle(trimmed), st.HeadingMajor, false))
			last := &boxes[len(boxes)-1]
			last.Height += st.BarGap + st.BarHeight
			last.Bar = true
		case block.KindHeadingMinor:
			boxes = append(boxes, w.textBox(kind, block.HeadingTitle(trimmed), st.HeadingMinor, false))
		case block.KindNumberedParagraph:
			boxes = append(boxes, w.textBox(kind, trimmed, st.Numbered, false))
		default:
			// table lines inside non-table block are rendered as prose
			boxes = append(boxes, w.textBox(block.KindPlainParagraph, trimmed, st.Paragraph, true))
		}
	}
	return boxes
}

func (w *Workspace) textBox(kind block.Kind, text string, ts TextStyle, chips bool) Box {
	lines := w.wrap(w.pieces(text, ts, chips), ts)
	return Box{
		Kind:   kind,
		Style:  ts,
		Top:    ts.MarginTop,
		Height: float64(len(lines)) * ts.LinePitch(),
		Bottom: ts.MarginBottom,
		Lines:  lines,
	}
}
