// Package preview draws paginated slides the way they were measured, so page
// breaks could be checked by eye.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"slidefit/block"
	"slidefit/layout"
	"slidefit/pager"
)

const (
	padding  = 24
	barWidth = 40
)

// Renderer draws pages with faces of the workspace pages were measured with.
type Renderer struct {
	ws     *layout.Workspace
	budget layout.Budget
	bar    image.Image
}

func NewRenderer(ws *layout.Workspace, budget layout.Budget) (*Renderer, error) {
	bar, err := rasterizeSVG(accentSVG, barWidth, int(ws.Style().BarHeight))
	if err != nil {
		return nil, fmt.Errorf("unable to rasterize accent bar: %w", err)
	}
	return &Renderer{ws: ws, budget: budget, bar: bar}, nil
}

// Page renders single page. Dashed line marks usable height, solid one the
// content area bottom.
func (r *Renderer) Page(p pager.Page) image.Image {
	st := r.ws.Style()
	width := int(st.Width) + 2*padding
	height := int(max(r.budget.MaxContentHeight, p.Height)) + 2*padding

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	boxes := r.ws.Boxes(p.Blocks)
	y := float64(padding)
	if len(boxes) > 0 {
		y += boxes[0].Top
	}
	for i, b := range boxes {
		r.drawBox(dc, b, padding, y)
		y += b.Height
		if i+1 < len(boxes) {
			y += max(b.Bottom, boxes[i+1].Top)
		}
	}

	dc.SetLineWidth(1)
	dc.SetRGB(0.86, 0.15, 0.15)
	dc.SetDash(4, 4)
	usable := padding + r.budget.Usable()
	dc.DrawLine(0, usable, float64(width), usable)
	dc.Stroke()
	dc.SetDash()
	dc.SetRGB(0.6, 0.6, 0.6)
	bottom := padding + r.budget.MaxContentHeight
	dc.DrawLine(0, bottom, float64(width), bottom)
	dc.Stroke()

	if p.Oversize {
		dc.SetLineWidth(4)
		dc.SetRGB(0.86, 0.15, 0.15)
		dc.DrawRectangle(2, 2, float64(width-4), float64(height-4))
		dc.Stroke()
	}
	return dc.Image()
}

func (r *Renderer) drawBox(dc *gg.Context, b layout.Box, x, y float64) {
	st := r.ws.Style()
	switch b.Kind {
	case block.KindBlankSpacer:
		return
	case block.KindTable:
		dc.SetRGB(0.4, 0.4, 0.4)
		dc.DrawRectangle(x, y, st.Width, max(b.Height, 1))
		dc.Fill()
		return
	}

	pitch := b.Style.LinePitch()
	for i, line := range b.Lines {
		top := y + float64(i)*pitch
		px := x
		for _, p := range line {
			face := r.ws.FontFace(b.Style.FontSize, b.Style.Bold || p.Bold)
			baseline := top + baselineOffset(face, pitch)
			tx := px
			if p.Chip {
				dc.SetRGB(0.93, 0.95, 1)
				dc.DrawRoundedRectangle(px+2, top+2, p.Width-4, pitch-4, 4)
				dc.Fill()
				tx += st.ChipExtra / 2
			}
			dc.SetFontFace(face)
			dc.SetRGB(0.07, 0.09, 0.15)
			if b.Kind == block.KindHeadingMajor || b.Kind == block.KindHeadingMinor {
				dc.SetRGB(0.12, 0.23, 0.54)
			}
			dc.DrawString(p.Text, tx, baseline)
			px += p.Width
		}
	}
	if b.Bar {
		barTop := y + float64(len(b.Lines))*pitch + st.BarGap
		dc.DrawImage(r.bar, int(x), int(barTop))
	}
}

// baselineOffset centers glyph box inside line box.
func baselineOffset(face font.Face, pitch float64) float64 {
	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	return (pitch-(ascent+descent))/2 + ascent
}

// ContactSheet places page thumbnails of the given width into a grid.
func ContactSheet(pages []image.Image, columns, thumbWidth int) image.Image {
	if len(pages) == 0 || columns <= 0 || thumbWidth <= 0 {
		return imaging.New(1, 1, color.White)
	}
	columns = min(columns, len(pages))

	thumbs := make([]*image.NRGBA, len(pages))
	cellH := 0
	for i, p := range pages {
		thumbs[i] = imaging.Resize(p, thumbWidth, 0, imaging.Lanczos)
		cellH = max(cellH, thumbs[i].Bounds().Dy())
	}

	const gap = 8
	rows := (len(pages) + columns - 1) / columns
	sheet := imaging.New(columns*(thumbWidth+gap)+gap, rows*(cellH+gap)+gap, color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff})
	for i, t := range thumbs {
		col, row := i%columns, i/columns
		sheet = imaging.Paste(sheet, t, image.Pt(gap+col*(thumbWidth+gap), gap+row*(cellH+gap)))
	}
	return sheet
}

// EncodePNG returns PNG representation of the image.
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
