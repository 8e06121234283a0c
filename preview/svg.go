package preview

import (
	"bytes"
	"image"
	"image/draw"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// accentSVG is the bar slide template puts under major headings.
var accentSVG = []byte(`<svg viewBox="0 0 40 6" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <linearGradient id="accent" x1="0" y1="0" x2="1" y2="0">
      <stop offset="0" stop-color="#2563eb"/>
      <stop offset="1" stop-color="#7c3aed"/>
    </linearGradient>
  </defs>
  <rect x="0" y="0" width="40" height="6" rx="3" ry="3" fill="url(#accent)"/>
</svg>`)

// maxRasterDim limits rasterized size regardless of what SVG asks for.
const maxRasterDim = 4096

// rasterizeSVG renders SVG on transparent background. When only one of the
// target dimensions is positive the other one keeps aspect ratio, with both
// zero intrinsic viewBox size is used.
func rasterizeSVG(data []byte, targetW, targetH int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	intrW := max(int(math.Ceil(icon.ViewBox.W)), 1)
	intrH := max(int(math.Ceil(icon.ViewBox.H)), 1)

	w, h := intrW, intrH
	switch {
	case targetW > 0 && targetH > 0:
		w, h = targetW, targetH
	case targetW > 0:
		w = targetW
		h = int(math.Round(float64(w) * float64(intrH) / float64(intrW)))
	case targetH > 0:
		h = targetH
		w = int(math.Round(float64(h) * float64(intrW) / float64(intrH)))
	}
	w = min(max(w, 1), maxRasterDim)
	h = min(max(h, 1), maxRasterDim)

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return dst, nil
}
