package processor

import (
	"image"
	"math"

	"github.com/phambaophuc/image-publisher/internal/models"
)

// OverlayWidth is the overlay width for a base of baseWidth at the given scale.
func OverlayWidth(baseWidth int, scale float64) int {
	w := int(math.Round(float64(baseWidth) * scale))
	if w < 1 {
		w = 1
	}
	return w
}

// AnchorPoint returns the top-left position of an overlay of size overlay on
// a canvas of size base.
func AnchorPoint(anchor models.Anchor, base, overlay image.Point) image.Point {
	switch anchor.Mode {
	case models.AnchorCenter:
		return image.Pt(floorHalf(base.X-overlay.X), floorHalf(base.Y-overlay.Y))
	default:
		return image.Pt(anchor.OffsetX, anchor.OffsetY)
	}
}

func floorHalf(n int) int {
	return int(math.Floor(float64(n) / 2))
}

// blendOverlay alpha-composites overlay onto dst with its top-left at `at`.
// Only pixels inside the overlay's bounding box, clipped to dst, are written.
func blendOverlay(dst, overlay *image.NRGBA, at image.Point, opacity float64) {
	ob := overlay.Bounds()
	area := clipToCanvas(dst.Bounds(), ob.Size(), at)
	if area.Empty() || opacity <= 0 {
		return
	}

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			o := overlay.PixOffset(ob.Min.X+x-at.X, ob.Min.Y+y-at.Y)
			k := opacity * float64(overlay.Pix[o+3]) / 255
			if k == 0 {
				continue
			}

			d := dst.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				dst.Pix[d+c] = mix(dst.Pix[d+c], overlay.Pix[o+c], k)
			}
			baseA := float64(dst.Pix[d+3])
			dst.Pix[d+3] = clamp8(baseA + (255-baseA)*k)
		}
	}
}

func mix(base, over uint8, k float64) uint8 {
	return clamp8(float64(base)*(1-k) + float64(over)*k)
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// DrawInstruction builds the remote directive for an overlay served from
// sourceURL on a base of baseWidth.
func DrawInstruction(sourceURL string, baseWidth int, d models.CompositingDirective) *models.DrawInstruction {
	width := d.Width
	if width <= 0 {
		width = OverlayWidth(baseWidth, d.Scale)
	}

	x := models.Coordinate{Value: d.Anchor.OffsetX}
	y := models.Coordinate{Value: d.Anchor.OffsetY}
	if d.Anchor.Mode == models.AnchorCenter {
		x = models.Coordinate{Value: 50, Percent: true}
		y = models.Coordinate{Value: 50, Percent: true}
	}

	return &models.DrawInstruction{
		URL:     sourceURL,
		Opacity: d.Opacity,
		Width:   width,
		X:       x,
		Y:       y,
	}
}
