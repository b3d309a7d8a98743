package processor

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
)

// fitBase renders img into the catalog size according to its fit policy.
func fitBase(img image.Image, size config.Size) *image.NRGBA {
	switch size.Fit {
	case config.FitCover, config.FitCrop:
		return imaging.Fill(img, size.Width, size.Height, imaging.Center, imaging.Lanczos)
	case config.FitContain:
		w, h := containSize(img.Bounds().Size(), size)
		return imaging.Resize(img, w, h, imaging.Lanczos)
	case config.FitScaleDown:
		return imaging.Fit(img, size.Width, size.Height, imaging.Lanczos)
	case config.FitPad:
		w, h := containSize(img.Bounds().Size(), size)
		canvas := imaging.New(size.Width, size.Height, color.White)
		return imaging.PasteCenter(canvas, imaging.Resize(img, w, h, imaging.Lanczos))
	default:
		return imaging.Clone(img)
	}
}

func containSize(src image.Point, size config.Size) (int, int) {
	ratio := math.Min(float64(size.Width)/float64(src.X), float64(size.Height)/float64(src.Y))
	w := int(math.Round(float64(src.X) * ratio))
	h := int(math.Round(float64(src.Y) * ratio))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// resizeOverlay scales the watermark to the directive's explicit size, or to
// scale*canvas width with its aspect ratio kept.
func resizeOverlay(img image.Image, canvas image.Point, d models.CompositingDirective) *image.NRGBA {
	width := d.Width
	if width <= 0 {
		width = OverlayWidth(canvas.X, d.Scale)
	}
	return imaging.Resize(img, width, d.Height, imaging.Lanczos)
}
