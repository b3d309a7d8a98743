package processor

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
)

func (c *LocalCompositor) encodeImage(w io.Writer, img *image.NRGBA, format string, quality int) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	default:
		// JPEG has no alpha; flatten onto white rather than black.
		var src image.Image = img
		if !img.Opaque() {
			b := img.Bounds()
			src = imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)
		}
		return jpeg.Encode(w, src, &jpeg.Options{Quality: quality})
	}
}

func contentTypeFor(format string) string {
	if format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}
