package processor

import "image"

// clipToCanvas returns the part of a size-sized box placed at `at` that lies
// on canvas. The result is empty when the box misses the canvas entirely.
func clipToCanvas(canvas image.Rectangle, size image.Point, at image.Point) image.Rectangle {
	box := image.Rectangle{Min: at, Max: at.Add(size)}
	return box.Intersect(canvas)
}
