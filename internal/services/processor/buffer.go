package processor

import (
	"bytes"
	"image"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
)

// PixelBuffer is a decoded or derived image owned by a single compose call.
type PixelBuffer struct {
	img   *image.NRGBA
	owner *bufferScope
}

func (b *PixelBuffer) Image() *image.NRGBA {
	return b.img
}

func (b *PixelBuffer) Size() image.Point {
	return b.img.Bounds().Size()
}

// Release drops the pixel data. Further calls are no-ops.
func (b *PixelBuffer) Release() {
	if b == nil || b.img == nil {
		return
	}
	b.img.Pix = nil
	b.img = nil
	b.owner.live.Add(-1)
}

// bufferScope tracks every buffer acquired during one compose call so that
// all of them are released on every exit path.
type bufferScope struct {
	live    *atomic.Int64
	buffers []*PixelBuffer
}

func newBufferScope(live *atomic.Int64) *bufferScope {
	return &bufferScope{live: live}
}

func (s *bufferScope) Acquire(img *image.NRGBA) *PixelBuffer {
	s.live.Add(1)
	b := &PixelBuffer{img: img, owner: s}
	s.buffers = append(s.buffers, b)
	return b
}

func (s *bufferScope) Release() {
	for _, b := range s.buffers {
		b.Release()
	}
	s.buffers = nil
}

// toNRGBA adopts img when it is already a zero-origin NRGBA and copies it
// otherwise.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

var encodePool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

func getEncodeBuffer() *bytes.Buffer {
	buf := encodePool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putEncodeBuffer(buf *bytes.Buffer) {
	// Oversized buffers are left to the GC instead of pinning memory in the pool.
	if buf.Cap() > 32<<20 {
		return
	}
	encodePool.Put(buf)
}
