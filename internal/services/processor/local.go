package processor

import (
	"context"
	"sync/atomic"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
	"github.com/phambaophuc/image-publisher/pkg/utils"
	"go.uber.org/zap"
)

const DefaultQuality = 80

// LocalCompositor decodes, fits, watermarks and re-encodes the image in
// process. Every pixel buffer it allocates is released before Compose
// returns; the encoded output is released with the artifact.
type LocalCompositor struct {
	format  string
	quality int
	logger  *zap.Logger
	live    atomic.Int64
}

func NewLocalCompositor(format string, quality int, logger *zap.Logger) *LocalCompositor {
	if format != "png" {
		format = "jpeg"
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &LocalCompositor{
		format:  format,
		quality: quality,
		logger:  logger,
	}
}

func (c *LocalCompositor) Strategy() string { return config.StrategyLocal }

// LiveBuffers reports how many pixel and encode buffers are currently held.
func (c *LocalCompositor) LiveBuffers() int64 {
	return c.live.Load()
}

func (c *LocalCompositor) Compose(ctx context.Context, in ComposeInput) (*Artifact, error) {
	scope := newBufferScope(&c.live)
	defer scope.Release()

	decoded, err := decodeImage(in.Request.Image)
	if err != nil {
		return nil, compositingError(reasonOf(err), "failed to decode image", err)
	}
	base := scope.Acquire(toNRGBA(decoded))

	canvas := scope.Acquire(fitBase(base.Image(), in.Request.Entry.Full))
	base.Release()

	watermarked := false
	if in.Watermark.Present() {
		if err := ctx.Err(); err != nil {
			return nil, models.NewError(models.KindTransport, "request cancelled", err)
		}
		if err := c.applyWatermark(scope, canvas, in.Watermark, in.Directive); err != nil {
			return nil, err
		}
		watermarked = true
	}

	if err := ctx.Err(); err != nil {
		return nil, models.NewError(models.KindTransport, "request cancelled", err)
	}

	buf := getEncodeBuffer()
	if err := c.encodeImage(buf, canvas.Image(), c.format, c.quality); err != nil {
		putEncodeBuffer(buf)
		return nil, compositingError(ErrEncodeFailure, "failed to encode image", err)
	}
	c.live.Add(1)

	c.logger.Debug("Image composited locally",
		zap.String("type", in.Request.TypeTag),
		zap.Int("width", canvas.Size().X),
		zap.Int("height", canvas.Size().Y),
		zap.Bool("watermarked", watermarked),
		zap.Int("bytes", buf.Len()))

	return &Artifact{
		Data:        buf.Bytes(),
		ContentType: contentTypeFor(c.format),
		FileName:    utils.RenameWithFormat(in.Request.FileName, c.format),
		Watermarked: watermarked,
		release: func() {
			putEncodeBuffer(buf)
			c.live.Add(-1)
		},
	}, nil
}

func (c *LocalCompositor) applyWatermark(scope *bufferScope, canvas *PixelBuffer, asset *models.WatermarkAsset, d models.CompositingDirective) error {
	decoded, err := decodeImage(asset.Data)
	if err != nil {
		return compositingError(reasonOf(err), "failed to decode watermark "+asset.Key, err)
	}
	mark := scope.Acquire(toNRGBA(decoded))

	overlay := scope.Acquire(resizeOverlay(mark.Image(), canvas.Size(), d))
	mark.Release()

	at := AnchorPoint(d.Anchor, canvas.Size(), overlay.Size())
	blendOverlay(canvas.Image(), overlay.Image(), at, d.Opacity)
	overlay.Release()
	return nil
}
