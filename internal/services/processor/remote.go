package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
	"go.uber.org/zap"
)

var errNoSourceURL = errors.New("watermark asset has no public source url")

// RemoteDirective leaves pixels untouched and describes the overlay for the
// hosting service to apply when serving each variant.
type RemoteDirective struct {
	logger *zap.Logger
}

func NewRemoteDirective(logger *zap.Logger) *RemoteDirective {
	return &RemoteDirective{logger: logger}
}

func (r *RemoteDirective) Strategy() string { return config.StrategyRemote }

func (r *RemoteDirective) Compose(ctx context.Context, in ComposeInput) (*Artifact, error) {
	artifact := &Artifact{
		Data:        in.Request.Image,
		ContentType: in.Request.MIMEType,
		FileName:    in.Request.FileName,
	}
	if !in.Watermark.Present() {
		return artifact, nil
	}

	if in.Watermark.SourceURL == "" {
		return nil, models.NewError(models.KindCompositing,
			fmt.Sprintf("cannot reference watermark %q remotely: %v", in.Watermark.Key, errNoSourceURL), errNoSourceURL)
	}

	artifact.Draw = DrawInstruction(in.Watermark.SourceURL, in.Request.Entry.Full.Width, in.Directive)
	artifact.Watermarked = true

	r.logger.Debug("Remote watermark directive prepared",
		zap.String("type", in.Request.TypeTag),
		zap.String("source", artifact.Draw.URL),
		zap.Int("width", artifact.Draw.Width),
		zap.String("x", artifact.Draw.X.String()),
		zap.String("y", artifact.Draw.Y.String()))

	return artifact, nil
}
