package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
	"go.uber.org/zap"
)

var (
	ErrDecodeFailure     = errors.New("decode failure")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEncodeFailure     = errors.New("encode failure")
)

// Engine produces the artifact that is uploaded to the hosting service.
type Engine interface {
	Strategy() string
	Compose(ctx context.Context, in ComposeInput) (*Artifact, error)
}

type ComposeInput struct {
	Request   *models.UploadRequest
	Watermark *models.WatermarkAsset
	Directive models.CompositingDirective
}

// Artifact is the composed upload payload. Data is only valid until Release.
type Artifact struct {
	Data        []byte
	ContentType string
	FileName    string
	Draw        *models.DrawInstruction
	Watermarked bool

	release func()
}

// Release returns the artifact's buffers. It is safe to call more than once.
func (a *Artifact) Release() {
	if a == nil || a.release == nil {
		return
	}
	a.release()
	a.release = nil
	a.Data = nil
}

// NewEngine selects the compositing strategy configured for the deployment.
func NewEngine(cfg config.CompositingConfig, logger *zap.Logger) (Engine, error) {
	switch cfg.Strategy {
	case config.StrategyRemote:
		return NewRemoteDirective(logger), nil
	case config.StrategyLocal:
		return NewLocalCompositor(cfg.Format, cfg.Quality, logger), nil
	default:
		return nil, fmt.Errorf("unknown compositing strategy %q", cfg.Strategy)
	}
}

// DirectiveFromConfig turns the watermark settings into a directive.
func DirectiveFromConfig(strategy string, cfg config.WatermarkConfig) models.CompositingDirective {
	mode := models.AnchorCorner
	if cfg.Anchor == config.AnchorCenter {
		mode = models.AnchorCenter
	}
	return models.CompositingDirective{
		Strategy: strategy,
		Opacity:  cfg.Opacity,
		Scale:    cfg.Scale,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Anchor: models.Anchor{
			Mode:    mode,
			OffsetX: cfg.OffsetX,
			OffsetY: cfg.OffsetY,
		},
	}
}

func compositingError(reason error, detail string, cause error) error {
	return models.NewError(models.KindCompositing,
		fmt.Sprintf("%s: %v", detail, cause),
		fmt.Errorf("%w: %v", reason, cause))
}
