package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
	"github.com/phambaophuc/image-publisher/internal/services/hosting"
	"github.com/phambaophuc/image-publisher/internal/services/ledger"
	"github.com/phambaophuc/image-publisher/internal/services/processor"
	"go.uber.org/zap"
)

type RequestValidator interface {
	Validate(raw models.RawUpload) (*models.UploadRequest, error)
}

type AssetResolver interface {
	Resolve(ctx context.Context, key string) (*models.WatermarkAsset, error)
}

type Uploader interface {
	Upload(ctx context.Context, data []byte, meta hosting.UploadMetadata) (string, error)
}

// Deduper remembers completed uploads by content key.
type Deduper interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Record(ctx context.Context, key, imageID string) error
}

type EventPublisher interface {
	PublishUploaded(ctx context.Context, event *models.UploadEvent) error
}

// Dependencies are the collaborators of an Orchestrator. Dedupe and Events
// are optional.
type Dependencies struct {
	Validator RequestValidator
	Resolver  AssetResolver
	Engine    processor.Engine
	Uploader  Uploader
	Dedupe    Deduper
	Events    EventPublisher
}

// Orchestrator runs validate, resolve, compose, upload and URL derivation in
// order and stops at the first failing stage.
type Orchestrator struct {
	deps              Dependencies
	urls              hosting.URLBuilder
	deliveryAccountID string
	watermarkKey      string
	directive         models.CompositingDirective
	logger            *zap.Logger
}

func NewOrchestrator(cfg *config.Config, deps Dependencies, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		deps:              deps,
		urls:              hosting.NewURLBuilder(cfg.Cloudflare.DeliveryHost),
		deliveryAccountID: cfg.Cloudflare.DeliveryAccountID,
		watermarkKey:      cfg.Watermark.Key,
		directive:         processor.DirectiveFromConfig(deps.Engine.Strategy(), cfg.Watermark),
		logger:            logger,
	}
}

func (o *Orchestrator) Process(ctx context.Context, raw models.RawUpload) (*models.UploadResult, error) {
	req, err := o.deps.Validator.Validate(raw)
	if err != nil {
		return nil, err
	}

	mark, err := o.deps.Resolver.Resolve(ctx, o.watermarkKey)
	if err != nil {
		return nil, err
	}

	artifact, err := o.deps.Engine.Compose(ctx, processor.ComposeInput{
		Request:   req,
		Watermark: mark,
		Directive: o.directive,
	})
	if err != nil {
		return nil, err
	}
	defer artifact.Release()

	meta := hosting.UploadMetadata{
		Type:        req.TypeTag,
		FileName:    artifact.FileName,
		ContentType: artifact.ContentType,
		Draw:        artifact.Draw,
		Variants:    []string{req.Entry.FullVariant, req.Entry.ThumbVariant},
	}

	imageID, deduped, err := o.upload(ctx, artifact.Data, meta)
	if err != nil {
		return nil, err
	}

	transform := hosting.TransformFromDraw(artifact.Draw)
	result := &models.UploadResult{
		ImageID:     imageID,
		FullURL:     o.urls.Build(o.deliveryAccountID, imageID, req.Entry.FullVariant, transform),
		ThumbURL:    o.urls.Build(o.deliveryAccountID, imageID, req.Entry.ThumbVariant, transform),
		FileName:    req.FileName,
		TypeTag:     req.TypeTag,
		Watermarked: artifact.Watermarked,
		Deduped:     deduped,
	}

	o.logger.Info("Upload completed",
		zap.String("image_id", imageID),
		zap.String("type", req.TypeTag),
		zap.String("strategy", o.deps.Engine.Strategy()),
		zap.Bool("watermarked", artifact.Watermarked),
		zap.Bool("deduped", deduped))

	o.publish(ctx, result)
	return result, nil
}

func (o *Orchestrator) upload(ctx context.Context, data []byte, meta hosting.UploadMetadata) (string, bool, error) {
	var key string
	if o.deps.Dedupe != nil {
		metadata, err := hosting.MetadataJSON(meta)
		if err != nil {
			return "", false, models.NewError(models.KindTransport, "failed to build upload metadata", err)
		}
		key = ledger.Key(data, append(metadata, strings.Join(meta.Variants, ",")...))

		imageID, found, err := o.deps.Dedupe.Lookup(ctx, key)
		if err != nil {
			o.logger.Warn("Upload ledger lookup failed", zap.Error(err))
		} else if found {
			o.logger.Info("Artifact already uploaded, reusing image", zap.String("image_id", imageID))
			return imageID, true, nil
		}
	}

	// Never start an upload for a caller that has already gone away.
	if err := ctx.Err(); err != nil {
		return "", false, models.NewError(models.KindTransport, "request cancelled before upload", err)
	}

	imageID, err := o.deps.Uploader.Upload(ctx, data, meta)
	if err != nil {
		return "", false, err
	}

	if o.deps.Dedupe != nil {
		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := o.deps.Dedupe.Record(recordCtx, key, imageID); err != nil {
			o.logger.Warn("Failed to record upload in ledger",
				zap.String("image_id", imageID),
				zap.Error(err))
		}
	}
	return imageID, false, nil
}

func (o *Orchestrator) publish(ctx context.Context, result *models.UploadResult) {
	if o.deps.Events == nil {
		return
	}
	event := &models.UploadEvent{
		ImageID:     result.ImageID,
		Type:        result.TypeTag,
		FileName:    result.FileName,
		FullURL:     result.FullURL,
		ThumbURL:    result.ThumbURL,
		Strategy:    o.deps.Engine.Strategy(),
		Watermarked: result.Watermarked,
		Deduped:     result.Deduped,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.deps.Events.PublishUploaded(context.WithoutCancel(ctx), event); err != nil {
		o.logger.Warn("Failed to publish upload event",
			zap.String("image_id", result.ImageID),
			zap.Error(err))
	}
}
