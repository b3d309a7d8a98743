package pipeline

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
	"github.com/phambaophuc/image-publisher/internal/services/asset"
	"github.com/phambaophuc/image-publisher/internal/services/hosting"
	"github.com/phambaophuc/image-publisher/internal/services/processor"
	"github.com/phambaophuc/image-publisher/internal/services/request"
	"go.uber.org/zap"
)

type stubStore struct {
	asset *models.WatermarkAsset
	err   error
}

func (s *stubStore) Name() string { return "stub" }

func (s *stubStore) Fetch(_ context.Context, _ string) (*models.WatermarkAsset, error) {
	return s.asset, s.err
}

type stubUploader struct {
	id    string
	err   error
	calls int
	data  []byte
	meta  hosting.UploadMetadata
}

func (u *stubUploader) Upload(_ context.Context, data []byte, meta hosting.UploadMetadata) (string, error) {
	u.calls++
	u.data = append([]byte(nil), data...)
	u.meta = meta
	return u.id, u.err
}

type memoryLedger struct {
	records map[string]string
}

func (l *memoryLedger) Lookup(_ context.Context, key string) (string, bool, error) {
	id, ok := l.records[key]
	return id, ok, nil
}

func (l *memoryLedger) Record(_ context.Context, key, imageID string) error {
	l.records[key] = imageID
	return nil
}

type recordingPublisher struct {
	events []*models.UploadEvent
}

func (p *recordingPublisher) PublishUploaded(_ context.Context, event *models.UploadEvent) error {
	p.events = append(p.events, event)
	return nil
}

func testConfig(policy string) *config.Config {
	return &config.Config{
		Cloudflare: config.CloudflareConfig{
			DeliveryAccountID: "hash",
			DeliveryHost:      "imagedelivery.net",
		},
		Compositing: config.CompositingConfig{Strategy: config.StrategyRemote},
		Watermark: config.WatermarkConfig{
			Key:          "logo.png",
			Policy:       policy,
			Anchor:       config.AnchorCorner,
			OffsetX:      10,
			OffsetY:      10,
			Opacity:      0.5,
			Scale:        0.3,
			FetchTimeout: time.Second,
		},
		Catalog: config.DefaultCatalog(),
	}
}

func newTestOrchestrator(cfg *config.Config, store asset.Store, deps Dependencies) *Orchestrator {
	logger := zap.NewNop()
	deps.Validator = request.NewValidator(cfg.Catalog, 1<<20, false)
	deps.Resolver = asset.NewResolver(store, cfg.Watermark, logger)
	deps.Engine = processor.NewRemoteDirective(logger)
	return NewOrchestrator(cfg, deps, logger)
}

func productUpload() models.RawUpload {
	return models.RawUpload{
		Image:       []byte("\xff\xd8\xff jpeg bytes"),
		HasImage:    true,
		FileName:    "shoe.jpg",
		SniffedMIME: "image/jpeg",
		TypeTag:     "product",
	}
}

func TestProcessRemoteWatermark(t *testing.T) {
	store := &stubStore{asset: &models.WatermarkAsset{
		Key:       "logo.png",
		SourceURL: "https://cdn.example.com/logo.png",
		Data:      []byte{1},
	}}
	uploader := &stubUploader{id: "abc123"}
	events := &recordingPublisher{}
	o := newTestOrchestrator(testConfig(config.PolicyStrict), store, Dependencies{Uploader: uploader, Events: events})

	result, err := o.Process(context.Background(), productUpload())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if !strings.HasPrefix(result.FullURL, "https://imagedelivery.net/hash/abc123/productfull?") {
		t.Errorf("full url = %q", result.FullURL)
	}
	if !strings.HasPrefix(result.ThumbURL, "https://imagedelivery.net/hash/abc123/productthumb?") {
		t.Errorf("thumb url = %q", result.ThumbURL)
	}
	for _, raw := range []string{result.FullURL, result.ThumbURL} {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got := u.Query().Get("watermark_options"); got != "opacity=0.5,width=576,x=10,y=10" {
			t.Errorf("watermark_options = %q", got)
		}
	}

	if uploader.calls != 1 {
		t.Fatalf("upload calls = %d, want 1", uploader.calls)
	}
	if uploader.meta.Draw == nil || uploader.meta.Draw.URL != "https://cdn.example.com/logo.png" {
		t.Errorf("upload metadata draw = %+v", uploader.meta.Draw)
	}
	if strings.Join(uploader.meta.Variants, ",") != "productfull,productthumb" {
		t.Errorf("variants = %v", uploader.meta.Variants)
	}
	if string(uploader.data) != string(productUpload().Image) {
		t.Error("remote strategy uploaded modified bytes")
	}

	if len(events.events) != 1 || events.events[0].ImageID != "abc123" || !events.events[0].Watermarked {
		t.Errorf("events = %+v", events.events)
	}
}

func TestProcessDegradeWithoutWatermark(t *testing.T) {
	store := &stubStore{err: asset.ErrStoreUnavailable}
	uploader := &stubUploader{id: "abc123"}
	o := newTestOrchestrator(testConfig(config.PolicyDegrade), store, Dependencies{Uploader: uploader})

	result, err := o.Process(context.Background(), productUpload())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.FullURL != "https://imagedelivery.net/hash/abc123/productfull" {
		t.Errorf("full url = %q", result.FullURL)
	}
	if result.ThumbURL != "https://imagedelivery.net/hash/abc123/productthumb" {
		t.Errorf("thumb url = %q", result.ThumbURL)
	}
	if result.Watermarked || uploader.meta.Draw != nil {
		t.Error("degraded upload carries a watermark")
	}
}

func TestProcessStrictFailsBeforeUpload(t *testing.T) {
	store := &stubStore{err: asset.ErrAssetNotFound}
	uploader := &stubUploader{id: "abc123"}
	o := newTestOrchestrator(testConfig(config.PolicyStrict), store, Dependencies{Uploader: uploader})

	_, err := o.Process(context.Background(), productUpload())

	var appErr *models.Error
	if !errors.As(err, &appErr) || appErr.Kind != models.KindAssetUnavailable {
		t.Fatalf("error = %v, want asset unavailable", err)
	}
	if appErr.StatusCode() != 500 || !strings.Contains(appErr.Error(), "logo.png") {
		t.Fatalf("error = %q (status %d)", appErr.Error(), appErr.StatusCode())
	}
	if uploader.calls != 0 {
		t.Fatal("upload attempted after strict asset failure")
	}
}

func TestProcessInputErrorStopsPipeline(t *testing.T) {
	uploader := &stubUploader{id: "abc123"}
	o := newTestOrchestrator(testConfig(config.PolicyStrict), &stubStore{}, Dependencies{Uploader: uploader})

	raw := productUpload()
	raw.TypeTag = ""
	_, err := o.Process(context.Background(), raw)

	var appErr *models.Error
	if !errors.As(err, &appErr) || appErr.Kind != models.KindInput {
		t.Fatalf("error = %v, want input error", err)
	}
	if uploader.calls != 0 {
		t.Fatal("upload attempted for invalid input")
	}
}

func TestProcessUploadRejected(t *testing.T) {
	rejected := models.NewError(models.KindUploadRejected, "upload failed: quota exceeded", nil)
	uploader := &stubUploader{err: rejected}
	events := &recordingPublisher{}
	o := newTestOrchestrator(testConfig(config.PolicyDegrade), &stubStore{err: asset.ErrAssetNotFound}, Dependencies{Uploader: uploader, Events: events})

	_, err := o.Process(context.Background(), productUpload())
	if !errors.Is(err, rejected) {
		t.Fatalf("error = %v, want the uploader's error", err)
	}
	if len(events.events) != 0 {
		t.Fatal("event published for a failed upload")
	}
}

func TestProcessDedupeSkipsSecondUpload(t *testing.T) {
	uploader := &stubUploader{id: "abc123"}
	dedupe := &memoryLedger{records: map[string]string{}}
	o := newTestOrchestrator(testConfig(config.PolicyDegrade), &stubStore{err: asset.ErrAssetNotFound}, Dependencies{Uploader: uploader, Dedupe: dedupe})

	first, err := o.Process(context.Background(), productUpload())
	if err != nil {
		t.Fatalf("first Process() error = %v", err)
	}
	second, err := o.Process(context.Background(), productUpload())
	if err != nil {
		t.Fatalf("second Process() error = %v", err)
	}

	if uploader.calls != 1 {
		t.Fatalf("upload calls = %d, want 1", uploader.calls)
	}
	if !second.Deduped || first.Deduped {
		t.Errorf("deduped flags = %v, %v", first.Deduped, second.Deduped)
	}
	if second.FullURL != first.FullURL || second.ImageID != "abc123" {
		t.Errorf("second result = %+v", second)
	}
}

func TestProcessCancelledBeforeUpload(t *testing.T) {
	uploader := &stubUploader{id: "abc123"}
	o := newTestOrchestrator(testConfig(config.PolicyDegrade), &stubStore{err: asset.ErrAssetNotFound}, Dependencies{Uploader: uploader})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Process(ctx, productUpload())

	var appErr *models.Error
	if !errors.As(err, &appErr) || appErr.Kind != models.KindTransport {
		t.Fatalf("error = %v, want transport error", err)
	}
	if uploader.calls != 0 {
		t.Fatal("upload started for a cancelled request")
	}
}
