package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct")
	t.Setenv("CLOUDFLARE_DELIVERY_ACCOUNT_ID", "hash")
	t.Setenv("CLOUDFLARE_API_TOKEN", "token")
	t.Setenv("COMPOSITING_STRATEGY", "remote")
	t.Setenv("WATERMARK_KEY", "")
	t.Setenv("CATALOG_FILE", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.UploadMethod != "POST" || cfg.Server.Port != "8080" {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Cloudflare.DeliveryHost != "imagedelivery.net" {
		t.Errorf("delivery host = %q", cfg.Cloudflare.DeliveryHost)
	}
	if cfg.Watermark.Enabled() {
		t.Error("watermark enabled without a key")
	}
	if _, ok := cfg.Catalog.Lookup("product"); !ok {
		t.Error("default catalog lacks the product type")
	}
}

func TestLoadRequiresStrategy(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COMPOSITING_STRATEGY", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "COMPOSITING_STRATEGY") {
		t.Fatalf("error = %v, want missing strategy", err)
	}
}

func TestLoadWatermarkRequiresExplicitChoices(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "policy",
			env:  map[string]string{"WATERMARK_ANCHOR": "center"},
			want: "WATERMARK_POLICY",
		},
		{
			name: "anchor",
			env:  map[string]string{"WATERMARK_POLICY": "strict"},
			want: "WATERMARK_ANCHOR",
		},
		{
			name: "store settings",
			env: map[string]string{
				"WATERMARK_POLICY": "strict",
				"WATERMARK_ANCHOR": "corner",
				"WATERMARK_STORE":  "http",
			},
			want: "WATERMARK_BASE_URL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("WATERMARK_KEY", "logo.png")
			t.Setenv("WATERMARK_POLICY", "")
			t.Setenv("WATERMARK_ANCHOR", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadWatermarkHTTPStore(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WATERMARK_KEY", "logo.png")
	t.Setenv("WATERMARK_POLICY", "Degrade")
	t.Setenv("WATERMARK_ANCHOR", "center")
	t.Setenv("WATERMARK_STORE", "http")
	t.Setenv("WATERMARK_BASE_URL", "https://assets.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Watermark.Policy != PolicyDegrade || cfg.Watermark.Anchor != AnchorCenter {
		t.Errorf("watermark = %+v", cfg.Watermark)
	}
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
product:
  full_size: {width: 1920, height: 1080, fit: cover}
  thumb_size: {width: 300, height: 300, fit: cover}
avatar:
  full_size: {width: 512, height: 512, fit: crop}
  thumb_size: {width: 64, height: 64}
  thumb_variant: avatarsmall
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if got := strings.Join(catalog.Types(), ","); got != "avatar,product" {
		t.Fatalf("types = %q", got)
	}

	entry, ok := catalog.Lookup("avatar")
	if !ok {
		t.Fatal("avatar missing")
	}
	if entry.Full.Width != 512 || entry.Full.Fit != FitCrop {
		t.Errorf("avatar full = %+v", entry.Full)
	}
	if entry.FullVariant != "avatarfull" || entry.ThumbVariant != "avatarsmall" {
		t.Errorf("variants = %q, %q", entry.FullVariant, entry.ThumbVariant)
	}

	setBaseEnv(t)
	t.Setenv("CATALOG_FILE", path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := cfg.Catalog.Lookup("avatar"); !ok {
		t.Error("Load() ignored CATALOG_FILE")
	}
}

func TestCatalogValidateRejectsBadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "banner:\n  full_size: {width: 0, height: 100}\n  thumb_size: {width: 10, height: 10}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	setBaseEnv(t)
	t.Setenv("CATALOG_FILE", path)
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "banner") {
		t.Fatalf("error = %v, want invalid banner entry", err)
	}
}
