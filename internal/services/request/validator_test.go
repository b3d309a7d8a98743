package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
)

func TestValidatorRejects(t *testing.T) {
	v := NewValidator(config.DefaultCatalog(), 16, true)

	tests := []struct {
		name    string
		raw     models.RawUpload
		message string
	}{
		{
			name:    "missing image",
			raw:     models.RawUpload{TypeTag: "product"},
			message: "missing image file",
		},
		{
			name:    "empty image",
			raw:     models.RawUpload{HasImage: true, TypeTag: "product"},
			message: "missing image file",
		},
		{
			name:    "missing type",
			raw:     models.RawUpload{HasImage: true, Image: []byte("x"), SniffedMIME: "image/png"},
			message: "missing type",
		},
		{
			name:    "unknown type",
			raw:     models.RawUpload{HasImage: true, Image: []byte("x"), SniffedMIME: "image/png", TypeTag: "banner"},
			message: `unknown type "banner": expected one of product`,
		},
		{
			name:    "too large",
			raw:     models.RawUpload{HasImage: true, Image: make([]byte, 17), SniffedMIME: "image/png", TypeTag: "product"},
			message: "exceeds maximum allowed size",
		},
		{
			name:    "not decodable",
			raw:     models.RawUpload{HasImage: true, Image: []byte("x"), SniffedMIME: "application/pdf", TypeTag: "product"},
			message: `unsupported image type "application/pdf"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.raw)

			var appErr *models.Error
			if !errors.As(err, &appErr) || appErr.Kind != models.KindInput {
				t.Fatalf("error = %v, want input error", err)
			}
			if appErr.StatusCode() != 400 {
				t.Fatalf("status = %d, want 400", appErr.StatusCode())
			}
			if !strings.Contains(appErr.Error(), tt.message) {
				t.Fatalf("error %q does not contain %q", appErr.Error(), tt.message)
			}
		})
	}
}

func TestValidatorAccepts(t *testing.T) {
	v := NewValidator(config.DefaultCatalog(), 1024, true)

	req, err := v.Validate(models.RawUpload{
		HasImage:     true,
		Image:        []byte("jpeg bytes"),
		FileName:     "shoe.JPG",
		DeclaredMIME: "image/jpg",
		SniffedMIME:  "application/octet-stream",
		TypeTag:      " product ",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if req.MIMEType != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", req.MIMEType)
	}
	if req.TypeTag != "product" {
		t.Errorf("type = %q", req.TypeTag)
	}
	if req.Entry.Full.Width != 1920 || req.Entry.FullVariant != "productfull" || req.Entry.ThumbVariant != "productthumb" {
		t.Errorf("unexpected catalog entry %+v", req.Entry)
	}
}

func TestValidatorRemoteAcceptsAnyImageBytes(t *testing.T) {
	v := NewValidator(config.DefaultCatalog(), 1024, false)

	req, err := v.Validate(models.RawUpload{
		HasImage:    true,
		Image:       []byte("<svg/>"),
		SniffedMIME: "image/svg+xml",
		TypeTag:     "product",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if req.MIMEType != "image/svg+xml" {
		t.Errorf("mime = %q", req.MIMEType)
	}
}
