package request

import (
	"fmt"
	"strings"

	"github.com/phambaophuc/image-publisher/internal/config"
	"github.com/phambaophuc/image-publisher/internal/models"
)

// DecodableTypes is the set of MIME types the local compositor can decode.
var DecodableTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

type Validator struct {
	catalog       config.Catalog
	maxFileSize   int64
	requireDecode bool
}

// NewValidator builds a validator over the process catalog. requireDecode is
// set for deployments that composite locally.
func NewValidator(catalog config.Catalog, maxFileSize int64, requireDecode bool) *Validator {
	return &Validator{
		catalog:       catalog,
		maxFileSize:   maxFileSize,
		requireDecode: requireDecode,
	}
}

func (v *Validator) Validate(raw models.RawUpload) (*models.UploadRequest, error) {
	if !raw.HasImage || len(raw.Image) == 0 {
		return nil, inputError("missing image file: the 'image' field is required")
	}

	typeTag := strings.TrimSpace(raw.TypeTag)
	if typeTag == "" {
		return nil, inputError("missing type: the 'type' field is required")
	}

	entry, ok := v.catalog.Lookup(typeTag)
	if !ok {
		return nil, inputError(fmt.Sprintf("unknown type %q: expected one of %s",
			typeTag, strings.Join(v.catalog.Types(), ", ")))
	}

	if v.maxFileSize > 0 && int64(len(raw.Image)) > v.maxFileSize {
		return nil, inputError(fmt.Sprintf("image file size %d exceeds maximum allowed size %d",
			len(raw.Image), v.maxFileSize))
	}

	mimeType := normalizeMIME(raw.SniffedMIME)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = normalizeMIME(raw.DeclaredMIME)
	}

	if v.requireDecode && !IsDecodable(mimeType) {
		return nil, inputError(fmt.Sprintf("unsupported image type %q", mimeType))
	}

	return &models.UploadRequest{
		Image:    raw.Image,
		MIMEType: mimeType,
		TypeTag:  typeTag,
		FileName: raw.FileName,
		Entry:    entry,
	}, nil
}

// IsDecodable reports whether mimeType is in the local decode set.
func IsDecodable(mimeType string) bool {
	mimeType = normalizeMIME(mimeType)
	for _, t := range DecodableTypes {
		if mimeType == t {
			return true
		}
	}
	return false
}

func normalizeMIME(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if mimeType == "image/jpg" {
		return "image/jpeg"
	}
	return mimeType
}

func inputError(detail string) error {
	return models.NewError(models.KindInput, detail, nil)
}
