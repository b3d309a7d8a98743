package hosting

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/phambaophuc/image-publisher/internal/models"
)

// TransformParams are appended to a delivery URL so the hosting service
// overlays the watermark when serving. Caches in front of delivery must key
// on the full URL, query string included.
type TransformParams struct {
	SourceURL string
	Options   string
}

// URLBuilder derives delivery URLs. Build is a pure function of its inputs.
type URLBuilder struct {
	base string
}

func NewURLBuilder(deliveryHost string) URLBuilder {
	base := strings.TrimRight(deliveryHost, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return URLBuilder{base: base}
}

func (b URLBuilder) Build(deliveryAccountID, imageID, variant string, params *TransformParams) string {
	u := b.base + "/" + url.PathEscape(deliveryAccountID) + "/" + url.PathEscape(imageID) + "/" + url.PathEscape(variant)
	if params == nil || params.SourceURL == "" {
		return u
	}

	q := url.Values{}
	q.Set("watermark", params.SourceURL)
	q.Set("watermark_options", params.Options)
	return u + "?" + q.Encode()
}

// TransformFromDraw converts a remote directive into URL transform params.
// It returns nil when there is nothing to overlay.
func TransformFromDraw(d *models.DrawInstruction) *TransformParams {
	if d == nil {
		return nil
	}
	return &TransformParams{
		SourceURL: d.URL,
		Options:   EncodeOptions(d),
	}
}

// EncodeOptions renders position, opacity and width as
// "opacity=<o>,width=<w>,x=<x>,y=<y>".
func EncodeOptions(d *models.DrawInstruction) string {
	return strings.Join([]string{
		"opacity=" + strconv.FormatFloat(d.Opacity, 'f', -1, 64),
		"width=" + strconv.Itoa(d.Width),
		"x=" + d.X.String(),
		"y=" + d.Y.String(),
	}, ",")
}
