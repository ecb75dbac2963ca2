package layout

import (
	"bytes"
	"encoding/base64"
	"image"
	"io"
	"os"
	"strings"

	// Formats the sizer can measure without a full decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/pagebox/pagebox/geom"
)

// ImageSizer reports the intrinsic size of an image source in points.
// Without a sizer, fit image axes resolve to zero; with one, fit axes
// take the intrinsic size and a single fit axis scales to preserve
// the aspect ratio.
type ImageSizer interface {
	Size(src string) (geom.Size, bool)
}

// FileSizer decodes intrinsic pixel dimensions from file paths or
// base64 data: URIs, converting at 0.75 pt/px. Unreadable or
// unrecognized sources report no size.
type FileSizer struct{}

func (FileSizer) Size(src string) (geom.Size, bool) {
	r, ok := openImageSource(src)
	if !ok {
		return geom.Size{}, false
	}
	defer r.Close()
	cfg, _, err := image.DecodeConfig(r)
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return geom.Size{}, false
	}
	return geom.Size{
		W: float64(cfg.Width) * geom.PointsPerPixel,
		H: float64(cfg.Height) * geom.PointsPerPixel,
	}, true
}

func openImageSource(src string) (io.ReadCloser, bool) {
	if strings.HasPrefix(src, "data:") {
		meta, b64, ok := strings.Cut(src, ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, false
		}
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, false
		}
		return io.NopCloser(bytes.NewReader(raw)), true
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, false
	}
	return f, true
}
