package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type imageXObject struct {
	res        string
	path       string
	width      int
	height     int
	colorSpace string
	bits       int
	filter     string
	data       []byte
}

// loadImage reads and prepares an image for embedding. JPEG data
// passes through untouched under DCTDecode; everything else is
// decoded, flattened onto white, and flate-compressed. Repeated
// placements of the same file share one XObject.
func (b *Backend) loadImage(path string) (*imageXObject, error) {
	for _, img := range b.images {
		if img.path == path {
			return img, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}

	b.imageSeq++
	xobj := &imageXObject{
		res:    fmt.Sprintf("Im%d", b.imageSeq),
		path:   path,
		width:  cfg.Width,
		height: cfg.Height,
		bits:   8,
	}
	if format == "jpeg" {
		xobj.filter = "DCTDecode"
		xobj.data = data
		switch cfg.ColorModel {
		case color.GrayModel:
			xobj.colorSpace = "DeviceGray"
		case color.CMYKModel:
			xobj.colorSpace = "DeviceCMYK"
		default:
			xobj.colorSpace = "DeviceRGB"
		}
	} else {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image %s: %w", path, err)
		}
		xobj.filter = "FlateDecode"
		xobj.colorSpace = "DeviceRGB"
		xobj.data = flate(flattenRGB(img))
	}
	b.images = append(b.images, xobj)
	return xobj, nil
}

// flattenRGB composites the image over a white background and packs
// it as 8-bit RGB samples. The inputs from RGBA are premultiplied,
// so the sum never exceeds full scale.
func flattenRGB(img image.Image) []byte {
	bounds := img.Bounds()
	out := make([]byte, 0, bounds.Dx()*bounds.Dy()*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			out = append(out,
				uint8((r+0xFFFF-a)>>8),
				uint8((g+0xFFFF-a)>>8),
				uint8((b+0xFFFF-a)>>8))
		}
	}
	return out
}
