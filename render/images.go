package render

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// materialize resolves an image source to a readable file path. Inline
// data URIs are decoded into a transient file; the returned done
// removes it and must run on every exit path. Plain paths pass through
// with a no-op done.
func materialize(src string) (path string, done func(), err error) {
	if !strings.HasPrefix(src, "data:") {
		return src, func() {}, nil
	}
	meta, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("inline images must be base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode inline image: %w", err)
	}
	file, err := os.CreateTemp("", "pagebox-img-*"+inlineExt(meta))
	if err != nil {
		return "", nil, fmt.Errorf("stage inline image: %w", err)
	}
	name := file.Name()
	if _, err := file.Write(raw); err != nil {
		file.Close()
		os.Remove(name)
		return "", nil, fmt.Errorf("stage inline image: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(name)
		return "", nil, fmt.Errorf("stage inline image: %w", err)
	}
	return name, func() { os.Remove(name) }, nil
}

// inlineExt picks a file extension from the media type so backends
// that sniff by suffix keep working.
func inlineExt(meta string) string {
	switch strings.TrimSuffix(meta, ";base64") {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	case "image/webp":
		return ".webp"
	case "image/tiff":
		return ".tif"
	default:
		return ".img"
	}
}
