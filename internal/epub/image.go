package epub

import (
	"bytes"
	"fmt"
	"image"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	defaultJPEGQuality = 85
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// ImageOptimizer downsizes raster assets before they are packaged. The
// encoding format always follows the asset name so the manifest media type
// stays accurate.
type ImageOptimizer struct {
	MaxWidth    int // 0 disables resizing
	JPEGQuality int
	MaxPixels   int // total pixel count limit for decode (width * height)
}

// OptimizedImage holds the packaged bytes of an asset. Warning is set when the
// asset was passed through unchanged for a reason worth reporting.
type OptimizedImage struct {
	Data    []byte
	Width   int
	Height  int
	Resized bool
	Warning string
}

// NewImageOptimizer creates an image optimizer from export options.
func NewImageOptimizer(opts ExportOptions) *ImageOptimizer {
	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = defaultJPEGQuality
	}
	if quality > 100 {
		quality = 100
	}

	return &ImageOptimizer{
		MaxWidth:    opts.MaxImageWidth,
		JPEGQuality: quality,
		MaxPixels:   defaultMaxPixels,
	}
}

// Optimize returns the data to store for the named asset. Assets that are
// not decodable, not wider than MaxWidth, or not in a format imaging can
// write are returned as-is. Only encoding failures return an error.
func (o *ImageOptimizer) Optimize(name string, input []byte) (OptimizedImage, error) {
	out := OptimizedImage{Data: input}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return out, nil
	}
	out.Width, out.Height = cfg.Width, cfg.Height

	if o.MaxWidth <= 0 || cfg.Width <= o.MaxWidth {
		return out, nil
	}

	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		out.Warning = fmt.Sprintf("cannot re-encode %s: %v", name, err)
		return out, nil
	}

	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if o.MaxPixels > 0 && pixels > uint64(o.MaxPixels) {
		out.Warning = fmt.Sprintf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
		return out, nil
	}

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out, nil
	}

	resized := imaging.Resize(src, o.MaxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(o.JPEGQuality)); err != nil {
		return out, fmt.Errorf("failed to encode %s: %w", name, err)
	}

	out.Data = buf.Bytes()
	out.Width = resized.Bounds().Dx()
	out.Height = resized.Bounds().Dy()
	out.Resized = true
	return out, nil
}

// imageMediaType returns the media type of an asset, from its extension when
// known and from its content otherwise.
func imageMediaType(name string, data []byte) string {
	if mt := mime.TypeByExtension(strings.ToLower(path.Ext(name))); mt != "" {
		mt, _, _ = strings.Cut(mt, ";")
		return mt
	}
	return http.DetectContentType(data)
}
