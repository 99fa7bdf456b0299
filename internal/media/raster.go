package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // Register WebP format
)

// DefaultMaxPixels caps surface allocation at 64 megapixels.
const DefaultMaxPixels = 64 * 1024 * 1024

// Raster implements Codec with the standard image codecs and x/image.
type Raster struct {
	scaler    draw.Scaler
	maxPixels int
}

// RasterOption configures a Raster codec.
type RasterOption func(*Raster)

// WithScaler sets the interpolation used by RenderScaled.
func WithScaler(s draw.Scaler) RasterOption {
	return func(r *Raster) {
		r.scaler = s
	}
}

// WithMaxPixels sets the largest surface RenderScaled will allocate.
func WithMaxPixels(n int) RasterOption {
	return func(r *Raster) {
		if n > 0 {
			r.maxPixels = n
		}
	}
}

// NewRaster creates a Raster codec using Catmull-Rom interpolation.
func NewRaster(opts ...RasterOption) *Raster {
	r := &Raster{
		scaler:    draw.CatmullRom,
		maxPixels: DefaultMaxPixels,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// DecodeImageDimensions decodes data with whichever registered decoder
// matches its signature.
func (r *Raster) DecodeImageDimensions(ctx context.Context, data []byte) (*Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w; %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	return &Bitmap{
		Image:  img,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// RenderScaled allocates an RGBA surface and scales src onto it. Returns
// ErrSurfaceUnavailable for empty or oversized surfaces.
func (r *Raster) RenderScaled(ctx context.Context, src *Bitmap, width, height int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if width <= 0 || height <= 0 || width*height > r.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurfaceUnavailable, width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == src.Width && height == src.Height {
		draw.Draw(dst, dst.Bounds(), src.Image, src.Image.Bounds().Min, draw.Src)
		return dst, nil
	}

	r.scaler.Scale(dst, dst.Bounds(), src.Image, src.Image.Bounds(), draw.Src, nil)
	return dst, nil
}

// EncodeToFormat encodes img. Types without an encoder here (webp, svg)
// are encoded as PNG.
func (r *Raster) EncodeToFormat(ctx context.Context, img image.Image, mimeType string, quality float64) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	var err error
	produced := MIMEForFormat(FormatForMIME(mimeType))

	switch FormatForMIME(mimeType) {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)})
	case "gif":
		err = gif.Encode(&buf, img, &gif.Options{NumColors: 256})
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		produced = "image/png"
		err = png.Encode(&buf, img)
	}

	if err != nil {
		return nil, "", fmt.Errorf("%w; %v", ErrEncode, err)
	}

	return buf.Bytes(), produced, nil
}

// jpegQuality maps a [0,1] quality to the 1-100 range used by image/jpeg.
func jpegQuality(q float64) int {
	v := int(q*100 + 0.5)
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
