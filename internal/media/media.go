// Package media provides the image decode, render and encode capability used
// by the minifier. The Codec interface lets callers substitute a native
// imaging library; Raster is the pure Go implementation built on x/image.
package media

import (
	"context"
	"errors"
	"image"
	"strings"
)

var (
	// ErrDecode is returned when image data cannot be decoded.
	ErrDecode = errors.New("image decode failed")

	// ErrSurfaceUnavailable is returned when a raster surface of the requested
	// size cannot be created.
	ErrSurfaceUnavailable = errors.New("raster surface unavailable")

	// ErrEncode is returned when a surface cannot be encoded.
	ErrEncode = errors.New("image encode failed")
)

// Bitmap is a decoded image with its natural dimensions.
type Bitmap struct {
	Image  image.Image
	Format string
	Width  int
	Height int
}

// Codec decodes, scales and encodes images.
type Codec interface {
	// DecodeImageDimensions decodes data into a bitmap and reports its natural size.
	DecodeImageDimensions(ctx context.Context, data []byte) (*Bitmap, error)

	// RenderScaled draws src onto a new surface of width x height.
	RenderScaled(ctx context.Context, src *Bitmap, width, height int) (image.Image, error)

	// EncodeToFormat encodes img as mimeType at quality in [0,1]. It returns
	// the encoded bytes and the MIME type actually produced, which differs
	// from mimeType when no encoder exists for it.
	EncodeToFormat(ctx context.Context, img image.Image, mimeType string, quality float64) ([]byte, string, error)
}

// Format names registered with the image package, keyed by MIME subtype.
var subtypeFormats = map[string]string{
	"png":  "png",
	"apng": "png",
	"jpeg": "jpeg",
	"jpg":  "jpeg",
	"gif":  "gif",
	"webp": "webp",
	"bmp":  "bmp",
	"tiff": "tiff",
}

// FormatForMIME returns the image format name for a MIME type, or "" if the
// type is not an image type known to this package.
func FormatForMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.IndexByte(mimeType, ';'); idx != -1 {
		mimeType = mimeType[:idx]
	}

	subtype, ok := strings.CutPrefix(mimeType, "image/")
	if !ok {
		return ""
	}
	return subtypeFormats[subtype]
}

// MIMEForFormat returns the canonical MIME type for an image format name.
func MIMEForFormat(format string) string {
	switch format {
	case "":
		return ""
	case "jpeg":
		return "image/jpeg"
	default:
		return "image/" + format
	}
}
