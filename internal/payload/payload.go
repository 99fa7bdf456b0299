// Package payload holds the image payload value type and the conversions
// between data-URLs, base64 text, raw bytes and blob/file wrappers.
package payload

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMIMEType is used when a payload arrives without a detectable type.
const DefaultMIMEType = "image/png"

var (
	// ErrUnsupportedRuntime is reported when no file construction capability is available.
	ErrUnsupportedRuntime = errors.New("file construction is not supported")

	// ErrIncompatible is returned by a blob strategy that cannot build the requested blob.
	// It is the only error that triggers the builder fallback.
	ErrIncompatible = errors.New("blob strategy incompatible")

	// ErrMalformedDataURL is returned when a data-URL cannot be parsed.
	ErrMalformedDataURL = errors.New("malformed data url")
)

// Payload is an image in transit: its content (a data-URL or bare base64) and
// the MIME type detected when it was created. Payload is a value type; every
// transformation returns a new Payload.
type Payload struct {
	Content  string `json:"content" yaml:"content"`
	MIMEType string `json:"mime_type" yaml:"mime_type"`
}

// New creates a payload from content that is either a string or a []byte.
// Byte content is encoded as base64.
func New(content any, mimeType string) Payload {
	return Payload{
		Content:  Normalize(content),
		MIMEType: mimeType,
	}
}

// FromBytes creates a payload whose content is a complete data-URL for data.
func FromBytes(data []byte, mimeType string) Payload {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return Payload{
		Content:  DataURL(mimeType, data),
		MIMEType: mimeType,
	}
}

// IsEmpty reports whether the payload carries no content.
func (p Payload) IsEmpty() bool {
	return p.Content == ""
}

// IsDataURL reports whether the content carries a data-URL header.
func (p Payload) IsDataURL() bool {
	return strings.HasPrefix(p.Content, "data:")
}

// Bytes decodes the payload content into raw bytes.
func (p Payload) Bytes() ([]byte, error) {
	data, err := decodeBody(p.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload content; %w", err)
	}
	return data, nil
}

// Size returns the decoded size of the payload in bytes, or -1 if the content
// does not decode.
func (p Payload) Size() int {
	data, err := p.Bytes()
	if err != nil {
		return -1
	}
	return len(data)
}

// String implements fmt.Stringer without dumping the whole content.
func (p Payload) String() string {
	content := p.Content
	if len(content) > 32 {
		content = content[:32] + "..."
	}
	return fmt.Sprintf("Payload{type=%s, content=%q}", p.MIMEType, content)
}
