package payload

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/gabriel-vasile/mimetype"
)

// ToBase64URL encodes a binary buffer as standard base64 text.
func ToBase64URL(buf []byte) string {
	return base64.StdEncoding.EncodeToString(buf)
}

// FromBinaryString maps each UTF-16 code unit of s to one byte.
// Only byte strings (every code unit below 256) round-trip exactly; higher
// code units keep their low byte.
func FromBinaryString(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units))
	for i, u := range units {
		buf[i] = byte(u)
	}
	return buf
}

// ToBinaryString is the inverse of FromBinaryString: one code point per byte.
func ToBinaryString(buf []byte) string {
	runes := make([]rune, len(buf))
	for i, b := range buf {
		runes[i] = rune(b)
	}
	return string(runes)
}

// Normalize produces a uniform string representation of content.
// Strings pass through, byte slices are base64 encoded and anything else
// yields the empty string.
func Normalize(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []byte:
		return ToBase64URL(v)
	default:
		return ""
	}
}

// DataURL builds a base64 data-URL for data.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + ToBase64URL(data)
}

// ParseDataURL splits a base64 data-URL into its MIME type and decoded body.
func ParseDataURL(s string) (string, []byte, error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrMalformedDataURL)
	}

	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("%w: missing body separator", ErrMalformedDataURL)
	}

	header := s[len("data:"):comma]
	if !strings.HasSuffix(header, ";base64") {
		return "", nil, fmt.Errorf("%w: only base64 bodies are supported", ErrMalformedDataURL)
	}

	mimeType := strings.TrimSuffix(header, ";base64")
	if idx := strings.IndexByte(mimeType, ';'); idx != -1 {
		mimeType = mimeType[:idx]
	}

	data, err := decodeBase64(s[comma+1:])
	if err != nil {
		return "", nil, fmt.Errorf("%w; %v", ErrMalformedDataURL, err)
	}

	return mimeType, data, nil
}

// StripHeader removes a leading "<anything>," header, leaving the base64 body.
// Content without a header is returned unchanged.
func StripHeader(s string) string {
	if idx := strings.IndexByte(s, ','); idx > 0 {
		return s[idx+1:]
	}
	return s
}

// DetectMIME returns the MIME type of data from its magic bytes.
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

// decodeBody strips any data-URL header and decodes the base64 remainder.
func decodeBody(content string) ([]byte, error) {
	return decodeBase64(StripHeader(content))
}

// decodeBase64 accepts padded and unpadded base64 and ignores ASCII whitespace.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			return -1
		}
		return r
	}, s)

	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
