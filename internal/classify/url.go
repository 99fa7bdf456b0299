// Package classify decides whether a string is a URL and whether that URL
// resolves to a decodable image.
package classify

import (
	"net/url"
	"path"
	"strings"
)

// ImageExtensions lists the path extensions accepted without a network probe.
var ImageExtensions = []string{"jpeg", "jpg", "gif", "png", "webp", "tiff", "bmp"}

// specialSchemes require a host, mirroring the WHATWG URL parser. Any run of
// slashes after the colon, including none, introduces the authority.
var specialSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"ws":    true,
	"wss":   true,
}

// IsValidURL reports whether s parses as an absolute URL. Leading and
// trailing spaces and control characters are ignored.
func IsValidURL(s string) bool {
	_, ok := parseURL(s)
	return ok
}

// HasImageExtension reports whether the URL's path ends in a known image
// extension, case-insensitively. Query strings and fragments are ignored.
func HasImageExtension(s string) bool {
	u, ok := parseURL(s)
	if !ok {
		return false
	}

	p := u.Path
	if p == "" {
		p = u.Opaque
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if ext == "" {
		return false
	}
	for _, known := range ImageExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

func parseURL(s string) (*url.URL, bool) {
	s = strings.TrimFunc(s, func(r rune) bool { return r <= ' ' })
	if s == "" {
		return nil, false
	}

	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return nil, false
	}

	if specialSchemes[u.Scheme] && u.Host == "" {
		rest := strings.TrimLeft(s[len(u.Scheme)+1:], `/\`)
		u, err = url.Parse(u.Scheme + "://" + rest)
		if err != nil || u.Host == "" {
			return nil, false
		}
	}

	return u, true
}
