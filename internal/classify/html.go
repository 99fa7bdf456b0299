package classify

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractImageURLs returns the distinct <img> sources in an HTML fragment,
// in document order. srcset candidates are included. Relative sources are
// resolved against base when it is non-nil and dropped otherwise.
func ExtractImageURLs(r io.Reader, base *url.URL) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html; %w", err)
	}

	var (
		urls []string
		seen = make(map[string]bool)
	)
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		if !IsValidURL(raw) {
			if base == nil {
				return
			}
			ref, err := url.Parse(raw)
			if err != nil {
				return
			}
			raw = base.ResolveReference(ref).String()
		}
		if !seen[raw] {
			seen[raw] = true
			urls = append(urls, raw)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "img" {
			for _, attr := range n.Attr {
				switch attr.Key {
				case "src":
					add(attr.Val)
				case "srcset":
					for _, candidate := range strings.Split(attr.Val, ",") {
						if fields := strings.Fields(candidate); len(fields) > 0 {
							add(fields[0])
						}
					}
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return urls, nil
}
