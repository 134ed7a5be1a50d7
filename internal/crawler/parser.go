package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LinkExtractor returns the outgoing links of a page.
type LinkExtractor interface {
	// ExtractLinks returns the absolute form of every link in body,
	// resolved against base, in document order.
	ExtractLinks(body, base string) ([]string, error)
}

// Parser is the HTML LinkExtractor.
//
// Only <a> elements that carry an href attribute count as links. The page
// url is the base for resolution; <base> elements are ignored. Fragments are
// kept, and hrefs that do not parse as URLs are skipped. Scheme and host are
// not filtered.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ExtractLinks parses body as HTML and returns its <a href> links.
func (p *Parser) ExtractLinks(body, base string) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML of %s: %w", base, err)
	}

	links := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := getAttr(n, "href"); ok {
				if link, ok := resolveURL(baseURL, href); ok {
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// resolveURL resolves href against base.
func resolveURL(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// getAttr returns the value of the named attribute and whether it exists.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
