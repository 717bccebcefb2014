// Package listing extracts link targets from HTML directory listings.
package listing

import (
	"iter"
	"regexp"
	"strings"
)

// hrefPattern captures everything between `href="` and the next quote.
// Directory listings are generated by a known server, so no HTML parsing is done.
var hrefPattern = regexp.MustCompile(`href="([^"]*)`)

// Hrefs yields every href value in document order. The sequence is lazy and
// may be ranged over any number of times.
func Hrefs(html string) iter.Seq[string] {
	return func(yield func(string) bool) {
		rest := html
		for {
			loc := hrefPattern.FindStringSubmatchIndex(rest)
			if loc == nil {
				return
			}
			if !yield(rest[loc[2]:loc[3]]) {
				return
			}
			rest = rest[loc[1]:]
		}
	}
}

// All returns every href value in document order.
func All(html string) []string {
	var out []string
	for href := range Hrefs(html) {
		out = append(out, href)
	}
	return out
}

// FirstWithSuffix returns the first href ending in suffix.
func FirstWithSuffix(html, suffix string) (string, bool) {
	for href := range Hrefs(html) {
		if strings.HasSuffix(href, suffix) {
			return href, true
		}
	}
	return "", false
}

// WithPrefix returns every href starting with prefix, in document order.
func WithPrefix(html, prefix string) []string {
	var out []string
	for href := range Hrefs(html) {
		if strings.HasPrefix(href, prefix) {
			out = append(out, href)
		}
	}
	return out
}
