package core

import (
	"regexp"
	"strings"
)

var slugRegex *regexp.Regexp = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeSlug derives an URL-safe slug from a document title.
func NormalizeSlug(slug string) string {

	slug = strings.ToLower(strings.TrimSpace(slug))
	slug = slugRegex.ReplaceAllString(slug, `-`)

	for len(slug) > 0 && slug[len(slug)-1] == '-' {
		slug = slug[:len(slug)-1]
	}
	for len(slug) > 0 && slug[0] == '-' {
		slug = slug[1:]
	}

	return slug
}
