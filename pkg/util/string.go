package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLength = 80

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]+`)
	separators   = regexp.MustCompile(`[\s-]+`)
)

// StripAccents removes combining marks after canonical decomposition,
// so "Café Ñandú" becomes "Cafe Nandu".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify creates a URL-friendly slug from title
func Slugify(title string) string {
	slug := strings.ToLower(StripAccents(title))
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = separators.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}

	return slug
}

// AnchorID derives the id attribute used for in-article heading links.
// It follows the same rules as Slugify but is never truncated.
func AnchorID(heading string) string {
	id := strings.ToLower(StripAccents(heading))
	id = nonSlugChars.ReplaceAllString(id, "")
	id = separators.ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}

// CleanTags trims, de-duplicates and caps a tag list, preserving order.
func CleanTags(tags []string, limit int) []string {
	seen := make(map[string]struct{}, len(tags))
	cleaned := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		tag = strings.Trim(tag, "\"'#")
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, tag)
		if limit > 0 && len(cleaned) == limit {
			break
		}
	}

	return cleaned
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
