package content

import (
	"strings"

	"github.com/gosimple/slug"
)

// maxSlugLength matches the width of the slug columns.
const maxSlugLength = 255

// Slugify turns a channel name or thread title into a URL-safe slug:
// lowercase, non-alphanumerics collapsed to single hyphens, trimmed,
// capped at 255 characters.
func Slugify(title string) string {
	s := slug.Make(title)
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
		s = strings.TrimRight(s, "-")
	}
	return s
}
