// Package content converts raw Discord message bodies into the sanitized,
// image-annotated HTML stored for the public forum.
package content

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Transformer turns raw message text plus attachment URLs into final HTML.
type Transformer struct {
	images *ImageFetcher
}

// NewTransformer creates a Transformer using the given image fetcher.
func NewTransformer(images *ImageFetcher) *Transformer {
	return &Transformer{images: images}
}

// Transform sanitizes the raw body, converts it to HTML and appends an
// <img> tag with explicit dimensions for every image attachment. A failed
// dimension lookup skips that image and is never fatal.
func (t *Transformer) Transform(ctx context.Context, raw string, attachmentURLs []string) string {
	result := Sanitize(raw)
	htmlContent := ToHTML(result.Sanitized)

	var imageTags []string
	for _, u := range attachmentURLs {
		if !IsImageURL(u) {
			continue
		}
		meta, err := t.images.Fetch(ctx, u)
		if err != nil {
			log.Printf("Failed to fetch image metadata for %s, skipping: %v", u, err)
			continue
		}
		imageTags = append(imageTags,
			fmt.Sprintf(`<img src="%s" width="%d" height="%d" alt="Image" />`, meta.URL, meta.Width, meta.Height))
	}

	if len(imageTags) > 0 {
		if htmlContent != "" {
			htmlContent += "<br>"
		}
		htmlContent += strings.Join(imageTags, "<br>")
	}

	return htmlContent
}
