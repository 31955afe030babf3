package content

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	_ "golang.org/x/image/webp" // Discord's CDN serves attachments as webp
)

// ImageMeta holds the dimensions fetched for an attachment URL. Explicit
// width/height on the rendered <img> tag prevents layout shift.
type ImageMeta struct {
	URL    string
	Width  int
	Height int
}

// ImageFetcher probes remote image URLs for their dimensions.
type ImageFetcher struct {
	client *http.Client
}

// NewImageFetcher creates an ImageFetcher with a bounded request timeout.
func NewImageFetcher() *ImageFetcher {
	return &ImageFetcher{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// imageExtensions are the attachment types rendered inline.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// IsImageURL reports whether the attachment URL looks like an image.
func IsImageURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// Fetch retrieves the dimensions of the image at the given URL. Only the
// image header is decoded, the body is not read in full.
func (f *ImageFetcher) Fetch(ctx context.Context, rawURL string) (ImageMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ImageMeta{}, fmt.Errorf("failed to build image request for %s: %w", rawURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return ImageMeta{}, fmt.Errorf("failed to fetch image %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ImageMeta{}, fmt.Errorf("unexpected status %d fetching image %s", resp.StatusCode, rawURL)
	}

	cfg, _, err := image.DecodeConfig(resp.Body)
	if err != nil {
		return ImageMeta{}, fmt.Errorf("failed to decode image header for %s: %w", rawURL, err)
	}

	return ImageMeta{URL: rawURL, Width: cfg.Width, Height: cfg.Height}, nil
}
