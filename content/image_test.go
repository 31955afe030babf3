package content

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
)

// pngBytes renders a blank PNG of the given size.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestIsImageURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/a/pic.png", true},
		{"https://cdn.example.com/a/pic.JPG", true},
		{"https://cdn.example.com/a/pic.webp?size=large", true},
		{"https://cdn.example.com/a/notes.txt", false},
		{"https://cdn.example.com/a/archive.zip", false},
		{"://bad url", false},
	}
	for _, tt := range tests {
		if got := IsImageURL(tt.url); got != tt.want {
			t.Errorf("IsImageURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestImageFetcherFetch(t *testing.T) {
	data := pngBytes(t, 10, 5)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer ts.Close()

	meta, err := NewImageFetcher().Fetch(context.Background(), ts.URL+"/pic.png")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if meta.Width != 10 || meta.Height != 5 {
		t.Errorf("dimensions = %dx%d, want 10x5", meta.Width, meta.Height)
	}
}

// webpBytes is a minimal valid 1x1 lossy WebP file.
var webpBytes = []byte{
	0x52, 0x49, 0x46, 0x46, 0x24, 0x00, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50,
	0x56, 0x50, 0x38, 0x20, 0x18, 0x00, 0x00, 0x00, 0x30, 0x01, 0x00, 0x9d,
	0x01, 0x2a, 0x01, 0x00, 0x01, 0x00, 0x02, 0x00, 0x34, 0x25, 0xa4, 0x00,
	0x03, 0x70, 0x00, 0xfe, 0xfb, 0xfd, 0x50, 0x00,
}

func TestImageFetcherFetchWebp(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(webpBytes)
	}))
	defer ts.Close()

	url := ts.URL + "/pic.webp"
	if !IsImageURL(url) {
		t.Fatal("webp attachment not recognized as an image")
	}

	meta, err := NewImageFetcher().Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if meta.Width != 1 || meta.Height != 1 {
		t.Errorf("dimensions = %dx%d, want 1x1", meta.Width, meta.Height)
	}
}

func TestImageFetcherFetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	if _, err := NewImageFetcher().Fetch(context.Background(), ts.URL+"/missing.png"); err == nil {
		t.Fatal("expected error for missing image")
	}
}

func TestTransform(t *testing.T) {
	data := pngBytes(t, 20, 30)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pic.png" {
			w.Write(data)
			return
		}
		http.NotFound(w, r)
	}))
	defer ts.Close()

	tr := NewTransformer(NewImageFetcher())
	attachments := []string{
		ts.URL + "/pic.png",
		ts.URL + "/notes.txt",   // not an image, ignored
		ts.URL + "/missing.png", // fetch fails, skipped
	}

	got := tr.Transform(context.Background(), "look at this", attachments)
	want := fmt.Sprintf(`<p>look at this</p><br><img src="%s/pic.png" width="20" height="30" alt="Image" />`, ts.URL)
	if got != want {
		t.Errorf("Transform = %q, want %q", got, want)
	}
}

func TestTransformNoBody(t *testing.T) {
	tr := NewTransformer(NewImageFetcher())
	if got := tr.Transform(context.Background(), "", nil); got != "" {
		t.Errorf("Transform of empty input = %q, want empty", got)
	}
}
