package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// DirectDownloader fetches a direct media URL with a streaming HTTP GET.
type DirectDownloader struct {
	client *http.Client
}

// NewDirectDownloader builds a fetcher using the given HTTP client.
func NewDirectDownloader(client *http.Client) *DirectDownloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &DirectDownloader{client: client}
}

// Download streams the response body into destDir. A non-success status
// yields DownloadError; partial writes never survive under the final name.
func (d *DirectDownloader) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &DownloadError{Status: resp.StatusCode}
	}

	return writeAtomic(destDir, directFileName(rawURL), resp.Body)
}

// directFileName derives a stable local name from the URL path extension.
func directFileName(rawURL string) string {
	ext := ".mp4"
	if parsed, err := url.Parse(rawURL); err == nil {
		if e := strings.ToLower(path.Ext(parsed.Path)); e != "" {
			ext = e
		}
	}
	return "video" + ext
}
