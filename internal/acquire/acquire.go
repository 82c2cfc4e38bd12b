package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SourceKind identifies which download strategy materialized a video.
type SourceKind string

const (
	SourcePlatformStream SourceKind = "platform-stream"
	SourceDirectDownload SourceKind = "direct-download"
)

// Video is the locally materialized media artifact.
type Video struct {
	Path   string
	Source SourceKind
}

// ErrUnsupportedSource is returned for URLs no strategy can handle.
var ErrUnsupportedSource = errors.New("unsupported source URL")

// ErrNoSuitableStream is returned when a platform video has no progressive
// stream carrying both audio and video.
var ErrNoSuitableStream = errors.New("no progressive stream available")

// DownloadError reports a non-success HTTP status from a direct fetch.
type DownloadError struct {
	Status int
}

// Error formats the failed status for user-visible messages.
func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed with status %d", e.Status)
}

// AcquisitionError wraps any downloader failure with its underlying cause.
// Retry policy, if any, belongs to the caller; nothing is retried here.
type AcquisitionError struct {
	Err error
}

// Error formats the acquisition failure.
func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed: %v", e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// downloader is one URL-to-file strategy.
type downloader interface {
	Download(ctx context.Context, rawURL, destDir string) (string, error)
}

// Acquirer resolves a URL into a local video file using exactly one of two
// strategies: a platform stream downloader or a generic HTTP fetcher.
type Acquirer struct {
	platform downloader
	direct   downloader
}

// New builds an acquirer with production downloaders sharing one HTTP client.
func New(httpClient *http.Client) *Acquirer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Acquirer{
		platform: NewPlatformDownloader(httpClient),
		direct:   NewDirectDownloader(httpClient),
	}
}

// NewForTests builds an acquirer with injected strategy fakes.
func NewForTests(platform, direct downloader) *Acquirer {
	return &Acquirer{platform: platform, direct: direct}
}

// Acquire dispatches the URL to exactly one strategy and writes one file
// into destDir. Strategy failures are wrapped once as AcquisitionError.
func (a *Acquirer) Acquire(ctx context.Context, rawURL, destDir string) (Video, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return Video{}, ErrUnsupportedSource
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return Video{}, ErrUnsupportedSource
	}

	switch {
	case isPlatformHost(parsed.Host):
		localPath, err := a.platform.Download(ctx, trimmed, destDir)
		if err != nil {
			return Video{}, &AcquisitionError{Err: err}
		}
		return Video{Path: localPath, Source: SourcePlatformStream}, nil

	case hasMediaExtension(parsed.Path):
		localPath, err := a.direct.Download(ctx, trimmed, destDir)
		if err != nil {
			return Video{}, &AcquisitionError{Err: err}
		}
		return Video{Path: localPath, Source: SourceDirectDownload}, nil

	default:
		return Video{}, ErrUnsupportedSource
	}
}

// isPlatformHost matches known video-hosting platform hosts.
func isPlatformHost(host string) bool {
	host = strings.ToLower(host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return host == "youtu.be" ||
		host == "youtube.com" ||
		strings.HasSuffix(host, ".youtube.com")
}

// hasMediaExtension matches URL paths ending in a recognized container.
func hasMediaExtension(urlPath string) bool {
	switch strings.ToLower(path.Ext(urlPath)) {
	case ".mp4", ".m4v", ".mov", ".webm":
		return true
	default:
		return false
	}
}

// writeAtomic streams r to a temporary name and renames into place, so a
// partial download is never visible under the final name.
func writeAtomic(destDir, name string, r io.Reader) (string, error) {
	finalPath := filepath.Join(destDir, name)
	partialPath := finalPath + ".partial"

	f, err := os.Create(partialPath)
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(partialPath)
		return "", fmt.Errorf("write download: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(partialPath)
		return "", fmt.Errorf("flush download: %w", err)
	}

	if err := os.Rename(partialPath, finalPath); err != nil {
		_ = os.Remove(partialPath)
		return "", fmt.Errorf("commit download: %w", err)
	}
	return finalPath, nil
}
