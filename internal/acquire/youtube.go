package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// streamResolver is the narrow slice of the YouTube client used here.
type streamResolver interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// PlatformDownloader materializes the best progressive YouTube stream.
type PlatformDownloader struct {
	client streamResolver
}

// NewPlatformDownloader builds a downloader backed by the YouTube client.
func NewPlatformDownloader(httpClient *http.Client) *PlatformDownloader {
	return &PlatformDownloader{
		client: &youtube.Client{HTTPClient: httpClient},
	}
}

// NewPlatformDownloaderForTests builds a downloader with an injected resolver.
func NewPlatformDownloaderForTests(client streamResolver) *PlatformDownloader {
	return &PlatformDownloader{client: client}
}

// Download resolves the video, picks the highest-resolution progressive
// format, and streams it into destDir.
func (d *PlatformDownloader) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	video, err := d.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("resolve platform video: %w", err)
	}

	format := pickProgressiveFormat(video.Formats)
	if format == nil {
		return "", ErrNoSuitableStream
	}

	stream, _, err := d.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("open platform stream: %w", err)
	}
	defer stream.Close()

	return writeAtomic(destDir, "video.mp4", stream)
}

// pickProgressiveFormat selects the highest-resolution format that muxes
// audio and video together. Returns nil when no such format exists.
func pickProgressiveFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 || !strings.HasPrefix(f.MimeType, "video/") {
			continue
		}
		if best == nil || f.Height > best.Height {
			best = f
		}
	}
	return best
}
