package acquire

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/kkdai/youtube/v2"
)

// fakeResolver simulates the YouTube client.
type fakeResolver struct {
	video     *youtube.Video
	videoErr  error
	stream    string
	streamErr error
	picked    *youtube.Format
}

// GetVideoContext returns injected metadata.
func (f *fakeResolver) GetVideoContext(ctx context.Context, url string) (*youtube.Video, error) {
	return f.video, f.videoErr
}

// GetStreamContext records the chosen format and returns injected bytes.
func (f *fakeResolver) GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	f.picked = format
	if f.streamErr != nil {
		return nil, 0, f.streamErr
	}
	return io.NopCloser(strings.NewReader(f.stream)), int64(len(f.stream)), nil
}

// progressiveFormats builds a format list mixing muxed and split streams.
func progressiveFormats() youtube.FormatList {
	return youtube.FormatList{
		{MimeType: "audio/mp4", AudioChannels: 2, Height: 0},
		{MimeType: "video/mp4", AudioChannels: 0, Height: 1080},
		{MimeType: "video/mp4", AudioChannels: 2, Height: 360},
		{MimeType: "video/mp4", AudioChannels: 2, Height: 720},
	}
}

// TestPickProgressiveFormatChoosesHighestMuxed checks selection ignores
// audio-only and video-only streams.
func TestPickProgressiveFormatChoosesHighestMuxed(t *testing.T) {
	format := pickProgressiveFormat(progressiveFormats())
	if format == nil {
		t.Fatal("expected a progressive format")
	}
	if format.Height != 720 {
		t.Fatalf("height = %d, want 720", format.Height)
	}
}

// TestPickProgressiveFormatNilWhenNoneMuxed checks the no-stream case.
func TestPickProgressiveFormatNilWhenNoneMuxed(t *testing.T) {
	formats := youtube.FormatList{
		{MimeType: "audio/mp4", AudioChannels: 2},
		{MimeType: "video/mp4", AudioChannels: 0, Height: 1080},
	}
	if format := pickProgressiveFormat(formats); format != nil {
		t.Fatalf("expected nil, got height %d", format.Height)
	}
}

// TestPlatformDownloadWritesBestStream checks the happy path end to end.
func TestPlatformDownloadWritesBestStream(t *testing.T) {
	resolver := &fakeResolver{
		video:  &youtube.Video{Formats: progressiveFormats()},
		stream: "muxed-bytes",
	}
	d := NewPlatformDownloaderForTests(resolver)

	path, err := d.Download(context.Background(), "https://youtu.be/abc", t.TempDir())
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if resolver.picked == nil || resolver.picked.Height != 720 {
		t.Fatalf("picked format = %+v, want 720p", resolver.picked)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "muxed-bytes" {
		t.Fatalf("content = %q", data)
	}
}

// TestPlatformDownloadNoProgressiveStream checks the typed failure.
func TestPlatformDownloadNoProgressiveStream(t *testing.T) {
	resolver := &fakeResolver{
		video: &youtube.Video{Formats: youtube.FormatList{
			{MimeType: "audio/mp4", AudioChannels: 2},
		}},
	}
	d := NewPlatformDownloaderForTests(resolver)

	_, err := d.Download(context.Background(), "https://youtu.be/abc", t.TempDir())
	if !errors.Is(err, ErrNoSuitableStream) {
		t.Fatalf("error = %v, want ErrNoSuitableStream", err)
	}
}

// TestPlatformDownloadResolveFailure checks metadata errors propagate.
func TestPlatformDownloadResolveFailure(t *testing.T) {
	resolver := &fakeResolver{videoErr: errors.New("age restricted")}
	d := NewPlatformDownloaderForTests(resolver)

	_, err := d.Download(context.Background(), "https://youtu.be/abc", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "resolve platform video") {
		t.Fatalf("error = %v", err)
	}
}
