package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"accent-detector/internal/acquire"
	"accent-detector/internal/classify"
	"accent-detector/internal/domain"
	"accent-detector/internal/extract"
)

// fakeAcquirer delegates to an injected function.
type fakeAcquirer struct {
	fn func(ctx context.Context, rawURL, destDir string) (acquire.Video, error)
}

func (f *fakeAcquirer) Acquire(ctx context.Context, rawURL, destDir string) (acquire.Video, error) {
	return f.fn(ctx, rawURL, destDir)
}

// fakeExtractor delegates to an injected function.
type fakeExtractor struct {
	fn func(ctx context.Context, videoPath, destDir string) (extract.Audio, error)
}

func (f *fakeExtractor) Extract(ctx context.Context, videoPath, destDir string) (extract.Audio, error) {
	return f.fn(ctx, videoPath, destDir)
}

// fakeTranscriber delegates to an injected function.
type fakeTranscriber struct {
	fn func(ctx context.Context, audioPath string) (string, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f.fn(ctx, audioPath)
}

// fakeClassifier delegates to an injected function.
type fakeClassifier struct {
	fn func(ctx context.Context, transcript string) (domain.Classification, error)
}

func (f *fakeClassifier) Classify(ctx context.Context, transcript string) (domain.Classification, error) {
	return f.fn(ctx, transcript)
}

// mustWriteFile writes a file or aborts the test.
func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// workingStages builds fakes that materialize real artifact files, so the
// cleanup and eager-release guarantees can be observed on disk.
func workingStages(t *testing.T, workDir *string) (*fakeAcquirer, *fakeExtractor, *fakeTranscriber, *fakeClassifier) {
	t.Helper()

	acq := &fakeAcquirer{fn: func(ctx context.Context, rawURL, destDir string) (acquire.Video, error) {
		*workDir = destDir
		path := filepath.Join(destDir, "video.mp4")
		mustWriteFile(t, path, "video")
		return acquire.Video{Path: path, Source: acquire.SourceDirectDownload}, nil
	}}

	ext := &fakeExtractor{fn: func(ctx context.Context, videoPath, destDir string) (extract.Audio, error) {
		if _, err := os.Stat(videoPath); err != nil {
			t.Fatalf("video missing when extract ran: %v", err)
		}
		path := filepath.Join(destDir, "audio.wav")
		mustWriteFile(t, path, "audio")
		return extract.Audio{Path: path, SampleFormat: "pcm_s16le"}, nil
	}}

	svc := &fakeTranscriber{fn: func(ctx context.Context, audioPath string) (string, error) {
		if _, err := os.Stat(audioPath); err != nil {
			t.Fatalf("audio missing when transcribe ran: %v", err)
		}
		if _, err := os.Stat(filepath.Join(filepath.Dir(audioPath), "video.mp4")); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("video not released before transcription, stat err = %v", err)
		}
		return "hello from the lift", nil
	}}

	cls := &fakeClassifier{fn: func(ctx context.Context, transcript string) (domain.Classification, error) {
		return domain.Classification{
			Accent:     domain.AccentBritish,
			Confidence: 88,
			Summary:    "ok",
			Strategy:   domain.StrategyModel,
		}, nil
	}}

	return acq, ext, svc, cls
}

// TestAnalyzeHappyPath checks stage order, eager artifact release, and
// full workspace cleanup on success.
func TestAnalyzeHappyPath(t *testing.T) {
	var workDir string
	acq, ext, svc, cls := workingStages(t, &workDir)
	p := NewForTests(acq, ext, svc, cls, classify.NewHeuristic(), zerolog.Nop())

	var statuses []domain.RunStatus
	report, err := p.Analyze(context.Background(), Request{
		URL: "https://cdn.example.com/clip.mp4",
		OnStage: func(runID string, status domain.RunStatus) {
			statuses = append(statuses, status)
		},
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.Transcript != "hello from the lift" {
		t.Fatalf("transcript = %q", report.Transcript)
	}
	if report.Classification.Accent != domain.AccentBritish {
		t.Fatalf("accent = %q", report.Classification.Accent)
	}
	if report.RunID == "" {
		t.Fatal("expected run id")
	}

	want := []domain.RunStatus{
		domain.RunStatusAcquiring,
		domain.RunStatusExtracting,
		domain.RunStatusTranscribing,
		domain.RunStatusClassifying,
		domain.RunStatusDone,
	}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v", statuses)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("status[%d] = %q, want %q", i, statuses[i], want[i])
		}
	}

	if _, err := os.Stat(workDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("workspace not cleaned up, stat err = %v", err)
	}
}

// TestAnalyzeStageFailureCleansUp checks a mid-pipeline failure surfaces
// as a stage-tagged error and leaves no files behind.
func TestAnalyzeStageFailureCleansUp(t *testing.T) {
	var workDir string
	acq, _, svc, cls := workingStages(t, &workDir)
	ext := &fakeExtractor{fn: func(ctx context.Context, videoPath, destDir string) (extract.Audio, error) {
		return extract.Audio{}, extract.ErrNoAudioTrack
	}}
	p := NewForTests(acq, ext, svc, cls, classify.NewHeuristic(), zerolog.Nop())

	var last domain.RunStatus
	_, err := p.Analyze(context.Background(), Request{
		URL: "https://cdn.example.com/clip.mp4",
		OnStage: func(runID string, status domain.RunStatus) {
			last = status
		},
	})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error = %T, want *StageError", err)
	}
	if stageErr.Stage != StageExtract {
		t.Fatalf("stage = %q, want %q", stageErr.Stage, StageExtract)
	}
	if !errors.Is(err, extract.ErrNoAudioTrack) {
		t.Fatalf("cause not preserved: %v", err)
	}
	if last != domain.RunStatusFailed {
		t.Fatalf("last status = %q, want failed", last)
	}
	if _, err := os.Stat(workDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("workspace not cleaned up after failure, stat err = %v", err)
	}
}

// TestAnalyzeTranscribeFailureCleansUp checks the deferred sweep catches
// artifacts whose eager release never ran.
func TestAnalyzeTranscribeFailureCleansUp(t *testing.T) {
	var workDir string
	acq, ext, _, cls := workingStages(t, &workDir)
	svc := &fakeTranscriber{fn: func(ctx context.Context, audioPath string) (string, error) {
		return "", errors.New("service unavailable")
	}}
	p := NewForTests(acq, ext, svc, cls, classify.NewHeuristic(), zerolog.Nop())

	_, err := p.Analyze(context.Background(), Request{URL: "https://cdn.example.com/clip.mp4"})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error = %T, want *StageError", err)
	}
	if stageErr.Stage != StageTranscribe {
		t.Fatalf("stage = %q", stageErr.Stage)
	}
	if _, err := os.Stat(workDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("workspace not cleaned up, stat err = %v", err)
	}
}

// TestAnalyzeFallsBackToHeuristic checks a full completion-call failure is
// recovered by the heuristic strategy instead of surfacing an error.
func TestAnalyzeFallsBackToHeuristic(t *testing.T) {
	var workDir string
	acq, ext, svc, _ := workingStages(t, &workDir)
	primary := &fakeClassifier{fn: func(ctx context.Context, transcript string) (domain.Classification, error) {
		return domain.Classification{}, &classify.CompletionError{Err: errors.New("auth failed")}
	}}
	p := NewForTests(acq, ext, svc, primary, classify.NewHeuristic(), zerolog.Nop())

	report, err := p.Analyze(context.Background(), Request{URL: "https://cdn.example.com/clip.mp4"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.Classification.Strategy != domain.StrategyHeuristic {
		t.Fatalf("strategy = %q, want heuristic", report.Classification.Strategy)
	}
	if report.Classification.Accent == domain.AccentUnknown {
		t.Fatalf("fallback produced Unknown: %+v", report.Classification)
	}
}

// TestAnalyzeCancelledContext checks cancellation stops at a stage
// boundary, reports cancelled, and still cleans up.
func TestAnalyzeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var workDir string
	acq := &fakeAcquirer{fn: func(ctx context.Context, rawURL, destDir string) (acquire.Video, error) {
		workDir = destDir
		path := filepath.Join(destDir, "video.mp4")
		mustWriteFile(t, path, "video")
		cancel()
		return acquire.Video{Path: path, Source: acquire.SourceDirectDownload}, nil
	}}
	ext := &fakeExtractor{fn: func(ctx context.Context, videoPath, destDir string) (extract.Audio, error) {
		t.Fatal("extract ran after cancellation")
		return extract.Audio{}, nil
	}}
	svc := &fakeTranscriber{fn: func(ctx context.Context, audioPath string) (string, error) { return "", nil }}
	cls := classify.NewHeuristic()
	p := NewForTests(acq, ext, svc, cls, cls, zerolog.Nop())

	var last domain.RunStatus
	_, err := p.Analyze(ctx, Request{
		URL: "https://cdn.example.com/clip.mp4",
		OnStage: func(runID string, status domain.RunStatus) {
			last = status
		},
	})

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error = %T, want *StageError", err)
	}
	if stageErr.Stage != StageExtract {
		t.Fatalf("stage = %q, want %q", stageErr.Stage, StageExtract)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cause = %v, want context.Canceled", err)
	}
	if last != domain.RunStatusCancelled {
		t.Fatalf("last status = %q, want cancelled", last)
	}
	if _, err := os.Stat(workDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("workspace not cleaned up, stat err = %v", err)
	}
}

// TestAnalyzeEmptyURL checks the input constraint before any work starts.
func TestAnalyzeEmptyURL(t *testing.T) {
	cls := classify.NewHeuristic()
	p := NewForTests(
		&fakeAcquirer{fn: func(ctx context.Context, rawURL, destDir string) (acquire.Video, error) {
			t.Fatal("acquire ran for empty URL")
			return acquire.Video{}, nil
		}},
		&fakeExtractor{fn: func(ctx context.Context, videoPath, destDir string) (extract.Audio, error) {
			return extract.Audio{}, nil
		}},
		&fakeTranscriber{fn: func(ctx context.Context, audioPath string) (string, error) { return "", nil }},
		cls, cls, zerolog.Nop(),
	)

	_, err := p.Analyze(context.Background(), Request{URL: "  "})
	if !errors.Is(err, acquire.ErrUnsupportedSource) {
		t.Fatalf("error = %v, want ErrUnsupportedSource", err)
	}
}

// TestAnalyzeConcurrentRunsUseDistinctWorkspaces checks runs never share
// temp directories.
func TestAnalyzeConcurrentRunsUseDistinctWorkspaces(t *testing.T) {
	dirs := make(chan string, 2)
	acq := &fakeAcquirer{fn: func(ctx context.Context, rawURL, destDir string) (acquire.Video, error) {
		dirs <- destDir
		path := filepath.Join(destDir, "video.mp4")
		mustWriteFile(t, path, "video")
		return acquire.Video{Path: path, Source: acquire.SourceDirectDownload}, nil
	}}
	ext := &fakeExtractor{fn: func(ctx context.Context, videoPath, destDir string) (extract.Audio, error) {
		path := filepath.Join(destDir, "audio.wav")
		mustWriteFile(t, path, "audio")
		return extract.Audio{Path: path}, nil
	}}
	svc := &fakeTranscriber{fn: func(ctx context.Context, audioPath string) (string, error) { return "text", nil }}
	cls := classify.NewHeuristic()
	p := NewForTests(acq, ext, svc, cls, cls, zerolog.Nop())

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := p.Analyze(context.Background(), Request{URL: "https://cdn.example.com/clip.mp4"})
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
	}

	first, second := <-dirs, <-dirs
	if first == second {
		t.Fatalf("runs shared workspace %q", first)
	}
}
