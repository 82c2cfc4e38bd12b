package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Audio is the extracted linear-PCM artifact.
type Audio struct {
	Path         string
	SampleFormat string
}

// ErrNoAudioTrack is returned when the container has no audio stream.
var ErrNoAudioTrack = errors.New("media has no audio track")

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Stderr   string   `json:"stderr"`
}

// DecodeError reports a corrupt or unsupported media decode failure with
// command context attached.
type DecodeError struct {
	Log CommandLog
	Err error
}

// Error formats decode failures for logs and user-visible messages.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("audio decode failed (cmd=%s exit=%d)", e.Log.Command, e.Log.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Extractor isolates a video's audio track into 16-bit PCM WAV.
type Extractor struct {
	ffmpegPath string
	runner     commandRunner
	stat       func(name string) (os.FileInfo, error)
}

// New constructs the production extractor with OS dependencies.
func New() *Extractor {
	return &Extractor{
		ffmpegPath: "ffmpeg",
		runner:     &execRunner{},
		stat:       os.Stat,
	}
}

// NewForTests constructs an extractor with injectable dependencies.
func NewForTests(ffmpegPath string, runner commandRunner, stat func(string) (os.FileInfo, error)) *Extractor {
	return &Extractor{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		stat:       stat,
	}
}

// Extract decodes the container and writes audio.wav into destDir. The
// input video is never mutated or deleted here.
func (e *Extractor) Extract(ctx context.Context, videoPath, destDir string) (Audio, error) {
	if _, err := e.stat(videoPath); err != nil {
		return Audio{}, fmt.Errorf("cannot access input video %s: %w", videoPath, err)
	}

	outPath := filepath.Join(destDir, "audio.wav")
	args := buildFFmpegArgs(videoPath, outPath)

	result, runErr := e.runner.Run(ctx, e.ffmpegPath, args...)
	log := CommandLog{
		Command:  e.ffmpegPath,
		Args:     args,
		ExitCode: result.ExitCode,
		Stderr:   result.Stderr,
	}
	if runErr != nil {
		if indicatesNoAudioStream(result.Stderr) {
			return Audio{}, ErrNoAudioTrack
		}
		return Audio{}, &DecodeError{Log: log, Err: runErr}
	}

	if _, err := e.stat(outPath); err != nil {
		return Audio{}, &DecodeError{Log: log, Err: fmt.Errorf("ffmpeg completed but output is missing: %w", err)}
	}

	return Audio{Path: outPath, SampleFormat: "pcm_s16le"}, nil
}

// buildFFmpegArgs builds CLI args for 16-bit PCM WAV output at the source's
// native sample rate and channel layout.
func buildFFmpegArgs(inputPath, outPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-map", "0:a:0",
		"-c:a", "pcm_s16le",
		outPath,
	}
}

// indicatesNoAudioStream matches ffmpeg stderr for a missing audio track.
func indicatesNoAudioStream(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "matches no streams") ||
		strings.Contains(s, "does not contain any stream") ||
		strings.Contains(s, "output file does not contain any stream")
}
