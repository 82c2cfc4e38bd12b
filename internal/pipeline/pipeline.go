// Package pipeline sequences media acquisition, audio extraction,
// transcription, and accent classification for one URL, owning every
// transient artifact the stages produce.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"accent-detector/internal/acquire"
	"accent-detector/internal/classify"
	"accent-detector/internal/config"
	"accent-detector/internal/domain"
	"accent-detector/internal/extract"
	"accent-detector/internal/transcribe"
)

// Stage identifies which pipeline step produced a failure.
type Stage string

const (
	StageAcquire    Stage = "acquire"
	StageExtract    Stage = "extract"
	StageTranscribe Stage = "transcribe"
	StageClassify   Stage = "classify"
)

// StageError wraps a stage failure once for single-point reporting. No
// stage failure reaches the caller unwrapped.
type StageError struct {
	Stage Stage
	Err   error
}

// Error formats the failure naming the stage and cause.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Request is one analysis request. OnStage, when set, receives run status
// transitions including the terminal one.
type Request struct {
	URL     string
	OnStage func(runID string, status domain.RunStatus)
}

// Report is the successful outcome of one run.
type Report struct {
	RunID          string
	Transcript     string
	Classification domain.Classification
}

// acquirer resolves a URL into a local video file inside destDir.
type acquirer interface {
	Acquire(ctx context.Context, rawURL, destDir string) (acquire.Video, error)
}

// extractor isolates a video's audio track into destDir.
type extractor interface {
	Extract(ctx context.Context, videoPath, destDir string) (extract.Audio, error)
}

// Pipeline runs the four stages in order with guaranteed artifact cleanup.
// One Pipeline value is safe for concurrent Analyze calls: each run works
// in its own uuid-named temp directory and shares no mutable state.
type Pipeline struct {
	acquirer    acquirer
	extractor   extractor
	transcriber transcribe.Service
	classifier  classify.Classifier
	fallback    classify.Classifier
	logger      zerolog.Logger

	newRunID  func() string
	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
	remove    func(path string) error
}

// New constructs the production pipeline from explicit configuration.
func New(cfg config.Config, logger zerolog.Logger) *Pipeline {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	var primary classify.Classifier
	heuristic := classify.NewHeuristic()
	if cfg.Strategy == domain.StrategyHeuristic {
		primary = heuristic
	} else {
		primary = classify.NewModel(cfg.APIKey, cfg.CompletionModel)
	}

	return &Pipeline{
		acquirer:    acquire.New(httpClient),
		extractor:   extract.New(),
		transcriber: transcribe.NewWhisper(cfg.APIKey, cfg.SpeechModel),
		classifier:  primary,
		fallback:    heuristic,
		logger:      logger,
		newRunID:    uuid.NewString,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		remove:      os.Remove,
	}
}

// NewForTests constructs a pipeline with injected stages and OS deps.
func NewForTests(
	acq acquirer,
	ext extractor,
	svc transcribe.Service,
	primary classify.Classifier,
	fallback classify.Classifier,
	logger zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		acquirer:    acq,
		extractor:   ext,
		transcriber: svc,
		classifier:  primary,
		fallback:    fallback,
		logger:      logger,
		newRunID:    uuid.NewString,
		mkdirTemp:   os.MkdirTemp,
		removeAll:   os.RemoveAll,
		remove:      os.Remove,
	}
}

// Analyze runs acquire, extract, transcribe, classify for one URL and
// short-circuits on the first stage failure. Every file created during the
// run is deleted on every exit path; a cancelled context stops the run at
// the next stage boundary.
func (p *Pipeline) Analyze(ctx context.Context, req Request) (Report, error) {
	if strings.TrimSpace(req.URL) == "" {
		return Report{}, &StageError{Stage: StageAcquire, Err: acquire.ErrUnsupportedSource}
	}

	runID := p.newRunID()
	logger := p.logger.With().Str("run_id", runID).Logger()
	started := time.Now()

	emit := func(status domain.RunStatus) {
		if req.OnStage != nil {
			req.OnStage(runID, status)
		}
	}
	fail := func(ctx context.Context, stage Stage, err error) (Report, error) {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			emit(domain.RunStatusCancelled)
		} else {
			emit(domain.RunStatusFailed)
		}
		logger.Error().Str("stage", string(stage)).Err(err).Msg("pipeline stage failed")
		return Report{}, &StageError{Stage: stage, Err: err}
	}

	workDir, err := p.mkdirTemp("", "accent-detector-"+runID+"-*")
	if err != nil {
		return fail(ctx, StageAcquire, fmt.Errorf("create run workspace: %w", err))
	}
	defer func() {
		if err := p.removeAll(workDir); err != nil {
			logger.Warn().Err(err).Str("dir", workDir).Msg("workspace cleanup failed")
		}
	}()

	if err := ctx.Err(); err != nil {
		return fail(ctx, StageAcquire, err)
	}
	emit(domain.RunStatusAcquiring)
	logger.Info().Str("stage", string(StageAcquire)).Str("url", req.URL).Msg("acquiring source media")
	video, err := p.acquirer.Acquire(ctx, req.URL, workDir)
	if err != nil {
		return fail(ctx, StageAcquire, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(ctx, StageExtract, err)
	}
	emit(domain.RunStatusExtracting)
	logger.Info().Str("stage", string(StageExtract)).Str("source", string(video.Source)).Msg("extracting audio track")
	audio, err := p.extractor.Extract(ctx, video.Path, workDir)
	if err != nil {
		return fail(ctx, StageExtract, err)
	}
	p.release(logger, video.Path)

	if err := ctx.Err(); err != nil {
		return fail(ctx, StageTranscribe, err)
	}
	emit(domain.RunStatusTranscribing)
	logger.Info().Str("stage", string(StageTranscribe)).Msg("transcribing audio")
	text, err := p.transcriber.Transcribe(ctx, audio.Path)
	if err != nil {
		return fail(ctx, StageTranscribe, err)
	}
	p.release(logger, audio.Path)

	if err := ctx.Err(); err != nil {
		return fail(ctx, StageClassify, err)
	}
	emit(domain.RunStatusClassifying)
	logger.Info().Str("stage", string(StageClassify)).Msg("classifying accent")
	result, err := p.classifier.Classify(ctx, text)
	if err != nil {
		logger.Warn().Err(err).Msg("primary classifier failed, falling back to heuristic")
		result, err = p.fallback.Classify(ctx, text)
		if err != nil {
			return fail(ctx, StageClassify, err)
		}
	}

	emit(domain.RunStatusDone)
	logger.Info().
		Str("accent", string(result.Accent)).
		Float64("confidence", result.Confidence).
		Str("strategy", string(result.Strategy)).
		Dur("elapsed", time.Since(started)).
		Msg("analysis complete")

	return Report{RunID: runID, Transcript: text, Classification: result}, nil
}

// release deletes an artifact its consumer no longer needs. The deferred
// workspace sweep catches anything left behind on failure paths.
func (p *Pipeline) release(logger zerolog.Logger, path string) {
	if err := p.remove(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("artifact release failed")
	}
}
