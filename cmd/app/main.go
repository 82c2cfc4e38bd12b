package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"accent-detector/internal/config"
	"accent-detector/internal/diagnostics"
	"accent-detector/internal/domain"
	"accent-detector/internal/pipeline"
	"accent-detector/internal/runs"
)

func main() {
	urlFlag := flag.String("url", "", "public video URL (YouTube or direct media link)")
	strategyFlag := flag.String("strategy", "", "classification strategy: model or heuristic")
	verboseFlag := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !*verboseFlag {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if strings.TrimSpace(*urlFlag) == "" {
		fmt.Fprintln(os.Stderr, "usage: app -url <video URL> [-strategy model|heuristic]")
		os.Exit(2)
	}

	if err := run(*urlFlag, *strategyFlag, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, verifies the environment, and executes one
// analysis, printing the transcript and classification.
func run(url, strategy string, logger zerolog.Logger) error {
	store := config.NewJSONStore(config.DefaultStorePath())
	settings, err := store.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("settings load failed, using defaults")
		settings = config.DefaultSettings()
	}

	cfg := config.FromEnv().ApplySettings(settings)
	if strings.TrimSpace(strategy) != "" {
		cfg.Strategy = domain.Strategy(strings.ToLower(strategy))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	report := diagnostics.NewChecker().Run(cfg)
	for _, item := range report.Items {
		if item.Status == domain.DiagnosticStatusFail {
			logger.Error().Str("check", item.Name).Str("hint", item.Hint).Msg(item.Message)
		}
	}
	if report.HasFailures {
		return errors.New("environment checks failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	tracker := runs.NewTracker()
	bus := runs.NewEventBus(100)
	onStage := func(runID string, status domain.RunStatus) {
		if _, ok := tracker.Get(runID); !ok {
			if err := tracker.Start(runID, url); err != nil {
				logger.Warn().Err(err).Msg("run tracking failed")
				return
			}
		}
		if err := tracker.Transition(runID, status); err != nil {
			logger.Warn().Err(err).Msg("run transition rejected")
		}
		bus.Publish(runs.Event{RunID: runID, Type: runs.EventTypeStatus, Status: status})
		logger.Debug().Str("run_id", runID).Str("status", string(status)).Msg("run status")
	}

	p := pipeline.New(cfg, logger)
	result, err := p.Analyze(ctx, pipeline.Request{URL: url, OnStage: onStage})
	if err != nil {
		bus.Publish(runs.Event{Type: runs.EventTypeError, Message: err.Error()})
		return err
	}
	bus.Publish(runs.Event{
		RunID:  result.RunID,
		Type:   runs.EventTypeResult,
		Accent: result.Classification.Accent,
	})

	fmt.Println("Transcript:")
	fmt.Println(result.Transcript)
	fmt.Println()
	fmt.Printf("Accent:     %s\n", result.Classification.Accent)
	fmt.Printf("Confidence: %.1f\n", result.Classification.Confidence)
	fmt.Printf("Summary:    %s\n", result.Classification.Summary)
	fmt.Printf("Strategy:   %s\n", result.Classification.Strategy)
	return nil
}
