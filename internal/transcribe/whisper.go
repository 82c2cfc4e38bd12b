package transcribe

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// wavHeaderSize is the canonical RIFF/WAVE header length; a file at or
// below this size carries no samples.
const wavHeaderSize = 44

// speechClient is the narrow slice of the OpenAI client used here.
type speechClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Whisper transcribes audio through the OpenAI transcription endpoint.
type Whisper struct {
	client speechClient
	model  string
	stat   func(name string) (os.FileInfo, error)
}

// NewWhisper builds the production transcriber.
func NewWhisper(apiKey, model string) *Whisper {
	if model == "" {
		model = openai.Whisper1
	}
	return &Whisper{
		client: openai.NewClient(apiKey),
		model:  model,
		stat:   os.Stat,
	}
}

// NewWhisperForTests builds a transcriber with injected dependencies.
func NewWhisperForTests(client speechClient, model string, stat func(string) (os.FileInfo, error)) *Whisper {
	if stat == nil {
		stat = os.Stat
	}
	return &Whisper{client: client, model: model, stat: stat}
}

// Transcribe uploads the full audio payload and returns the transcript
// text verbatim apart from control-character stripping.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (string, error) {
	info, err := w.stat(audioPath)
	if err != nil {
		return "", fmt.Errorf("cannot access audio artifact %s: %w", audioPath, err)
	}
	if info.Size() <= wavHeaderSize {
		return "", ErrEmptyAudio
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
	})
	if err != nil {
		return "", &ServiceError{Err: err}
	}

	return stripControl(resp.Text), nil
}
