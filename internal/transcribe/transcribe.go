// Package transcribe sends extracted audio to an external speech-to-text
// service. No local speech recognition is implemented.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service converts an audio file into plain transcript text. An empty
// transcript is a valid result (silence); only invocation failures error.
type Service interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ErrEmptyAudio is returned when the audio artifact has no content.
var ErrEmptyAudio = errors.New("audio artifact is empty")

// ServiceError reports a transport or service-side transcription failure.
type ServiceError struct {
	Err error
}

// Error formats the service failure.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("transcription service failed: %v", e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// stripControl removes raw service-added control characters while keeping
// the text otherwise verbatim, including whitespace and newlines.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
