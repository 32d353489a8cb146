package assistant

import (
	"context"
	"errors"
)

// ErrVoiceUnsupported is returned when voice capture is requested but no
// working recognizer is available.
var ErrVoiceUnsupported = errors.New("voice input is not supported")

// Recognizer is a speech-capture session. Start and Stop bound the capture;
// the utterance handler fires with the final transcript (possibly empty) when
// capture ends. Implementations must make Stop a no-op when no capture is
// active.
type Recognizer interface {
	Start(ctx context.Context) error
	Stop()
	OnUtteranceEnd(fn func(transcript string))
	Supported() bool
}

// Synthesizer is a speech-playback service. Speak blocks until playback of
// the given text has been produced or fails; Cancel aborts any in-flight
// playback.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
	Cancel()
	Speaking() bool
	Supported() bool
}
