package speech

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var ErrCaptureInactive = errors.New("no capture session is active")

// WhisperRecognizer implements speech capture backed by the OpenAI
// transcription API. Audio is written between Start and Stop; Stop transcribes
// the buffered audio and fires the utterance handler with the result. The
// handler receives an empty transcript when nothing usable was captured.
type WhisperRecognizer struct {
	client *openai.Client
	model  string

	mu        sync.Mutex
	buf       bytes.Buffer
	capturing bool
	filename  string
	handler   func(transcript string)
}

// transcribeTimeout bounds the transcription call made by Stop, which runs
// outside any request context.
const transcribeTimeout = 60 * time.Second

// NewWhisperRecognizer builds a recognizer. A nil client yields an
// unsupported recognizer that refuses to start.
func NewWhisperRecognizer(client *openai.Client, model string) *WhisperRecognizer {
	return &WhisperRecognizer{client: client, model: model, filename: "capture.webm"}
}

func (r *WhisperRecognizer) Supported() bool { return r.client != nil }

// OnUtteranceEnd registers the end-of-utterance transcript handler.
func (r *WhisperRecognizer) OnUtteranceEnd(fn func(transcript string)) {
	r.mu.Lock()
	r.handler = fn
	r.mu.Unlock()
}

// Start opens a capture session, discarding any previously buffered audio.
func (r *WhisperRecognizer) Start(ctx context.Context) error {
	if !r.Supported() {
		return errors.New("transcription client not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.Reset()
	r.capturing = true
	return nil
}

// Write appends captured audio. The filename set via SetFilename tells the
// transcription API which container format the bytes are in.
func (r *WhisperRecognizer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.capturing {
		return 0, ErrCaptureInactive
	}
	return r.buf.Write(p)
}

// SetFilename records the original upload name for format detection.
func (r *WhisperRecognizer) SetFilename(name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	r.mu.Lock()
	r.filename = name
	r.mu.Unlock()
}

// Stop ends the capture session, transcribes what was buffered, and invokes
// the utterance handler before returning. Calling Stop without an active
// session is a no-op.
func (r *WhisperRecognizer) Stop() {
	r.mu.Lock()
	if !r.capturing {
		r.mu.Unlock()
		return
	}
	r.capturing = false
	audio := append([]byte(nil), r.buf.Bytes()...)
	r.buf.Reset()
	filename := r.filename
	handler := r.handler
	r.mu.Unlock()

	if handler == nil {
		return
	}
	if len(audio) == 0 {
		handler("")
		return
	}

	// The request that started the capture may be long gone by now, so the
	// transcription call gets its own bounded context.
	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	tr, err := r.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    r.model,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
	})
	if err != nil {
		log.Println("[voice] transcription error:", err)
		handler("")
		return
	}
	handler(strings.TrimSpace(tr.Text))
}
