package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var ErrSynthesisUnavailable = errors.New("speech synthesis is not configured")

const elevenBaseURL = "https://api.elevenlabs.io/v1"

// ElevenSynthesizer implements speech playback through the ElevenLabs API.
// Speak synthesizes the text and hands the MP3 bytes to the sink; Cancel
// aborts the in-flight synthesis call.
type ElevenSynthesizer struct {
	apiKey     string
	voiceID    string
	modelID    string
	baseURL    string
	httpClient *http.Client
	sink       func(audio []byte)

	mu       sync.Mutex
	cancel   context.CancelFunc
	speaking atomic.Bool
}

// NewElevenSynthesizer builds a synthesizer. The sink receives the audio for
// each spoken utterance and may be nil when only Synthesize is used.
func NewElevenSynthesizer(apiKey, voiceID, modelID string, sink func(audio []byte)) *ElevenSynthesizer {
	return &ElevenSynthesizer{
		apiKey:     apiKey,
		voiceID:    voiceID,
		modelID:    modelID,
		baseURL:    elevenBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		sink:       sink,
	}
}

func (s *ElevenSynthesizer) Supported() bool {
	return s.apiKey != "" && s.voiceID != ""
}

func (s *ElevenSynthesizer) Speaking() bool { return s.speaking.Load() }

// Cancel aborts any playback in progress. Safe to call at any time.
func (s *ElevenSynthesizer) Cancel() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
}

// Speak synthesizes the text and delivers the audio to the sink.
func (s *ElevenSynthesizer) Speak(ctx context.Context, text string) error {
	if !s.Supported() {
		return ErrSynthesisUnavailable
	}
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	s.speaking.Store(true)
	defer func() {
		s.speaking.Store(false)
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	audio, err := s.Synthesize(ctx, text, "")
	if err != nil {
		return err
	}
	if s.sink != nil {
		s.sink(audio)
	}
	return nil
}

// Synthesize converts text to MP3 audio, optionally overriding the configured
// voice.
func (s *ElevenSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if s.apiKey == "" {
		return nil, ErrSynthesisUnavailable
	}
	if strings.TrimSpace(voiceID) == "" {
		voiceID = s.voiceID
	}
	if strings.TrimSpace(voiceID) == "" {
		return nil, errors.New("no voice configured or provided")
	}

	payload := map[string]any{
		"text":     text,
		"model_id": s.modelID,
		"voice_settings": map[string]any{
			"stability":         0.5,
			"similarity_boost":  0.7,
			"style":             0.2,
			"use_speaker_boost": true,
		},
		"optimize_streaming_latency": 4,
		"output_format":              "mp3_44100_128",
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/text-to-speech/%s/stream", s.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(resp.Body)
		log.Println("[tts] elevenlabs error:", strings.TrimSpace(string(bb)))
		return nil, fmt.Errorf("tts request failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// AudioBuffer is a sink target holding the most recent spoken utterance.
type AudioBuffer struct {
	mu   sync.Mutex
	data []byte
}

// Store replaces the buffered audio.
func (b *AudioBuffer) Store(audio []byte) {
	b.mu.Lock()
	b.data = append([]byte(nil), audio...)
	b.mu.Unlock()
}

// Take returns the buffered audio and empties the buffer.
func (b *AudioBuffer) Take() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.data
	b.data = nil
	return out
}
