package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSynthesizePostsTextAndReturnsAudio(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	s := NewElevenSynthesizer("key-123", "voice-abc", "eleven_turbo_v2", nil)
	s.baseURL = srv.URL

	audio, err := s.Synthesize(context.Background(), "Hello world", "")
	if err != nil {
		t.Fatalf("Synthesize err: %v", err)
	}
	if !bytes.Equal(audio, []byte("mp3-bytes")) {
		t.Fatalf("unexpected audio: %q", audio)
	}
	if gotPath != "/text-to-speech/voice-abc/stream" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotKey != "key-123" {
		t.Fatalf("unexpected api key: %q", gotKey)
	}
	if gotPayload["text"] != "Hello world" || gotPayload["model_id"] != "eleven_turbo_v2" {
		t.Fatalf("unexpected payload: %v", gotPayload)
	}
}

func TestSynthesizeVoiceOverride(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	s := NewElevenSynthesizer("key", "default-voice", "m", nil)
	s.baseURL = srv.URL
	if _, err := s.Synthesize(context.Background(), "hi", "other-voice"); err != nil {
		t.Fatalf("Synthesize err: %v", err)
	}
	if !strings.Contains(gotPath, "other-voice") {
		t.Fatalf("voice override ignored: %q", gotPath)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	s := NewElevenSynthesizer("", "voice", "m", nil)
	if _, err := s.Synthesize(context.Background(), "hi", ""); err != ErrSynthesisUnavailable {
		t.Fatalf("expected ErrSynthesisUnavailable, got %v", err)
	}

	s = NewElevenSynthesizer("key", "", "m", nil)
	if _, err := s.Synthesize(context.Background(), "hi", ""); err == nil {
		t.Fatal("expected an error when no voice is configured")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()
	s = NewElevenSynthesizer("key", "voice", "m", nil)
	s.baseURL = srv.URL
	if _, err := s.Synthesize(context.Background(), "hi", ""); err == nil {
		t.Fatal("expected an error on non-2xx status")
	}
}

func TestSpeakDeliversToSink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	buf := &AudioBuffer{}
	s := NewElevenSynthesizer("key", "voice", "m", buf.Store)
	s.baseURL = srv.URL

	if err := s.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("Speak err: %v", err)
	}
	if got := buf.Take(); !bytes.Equal(got, []byte("audio")) {
		t.Fatalf("sink did not receive audio: %q", got)
	}
	if s.Speaking() {
		t.Fatal("speaking flag should reset after Speak returns")
	}
	// Take empties the buffer.
	if got := buf.Take(); got != nil {
		t.Fatalf("expected empty buffer, got %q", got)
	}
}

func TestSpeakUnsupported(t *testing.T) {
	s := NewElevenSynthesizer("", "", "m", nil)
	if err := s.Speak(context.Background(), "hello"); err != ErrSynthesisUnavailable {
		t.Fatalf("expected ErrSynthesisUnavailable, got %v", err)
	}
}
