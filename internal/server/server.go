package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	openai "github.com/sashabaranov/go-openai"

	"pawdesk-assistant-backend/internal/assistant"
	"pawdesk-assistant-backend/internal/config"
	"pawdesk-assistant-backend/internal/speech"
	"pawdesk-assistant-backend/internal/store"
	"pawdesk-assistant-backend/internal/types"
)

const busyMessage = "I'm still working on your previous request. Give me a moment."

type Server struct {
	router     *chi.Mux
	cfg        config.Config
	sessions   *store.SessionStore
	classifier *assistant.Classifier
	gateway    *assistant.Gateway
	// shared synthesizer for the plain TTS endpoint
	tts *speech.ElevenSynthesizer
}

func NewServer(cfg config.Config) (*Server, error) {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true, // Enable credentials for cookies
		MaxAge:           300,
	}))

	classifier := assistant.NewClassifier()
	if cfg.IntentRulesFile != "" {
		loaded, err := assistant.LoadClassifier(cfg.IntentRulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load intent rules: %w", err)
		}
		classifier = loaded
	}

	gateway := assistant.NewGateway(cfg.AutomationEndpoint, cfg.DispatchTimeout, assistant.NewUUIDGenerator())

	var sttClient *openai.Client
	if cfg.OpenAIAPIKey != "" {
		sttClient = openai.NewClient(cfg.OpenAIAPIKey)
	}

	s := &Server{
		router:     r,
		cfg:        cfg,
		classifier: classifier,
		gateway:    gateway,
		tts:        speech.NewElevenSynthesizer(cfg.ElevenAPIKey, cfg.ElevenVoiceID, cfg.ElevenModel, nil),
	}
	s.sessions = store.NewSessionStore(func(id string) *store.Session {
		audio := &speech.AudioBuffer{}
		recognizer := speech.NewWhisperRecognizer(sttClient, cfg.STTModel)
		conv := assistant.NewConversation(assistant.ConversationConfig{
			Classifier:   classifier,
			Dispatcher:   gateway,
			Recognizer:   recognizer,
			Synthesizer:  speech.NewElevenSynthesizer(cfg.ElevenAPIKey, cfg.ElevenVoiceID, cfg.ElevenModel, audio.Store),
			MaxMessages:  cfg.SessionMaxMessages,
			VoiceReplies: cfg.VoiceReplies,
		})
		return &store.Session{Conversation: conv, Recognizer: recognizer, Audio: audio}
	})
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Post("/api/voice", s.handleVoice)
	s.router.Post("/api/tts", s.handleTTS)
	s.router.Get("/api/transcript", s.handleTranscript)
	s.router.Delete("/api/transcript", s.handleClearTranscript)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sid := req.SessionID
	if sid == "" {
		sid = s.getOrCreateSessionID(r, w)
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sess := s.sessions.Get(sid)
	turn, ok := sess.Conversation.Submit(r.Context(), req.Message)
	if !ok {
		// Another turn is in flight; the transcript was left untouched.
		s.writeError(w, http.StatusConflict, busyMessage)
		return
	}
	s.writeTurn(w, sid, sess, turn, "")
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	sid := s.getOrCreateSessionID(r, w)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "audio file is required (field 'file')")
		return
	}
	defer file.Close()

	sess := s.sessions.Get(sid)
	if err := sess.Conversation.BeginVoiceCapture(r.Context()); err != nil {
		s.writeError(w, http.StatusBadRequest, "voice input is not configured")
		return
	}
	sess.Recognizer.SetFilename(header.Filename)
	if _, err := io.Copy(sess.Recognizer, file); err != nil {
		sess.Recognizer.Stop()
		s.writeError(w, http.StatusBadRequest, "failed to read audio")
		return
	}

	transcript, turn, ok := sess.Conversation.EndVoiceCapture(r.Context())
	if strings.TrimSpace(transcript) == "" {
		s.writeError(w, http.StatusBadGateway, "empty transcription")
		return
	}
	if !ok {
		s.writeError(w, http.StatusConflict, busyMessage)
		return
	}
	s.writeTurn(w, sid, sess, turn, transcript)
}

func (s *Server) writeTurn(w http.ResponseWriter, sid string, sess *store.Session, turn assistant.TurnResult, transcript string) {
	resp := types.ChatResponse{
		SessionID:  sid,
		Reply:      turn.Reply.Content,
		Transcript: transcript,
		Intent: &types.IntentResponse{
			Category:   string(turn.Intent.Category),
			Action:     turn.Intent.Action,
			Confidence: turn.Intent.Confidence,
			Entities:   turn.Intent.Entities,
		},
	}
	if audio := sess.Audio.Take(); len(audio) > 0 {
		resp.Audio = base64.StdEncoding.EncodeToString(audio)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sid := s.getOrCreateSessionID(r, w)
	sess := s.sessions.Get(sid)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(types.TranscriptResponse{
		SessionID: sid,
		Messages:  sess.Conversation.Messages(),
	})
}

func (s *Server) handleClearTranscript(w http.ResponseWriter, r *http.Request) {
	sid := s.getOrCreateSessionID(r, w)
	s.sessions.Get(sid).Conversation.Clear()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Session-Id", sid)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}

// ElevenLabs TTS: JSON { text, voiceId? } -> audio/mpeg
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var body types.TTSRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Text) == "" {
		s.writeError(w, http.StatusBadRequest, "invalid text body")
		return
	}
	if s.cfg.ElevenAPIKey == "" {
		s.writeError(w, http.StatusBadRequest, "speech synthesis not configured")
		return
	}
	audio, err := s.tts.Synthesize(r.Context(), body.Text, body.VoiceID)
	if err != nil {
		log.Println("[tts] synthesis failed:", err)
		s.writeError(w, http.StatusBadGateway, "tts request failed")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg})
}

func newSessionID() string {
	return fmt.Sprintf("s_%d", time.Now().UnixNano())
}

// getSessionID retrieves the session ID from cookie, header, or query
func getSessionID(r *http.Request) string {
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("sessionId"); sid != "" {
		return sid
	}
	return ""
}

// getOrCreateSessionID gets the existing session ID or creates a new one,
// setting the cookie
func (s *Server) getOrCreateSessionID(r *http.Request, w http.ResponseWriter) string {
	sid := getSessionID(r)
	if sid == "" {
		sid = newSessionID()
		log.Printf("[session] creating new session: %s for endpoint: %s", sid, r.URL.Path)
		SetSessionCookie(w, sid)
	}
	return sid
}
