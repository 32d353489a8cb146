package types

import "pawdesk-assistant-backend/internal/assistant"

type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID  string          `json:"sessionId"`
	Reply      string          `json:"reply"`
	Transcript string          `json:"transcript,omitempty"`
	Intent     *IntentResponse `json:"intent,omitempty"`
	// Base64 MP3 of the spoken reply when voice replies are enabled
	Audio string `json:"audio,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// IntentResponse echoes the classification so the frontend can render
// structured context next to the reply.
type IntentResponse struct {
	Category   string              `json:"category"`
	Action     string              `json:"action"`
	Confidence float32             `json:"confidence"`
	Entities   assistant.EntityMap `json:"entities"`
}

type TranscriptResponse struct {
	SessionID string              `json:"sessionId"`
	Messages  []assistant.Message `json:"messages"`
}

type TTSRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId,omitempty"`
}
