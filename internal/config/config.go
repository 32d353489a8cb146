package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string
	// Automation endpoint the assistant dispatches classified intents to
	AutomationEndpoint string
	DispatchTimeout    time.Duration
	// Speech-to-text
	OpenAIAPIKey string
	STTModel     string
	// Text-to-speech
	ElevenAPIKey  string
	ElevenVoiceID string
	ElevenModel   string
	// Optional YAML file overriding the built-in intent patterns
	IntentRulesFile string
	// Speak assistant replies back (audio included in chat responses)
	VoiceReplies bool
	// Transcript cap per session
	SessionMaxMessages int
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:               getEnvDefault("PORT", "8080"),
		AllowedOrigin:      getEnvDefault("ALLOWED_ORIGIN", "*"),
		AutomationEndpoint: os.Getenv("AUTOMATION_ENDPOINT"),
		DispatchTimeout:    time.Duration(getEnvIntDefault("DISPATCH_TIMEOUT_SECONDS", 60)) * time.Second,
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		STTModel:           getEnvDefault("OPENAI_STT_MODEL", "whisper-1"),
		ElevenAPIKey:       os.Getenv("ELEVEN_API_KEY"),
		ElevenVoiceID:      os.Getenv("ELEVEN_VOICE_ID"),
		ElevenModel:        getEnvDefault("ELEVEN_MODEL_ID", "eleven_multilingual_v2"),
		IntentRulesFile:    os.Getenv("INTENT_RULES_FILE"),
		VoiceReplies:       getEnvBoolDefault("VOICE_REPLIES", false),
		SessionMaxMessages: getEnvIntDefault("SESSION_MAX_MESSAGES", 40),
	}
	if cfg.AutomationEndpoint == "" {
		log.Println("warning: AUTOMATION_ENDPOINT is not set; dispatches will fail until provided")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; voice input will be unavailable")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
		log.Printf("warning: invalid %s value %q, using %d", key, v, def)
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
