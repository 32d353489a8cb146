package assistant

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// Role identifies who produced a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

const processingText = "Processing your request..."

const (
	apologyText      = "I'm sorry, something went wrong while handling that. Please try again."
	remoteIssueText  = "I encountered an issue"
	defaultReplyText = "Done."
)

// Message is one entry in the conversation transcript. Messages are immutable
// once appended; only the transient processing placeholder is ever removed.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// TurnResult is what one accepted submission produces.
type TurnResult struct {
	Reply  Message
	Intent Intent
}

// ConversationConfig wires a conversation's collaborators. Dispatcher is
// required; everything else has a sensible default or is optional.
type ConversationConfig struct {
	Classifier  *Classifier
	Dispatcher  Dispatcher
	Recognizer  Recognizer
	Synthesizer Synthesizer
	IDs         IDGenerator
	Now         func() time.Time
	// MaxMessages caps the transcript; zero means unbounded.
	MaxMessages int
	// VoiceReplies speaks assistant replies through the synthesizer.
	VoiceReplies bool
}

// Conversation manages the ordered transcript and runs one turn at a time.
// All transcript mutations happen under its lock, and the processing guard
// makes a submission during an in-flight turn a strict no-op.
type Conversation struct {
	mu          sync.Mutex
	messages    []Message
	processing  bool
	voiceOutput bool
	// transcript delivered by the recognizer, consumed by EndVoiceCapture
	pendingTranscript string

	classifier  *Classifier
	dispatcher  Dispatcher
	recognizer  Recognizer
	synthesizer Synthesizer
	ids         IDGenerator
	now         func() time.Time
	maxMessages int
}

// NewConversation builds a conversation from the given config.
func NewConversation(cfg ConversationConfig) *Conversation {
	c := &Conversation{
		classifier:  cfg.Classifier,
		dispatcher:  cfg.Dispatcher,
		recognizer:  cfg.Recognizer,
		synthesizer: cfg.Synthesizer,
		ids:         cfg.IDs,
		now:         cfg.Now,
		maxMessages: cfg.MaxMessages,
		voiceOutput: cfg.VoiceReplies,
	}
	if c.classifier == nil {
		c.classifier = NewClassifier()
	}
	if c.ids == nil {
		c.ids = NewUUIDGenerator()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.recognizer != nil {
		c.recognizer.OnUtteranceEnd(func(transcript string) {
			c.mu.Lock()
			c.pendingTranscript = transcript
			c.mu.Unlock()
		})
	}
	return c
}

// Submit runs one turn: append the user message and a processing placeholder,
// classify, dispatch, then replace the placeholder with exactly one assistant
// message. The second return is false when the input was blank or another
// turn is still in flight; in either case the transcript is untouched.
//
// Every failure class is converted into assistant text here; nothing
// propagates to the caller as an error.
func (c *Conversation) Submit(ctx context.Context, input string) (TurnResult, bool) {
	text := strings.TrimSpace(input)
	if text == "" {
		return TurnResult{}, false
	}

	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		return TurnResult{}, false
	}
	c.processing = true
	c.appendLocked(c.newMessage(RoleUser, text, nil))
	placeholder := c.newMessage(RoleSystem, processingText, nil)
	c.appendLocked(placeholder)
	c.mu.Unlock()

	intent := c.classifier.Classify(text)
	intent.Entities = ExtractEntities(text, c.now())

	result := c.dispatcher.Dispatch(ctx, intent, text)
	reply, data := renderResult(result)

	c.mu.Lock()
	c.removeLocked(placeholder.ID)
	final := c.newMessage(RoleAssistant, reply, data)
	c.appendLocked(final)
	c.processing = false
	speakReply := c.voiceOutput
	c.mu.Unlock()

	if speakReply {
		c.speak(ctx, reply)
	}
	return TurnResult{Reply: final, Intent: intent}, true
}

// renderResult maps a dispatch result onto assistant text per the error
// taxonomy. Success goes through the formatter; the structured payload rides
// along on the message.
func renderResult(res DispatchResult) (string, map[string]any) {
	if res.Success {
		text := FormatDispatch(res)
		if text == "" {
			text = defaultReplyText
		}
		return text, res.Data
	}
	switch {
	case res.Error == ErrorTimeout:
		if res.Message != "" {
			return res.Message, nil
		}
		return timeoutMessage, nil
	case res.Error != "":
		return apologyText, nil
	default:
		// Remote business failure: relay the remote message with a wrapper.
		if res.Message != "" {
			return remoteIssueText + ": " + res.Message, nil
		}
		return apologyText, nil
	}
}

// BeginVoiceCapture stops any playback in progress and starts the
// speech-capture session. Capture and playback share one audio resource.
func (c *Conversation) BeginVoiceCapture(ctx context.Context) error {
	if c.recognizer == nil || !c.recognizer.Supported() {
		return ErrVoiceUnsupported
	}
	if c.synthesizer != nil {
		c.synthesizer.Cancel()
	}
	return c.recognizer.Start(ctx)
}

// EndVoiceCapture stops the capture session and, when it produced a non-empty
// transcript, submits it exactly like typed input. The transcript is cleared
// once consumed.
func (c *Conversation) EndVoiceCapture(ctx context.Context) (string, TurnResult, bool) {
	if c.recognizer == nil {
		return "", TurnResult{}, false
	}
	c.recognizer.Stop()

	c.mu.Lock()
	transcript := c.pendingTranscript
	c.pendingTranscript = ""
	c.mu.Unlock()

	if strings.TrimSpace(transcript) == "" {
		return transcript, TurnResult{}, false
	}
	turn, ok := c.Submit(ctx, transcript)
	return transcript, turn, ok
}

// SetVoiceOutput toggles spoken replies. Disabling immediately stops any
// playback in progress.
func (c *Conversation) SetVoiceOutput(enabled bool) {
	c.mu.Lock()
	c.voiceOutput = enabled
	synth := c.synthesizer
	c.mu.Unlock()
	if !enabled && synth != nil {
		synth.Cancel()
	}
}

// VoiceOutput reports whether replies are spoken.
func (c *Conversation) VoiceOutput() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voiceOutput
}

// speak sends text to playback, stopping capture first since the two share
// the audio resource. Playback failures are swallowed; text output already
// happened.
func (c *Conversation) speak(ctx context.Context, text string) {
	if c.synthesizer == nil || !c.synthesizer.Supported() {
		return
	}
	if c.recognizer != nil {
		c.recognizer.Stop()
	}
	if err := c.synthesizer.Speak(ctx, text); err != nil {
		log.Printf("[voice] playback failed: %v", err)
	}
}

// Messages returns a snapshot of the transcript in insertion order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Clear destroys every message and resets the guard. An in-flight turn is not
// interrupted; its completion simply appends into the emptied transcript.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.messages = nil
	c.pendingTranscript = ""
	c.processing = false
	c.mu.Unlock()
}

// Processing reports whether a turn is currently in flight.
func (c *Conversation) Processing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processing
}

func (c *Conversation) newMessage(role Role, content string, data map[string]any) Message {
	return Message{
		ID:        c.ids.NewID(),
		Role:      role,
		Content:   content,
		Timestamp: c.now(),
		Data:      data,
	}
}

func (c *Conversation) appendLocked(msg Message) {
	c.messages = append(c.messages, msg)
	if c.maxMessages > 0 && len(c.messages) > c.maxMessages {
		c.messages = c.messages[len(c.messages)-c.maxMessages:]
	}
}

func (c *Conversation) removeLocked(id string) {
	for i, m := range c.messages {
		if m.ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}
