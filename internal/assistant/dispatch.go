package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultDispatchTimeout bounds how long a single dispatch call may run
// before it is cancelled.
const DefaultDispatchTimeout = 60 * time.Second

// ErrorTimeout marks a dispatch result whose deadline elapsed before the
// automation endpoint answered.
const ErrorTimeout = "timeout"

const (
	timeoutMessage   = "This is taking longer than expected. Please try again in a moment."
	transportMessage = "I couldn't reach the automation service right now. Please try again."
)

// DispatchEnvelope is the JSON body sent to the automation endpoint. The
// session id is generated fresh for every call; no cross-turn correlation is
// implied.
type DispatchEnvelope struct {
	Intent    Category  `json:"intent"`
	Action    string    `json:"action"`
	Entities  EntityMap `json:"entities"`
	UserInput string    `json:"userInput"`
	Timestamp string    `json:"timestamp"`
	SessionID string    `json:"sessionId"`
}

// DispatchResult is the outcome of one dispatch call. Error distinguishes the
// failure class: ErrorTimeout for an elapsed deadline, a transport message for
// network or protocol problems, and empty when the remote side itself reported
// a business-level failure (Success false, its own Message).
type DispatchResult struct {
	Success bool
	Message string
	Data    map[string]any
	Error   string
}

// Dispatcher sends a classified intent to the automation service.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent Intent, userInput string) DispatchResult
}

// Gateway dispatches intent envelopes over HTTP. It performs no retries;
// retry, if any, is a caller decision.
type Gateway struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	ids        IDGenerator
	now        func() time.Time
}

// NewGateway builds a gateway for the given automation endpoint. A
// non-positive timeout falls back to DefaultDispatchTimeout.
func NewGateway(endpoint string, timeout time.Duration, ids IDGenerator) *Gateway {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	if ids == nil {
		ids = NewUUIDGenerator()
	}
	return &Gateway{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: &http.Client{},
		ids:        ids,
		now:        time.Now,
	}
}

type dispatchResponse struct {
	Success *bool          `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// Dispatch sends one envelope and maps the outcome onto the result taxonomy.
// It never returns an error; every failure class is data the caller turns
// into user-facing text.
func (g *Gateway) Dispatch(ctx context.Context, intent Intent, userInput string) DispatchResult {
	env := DispatchEnvelope{
		Intent:    intent.Category,
		Action:    intent.Action,
		Entities:  intent.Entities,
		UserInput: userInput,
		Timestamp: g.now().UTC().Format(time.RFC3339),
		SessionID: g.ids.NewID(),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return transportFailure(err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return transportFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return DispatchResult{Success: false, Message: timeoutMessage, Error: ErrorTimeout}
		}
		return transportFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return transportFailure(fmt.Errorf("automation endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b))))
	}

	var parsed dispatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// The deadline can also expire while the body is being read.
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return DispatchResult{Success: false, Message: timeoutMessage, Error: ErrorTimeout}
		}
		return transportFailure(fmt.Errorf("decode response: %w", err))
	}
	if parsed.Success != nil && !*parsed.Success {
		// Remote business failure: relay its message, no error code.
		return DispatchResult{Success: false, Message: parsed.Message}
	}
	return DispatchResult{Success: true, Message: parsed.Message, Data: parsed.Data}
}

func transportFailure(err error) DispatchResult {
	return DispatchResult{Success: false, Message: transportMessage, Error: err.Error()}
}
