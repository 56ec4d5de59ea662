// Package provider abstracts the model backend a task streams completions
// from. Tool invocations travel in-band as tagged text, so the transport
// only needs plain chat streaming.
package provider

import "context"

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to the backend.
type Message struct {
	Role    string
	Content string
}

// Chunk is one streamed fragment of an assistant response.
type Chunk struct {
	Text string
	Done bool
}

// ChatRequest is one completion request.
type ChatRequest struct {
	System   string
	Messages []Message
}

// Client streams chat completions. Implementations call fn for every
// chunk in order; returning an error from fn aborts the stream.
type Client interface {
	Stream(ctx context.Context, req ChatRequest, fn func(Chunk) error) error

	// Model reports the backing model name for logging.
	Model() string
}
