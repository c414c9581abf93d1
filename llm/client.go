// Package llm abstracts the inference backends behind a uniform client
// contract. One adapter exists per provider (Gemini, Groq, Ollama); callers
// depend only on the Client interface and the shared error taxonomy, never
// on a concrete adapter.
package llm

import (
	"context"
	"strings"

	"github.com/clio-ai/clio/session"
)

// Request is the uniform provider request: the conversation history rendered
// into the provider's wire shape by the adapter, plus the model id.
type Request struct {
	// Model is the provider-specific model identifier.
	Model string
	// System is the system instruction prepended to the conversation.
	System string
	// Turns is the ordered conversation history. The last turn is the new
	// prompt; earlier turns are context.
	Turns []session.Turn
}

// Response is a complete, non-streaming model response.
type Response struct {
	Text string
}

// Chunk is one streaming delta. A stream delivers zero or more text chunks
// followed by exactly one terminal chunk: either Done or Err, never both.
// The channel is closed after the terminal chunk. Text already delivered is
// never retracted.
type Chunk struct {
	Text string
	Done bool
	Err  error
}

// Client is the capability every provider adapter implements.
//
// Both calls honor the context deadline; on expiry they fail with a Timeout
// error and abandon the in-flight request. Adapters never retry; retry
// policy belongs to the caller.
type Client interface {
	// Complete sends the request and blocks for the full response text.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream sends the request and yields incremental text chunks. Adapters
	// whose transport cannot stream may deliver the full text as a single
	// chunk before the terminal Done.
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
}

// validateRequest rejects requests no provider could serve.
func validateRequest(req Request) error {
	if req.Model == "" {
		return &Error{Kind: KindInvalid, Message: "request has no model id"}
	}
	if len(req.Turns) == 0 {
		return &Error{Kind: KindInvalid, Message: "request has no turns"}
	}
	return nil
}

// Collect drains a stream into a single response. It returns the text
// accumulated so far alongside the error when the stream failed mid-way.
func Collect(ch <-chan Chunk) (*Response, error) {
	var b strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			return &Response{Text: b.String()}, chunk.Err
		}
		b.WriteString(chunk.Text)
		if chunk.Done {
			break
		}
	}
	return &Response{Text: b.String()}, nil
}

// emit delivers a chunk unless the consumer has gone away.
func emit(ctx context.Context, ch chan<- Chunk, c Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
