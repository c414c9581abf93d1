package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/clio-ai/clio/session"
)

const ollamaProvider = "ollama"

// OllamaClient talks to a local Ollama server over its chat API. There is no
// official Go SDK, so the client speaks the HTTP protocol directly: JSON
// request, NDJSON response when streaming.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOllamaClient constructs an Ollama adapter against baseURL, e.g.
// "http://127.0.0.1:11434". Reachability is not checked here; a dead server
// surfaces as an unreachable error on the first request.
func NewOllamaClient(baseURL string) (*OllamaClient, error) {
	if baseURL == "" {
		return nil, &Error{
			Kind:     KindConfigMissing,
			Provider: ollamaProvider,
			Message:  "no Ollama base URL configured",
		}
	}
	// Timeouts come from the request context so a long generation is not
	// cut off by a fixed client timeout.
	return &OllamaClient{baseURL: baseURL, httpClient: &http.Client{}}, nil
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error"`
}

func (o *OllamaClient) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := o.send(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &Error{Kind: KindInvalid, Provider: ollamaProvider, Message: "could not decode response", Cause: err}
	}
	return &Response{Text: body.Message.Content}, nil
}

func (o *OllamaClient) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	resp, err := o.send(ctx, req, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				emit(ctx, ch, Chunk{Err: &Error{Kind: KindInvalid, Provider: ollamaProvider, Message: "could not decode stream chunk", Cause: err}})
				return
			}
			if chunk.Error != "" {
				emit(ctx, ch, Chunk{Err: &Error{Kind: KindUnavailable, Provider: ollamaProvider, Message: chunk.Error}})
				return
			}
			if chunk.Message.Content != "" {
				if !emit(ctx, ch, Chunk{Text: chunk.Message.Content}) {
					return
				}
			}
			if chunk.Done {
				emit(ctx, ch, Chunk{Done: true})
				return
			}
		}
		if err := scanner.Err(); err != nil {
			emit(ctx, ch, Chunk{Err: mapOllamaTransportError(o.baseURL, err)})
			return
		}
		// Server closed the stream without a done marker; treat the text
		// delivered so far as the whole response.
		emit(ctx, ch, Chunk{Done: true})
	}()
	return ch, nil
}

func (o *OllamaClient) send(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	messages := make([]ollamaMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: req.System})
	}
	for _, t := range req.Turns {
		role := "user"
		if t.Role == session.RoleModel {
			role = "assistant"
		}
		messages = append(messages, ollamaMessage{Role: role, Content: t.Content})
	}

	body, err := json.Marshal(ollamaChatRequest{Model: req.Model, Messages: messages, Stream: stream})
	if err != nil {
		return nil, &Error{Kind: KindInvalid, Provider: ollamaProvider, Message: "could not encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindInvalid, Provider: ollamaProvider, Message: "could not create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapOllamaTransportError(o.baseURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, mapOllamaStatus(resp)
	}
	return resp, nil
}

func mapOllamaTransportError(baseURL string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: ollamaProvider, Message: "request deadline exceeded", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &Error{
		Kind:     KindUnreachable,
		Provider: ollamaProvider,
		Message:  fmt.Sprintf("could not reach %s; is the Ollama server running?", baseURL),
		Cause:    err,
	}
}

func mapOllamaStatus(resp *http.Response) error {
	msg := "request failed: " + resp.Status
	var body ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Usually a model that has not been pulled yet.
		return &Error{Kind: KindInvalid, Provider: ollamaProvider, Message: msg}
	case resp.StatusCode >= 500:
		return &Error{Kind: KindUnavailable, Provider: ollamaProvider, Message: msg}
	default:
		return &Error{Kind: KindInvalid, Provider: ollamaProvider, Message: msg}
	}
}
