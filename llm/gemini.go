package llm

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/clio-ai/clio/session"
)

const geminiProvider = "gemini"

// GeminiClient talks to the Gemini API through the official SDK.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient constructs a Gemini adapter. An empty API key is a
// configuration error surfaced immediately, before any request is attempted.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, &Error{
			Kind:     KindConfigMissing,
			Provider: geminiProvider,
			Message:  "GEMINI_API_KEY is not set",
		}
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Provider: geminiProvider, Message: "could not create client", Cause: err}
	}
	return &GeminiClient{client: client}, nil
}

// Close releases the underlying SDK connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) Complete(ctx context.Context, req Request) (*Response, error) {
	cs, parts, err := g.prepare(req)
	if err != nil {
		return nil, err
	}
	resp, err := cs.SendMessage(ctx, parts...)
	if err != nil {
		return nil, mapGeminiError(err)
	}
	return &Response{Text: geminiText(resp)}, nil
}

func (g *GeminiClient) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	cs, parts, err := g.prepare(req)
	if err != nil {
		return nil, err
	}

	iter := cs.SendMessageStream(ctx, parts...)
	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		for {
			resp, err := iter.Next()
			if err == iterator.Done {
				emit(ctx, ch, Chunk{Done: true})
				return
			}
			if err != nil {
				emit(ctx, ch, Chunk{Err: mapGeminiError(err)})
				return
			}
			if text := geminiText(resp); text != "" {
				if !emit(ctx, ch, Chunk{Text: text}) {
					return
				}
			}
		}
	}()
	return ch, nil
}

// prepare splits the history into SDK chat history plus the message to send.
func (g *GeminiClient) prepare(req Request) (*genai.ChatSession, []genai.Part, error) {
	if err := validateRequest(req); err != nil {
		return nil, nil, err
	}

	model := g.client.GenerativeModel(req.Model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, t := range req.Turns {
		role := "user"
		if t.Role == session.RoleModel {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(t.Content)},
		})
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]
	return cs, contents[len(contents)-1].Parts, nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var out string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, isText := part.(genai.Text); isText {
				out += string(text)
			}
		}
	}
	return out
}

func mapGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: geminiProvider, Message: "request deadline exceeded", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		retryAfter := ""
		if gerr.Header != nil {
			retryAfter = gerr.Header.Get("Retry-After")
		}
		return classifyHTTPStatus(geminiProvider, gerr.Code, retryAfter, err)
	}
	return &Error{Kind: KindUnavailable, Provider: geminiProvider, Message: "request failed", Cause: err}
}
