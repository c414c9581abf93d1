package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/clio-ai/clio/session"
)

const (
	groqProvider = "groq"

	// DefaultGroqBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
)

// GroqClient talks to Groq's OpenAI-compatible chat completion API.
type GroqClient struct {
	client *openai.Client
}

// NewGroqClient constructs a Groq adapter. baseURL may be empty to use the
// public endpoint.
func NewGroqClient(apiKey, baseURL string) (*GroqClient, error) {
	if apiKey == "" {
		return nil, &Error{
			Kind:     KindConfigMissing,
			Provider: groqProvider,
			Message:  "GROQ_API_KEY is not set",
		}
	}
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}
	c := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	// NewClient returns a value; the adapter holds a pointer to it.
	return &GroqClient{client: &c}, nil
}

func (g *GroqClient) Complete(ctx context.Context, req Request) (*Response, error) {
	params, err := groqParams(req)
	if err != nil {
		return nil, err
	}
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, mapGroqError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindInvalid, Provider: groqProvider, Message: "response contained no choices"}
	}
	return &Response{Text: resp.Choices[0].Message.Content}, nil
}

func (g *GroqClient) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	params, err := groqParams(req)
	if err != nil {
		return nil, err
	}

	stream := g.client.Chat.Completions.NewStreaming(ctx, params)
	ch := make(chan Chunk)
	go func() {
		defer close(ch)
		defer stream.Close()
		for stream.Next() {
			cur := stream.Current()
			if len(cur.Choices) == 0 {
				continue
			}
			if delta := cur.Choices[0].Delta.Content; delta != "" {
				if !emit(ctx, ch, Chunk{Text: delta}) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			emit(ctx, ch, Chunk{Err: mapGroqError(err)})
			return
		}
		emit(ctx, ch, Chunk{Done: true})
	}()
	return ch, nil
}

func groqParams(req Request) (openai.ChatCompletionNewParams, error) {
	if err := validateRequest(req); err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, t := range req.Turns {
		switch t.Role {
		case session.RoleModel:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			// Tool results travel as user messages; the directive protocol
			// is plain text, not the API's function-calling surface.
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}

	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}, nil
}

func mapGroqError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: groqProvider, Message: "request deadline exceeded", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		retryAfter := ""
		if apiErr.Response != nil {
			retryAfter = apiErr.Response.Header.Get("Retry-After")
		}
		return classifyHTTPStatus(groqProvider, apiErr.StatusCode, retryAfter, err)
	}
	return &Error{Kind: KindUnavailable, Provider: groqProvider, Message: "request failed", Cause: err}
}
