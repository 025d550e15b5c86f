package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/techmart/store-assistant/internal/core/ports"
	"github.com/techmart/store-assistant/internal/infrastructure/resilience"
)

// Client talks to the OpenAI-compatible chat-completions and embeddings
// endpoints. One instance is shared across requests; the underlying
// http.Client pools connections.
type Client struct {
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, chatModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

var _ ports.ChatModel = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func buildMessages(systemPrompt, userPrompt string) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})
	return messages
}

func (c *Client) chatRequestBody(systemPrompt, userPrompt string, opts ports.GenerationOptions, stream bool) chatRequest {
	request := chatRequest{
		Model:       c.chatModel,
		Messages:    buildMessages(systemPrompt, userPrompt),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      stream,
	}
	if opts.JSONMode {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return request
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ports.GenerationOptions) (string, error) {
	var text string
	err := c.executor.Execute(ctx, "openai.chat", func(ctx context.Context) error {
		var response chatResponse
		if err := c.postJSON(ctx, "/v1/chat/completions", c.chatRequestBody(systemPrompt, userPrompt, opts, false), &response, "chat"); err != nil {
			return err
		}
		if len(response.Choices) == 0 {
			return fmt.Errorf("chat response has no choices")
		}
		text = strings.TrimSpace(response.Choices[0].Message.Content)
		return nil
	}, classifyOpenAIError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("chat completion", err)
	}
	return text, nil
}

// Embedder adapts the shared client to ports.Embedder.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

var _ ports.Embedder = (*Embedder)(nil)

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var vectors [][]float32
	err := e.client.executor.Execute(ctx, "openai.embeddings", func(ctx context.Context) error {
		var response embeddingsResponse
		if err := e.client.postJSON(ctx, "/v1/embeddings", request, &response, "embeddings"); err != nil {
			return err
		}
		vectors = make([][]float32, 0, len(response.Data))
		for _, item := range response.Data {
			vectors = append(vectors, item.Embedding)
		}
		return nil
	}, classifyOpenAIError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed texts", err)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}
