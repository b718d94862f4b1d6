package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"

	"github.com/draftforge/api/internal/config"
	"github.com/draftforge/api/internal/model"
)

// gpt-4o-mini pricing, USD per 1M tokens
const (
	openAIInputPricePerM  = 0.15
	openAIOutputPricePerM = 0.60
)

// OpenAIAdapter talks to the OpenAI chat completions API.
type OpenAIAdapter struct {
	client *openaigo.Client
	apiKey string
	model  string
}

func NewOpenAIAdapter(cfg *config.OpenAIConfig) *OpenAIAdapter {
	clientCfg := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIAdapter{
		client: openaigo.NewClientWithConfig(clientCfg),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (a *OpenAIAdapter) Name() string { return model.ProviderOpenAI }

func (a *OpenAIAdapter) Configured() bool { return a.apiKey != "" }

func (a *OpenAIAdapter) Invoke(ctx context.Context, prompt Prompt, opts Options) (*Completion, error) {
	opts = opts.normalize()

	req := openaigo.ChatCompletionRequest{
		Model: a.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openaigo.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	latency := time.Since(start)

	if err != nil {
		return nil, a.classify(err)
	}

	if len(resp.Choices) == 0 {
		return nil, newError(model.ErrorKindInvalidResponse, "no choices in response")
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openaigo.FinishReasonContentFilter {
		return nil, newError(model.ErrorKindContentPolicy, "completion stopped by content filter")
	}
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return nil, newError(model.ErrorKindInvalidResponse, "empty completion content")
	}

	return &Completion{
		Content:          content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		CostUSD:          usageCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, openAIInputPricePerM, openAIOutputPricePerM),
		Latency:          latency,
	}, nil
}

// classify maps go-openai errors onto typed kinds using status codes and API
// error codes, not message text.
func (a *OpenAIAdapter) classify(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(model.ErrorKindTimeout, "request deadline exceeded")
	}

	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return newError(model.ErrorKindAuth, "openai: %s", apiErr.Message)
		case http.StatusTooManyRequests:
			return newError(model.ErrorKindRateLimit, "openai: %s", apiErr.Message)
		case http.StatusBadRequest:
			if code, ok := apiErr.Code.(string); ok && code == "content_filter" {
				return newError(model.ErrorKindContentPolicy, "openai: %s", apiErr.Message)
			}
			return newError(model.ErrorKindInvalidResponse, "openai: %s", apiErr.Message)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return newError(model.ErrorKindTimeout, "openai: %s", apiErr.Message)
		}
		return newError(model.ErrorKindUnknown, "openai: status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return newError(model.ErrorKindUnknown, "openai: %v", err)
}
