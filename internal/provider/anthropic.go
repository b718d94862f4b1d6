package provider

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

	"github.com/draftforge/api/internal/config"
	"github.com/draftforge/api/internal/model"
)

// claude-3-5-haiku pricing, USD per 1M tokens
const (
	anthropicInputPricePerM  = 0.80
	anthropicOutputPricePerM = 4.00
)

// AnthropicAdapter talks to the Anthropic messages API.
type AnthropicAdapter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	version    string
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewAnthropicAdapter(cfg *config.AnthropicConfig) *AnthropicAdapter {
	return &AnthropicAdapter{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		version: cfg.Version,
	}
}

func (a *AnthropicAdapter) Name() string { return model.ProviderAnthropic }

func (a *AnthropicAdapter) Configured() bool { return a.apiKey != "" }

func (a *AnthropicAdapter) Invoke(ctx context.Context, prompt Prompt, opts Options) (*Completion, error) {
	opts = opts.normalize()

	reqBody := anthropicRequest{
		Model:       a.model,
		System:      prompt.System,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt.User}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, newError(model.ErrorKindUnknown, "failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, newError(model.ErrorKindUnknown, "failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", a.version)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(model.ErrorKindTimeout, "request deadline exceeded")
		}
		return nil, newError(model.ErrorKindUnknown, "anthropic: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(model.ErrorKindInvalidResponse, "failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, a.classifyStatus(resp.StatusCode, respBody)
	}

	var msgResp anthropicResponse
	if err := json.Unmarshal(respBody, &msgResp); err != nil {
		return nil, newError(model.ErrorKindInvalidResponse, "failed to unmarshal response: %v", err)
	}

	if msgResp.StopReason == "refusal" {
		return nil, newError(model.ErrorKindContentPolicy, "anthropic: model refused the request")
	}

	var sb strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return nil, newError(model.ErrorKindInvalidResponse, "no text blocks in response")
	}

	return &Completion{
		Content:          content,
		PromptTokens:     msgResp.Usage.InputTokens,
		CompletionTokens: msgResp.Usage.OutputTokens,
		CostUSD:          usageCost(msgResp.Usage.InputTokens, msgResp.Usage.OutputTokens, anthropicInputPricePerM, anthropicOutputPricePerM),
		Latency:          latency,
	}, nil
}

// classifyStatus maps the Anthropic error envelope onto typed kinds.
func (a *AnthropicAdapter) classifyStatus(status int, body []byte) *Error {
	var envelope anthropicErrorEnvelope
	_ = json.Unmarshal(body, &envelope)
	message := envelope.Error.Message
	if message == "" {
		message = fmt.Sprintf("status %d", status)
	}

	switch envelope.Error.Type {
	case "authentication_error", "permission_error":
		return newError(model.ErrorKindAuth, "anthropic: %s", message)
	case "rate_limit_error", "overloaded_error":
		return newError(model.ErrorKindRateLimit, "anthropic: %s", message)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return newError(model.ErrorKindAuth, "anthropic: %s", message)
	case http.StatusTooManyRequests:
		return newError(model.ErrorKindRateLimit, "anthropic: %s", message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return newError(model.ErrorKindTimeout, "anthropic: %s", message)
	case http.StatusBadRequest:
		return newError(model.ErrorKindInvalidResponse, "anthropic: %s", message)
	}
	return newError(model.ErrorKindUnknown, "anthropic: %s", message)
}
