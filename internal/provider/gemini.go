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

// gemini-2.0-flash pricing, USD per 1M tokens
const (
	geminiInputPricePerM  = 0.10
	geminiOutputPricePerM = 0.40
)

// GeminiAdapter talks to the Google Generative Language API.
type GeminiAdapter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature,omitempty"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type geminiErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewGeminiAdapter(cfg *config.GeminiConfig) *GeminiAdapter {
	return &GeminiAdapter{
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

func (a *GeminiAdapter) Name() string { return model.ProviderGemini }

func (a *GeminiAdapter) Configured() bool { return a.apiKey != "" }

func (a *GeminiAdapter) Invoke(ctx context.Context, prompt Prompt, opts Options) (*Completion, error) {
	opts = opts.normalize()

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt.User}}},
		},
	}
	if prompt.System != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: prompt.System}}}
	}
	reqBody.GenerationConfig.Temperature = opts.Temperature
	reqBody.GenerationConfig.MaxOutputTokens = opts.MaxTokens

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, newError(model.ErrorKindUnknown, "failed to marshal request: %v", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.baseURL, a.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, newError(model.ErrorKindUnknown, "failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(model.ErrorKindTimeout, "request deadline exceeded")
		}
		return nil, newError(model.ErrorKindUnknown, "gemini: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(model.ErrorKindInvalidResponse, "failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, a.classifyStatus(resp.StatusCode, respBody)
	}

	var genResp geminiResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, newError(model.ErrorKindInvalidResponse, "failed to unmarshal response: %v", err)
	}

	if genResp.PromptFeedback.BlockReason != "" {
		return nil, newError(model.ErrorKindContentPolicy, "gemini: prompt blocked: %s", genResp.PromptFeedback.BlockReason)
	}
	if len(genResp.Candidates) == 0 {
		return nil, newError(model.ErrorKindInvalidResponse, "no candidates in response")
	}
	candidate := genResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
		return nil, newError(model.ErrorKindContentPolicy, "gemini: candidate blocked: %s", candidate.FinishReason)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return nil, newError(model.ErrorKindInvalidResponse, "empty candidate content")
	}

	usage := genResp.UsageMetadata
	return &Completion{
		Content:          content,
		PromptTokens:     usage.PromptTokenCount,
		CompletionTokens: usage.CandidatesTokenCount,
		CostUSD:          usageCost(usage.PromptTokenCount, usage.CandidatesTokenCount, geminiInputPricePerM, geminiOutputPricePerM),
		Latency:          latency,
	}, nil
}

// classifyStatus maps the Google error envelope onto typed kinds.
func (a *GeminiAdapter) classifyStatus(status int, body []byte) *Error {
	var envelope geminiErrorEnvelope
	_ = json.Unmarshal(body, &envelope)
	message := envelope.Error.Message
	if message == "" {
		message = fmt.Sprintf("status %d", status)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return newError(model.ErrorKindAuth, "gemini: %s", message)
	case http.StatusTooManyRequests:
		return newError(model.ErrorKindRateLimit, "gemini: %s", message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return newError(model.ErrorKindTimeout, "gemini: %s", message)
	case http.StatusBadRequest:
		if envelope.Error.Status == "UNAUTHENTICATED" {
			return newError(model.ErrorKindAuth, "gemini: %s", message)
		}
		return newError(model.ErrorKindInvalidResponse, "gemini: %s", message)
	}
	return newError(model.ErrorKindUnknown, "gemini: %s", message)
}
