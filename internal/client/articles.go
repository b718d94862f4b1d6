package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/draftforge/api/internal/config"
	"github.com/draftforge/api/internal/model"
)

// ArticlesClient hands generated articles to the editorial store.
type ArticlesClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type createArticleResponse struct {
	ID string `json:"id"`
}

// NewArticlesClient creates a new articles store client
func NewArticlesClient(cfg *config.ArticlesConfig) *ArticlesClient {
	return &ArticlesClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

// CreateArticle persists a generated article and returns its record id.
func (c *ArticlesClient) CreateArticle(ctx context.Context, fields *model.ArticleFields) (string, error) {
	bodyBytes, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal article: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/articles", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("articles API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var created createArticleResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("no id in response")
	}
	return created.ID, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *ArticlesClient) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}
