package model

// GenerationRequest is the normalized topic-based input. It is immutable
// once submitted; the queue and orchestrator only ever read it.
type GenerationRequest struct {
	Title           string   `json:"title" validate:"required,min=3,max=200"`
	Keywords        []string `json:"keywords" validate:"omitempty,max=10,dive,min=1"`
	Tone            Tone     `json:"tone" validate:"omitempty,oneof=professional casual friendly authoritative conversational"`
	TargetWordCount int      `json:"targetWordCount" validate:"omitempty,min=100,max=5000"`
	Template        Template `json:"template" validate:"omitempty,oneof=how-to listicle guide review comparison"`
	Temperature     float64  `json:"temperature" validate:"omitempty,gt=0,lte=2"`
	MaxTokens       int      `json:"maxTokens" validate:"omitempty,min=256,max=8192"`
	CreateArticle   bool     `json:"createArticle"`
	SourceTopicID   string   `json:"sourceTopicId,omitempty"`
}

// PrimaryKeyword returns the keyword used for density analysis: the first
// listed keyword, falling back to the topic title.
func (r *GenerationRequest) PrimaryKeyword() string {
	if len(r.Keywords) > 0 {
		return r.Keywords[0]
	}
	return r.Title
}

// LegacyGenerationRequest is the free-text prompt shape used by the schema
// fallback path. It is derived deterministically from a GenerationRequest
// and never constructed by a caller.
type LegacyGenerationRequest struct {
	Prompt          string   `json:"prompt"`
	Tone            Tone     `json:"tone"`
	Keywords        []string `json:"keywords"`
	TargetWordCount int      `json:"targetWordCount"`
}

// Attempt records one provider invocation within an orchestration pass.
// Attempts are append-only and chronologically ordered.
type Attempt struct {
	Provider         string    `json:"provider"`
	Success          bool      `json:"success"`
	LatencyMS        int64     `json:"latencyMs"`
	PromptTokens     int       `json:"promptTokens,omitempty"`
	CompletionTokens int       `json:"completionTokens,omitempty"`
	CostUSD          float64   `json:"costUsd,omitempty"`
	ErrorKind        ErrorKind `json:"errorKind,omitempty"`
	ErrorMessage     string    `json:"errorMessage,omitempty"`
}

// ParsedContent is the structured view of a generated article.
type ParsedContent struct {
	Title           string `json:"title"`
	MetaDescription string `json:"metaDescription"`
	Body            string `json:"body"`
}

// GenerationResult is the output of one orchestration pass. When Success is
// true, Parsed and at least one successful Attempt are always present.
type GenerationResult struct {
	Success       bool            `json:"success"`
	Content       string          `json:"content,omitempty"`
	Parsed        *ParsedContent  `json:"parsed,omitempty"`
	Attempts      []Attempt       `json:"attempts"`
	FinalProvider string          `json:"finalProvider,omitempty"`
	TotalTokens   int             `json:"totalTokens"`
	TotalCostUSD  float64         `json:"totalCostUsd"`
	FallbackUsed  bool            `json:"fallbackUsed"`
	OriginalError string          `json:"originalError,omitempty"`
	Error         string          `json:"error,omitempty"`
	Metrics       *ContentMetrics `json:"metrics,omitempty"`
}

// GenerateRequest is the synchronous API request body.
type GenerateRequest struct {
	GenerationRequest
	PreferredProvider string `json:"preferredProvider" validate:"omitempty,oneof=openai anthropic gemini mock"`
}

// GenerateResponse wraps a GenerationResult with the outcome of the optional
// article persistence step. A persistence failure never invalidates a
// successful generation.
type GenerateResponse struct {
	*GenerationResult
	ArticleID             string `json:"articleId,omitempty"`
	ArticleCreationFailed bool   `json:"articleCreationFailed,omitempty"`
	ArticleError          string `json:"articleError,omitempty"`
}
