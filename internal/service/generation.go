package service

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/draftforge/api/internal/client"
	"github.com/draftforge/api/internal/model"
	"github.com/draftforge/api/internal/orchestrator"
)

// GenerationService is the synchronous entry point: one orchestration pass,
// then the optional hand-off to the editorial store. A persistence failure
// never fails the call — the generated content is not wasted.
type GenerationService struct {
	orch     *orchestrator.Orchestrator
	articles *client.ArticlesClient
}

func NewGenerationService(orch *orchestrator.Orchestrator, articles *client.ArticlesClient) *GenerationService {
	return &GenerationService{
		orch:     orch,
		articles: articles,
	}
}

// Generate runs one orchestration pass and, when requested, creates the
// persistent article.
func (s *GenerationService) Generate(ctx context.Context, req *model.GenerateRequest) *model.GenerateResponse {
	result := s.orch.Generate(ctx, &req.GenerationRequest, req.PreferredProvider)
	resp := &model.GenerateResponse{GenerationResult: result}

	if !result.Success || !req.CreateArticle {
		return resp
	}

	fields := articleFields(&req.GenerationRequest, result)

	if s.articles == nil || !s.articles.IsConfigured() {
		// No store configured: hand back a mock record id so the flow stays
		// usable in development.
		resp.ArticleID = "mock-" + uuid.New().String()
		return resp
	}

	id, err := s.articles.CreateArticle(ctx, fields)
	if err != nil {
		log.Printf("Article creation failed after successful generation: %v", err)
		resp.ArticleCreationFailed = true
		resp.ArticleError = err.Error()
		return resp
	}
	resp.ArticleID = id
	return resp
}

func articleFields(req *model.GenerationRequest, result *model.GenerationResult) *model.ArticleFields {
	fields := &model.ArticleFields{
		Title:           result.Parsed.Title,
		Content:         result.Parsed.Body,
		MetaDescription: result.Parsed.MetaDescription,
		Slug:            slugify(result.Parsed.Title),
		Status:          model.ArticleStatusReadyForEditorial,
		TargetKeywords:  req.Keywords,
		SourceTopicID:   req.SourceTopicID,
	}
	if result.Metrics != nil {
		fields.SEOScore = result.Metrics.CompositeScore
		fields.WordCount = result.Metrics.WordCount
		fields.ReadingTime = result.Metrics.ReadingTimeMinutes
	}
	return fields
}

func slugify(title string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(sb.String(), "-")
}
