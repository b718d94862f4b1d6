// Package orchestrator turns one generation request into one or more
// provider invocations with ordered fallback, and degrades to the legacy
// free-text schema when the topic-based pass is exhausted.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/draftforge/api/internal/model"
	"github.com/draftforge/api/internal/provider"
	"github.com/draftforge/api/internal/quality"
)

// Orchestrator runs the attempt chain for a single orchestration pass. It
// holds no per-call state; one instance is shared by the sync facade and the
// queue workers.
type Orchestrator struct {
	registry *provider.Registry
	health   *provider.HealthTracker
}

func New(registry *provider.Registry, health *provider.HealthTracker) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		health:   health,
	}
}

// Generate attempts the configured providers in order for the topic-based
// request, falling back to the legacy schema once if every provider fails.
// Provider errors never escape: the returned result carries the outcome and
// the full attempt history.
func (o *Orchestrator) Generate(ctx context.Context, req *model.GenerationRequest, preferred string) *model.GenerationResult {
	result := &model.GenerationResult{}

	chain := o.chain(preferred)
	if len(chain) == 0 {
		result.Error = "no providers configured"
		return result
	}

	opts := provider.Options{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	lastErr := o.runPass(ctx, chain, BuildPrompt(req), opts, result)
	if !result.Success {
		// Schema fallback: re-express the topic request as a legacy
		// free-text prompt and retry the same chain once.
		originalErr := fmt.Sprintf("all providers exhausted: %s", lastErr)
		log.Printf("Primary schema exhausted, retrying under legacy schema: %s", lastErr)
		schemaFallbacksTotal.Inc()

		legacy := ToLegacy(req)
		fallbackErr := o.runPass(ctx, chain, LegacyPrompt(legacy), opts, result)
		if result.Success {
			result.FallbackUsed = true
			result.OriginalError = originalErr
		} else {
			result.Error = fmt.Sprintf("%s; schema fallback also failed: %s", originalErr, fallbackErr)
			return result
		}
	}

	parsed, ok := ParseStructured(result.Content)
	if !ok {
		// Formatting variance is not a failure; recover heuristically.
		parsed = HeuristicParse(result.Content)
	}
	if parsed.Title == "" {
		parsed.Title = req.Title
	}
	result.Parsed = parsed
	result.Metrics = quality.Analyze(parsed.Body, req)

	return result
}

// chain builds the attempt order: the caller-pinned provider first (when
// configured), then the rest by health ranking.
func (o *Orchestrator) chain(preferred string) []provider.Adapter {
	ranked := o.health.Rank(o.registry.Names())

	var chain []provider.Adapter
	if preferred != "" {
		if a, ok := o.registry.Get(preferred); ok {
			chain = append(chain, a)
		}
	}
	for _, name := range ranked {
		if preferred != "" && name == preferred {
			continue
		}
		if a, ok := o.registry.Get(name); ok {
			chain = append(chain, a)
		}
	}
	return chain
}

// runPass invokes the chain sequentially until the first success, appending
// one Attempt per invocation. Attempts are never raced: a content-policy or
// rate-limit failure on one provider must not be masked by another, and
// provider quota accounting benefits from serialized calls. Returns the last
// error message when the whole pass failed.
func (o *Orchestrator) runPass(ctx context.Context, chain []provider.Adapter, prompt provider.Prompt, opts provider.Options, result *model.GenerationResult) string {
	lastErr := "no providers attempted"

	for _, adapter := range chain {
		start := time.Now()
		completion, err := adapter.Invoke(ctx, prompt, opts)
		latency := time.Since(start)

		attempt := model.Attempt{
			Provider:  adapter.Name(),
			LatencyMS: latency.Milliseconds(),
		}

		if err != nil {
			attempt.ErrorKind = provider.KindOf(err)
			attempt.ErrorMessage = err.Error()
			result.Attempts = append(result.Attempts, attempt)
			o.health.Record(adapter.Name(), false, latency)
			recordAttempt(attempt, latency)
			lastErr = err.Error()
			log.Printf("Provider %s failed (%s), trying next", adapter.Name(), attempt.ErrorKind)
			continue
		}

		attempt.Success = true
		attempt.PromptTokens = completion.PromptTokens
		attempt.CompletionTokens = completion.CompletionTokens
		attempt.CostUSD = completion.CostUSD
		result.Attempts = append(result.Attempts, attempt)
		o.health.Record(adapter.Name(), true, latency)
		recordAttempt(attempt, latency)

		result.Success = true
		result.Content = completion.Content
		result.FinalProvider = adapter.Name()
		result.TotalTokens = totalAttemptTokens(result.Attempts)
		result.TotalCostUSD = totalAttemptCost(result.Attempts)
		return ""
	}

	return lastErr
}

func totalAttemptTokens(attempts []model.Attempt) int {
	var total int
	for _, a := range attempts {
		total += a.PromptTokens + a.CompletionTokens
	}
	return total
}

func totalAttemptCost(attempts []model.Attempt) float64 {
	var total float64
	for _, a := range attempts {
		total += a.CostUSD
	}
	return total
}
