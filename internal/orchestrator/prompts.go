package orchestrator

import (
	"fmt"
	"strings"

	"github.com/draftforge/api/internal/model"
	"github.com/draftforge/api/internal/provider"
)

const defaultWordCount = 800

// systemPrompt states the structured output contract every provider is
// asked to honor. A provider ignoring it is not treated as failed — see
// HeuristicParse.
const systemPrompt = `You are a professional content writer producing publication-ready articles.
Respond in exactly this format and nothing else:
TITLE: <article title>
META: <meta description under 160 characters>
BODY:
<the full article in markdown, using ## for section headings>`

var templateGuides = map[model.Template]string{
	model.TemplateHowTo:      "Structure it as a step-by-step how-to with numbered steps.",
	model.TemplateListicle:   "Structure it as a listicle with a heading per item.",
	model.TemplateGuide:      "Structure it as a comprehensive guide moving from basics to advanced.",
	model.TemplateReview:     "Structure it as a review covering strengths, weaknesses and a verdict.",
	model.TemplateComparison: "Structure it as a comparison with a section per alternative and a recommendation.",
}

// BuildPrompt renders the topic-based (V2) request into the normalized
// prompt shape.
func BuildPrompt(req *model.GenerationRequest) provider.Prompt {
	words := req.TargetWordCount
	if words == 0 {
		words = defaultWordCount
	}
	tone := req.Tone
	if tone == "" {
		tone = model.ToneProfessional
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", req.Title)
	fmt.Fprintf(&sb, "Tone: %s\n", tone)
	fmt.Fprintf(&sb, "Target length: about %d words\n", words)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&sb, "Target keywords: %s\n", strings.Join(req.Keywords, ", "))
		fmt.Fprintf(&sb, "Work the primary keyword %q in naturally, around 1-2%% density.\n", req.PrimaryKeyword())
	}
	if guide, ok := templateGuides[req.Template]; ok {
		sb.WriteString(guide + "\n")
	}
	sb.WriteString("Include a clear introduction and conclusion.")

	return provider.Prompt{System: systemPrompt, User: sb.String()}
}

// ToLegacy derives the free-text (V1) request from a topic-based one. The
// derivation is deterministic; callers never construct a legacy request
// themselves.
func ToLegacy(req *model.GenerationRequest) *model.LegacyGenerationRequest {
	words := req.TargetWordCount
	if words == 0 {
		words = defaultWordCount
	}
	tone := req.Tone
	if tone == "" {
		tone = model.ToneProfessional
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a %s article of about %d words titled %q.", tone, words, req.Title)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&sb, " Naturally include these keywords: %s.", strings.Join(req.Keywords, ", "))
	}
	sb.WriteString(" Start with an engaging introduction and end with a conclusion.")

	return &model.LegacyGenerationRequest{
		Prompt:          sb.String(),
		Tone:            tone,
		Keywords:        req.Keywords,
		TargetWordCount: words,
	}
}

// LegacyPrompt renders a legacy request for the provider chain. The legacy
// schema predates the structured contract, so the system prompt only sets
// the writer persona.
func LegacyPrompt(legacy *model.LegacyGenerationRequest) provider.Prompt {
	return provider.Prompt{
		System: "You are a professional content writer producing publication-ready articles in markdown.",
		User:   legacy.Prompt,
	}
}

// ParseStructured extracts title/meta/body from a response that honored the
// output contract. The second return is false when the markers are missing.
func ParseStructured(content string) (*model.ParsedContent, bool) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var parsed model.ParsedContent
	bodyStart := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "TITLE:"):
			parsed.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "TITLE:"))
		case strings.HasPrefix(trimmed, "META:"):
			parsed.MetaDescription = strings.TrimSpace(strings.TrimPrefix(trimmed, "META:"))
		case strings.HasPrefix(trimmed, "BODY:"):
			bodyStart = i + 1
		}
		if bodyStart != -1 {
			break
		}
	}

	if parsed.Title == "" || bodyStart == -1 || bodyStart >= len(lines) {
		return nil, false
	}
	parsed.Body = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	if parsed.Body == "" {
		return nil, false
	}
	return &parsed, true
}

// HeuristicParse recovers a parsed view from content that ignored the
// contract: first non-empty line becomes the title, the remainder the body,
// and the meta description is clipped from the body.
func HeuristicParse(content string) *model.ParsedContent {
	normalized := strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	lines := strings.SplitN(normalized, "\n", 2)

	title := strings.TrimSpace(strings.TrimLeft(lines[0], "# "))
	body := ""
	if len(lines) > 1 {
		body = strings.TrimSpace(lines[1])
	}
	if body == "" {
		body = normalized
	}

	meta := strings.Join(strings.Fields(body), " ")
	// Clip on a rune boundary so multi-byte text is never split mid-character.
	if runes := []rune(meta); len(runes) > 157 {
		meta = string(runes[:157]) + "..."
	}

	return &model.ParsedContent{
		Title:           title,
		MetaDescription: meta,
		Body:            body,
	}
}
