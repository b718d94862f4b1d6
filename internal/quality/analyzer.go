// Package quality computes structural and SEO metrics from generated text.
// Everything here is pure: no network, no state, identical input always
// yields identical metrics.
package quality

import (
	"math"
	"strings"

	"github.com/draftforge/api/internal/model"
)

const wordsPerMinute = 200

// transitionWords flag introductions and conclusions when they open a
// paragraph.
var introWords = []string{
	"imagine", "whether", "if you", "let's", "in this", "this guide",
	"this article", "getting", "there is", "most",
}

var conclusionWords = []string{
	"in conclusion", "to sum up", "in summary", "overall", "ultimately",
	"finally", "to wrap up", "all in all",
}

// Analyze computes the content metrics for a generated article body against
// its originating request.
func Analyze(content string, req *model.GenerationRequest) *model.ContentMetrics {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	paragraphs := splitParagraphs(normalized)
	headings := headingLevels(normalized)
	words := countWords(normalized)
	sentences := countSentences(normalized)

	keyword := req.PrimaryKeyword()
	density := keywordDensity(normalized, keyword, words)
	dScore := densityScore(density)

	m := &model.ContentMetrics{
		WordCount:          words,
		SentenceCount:      sentences,
		ParagraphCount:     len(paragraphs),
		HeadingLevels:      headings,
		ProperHierarchy:    properHierarchy(headings),
		HasIntroduction:    looksLikeIntro(paragraphs),
		HasConclusion:      looksLikeConclusion(paragraphs),
		Keyword:            keyword,
		KeywordDensity:     density,
		DensityScore:       dScore,
		ReadingTimeMinutes: readingTime(words),
	}
	m.CompositeScore = compositeScore(m, req)
	return m
}

// splitParagraphs returns non-heading text blocks separated by blank lines.
func splitParagraphs(content string) []string {
	var paragraphs []string
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}
		paragraphs = append(paragraphs, block)
	}
	return paragraphs
}

// headingLevels extracts markdown heading levels in document order.
func headingLevels(content string) []int {
	var levels []int
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		if level < len(trimmed) && trimmed[level] == ' ' {
			levels = append(levels, level)
		}
	}
	return levels
}

// properHierarchy is true when no heading level jumps by more than one.
func properHierarchy(levels []int) bool {
	for i := 1; i < len(levels); i++ {
		if levels[i] > levels[i-1]+1 {
			return false
		}
	}
	return true
}

func countWords(content string) int {
	var count int
	for _, field := range strings.Fields(content) {
		if strings.Trim(field, "#*-") == "" {
			continue
		}
		count++
	}
	return count
}

func countSentences(content string) int {
	var count int
	var inTerminator bool
	for _, r := range content {
		switch r {
		case '.', '!', '?':
			if !inTerminator {
				count++
				inTerminator = true
			}
		default:
			inTerminator = false
		}
	}
	return count
}

// keywordDensity is the share of case-insensitive keyword occurrences in the
// total word count, as a percentage.
func keywordDensity(content, keyword string, words int) float64 {
	if keyword == "" || words == 0 {
		return 0
	}
	occurrences := strings.Count(strings.ToLower(content), strings.ToLower(keyword))
	return float64(occurrences) / float64(words) * 100
}

// densityScore maps density onto 0-100. The sweet spot 1-2% scores 100;
// below 1% the score falls linearly to 0 at 0%; above 2% it decays to 0 at
// 6%+, penalizing keyword stuffing. Never negative.
func densityScore(density float64) int {
	switch {
	case density <= 0:
		return 0
	case density < 1:
		return int(math.Round(density * 100))
	case density <= 2:
		return 100
	case density >= 6:
		return 0
	default:
		return int(math.Round(100 * (6 - density) / 4))
	}
}

func looksLikeIntro(paragraphs []string) bool {
	if len(paragraphs) == 0 {
		return false
	}
	first := strings.ToLower(paragraphs[0])
	if len(strings.Fields(first)) >= 40 {
		return true
	}
	for _, w := range introWords {
		if strings.Contains(first, w) {
			return true
		}
	}
	return false
}

func looksLikeConclusion(paragraphs []string) bool {
	if len(paragraphs) == 0 {
		return false
	}
	last := strings.ToLower(paragraphs[len(paragraphs)-1])
	for _, w := range conclusionWords {
		if strings.Contains(last, w) {
			return true
		}
	}
	return len(strings.Fields(last)) >= 30
}

func readingTime(words int) int {
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

// compositeScore blends the individual signals into a bounded 0-100 rubric:
// density 40, structure 20, intro 10, conclusion 10, length fit 20.
func compositeScore(m *model.ContentMetrics, req *model.GenerationRequest) int {
	score := float64(m.DensityScore) * 0.4

	if m.ProperHierarchy && len(m.HeadingLevels) > 0 {
		score += 20
	}
	if m.HasIntroduction {
		score += 10
	}
	if m.HasConclusion {
		score += 10
	}

	target := req.TargetWordCount
	if target == 0 {
		target = 800
	}
	deviation := math.Abs(float64(m.WordCount-target)) / float64(target)
	if deviation <= 0.2 {
		score += 20
	} else if deviation < 1 {
		score += 20 * (1 - deviation) / 0.8
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return int(math.Round(score))
}
