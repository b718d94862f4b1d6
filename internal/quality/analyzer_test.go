package quality

import (
	"reflect"
	"testing"

	"github.com/draftforge/api/internal/model"
)

const sampleArticle = `# Coffee Brewing Guide

This guide covers coffee brewing from start to finish. Most beginners rush the process.

## Grinding

Grind the coffee beans evenly. A burr grinder works best.

## Brewing

Pour hot water over the coffee slowly. Wait four minutes.

In conclusion, coffee rewards patience.`

func TestAnalyzeStructure(t *testing.T) {
	req := &model.GenerationRequest{
		Title:    "Coffee Brewing Guide",
		Keywords: []string{"coffee"},
	}

	m := Analyze(sampleArticle, req)

	if m.WordCount != 44 {
		t.Errorf("WordCount = %d, want 44", m.WordCount)
	}
	if m.SentenceCount != 7 {
		t.Errorf("SentenceCount = %d, want 7", m.SentenceCount)
	}
	if m.ParagraphCount != 4 {
		t.Errorf("ParagraphCount = %d, want 4", m.ParagraphCount)
	}
	if want := []int{1, 2, 2}; !reflect.DeepEqual(m.HeadingLevels, want) {
		t.Errorf("HeadingLevels = %v, want %v", m.HeadingLevels, want)
	}
	if !m.ProperHierarchy {
		t.Error("expected proper heading hierarchy")
	}
	if !m.HasIntroduction {
		t.Error("expected introduction to be detected")
	}
	if !m.HasConclusion {
		t.Error("expected conclusion to be detected")
	}
	if m.Keyword != "coffee" {
		t.Errorf("Keyword = %q, want %q", m.Keyword, "coffee")
	}
	if m.ReadingTimeMinutes != 1 {
		t.Errorf("ReadingTimeMinutes = %d, want 1", m.ReadingTimeMinutes)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	req := &model.GenerationRequest{Title: "Coffee Brewing Guide", Keywords: []string{"coffee"}}

	a := Analyze(sampleArticle, req)
	b := Analyze(sampleArticle, req)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated analysis differs:\n%+v\n%+v", a, b)
	}
}

func TestAnalyzeKeywordFallsBackToTitle(t *testing.T) {
	req := &model.GenerationRequest{Title: "quantum computing"}

	m := Analyze("quantum computing is changing everything.", req)

	if m.Keyword != "quantum computing" {
		t.Errorf("Keyword = %q, want title fallback", m.Keyword)
	}
	if m.KeywordDensity == 0 {
		t.Error("expected non-zero density for keyword present in body")
	}
}

func TestDensityScore(t *testing.T) {
	tests := []struct {
		density float64
		want    int
	}{
		{0, 0},
		{-0.5, 0},
		{0.5, 50},
		{1, 100},
		{1.5, 100},
		{2, 100},
		{4, 50},
		{6, 0},
		{10, 0},
	}
	for _, tt := range tests {
		if got := densityScore(tt.density); got != tt.want {
			t.Errorf("densityScore(%v) = %d, want %d", tt.density, got, tt.want)
		}
	}
}

func TestKeywordDensity(t *testing.T) {
	if got := keywordDensity("go go go go", "go", 4); got != 100 {
		t.Errorf("density = %v, want 100", got)
	}
	if got := keywordDensity("nothing here", "", 2); got != 0 {
		t.Errorf("density for empty keyword = %v, want 0", got)
	}
	if got := keywordDensity("", "go", 0); got != 0 {
		t.Errorf("density for empty content = %v, want 0", got)
	}
	// case-insensitive
	if got := keywordDensity("Go is great", "go", 3); got == 0 {
		t.Error("expected case-insensitive match")
	}
}

func TestHeadingLevels(t *testing.T) {
	content := "# One\n\ntext\n\n#NotAHeading\n\n### Three"
	got := headingLevels(content)
	if want := []int{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("headingLevels = %v, want %v", got, want)
	}
}

func TestProperHierarchyViolation(t *testing.T) {
	req := &model.GenerationRequest{Title: "test"}
	m := Analyze("# Top\n\nSome text.\n\n### Deep\n\nMore text.", req)
	if m.ProperHierarchy {
		t.Error("expected hierarchy violation for h1 -> h3 jump")
	}
}

func TestCountWordsSkipsMarkdownTokens(t *testing.T) {
	if got := countWords("# Title - item * bullet"); got != 3 {
		t.Errorf("countWords = %d, want 3", got)
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 0},
		{1, 1},
		{200, 1},
		{201, 2},
		{1000, 5},
	}
	for _, tt := range tests {
		if got := readingTime(tt.words); got != tt.want {
			t.Errorf("readingTime(%d) = %d, want %d", tt.words, got, tt.want)
		}
	}
}

func TestCompositeScoreBounds(t *testing.T) {
	req := &model.GenerationRequest{Title: "coffee", Keywords: []string{"coffee"}, TargetWordCount: 100}

	m := Analyze(sampleArticle, req)
	if m.CompositeScore < 0 || m.CompositeScore > 100 {
		t.Errorf("CompositeScore = %d, outside [0,100]", m.CompositeScore)
	}

	empty := Analyze("", req)
	if empty.CompositeScore != 0 {
		t.Errorf("CompositeScore for empty content = %d, want 0", empty.CompositeScore)
	}
}
