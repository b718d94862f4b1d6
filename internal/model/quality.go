package model

// ContentMetrics is the output of the content quality analyzer. Fully
// deterministic for identical input.
type ContentMetrics struct {
	WordCount          int     `json:"wordCount"`
	SentenceCount      int     `json:"sentenceCount"`
	ParagraphCount     int     `json:"paragraphCount"`
	HeadingLevels      []int   `json:"headingLevels,omitempty"`
	ProperHierarchy    bool    `json:"properHierarchy"`
	HasIntroduction    bool    `json:"hasIntroduction"`
	HasConclusion      bool    `json:"hasConclusion"`
	Keyword            string  `json:"keyword,omitempty"`
	KeywordDensity     float64 `json:"keywordDensity"`
	DensityScore       int     `json:"densityScore"`
	CompositeScore     int     `json:"compositeScore"`
	ReadingTimeMinutes int     `json:"readingTimeMinutes"`
}
