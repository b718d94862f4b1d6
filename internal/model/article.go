package model

// Article statuses understood by the persistence collaborator.
const ArticleStatusReadyForEditorial = "ready_for_editorial"

// ArticleFields is the payload handed to the persistence collaborator after
// a successful generation.
type ArticleFields struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaDescription string   `json:"metaDescription"`
	Slug            string   `json:"slug"`
	Status          string   `json:"status"`
	TargetKeywords  []string `json:"targetKeywords,omitempty"`
	SEOScore        int      `json:"seoScore"`
	WordCount       int      `json:"wordCount"`
	ReadingTime     int      `json:"readingTime"`
	SourceTopicID   string   `json:"sourceTopicId,omitempty"`
}
