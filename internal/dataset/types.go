// Package dataset defines the data model shared by all pipeline phases:
// scraped articles, generated Q&A pairs, and formatted training records.
package dataset

// Article is one scraped helpdesk article. Articles are immutable once
// scraped and serve as read-only input to grounding checks.
type Article struct {
	ArticleID    string           `json:"article_id"`
	URL          string           `json:"url"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Collection   string           `json:"collection"`
	CollectionID string           `json:"collection_id"`
	Content      ArticleContent   `json:"content"`
	Related      []RelatedArticle `json:"related_articles,omitempty"`
	Metadata     ArticleMetadata  `json:"metadata"`
}

// ArticleContent holds the extracted representations of an article body
type ArticleContent struct {
	RawHTML   string    `json:"raw_html,omitempty"`
	Markdown  string    `json:"markdown"`
	PlainText string    `json:"plain_text"`
	Sections  []Section `json:"sections"`
}

// Section is a heading plus the text under it
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Content string `json:"content"`
}

// RelatedArticle is a cross-link found on the article page
type RelatedArticle struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ArticleMetadata holds shallow content statistics
type ArticleMetadata struct {
	WordCount int  `json:"word_count"`
	HasImages bool `json:"has_images"`
	HasTables bool `json:"has_tables"`
	HasVideo  bool `json:"has_video"`
}

// QAPair is one generated question/answer pair tied to a source article.
// QAID has the form "<article_id>_q<index>" and is unique within a run.
// Pairs are never mutated after generation; filtering produces a new
// derived collection.
type QAPair struct {
	QAID         string `json:"qa_id"`
	ArticleID    string `json:"article_id"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	QuestionType string `json:"question_type"`
	Collection   string `json:"collection"`
}

// Message is one turn of a training conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TrainingRecord is the supervised fine-tuning format: exactly three
// messages with roles system, user, assistant in that order.
type TrainingRecord struct {
	Messages []Message `json:"messages"`
}

// QuestionSet holds the generated questions for one article
type QuestionSet struct {
	ArticleID  string     `json:"article_id"`
	Title      string     `json:"title"`
	Collection string     `json:"collection"`
	Questions  []Question `json:"questions"`
}

// Question is a single generated question with its type label
type Question struct {
	Question string `json:"question"`
	Type     string `json:"type"`
}
