package helpdesk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePageHTML = `
<html>
<head>
  <title>Transferring your domain | Atom Help Center</title>
  <meta name="description" content="How to transfer a domain out of Atom.">
</head>
<body>
  <nav><a href="/collections/101-atompay">Home</a></nav>
  <article>
    <h1>Transferring your domain</h1>
    <p>Transfers complete within 7 days and cost $10.</p>
    <h2>Before you start</h2>
    <p>Unlock the domain first.</p>
    <p>Request the auth code.</p>
    <h2>Troubleshooting</h2>
    <p>Contact support if the transfer stalls.</p>
    <script>console.log("tracking")</script>
    <div class="intercom-reaction">Was this helpful?</div>
  </article>
  <footer>
    <a href="/articles/301-auth-codes">Auth codes explained</a>
    <a href="/articles/302-domain-locks?ref=footer">Domain locks</a>
    <a href="/articles/300-transferring-your-domain">Transferring your domain</a>
  </footer>
  <img src="/img/transfer.png">
</body>
</html>`

var testArticleRef = ArticleRef{
	ID:           "300",
	Slug:         "transferring-your-domain",
	Title:        "Transferring your domain",
	URL:          "https://helpdesk.atom.com/articles/300-transferring-your-domain",
	Collection:   "Atom.com Registrar",
	CollectionID: "105",
}

func TestExtractArticle(t *testing.T) {
	article, err := ExtractArticle(articlePageHTML, testBaseURL, testArticleRef)
	require.NoError(t, err)

	assert.Equal(t, "300", article.ArticleID)
	assert.Equal(t, "Transferring your domain", article.Title)
	assert.Equal(t, "How to transfer a domain out of Atom.", article.Description)
	assert.Equal(t, "Atom.com Registrar", article.Collection)
	assert.Equal(t, "105", article.CollectionID)
}

func TestExtractArticlePlainText(t *testing.T) {
	article, err := ExtractArticle(articlePageHTML, testBaseURL, testArticleRef)
	require.NoError(t, err)

	plain := article.Content.PlainText
	assert.Contains(t, plain, "Transfers complete within 7 days and cost $10.")
	assert.Contains(t, plain, "Unlock the domain first.")
	assert.NotContains(t, plain, "console.log")
	assert.NotContains(t, plain, "Was this helpful?")
	assert.NotContains(t, plain, "\n")
}

func TestExtractArticleSections(t *testing.T) {
	article, err := ExtractArticle(articlePageHTML, testBaseURL, testArticleRef)
	require.NoError(t, err)

	sections := article.Content.Sections
	require.Len(t, sections, 3)

	assert.Equal(t, "Transferring your domain", sections[0].Heading)
	assert.Equal(t, 1, sections[0].Level)
	assert.Contains(t, sections[0].Content, "Transfers complete within 7 days")

	assert.Equal(t, "Before you start", sections[1].Heading)
	assert.Equal(t, 2, sections[1].Level)
	assert.Contains(t, sections[1].Content, "Unlock the domain first.")
	assert.Contains(t, sections[1].Content, "Request the auth code.")

	assert.Equal(t, "Troubleshooting", sections[2].Heading)
}

func TestExtractArticleRelated(t *testing.T) {
	article, err := ExtractArticle(articlePageHTML, testBaseURL, testArticleRef)
	require.NoError(t, err)

	// Self-link excluded, query params stripped
	require.Len(t, article.Related, 2)
	assert.Equal(t, "Auth codes explained", article.Related[0].Title)
	assert.Equal(t, "https://helpdesk.atom.com/articles/301-auth-codes", article.Related[0].URL)
	assert.Equal(t, "https://helpdesk.atom.com/articles/302-domain-locks", article.Related[1].URL)
}

func TestExtractArticleMetadata(t *testing.T) {
	article, err := ExtractArticle(articlePageHTML, testBaseURL, testArticleRef)
	require.NoError(t, err)

	assert.True(t, article.Metadata.HasImages)
	assert.False(t, article.Metadata.HasTables)
	assert.False(t, article.Metadata.HasVideo)
	assert.Greater(t, article.Metadata.WordCount, 10)
}

func TestExtractArticleMarkdown(t *testing.T) {
	article, err := ExtractArticle(articlePageHTML, testBaseURL, testArticleRef)
	require.NoError(t, err)

	md := article.Content.Markdown
	assert.Contains(t, md, "Transferring your domain")
	assert.Contains(t, md, "Unlock the domain first.")
	assert.NotContains(t, md, "console.log")
	assert.NotContains(t, md, "\n\n\n")
}

func TestExtractArticleFallbackBody(t *testing.T) {
	// No article element; extraction falls back to the page body.
	page := `<html><head><title>Refunds | Atom Help Center</title></head>
<body><p>Refunds take 5 business days.</p></body></html>`

	article, err := ExtractArticle(page, testBaseURL, ArticleRef{ID: "9", URL: "u"})
	require.NoError(t, err)
	assert.Equal(t, "Refunds", article.Title)
	assert.Contains(t, article.Content.PlainText, "Refunds take 5 business days.")
	assert.Empty(t, article.Content.Sections)
}

func TestExtractArticleVideoDetection(t *testing.T) {
	page := `<html><body><article><h1>Video guide</h1>
<iframe src="https://www.youtube.com/embed/abc"></iframe></article></body></html>`

	article, err := ExtractArticle(page, testBaseURL, ArticleRef{ID: "10", URL: "u"})
	require.NoError(t, err)
	assert.True(t, article.Metadata.HasVideo)
}

func TestCleanMarkdown(t *testing.T) {
	in := "Skip to main content\n\n# Title\n\n\n\nBody <span>tag</span> text [click](javascript:void(0)) end\n"
	out := cleanMarkdown(in)

	assert.NotContains(t, out, "Skip to main content")
	assert.NotContains(t, out, "<span>")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "click")
	assert.NotContains(t, out, "\n\n\n")
}
