package helpdesk

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/Caia-Tech/caia-tuner/internal/dataset"
)

// maxRelatedArticles caps the related-article links kept per article
const maxRelatedArticles = 5

var (
	titleSuffixPattern  = regexp.MustCompile(`\s*\|\s*Atom Help Center.*$`)
	excessNewlines      = regexp.MustCompile(`\n{3,}`)
	leftoverTagPattern  = regexp.MustCompile(`<[^>]+>`)
	javascriptLink      = regexp.MustCompile(`\[([^\]]+)\]\(javascript:[^)]*\)`)
	whitespaceRuns      = regexp.MustCompile(`\s+`)
	skipToMainPattern   = regexp.MustCompile(`Skip to main content\n*`)
)

// chromeSelectors are stripped from the article body before extraction:
// navigation, reaction widgets, and other non-content page chrome.
var chromeSelectors = []string{
	"nav", "footer", "header",
	".intercom-reaction", ".intercom-article-meta",
	`[data-testid="article-footer"]`, ".article-footer",
	"script", "style",
}

// ExtractArticle parses a fetched article page into the structured
// article model: cleaned title, meta description, markdown and plain-text
// renditions, heading-based sections, related links, and shallow
// content statistics.
func ExtractArticle(articleHTML, baseURL string, ref ArticleRef) (*dataset.Article, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(articleHTML))
	if err != nil {
		return nil, err
	}

	body := doc.Find("article").First()
	if body.Length() == 0 {
		body = doc.Find(".article-body").First()
	}
	if body.Length() == 0 {
		body = doc.Find("main").First()
	}
	if body.Length() == 0 {
		body = doc.Find("body").First()
	}
	if body.Length() == 0 {
		body = doc.Selection
	}

	for _, sel := range chromeSelectors {
		body.Find(sel).Remove()
	}

	title := ref.Title
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		title = strings.TrimSpace(h1.Text())
	} else if t := doc.Find("title").First(); t.Length() > 0 {
		title = strings.TrimSpace(t.Text())
	}
	title = titleSuffixPattern.ReplaceAllString(title, "")

	description := metaContent(doc, `meta[name="description"]`)
	if description == "" {
		description = metaContent(doc, `meta[property="og:description"]`)
	}

	rawHTML, err := goquery.OuterHtml(body)
	if err != nil {
		return nil, err
	}

	markdown, err := htmltomarkdown.ConvertString(rawHTML)
	if err != nil {
		return nil, err
	}
	markdown = cleanMarkdown(markdown)

	plainText := extractPlainText(body)

	article := &dataset.Article{
		ArticleID:    ref.ID,
		URL:          ref.URL,
		Title:        title,
		Description:  description,
		Collection:   ref.Collection,
		CollectionID: ref.CollectionID,
		Content: dataset.ArticleContent{
			RawHTML:   rawHTML,
			Markdown:  markdown,
			PlainText: plainText,
			Sections:  extractSections(body),
		},
		Related: relatedArticles(doc, baseURL, ref.URL),
		Metadata: dataset.ArticleMetadata{
			WordCount: len(strings.Fields(plainText)),
			HasImages: doc.Find("img").Length() > 0,
			HasTables: doc.Find("table").Length() > 0,
			HasVideo:  doc.Find(`video, iframe[src*="youtube"], iframe[src*="vimeo"]`).Length() > 0,
		},
	}

	return article, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// extractPlainText walks the selection's nodes and joins text content
// with single spaces, collapsing all whitespace runs.
func extractPlainText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		collectText(node, &b)
	}
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(b.String(), " "))
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript":
			return
		}
	}
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			b.WriteString(text)
			b.WriteByte(' ')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

var headingLevels = map[string]int{"h1": 1, "h2": 2, "h3": 3, "h4": 4}

// extractSections splits the article body at h1-h4 headings. Text before
// the first heading belongs to no section and is dropped; the plain-text
// rendition keeps it.
func extractSections(body *goquery.Selection) []dataset.Section {
	var sections []dataset.Section
	var current *dataset.Section
	var parts []string

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(strings.Join(parts, " "))
			sections = append(sections, *current)
		}
		parts = nil
	}

	body.Find("h1, h2, h3, h4, p, li, td").Each(func(_ int, el *goquery.Selection) {
		tag := goquery.NodeName(el)
		if level, ok := headingLevels[tag]; ok {
			flush()
			current = &dataset.Section{
				Heading: strings.TrimSpace(el.Text()),
				Level:   level,
			}
			return
		}
		if current == nil {
			return
		}
		if text := strings.TrimSpace(el.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	flush()

	return sections
}

func relatedArticles(doc *goquery.Document, baseURL, selfURL string) []dataset.RelatedArticle {
	seen := make(map[string]bool)
	var related []dataset.RelatedArticle

	doc.Find(`a[href*="/articles/"]`).Each(func(_ int, link *goquery.Selection) {
		if len(related) >= maxRelatedArticles {
			return
		}
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if href == "" || title == "" {
			return
		}
		pageURL, ok := absoluteURL(href, baseURL)
		if !ok {
			return
		}
		pageURL = stripQuery(pageURL)
		if pageURL == selfURL || seen[pageURL] {
			return
		}
		seen[pageURL] = true
		related = append(related, dataset.RelatedArticle{Title: title, URL: pageURL})
	})

	return related
}

func cleanMarkdown(markdown string) string {
	markdown = excessNewlines.ReplaceAllString(markdown, "\n\n")
	markdown = leftoverTagPattern.ReplaceAllString(markdown, "")
	markdown = javascriptLink.ReplaceAllString(markdown, "$1")
	markdown = skipToMainPattern.ReplaceAllString(markdown, "")
	return strings.TrimSpace(markdown)
}
