package helpdesk

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	collectionPattern = regexp.MustCompile(`/collections/(\d+)-([^?#]+)`)
	articlePattern    = regexp.MustCompile(`/articles/(\d+)-([^?#]+)`)
)

// collectionNames maps known collection slugs to their display names.
// Unknown slugs fall back to title-cased slug words.
var collectionNames = map[string]string{
	"atom-com-registrar":                  "Atom.com Registrar",
	"domain-marketplace-for-sellers":      "Domain Marketplace for Sellers",
	"domain-marketplace-for-buyers":       "Domain Marketplace for Buyers",
	"white-label-marketplace-for-sellers": "White Label Marketplace For Sellers",
	"atompay":                             "AtomPay",
	"atom-partnerships-atomconnect":       "Atom Partnerships (AtomConnect)",
	"atom-ai-tools":                       "Atom AI Tools",
	"starting-a-naming-contest":           "Starting a Naming Contest",
	"creatives":                           "Creatives",
}

// Collection is one helpdesk collection discovered on the homepage
type Collection struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ArticleRef is an article link found on a collection page; the full
// content is fetched separately.
type ArticleRef struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Collection   string `json:"collection"`
	CollectionID string `json:"collection_id"`
}

// ExtractCollections finds every collection link on the homepage.
// Duplicate IDs are skipped; the first link wins.
func ExtractCollections(homepageHTML, baseURL string) ([]Collection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(homepageHTML))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var collections []Collection

	doc.Find(`a[href*="/collections/"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		pageURL, ok := absoluteURL(href, baseURL)
		if !ok {
			return
		}

		m := collectionPattern.FindStringSubmatch(pageURL)
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true

		collections = append(collections, Collection{
			ID:   m[1],
			Slug: m[2],
			Name: collectionDisplayName(m[2]),
			URL:  stripQuery(pageURL),
		})
	})

	return collections, nil
}

// ExtractArticleRefs finds every article link on a collection page.
// Duplicate IDs are skipped; the first link wins.
func ExtractArticleRefs(collectionHTML, baseURL string, collection Collection) ([]ArticleRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(collectionHTML))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var refs []ArticleRef

	doc.Find(`a[href*="/articles/"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		pageURL, ok := absoluteURL(href, baseURL)
		if !ok {
			return
		}

		m := articlePattern.FindStringSubmatch(pageURL)
		if m == nil || seen[m[1]] {
			return
		}
		seen[m[1]] = true

		refs = append(refs, ArticleRef{
			ID:           m[1],
			Slug:         m[2],
			Title:        strings.TrimSpace(link.Text()),
			URL:          stripQuery(pageURL),
			Collection:   collection.Name,
			CollectionID: collection.ID,
		})
	})

	return refs, nil
}

func collectionDisplayName(slug string) string {
	if name, ok := collectionNames[slug]; ok {
		return name
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// absoluteURL resolves a relative href against the helpdesk base URL.
// Hrefs that are neither absolute nor root-relative are rejected.
func absoluteURL(href, baseURL string) (string, bool) {
	switch {
	case href == "":
		return "", false
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href, true
	case strings.HasPrefix(href, "/"):
		return strings.TrimSuffix(baseURL, "/") + href, true
	default:
		return "", false
	}
}

func stripQuery(pageURL string) string {
	if i := strings.IndexAny(pageURL, "?#"); i >= 0 {
		return pageURL[:i]
	}
	return pageURL
}
