package helpdesk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://helpdesk.atom.com"

const homepageHTML = `
<html><body>
  <a href="/collections/101-atompay">AtomPay</a>
  <a href="https://helpdesk.atom.com/collections/102-selling-tips?ref=home">Selling Tips</a>
  <a href="/collections/101-atompay">AtomPay again</a>
  <a href="/collections/malformed">broken</a>
  <a href="/articles/1-not-a-collection">article link</a>
  <a href="mailto:support@atom.com">contact</a>
</body></html>`

func TestExtractCollections(t *testing.T) {
	collections, err := ExtractCollections(homepageHTML, testBaseURL)
	require.NoError(t, err)
	require.Len(t, collections, 2)

	assert.Equal(t, Collection{
		ID:   "101",
		Slug: "atompay",
		Name: "AtomPay",
		URL:  "https://helpdesk.atom.com/collections/101-atompay",
	}, collections[0])

	// Unknown slug falls back to title-cased words, query params dropped
	assert.Equal(t, Collection{
		ID:   "102",
		Slug: "selling-tips",
		Name: "Selling Tips",
		URL:  "https://helpdesk.atom.com/collections/102-selling-tips",
	}, collections[1])
}

func TestExtractCollectionsEmptyPage(t *testing.T) {
	collections, err := ExtractCollections("<html><body></body></html>", testBaseURL)
	require.NoError(t, err)
	assert.Empty(t, collections)
}

const collectionPageHTML = `
<html><body>
  <a href="/articles/201-how-to-get-paid">How to get paid</a>
  <a href="/articles/202-payout-schedule?src=list"> Payout schedule </a>
  <a href="/articles/201-how-to-get-paid">duplicate</a>
  <a href="/collections/101-atompay">back to collection</a>
</body></html>`

func TestExtractArticleRefs(t *testing.T) {
	coll := Collection{ID: "101", Slug: "atompay", Name: "AtomPay",
		URL: "https://helpdesk.atom.com/collections/101-atompay"}

	refs, err := ExtractArticleRefs(collectionPageHTML, testBaseURL, coll)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, ArticleRef{
		ID:           "201",
		Slug:         "how-to-get-paid",
		Title:        "How to get paid",
		URL:          "https://helpdesk.atom.com/articles/201-how-to-get-paid",
		Collection:   "AtomPay",
		CollectionID: "101",
	}, refs[0])

	assert.Equal(t, "202", refs[1].ID)
	assert.Equal(t, "Payout schedule", refs[1].Title)
	assert.Equal(t, "https://helpdesk.atom.com/articles/202-payout-schedule", refs[1].URL)
}

func TestCollectionDisplayName(t *testing.T) {
	assert.Equal(t, "Atom.com Registrar", collectionDisplayName("atom-com-registrar"))
	assert.Equal(t, "Billing And Invoices", collectionDisplayName("billing-and-invoices"))
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{href: "/articles/1-a", want: "https://helpdesk.atom.com/articles/1-a", ok: true},
		{href: "https://other.example/articles/2-b", want: "https://other.example/articles/2-b", ok: true},
		{href: "mailto:x@y.z", ok: false},
		{href: "javascript:void(0)", ok: false},
		{href: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := absoluteURL(tt.href, testBaseURL)
		assert.Equal(t, tt.ok, ok, tt.href)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}
