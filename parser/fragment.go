package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ProductSelector matches one catalogue entry on a listing page.
const ProductSelector = "article.product_pod"

// Fragment is a read-only view of one catalogue entry.
type Fragment interface {
	// Attr returns the named attribute of the first element matching selector.
	Attr(selector, name string) (string, bool)
	// Text returns the text content of the first element matching selector.
	Text(selector string) (string, bool)
	// ClassTokens returns the class list of the first element matching selector.
	ClassTokens(selector string) []string
	// AbsoluteURL resolves href against the page the fragment came from.
	AbsoluteURL(href string) string
}

// ParsePage splits a listing page into fragments in document order.
// A page without entries yields an empty slice and no error.
func ParsePage(raw []byte, pageURL string) ([]Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var base *url.URL
	if pageURL != "" {
		if parsed, err := url.Parse(pageURL); err == nil {
			base = parsed
		}
	}

	selection := doc.Find(ProductSelector)
	fragments := make([]Fragment, 0, selection.Length())
	selection.Each(func(_ int, s *goquery.Selection) {
		fragments = append(fragments, &selectionFragment{sel: s, base: base})
	})
	return fragments, nil
}

type selectionFragment struct {
	sel  *goquery.Selection
	base *url.URL
}

func (f *selectionFragment) first(selector string) *goquery.Selection {
	return f.sel.Find(selector).First()
}

func (f *selectionFragment) Attr(selector, name string) (string, bool) {
	node := f.first(selector)
	if node.Length() == 0 {
		return "", false
	}
	return node.Attr(name)
}

func (f *selectionFragment) Text(selector string) (string, bool) {
	node := f.first(selector)
	if node.Length() == 0 {
		return "", false
	}
	return node.Text(), true
}

func (f *selectionFragment) ClassTokens(selector string) []string {
	class, ok := f.Attr(selector, "class")
	if !ok {
		return nil
	}
	return strings.Fields(class)
}

func (f *selectionFragment) AbsoluteURL(href string) string {
	if href == "" || f.base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return f.base.ResolveReference(ref).String()
}
