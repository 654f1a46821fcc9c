package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"github.com/byshoes/byshoes/internal/domain"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
)

// --- Mocks ---

// mockFetcher serves canned pages; a path missing from pages fails with ErrFetchFailed.
type mockFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
}

func (m *mockFetcher) Document(_ context.Context, path string) (*goquery.Document, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, path)
	m.mu.Unlock()
	body, ok := m.pages[path]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", path, domain.ErrFetchFailed)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func (m *mockFetcher) BaseURL() string { return "https://shop.test" }

// fakeSite reads <a class="next"> for pagination, <a class="item"> for products
// and <h1> + <span class="price"> on product pages.
type fakeSite struct {
	starts []string
}

func (s fakeSite) Name() domproduct.Site { return domproduct.SiteAllstars }

func (s fakeSite) StartPaths() []string { return s.starts }

func (s fakeSite) NextPage(doc *goquery.Document) string {
	return doc.Find("a.next").AttrOr("href", "")
}

func (s fakeSite) ProductLinks(doc *goquery.Document, start string) []Link {
	var out []Link
	doc.Find("a.item").Each(func(_ int, a *goquery.Selection) {
		out = append(out, Link{Path: a.AttrOr("href", ""), Categories: []domproduct.Category{{ID: Segment(start)}}})
	})
	return out
}

func (s fakeSite) ParseProduct(doc *goquery.Document, link Link, _ string) (domproduct.Product, error) {
	price, err := ParseNumber(doc.Find("span.price").Text())
	if err != nil {
		return domproduct.Product{}, err
	}
	return domproduct.Product{Title: doc.Find("h1").Text(), Price: price, Article: Segment(link.Path), Category: link.Categories}, nil
}

func listing(next string, items ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, it := range items {
		fmt.Fprintf(&b, `<a class="item" href="%s">x</a>`, it)
	}
	if next != "" {
		fmt.Fprintf(&b, `<a class="next" href="%s">next</a>`, next)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func productPage(title, price string) string {
	return fmt.Sprintf(`<html><body><h1>%s</h1><span class="price">%s</span></body></html>`, title, price)
}

// --- Tests ---

func TestCrawl_FollowsPagesAndDedupes(t *testing.T) {
	f := &mockFetcher{pages: map[string]string{
		"/men/":        listing("/men/?page=2", "/p/a/", "/p/b/"),
		"/men/?page=2": listing("", "/p/c/"),
		"/women/":      listing("", "/p/b/", "/p/d/"),
		"/p/a/":        productPage("A", "100"),
		"/p/b/":        productPage("B", "200,50 р."),
		"/p/c/":        productPage("C", "not a price"),
		// /p/d/ is missing: fetch fails, product skipped
	}}
	c := New(fakeSite{starts: []string{"/men/", "/women/"}}, f, 2)

	res, err := c.Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domproduct.Product{
		{Title: "A", Price: 100, Article: "a", Category: []domproduct.Category{{ID: "men"}}},
		{Title: "B", Price: 200.5, Article: "b", Category: []domproduct.Category{{ID: "men"}, {ID: "women"}}},
	}
	if diff := cmp.Diff(want, res.Products); diff != "" {
		t.Errorf("products mismatch (-want +got):\n%s", diff)
	}
	if res.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", res.Skipped)
	}
}

func TestCrawl_ListingFailureFailsSite(t *testing.T) {
	f := &mockFetcher{pages: map[string]string{
		"/men/": listing("/men/?page=2", "/p/a/"),
	}}
	c := New(fakeSite{starts: []string{"/men/"}}, f, 1)

	if _, err := c.Crawl(context.Background()); !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestCrawl_StopsOnPaginationLoop(t *testing.T) {
	f := &mockFetcher{pages: map[string]string{
		"/men/":        listing("/men/?page=2"),
		"/men/?page=2": listing("/men/"),
	}}
	c := New(fakeSite{starts: []string{"/men/"}}, f, 1)

	res, err := c.Crawl(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Products) != 0 || len(f.fetched) != 2 {
		t.Errorf("expected 2 listing fetches and no products, got %d fetches", len(f.fetched))
	}
}

func TestDedupe(t *testing.T) {
	in := []Link{
		{Path: "/a", Categories: []domproduct.Category{{ID: "x"}}},
		{Path: ""},
		{Path: "/b"},
		{Path: "/a", Categories: []domproduct.Category{{ID: "x"}, {ID: "y"}}},
	}
	want := []Link{
		{Path: "/a", Categories: []domproduct.Category{{ID: "x"}, {ID: "y"}}},
		{Path: "/b"},
	}
	if diff := cmp.Diff(want, Dedupe(in)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"189", 189, false},
		{" 42,5 ", 42.5, false},
		{"199.00 руб.", 199, false},
		{"", 0, true},
		{"free", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNumber(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAbsoluteAndSegment(t *testing.T) {
	if got := Absolute("https://shop.test/", "/img/1.jpg"); got != "https://shop.test/img/1.jpg" {
		t.Errorf("Absolute = %q", got)
	}
	if got := Absolute("https://shop.test", "https://cdn.test/1.jpg"); got != "https://cdn.test/1.jpg" {
		t.Errorf("Absolute = %q", got)
	}
	if got := Segment("/catalog/muzhchiny/obuv/"); got != "obuv" {
		t.Errorf("Segment = %q", got)
	}
}
