// Package crawler walks a shop's listing pages and scrapes every product page it links to.
package crawler

import (
	"context"
	"fmt"
	"slices"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domproduct "github.com/byshoes/byshoes/internal/domain/product"
	"github.com/byshoes/byshoes/internal/logger"
)

// maxListingPages stops a listing walk whose next-page links loop.
const maxListingPages = 500

// Link is a product page discovered on a listing, with the categories it was listed under.
type Link struct {
	Path       string
	Categories []domproduct.Category
}

// Site knows the markup of one shop.
type Site interface {
	Name() domproduct.Site
	StartPaths() []string
	// NextPage returns the next listing page or "" on the last one.
	NextPage(doc *goquery.Document) string
	ProductLinks(doc *goquery.Document, startPath string) []Link
	ParseProduct(doc *goquery.Document, link Link, baseURL string) (domproduct.Product, error)
}

type pageFetcher interface {
	Document(ctx context.Context, path string) (*goquery.Document, error)
	BaseURL() string
}

// Result is the outcome of one site crawl. Skipped counts product pages that could not be fetched or parsed.
type Result struct {
	Products []domproduct.Product
	Skipped  int
}

// Crawler scrapes one site.
type Crawler struct {
	site        Site
	fetcher     pageFetcher
	concurrency int
}

// New creates a crawler fetching at most concurrency product pages at once.
func New(site Site, fetcher pageFetcher, concurrency int) *Crawler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Crawler{site: site, fetcher: fetcher, concurrency: concurrency}
}

// Site returns the crawled shop.
func (c *Crawler) Site() domproduct.Site { return c.site.Name() }

// Crawl collects product links from every start path, then scrapes the product pages.
// A listing page that cannot be fetched fails the crawl; a broken product page is logged and skipped.
func (c *Crawler) Crawl(ctx context.Context) (Result, error) {
	log := logger.FromContext(ctx)

	links, err := c.collectLinks(ctx)
	if err != nil {
		return Result{}, err
	}
	log.Info("Product links collected", zap.Int("links", len(links)))

	slots := make([]*domproduct.Product, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, link := range links {
		g.Go(func() error {
			doc, err := c.fetcher.Document(gctx, link.Path)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("Product page skipped", zap.String("path", link.Path), zap.Error(err))
				return nil
			}
			p, err := c.site.ParseProduct(doc, link, c.fetcher.BaseURL())
			if err != nil {
				log.Warn("Product page not parsed", zap.String("path", link.Path), zap.Error(err))
				return nil
			}
			slots[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("crawl %s: %w", c.site.Name(), err)
	}

	res := Result{Products: make([]domproduct.Product, 0, len(slots))}
	for _, p := range slots {
		if p == nil {
			res.Skipped++
			continue
		}
		res.Products = append(res.Products, *p)
	}
	return res, nil
}

func (c *Crawler) collectLinks(ctx context.Context) ([]Link, error) {
	starts := c.site.StartPaths()
	found := make([][]Link, len(starts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, start := range starts {
		g.Go(func() error {
			links, err := c.walkListing(gctx, start)
			if err != nil {
				return err
			}
			found[i] = links
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("crawl %s listings: %w", c.site.Name(), err)
	}
	return Dedupe(slices.Concat(found...)), nil
}

func (c *Crawler) walkListing(ctx context.Context, start string) ([]Link, error) {
	var links []Link
	seen := make(map[string]bool)
	for next := start; next != "" && !seen[next] && len(seen) < maxListingPages; {
		seen[next] = true
		doc, err := c.fetcher.Document(ctx, next)
		if err != nil {
			return nil, err
		}
		links = append(links, c.site.ProductLinks(doc, start)...)
		next = c.site.NextPage(doc)
	}
	return links, nil
}

// Dedupe keeps the first occurrence of every path, merging the categories of later ones into it.
func Dedupe(links []Link) []Link {
	out := make([]Link, 0, len(links))
	index := make(map[string]int, len(links))
	for _, l := range links {
		if l.Path == "" {
			continue
		}
		i, ok := index[l.Path]
		if !ok {
			index[l.Path] = len(out)
			out = append(out, Link{Path: l.Path, Categories: slices.Clone(l.Categories)})
			continue
		}
		for _, cat := range l.Categories {
			if !slices.Contains(out[i].Categories, cat) {
				out[i].Categories = append(out[i].Categories, cat)
			}
		}
	}
	return out
}
