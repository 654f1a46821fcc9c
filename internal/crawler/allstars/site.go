// Package allstars parses the all-stars.by shoe catalog.
package allstars

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/byshoes/byshoes/internal/crawler"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
)

// BaseURL is the production site root.
const BaseURL = "https://all-stars.by"

// StartPaths are the catalog sections crawled by default.
var StartPaths = []string{
	"/store/men/shoes/",
	"/store/women/shoes/",
}

// Size systems published as data-* attributes on the size picker.
var sizeTypes = []string{"us", "eu", "uk", "ru", "cm"}

var shoes = domproduct.NewCategory("obuv", "обувь")

// Site implements crawler.Site.
type Site struct {
	starts []string
}

// New creates the parser; no paths selects StartPaths.
func New(paths ...string) *Site {
	if len(paths) == 0 {
		paths = StartPaths
	}
	return &Site{starts: paths}
}

func (s *Site) Name() domproduct.Site { return domproduct.SiteAllstars }

func (s *Site) StartPaths() []string { return s.starts }

func (s *Site) NextPage(doc *goquery.Document) string {
	href, _ := doc.Find("nav.pages").First().Find(`a[aria-label="Next"]`).First().Attr("href")
	return href
}

func (s *Site) ProductLinks(doc *goquery.Document, _ string) []crawler.Link {
	var links []crawler.Link
	doc.Find("article.s_item").Each(func(_ int, card *goquery.Selection) {
		if href, ok := card.Find("div.s_item-det a").First().Attr("href"); ok && href != "" {
			links = append(links, crawler.Link{Path: href})
		}
	})
	return links
}

// cartItem is the analytics payload attached to the add-to-cart button.
type cartItem struct {
	Article string `json:"article"`
	Color   string `json:"color"`
}

func (s *Site) ParseProduct(doc *goquery.Document, link crawler.Link, baseURL string) (domproduct.Product, error) {
	cart := doc.Find("button.js-add-cart").First()
	if cart.Length() == 0 {
		return domproduct.Product{}, fmt.Errorf("%s: add-to-cart button not found", link.Path)
	}
	price, err := crawler.ParseNumber(cart.AttrOr("data-price", ""))
	if err != nil {
		return domproduct.Product{}, fmt.Errorf("%s: price: %w", link.Path, err)
	}
	var discounted *float64
	if old, err := crawler.ParseNumber(cart.AttrOr("data-oldprice", "")); err == nil && old != price {
		discounted = &old
	}

	var item cartItem
	if err := json.Unmarshal([]byte(cart.AttrOr("data-pixel-add-items-to-cart", "")), &item); err != nil {
		return domproduct.Product{}, fmt.Errorf("%s: cart payload: %w", link.Path, err)
	}

	content := doc.Find("div.content-container").First()
	p := domproduct.Product{
		Title:           doc.Find(`meta[itemprop="name"]`).First().AttrOr("content", ""),
		Images:          images(doc, baseURL),
		Link:            crawler.Absolute(baseURL, link.Path),
		Price:           price,
		DiscountedPrice: discounted,
		Category:        categories(doc),
		Site:            domproduct.SiteAllstars,
		Article:         item.Article,
		Specification: domproduct.Specification{
			Color: item.Color,
			Sex:   EncodeSex(content.Find("div.subtitle").First().Text()),
			Size:  sizes(content),
		},
	}
	return p, nil
}

func images(doc *goquery.Document, baseURL string) []string {
	var out []string
	doc.Find("ul.js-images-main img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && src != "" {
			out = append(out, crawler.Absolute(baseURL, src))
		}
	})
	return out
}

// categories is the generic shoes category plus the deepest breadcrumb.
func categories(doc *goquery.Document) []domproduct.Category {
	out := []domproduct.Category{shoes}
	last := doc.Find("div.breadcrumbs a").Last()
	if href, ok := last.Attr("href"); ok {
		name := strings.ToLower(strings.TrimSpace(last.AttrOr("title", last.Text())))
		out = append(out, domproduct.NewCategory(crawler.Segment(href), name))
	}
	return out
}

// sizes groups the size picker values per sizing system. A system with an unparsable value is dropped.
func sizes(content *goquery.Selection) []domproduct.Size {
	picker := content.Find("a.js-size-type")
	var out []domproduct.Size
	for _, typ := range sizeTypes {
		var values []float64
		ok := true
		picker.Each(func(_ int, a *goquery.Selection) {
			raw, present := a.Attr("data-" + typ)
			if !present {
				return
			}
			v, err := crawler.ParseNumber(raw)
			if err != nil {
				ok = false
				return
			}
			values = append(values, v)
		})
		if ok && len(values) > 0 {
			out = append(out, domproduct.Size{SizeType: typ, Values: values})
		}
	}
	return out
}

// EncodeSex maps the audience subtitle to a Sex.
func EncodeSex(subtitle string) domproduct.Sex {
	switch strings.ToLower(strings.TrimSpace(subtitle)) {
	case "для мужчин", "для мальчиков":
		return domproduct.Male
	case "для женщин", "для девочек":
		return domproduct.Female
	}
	return domproduct.Unisex
}
