// Package multisports parses the multisports.by shoe catalog.
package multisports

import (
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/byshoes/byshoes/internal/crawler"
	domproduct "github.com/byshoes/byshoes/internal/domain/product"
)

// BaseURL is the production site root.
const BaseURL = "https://multisports.by"

// StartPaths are the catalog sections crawled by default. Every section
// becomes a category of the products listed in it.
var StartPaths = []string{
	"/catalog/muzhchiny/obuv/",
	"/catalog/zhenshchiny/obuv/",
	"/catalog/muzhchiny/obuv/botinki/",
	"/catalog/muzhchiny/obuv/slantsy_i_sandalii/",
	"/catalog/muzhchiny/obuv/futbolnye_butsy/",
	"/catalog/muzhchiny/obuv/krossovki/",
	"/catalog/zhenshchiny/obuv/kedy/",
	"/catalog/zhenshchiny/obuv/krossovki_vysokie/",
	"/catalog/zhenshchiny/obuv/sapogi_i_botinki/",
	"/catalog/zhenshchiny/obuv/slantsy-i-sandalii/",
}

// Labels of the product card rows we keep.
const (
	labelSex     = "пол"
	labelColor   = "цвет"
	labelArticle = "артикул"
)

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

func (s *Site) Name() domproduct.Site { return domproduct.SiteMultisports }

func (s *Site) StartPaths() []string { return s.starts }

func (s *Site) NextPage(doc *goquery.Document) string {
	href, _ := doc.Find("div.pagination").First().Find(`a[title="Следующая страница"]`).First().Attr("href")
	return href
}

func (s *Site) ProductLinks(doc *goquery.Document, startPath string) []crawler.Link {
	name := strings.TrimSpace(doc.Find(fmt.Sprintf("a[href=%q]", startPath)).Last().Text())
	category := domproduct.NewCategory(crawler.Segment(startPath), name)

	var links []crawler.Link
	doc.Find("div.wrap-product-card").Each(func(_ int, card *goquery.Selection) {
		if href, ok := card.Find("a.product-name").First().Attr("href"); ok && href != "" {
			links = append(links, crawler.Link{Path: href, Categories: []domproduct.Category{category}})
		}
	})
	return links
}

func (s *Site) ParseProduct(doc *goquery.Document, link crawler.Link, baseURL string) (domproduct.Product, error) {
	prices := doc.Find("div.price-list").Last()
	price, err := crawler.ParseNumber(prices.Find("span.cur-price").Last().Text())
	if err != nil {
		return domproduct.Product{}, fmt.Errorf("%s: price: %w", link.Path, err)
	}
	var discounted *float64
	if old, err := crawler.ParseNumber(prices.Find("span.old-price").Last().Text()); err == nil {
		discounted = &old
	}

	info := cardInfo(doc)
	p := domproduct.Product{
		Title:           strings.TrimSpace(doc.Find("div.wrap-product-card-name").Last().Text()),
		Images:          images(doc, baseURL),
		Link:            crawler.Absolute(baseURL, link.Path),
		Price:           price,
		DiscountedPrice: discounted,
		Category:        slices.Clone(link.Categories),
		Site:            domproduct.SiteMultisports,
		Article:         info[labelArticle],
		Specification: domproduct.Specification{
			Color: info[labelColor],
			Sex:   EncodeSex(info[labelSex]),
			Size:  sizes(doc),
		},
	}
	return p, nil
}

// cardInfo reads the "label: value" rows of the product card.
func cardInfo(doc *goquery.Document) map[string]string {
	out := make(map[string]string)
	doc.Find("div.wrap-card-info").Last().Find("span").Each(func(_ int, span *goquery.Selection) {
		label, value, ok := strings.Cut(strings.ToLower(span.Text()), ":")
		if !ok {
			return
		}
		switch label = strings.TrimSpace(label); label {
		case labelSex, labelColor, labelArticle:
			out[label] = strings.TrimSpace(value)
		}
	})
	return out
}

// sizes reads the size list. The site does not name the sizing system:
// values above 20 are Russian sizes, smaller ones US.
func sizes(doc *goquery.Document) []domproduct.Size {
	var values []float64
	doc.Find("ul.list-sizes").Last().Find("li").Each(func(_ int, li *goquery.Selection) {
		if v, err := crawler.ParseNumber(li.Text()); err == nil {
			values = append(values, v)
		}
	})
	if len(values) == 0 {
		return nil
	}
	slices.Sort(values)
	typ := "us"
	if values[len(values)-1] > 20 {
		typ = "ru"
	}
	return []domproduct.Size{{SizeType: typ, Values: values}}
}

func images(doc *goquery.Document, baseURL string) []string {
	var out []string
	doc.Find("div.main-image").Last().Find("img").Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && src != "" {
			out = append(out, crawler.Absolute(baseURL, src))
		}
	})
	return out
}

// EncodeSex maps the card's audience value to a Sex.
func EncodeSex(value string) domproduct.Sex {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "мужчины", "мальчики":
		return domproduct.Male
	case "женщины", "девочки":
		return domproduct.Female
	}
	return domproduct.Unisex
}
