// Package product holds the normalized catalog record scraped from the shop sites.
package product

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/byshoes/byshoes/internal/domain"
)

// UnknownColor is stored when a site does not report a color.
const UnknownColor = "неизвестно"

// Sex is the target audience of a model.
type Sex string

// Known sexes.
const (
	Male   Sex = "m"
	Female Sex = "f"
	Unisex Sex = "u"
)

// Sexes lists every valid Sex in declaration order.
func Sexes() []string { return []string{string(Male), string(Female), string(Unisex)} }

// IsValid reports whether s is a known value.
func (s Sex) IsValid() bool {
	switch s {
	case Male, Female, Unisex:
		return true
	}
	return false
}

// Site identifies the shop a record was scraped from.
type Site string

// Known sites.
const (
	SiteMultisports Site = "multisports"
	SiteAllstars    Site = "allstars"
)

// Sites lists every valid Site.
func Sites() []string { return []string{string(SiteMultisports), string(SiteAllstars)} }

// IsValid reports whether s is a known site.
func (s Site) IsValid() bool {
	return s == SiteMultisports || s == SiteAllstars
}

// Size is the list of available sizes in one sizing system (us, eu, ru, cm...).
type Size struct {
	SizeType string    `json:"size_type" bson:"size_type"`
	Values   []float64 `json:"values" bson:"values"`
}

// Specification groups the physical attributes of a model.
type Specification struct {
	Size  []Size `json:"size" bson:"size"`
	Color string `json:"color" bson:"color"`
	Sex   Sex    `json:"sex" bson:"sex"`
}

// Category is one catalog section a model belongs to.
type Category struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// NewCategory creates a category with a snake_case id.
func NewCategory(id, name string) Category {
	return Category{ID: SnakeCase(id), Name: name}
}

// Product is one scraped listing tagged with the crawl run (version) it came from.
type Product struct {
	ID              string        `json:"id" bson:"_id"`
	Title           string        `json:"title" bson:"title"`
	Images          []string      `json:"images" bson:"images"`
	Link            string        `json:"link,omitempty" bson:"link,omitempty"`
	Price           float64       `json:"price" bson:"price"`
	DiscountedPrice *float64      `json:"discounted_price" bson:"discounted_price"`
	Category        []Category    `json:"category" bson:"category"`
	Specification   Specification `json:"specification" bson:"specification"`
	Site            Site          `json:"site" bson:"site"`
	Article         string        `json:"article" bson:"article"`
	Parsed          time.Time     `json:"parsed" bson:"parsed"`
	Version         int           `json:"version" bson:"version"`
}

// NaturalKey identifies the same logical product across versions.
func (p *Product) NaturalKey() string {
	return NaturalKey(p.Site, p.Article)
}

// NaturalKey builds the cross-version identity of a record.
func NaturalKey(site Site, article string) string {
	return string(site) + article
}

// Normalize fills defaults the sites leave out.
func (p *Product) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Article = strings.TrimSpace(p.Article)
	if strings.TrimSpace(p.Specification.Color) == "" {
		p.Specification.Color = UnknownColor
	}
	for i := range p.Category {
		p.Category[i].ID = SnakeCase(p.Category[i].ID)
	}
	if p.DiscountedPrice != nil && *p.DiscountedPrice == p.Price {
		p.DiscountedPrice = nil
	}
}

// Validate checks the record shape before it is stored.
func (p *Product) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidRecord)
	}
	if p.Price <= 0 {
		return fmt.Errorf("price must be positive, got %v: %w", p.Price, domain.ErrInvalidRecord)
	}
	if !p.Site.IsValid() {
		return fmt.Errorf("unknown site %q: %w", p.Site, domain.ErrInvalidRecord)
	}
	if !p.Specification.Sex.IsValid() {
		return fmt.Errorf("unknown sex %q: %w", p.Specification.Sex, domain.ErrInvalidRecord)
	}
	if len(p.Category) == 0 {
		return fmt.Errorf("at least one category is required: %w", domain.ErrInvalidRecord)
	}
	for _, img := range p.Images {
		u, err := url.Parse(img)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("image %q is not an http url: %w", img, domain.ErrInvalidRecord)
		}
	}
	for _, s := range p.Specification.Size {
		if s.SizeType == "" {
			return fmt.Errorf("size type is required: %w", domain.ErrInvalidRecord)
		}
	}
	return nil
}

// SnakeCase lower-cases s and joins words with underscores.
func SnakeCase(s string) string {
	var b strings.Builder
	prevUnderscore := true
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '_' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		case r >= 'A' && r <= 'Z':
			if i > 0 && !prevUnderscore && runes[i-1] >= 'a' && runes[i-1] <= 'z' {
				b.WriteRune('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			prevUnderscore = false
		default:
			b.WriteString(strings.ToLower(string(r)))
			prevUnderscore = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
