package domain

import "strings"

// PriceUnavailable is the display sentinel used when no price could be parsed.
const PriceUnavailable = "price unavailable"

// DefaultCategory is the bucket for products whose category could not be inferred.
const DefaultCategory = "general"

// Product represents a catalog entry scraped from the retail site.
// Name may be temporarily empty while a detail fetch backfills it.
type Product struct {
	Name          string            `json:"name"`
	Price         string            `json:"price"`
	OriginalPrice string            `json:"originalPrice,omitempty"` // present only when discounted
	Description   string            `json:"description,omitempty"`
	Category      string            `json:"category"`
	URL           string            `json:"url"`
	Features      []string          `json:"features,omitempty"`
	Specs         map[string]string `json:"specs,omitempty"`
}

// Key returns the identity of a product: its lowercase-normalized name.
func (p Product) Key() string {
	return strings.ToLower(strings.TrimSpace(p.Name))
}

// OnSale reports whether the product carries a pre-discount price.
func (p Product) OnSale() bool {
	return strings.TrimSpace(p.OriginalPrice) != ""
}

// HasPrice reports whether a real price was parsed for the product.
func (p Product) HasPrice() bool {
	return p.Price != "" && p.Price != PriceUnavailable
}

// Merge fills empty fields of p from other. First-seen values win; the
// second record only contributes fields the first lacks.
func (p *Product) Merge(other Product) {
	if p.Name == "" {
		p.Name = other.Name
	}
	if !p.HasPrice() && other.HasPrice() {
		p.Price = other.Price
	}
	if p.OriginalPrice == "" {
		p.OriginalPrice = other.OriginalPrice
	}
	if p.Description == "" {
		p.Description = other.Description
	}
	if (p.Category == "" || p.Category == DefaultCategory) && other.Category != "" {
		p.Category = other.Category
	}
	if p.URL == "" {
		p.URL = other.URL
	}
	if len(p.Features) == 0 {
		p.Features = other.Features
	}
	if len(p.Specs) == 0 {
		p.Specs = other.Specs
	}
}

// DedupeProducts collapses records that share a normalized name.
// The first-seen record wins, but later duplicates backfill fields it lacks.
func DedupeProducts(products []Product) []Product {
	index := make(map[string]int, len(products))
	result := make([]Product, 0, len(products))

	for _, p := range products {
		key := p.Key()
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			result[i].Merge(p)
			continue
		}
		index[key] = len(result)
		result = append(result, p)
	}

	return result
}
