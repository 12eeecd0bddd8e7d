package domain

import (
	"strings"
	"time"
)

// CatalogSnapshot is the immutable result of one crawl cycle. It is replaced
// wholesale on a successful crawl, never mutated in place, so concurrent
// readers always see a complete snapshot.
type CatalogSnapshot struct {
	Products       []Product `json:"products"`
	Categories     []string  `json:"categories"`
	Sales          []Product `json:"sales"`
	BlackFriday    []Product `json:"blackFriday"`
	Promotions     []Product `json:"promotions"`
	HasSales       bool      `json:"hasSales"`
	HasBlackFriday bool      `json:"hasBlackFriday"`
	FetchedAt      time.Time `json:"fetchedAt"`
}

// blackFridayMention reports whether a product's own fields reference the event.
func blackFridayMention(p Product) bool {
	for _, s := range []string{p.Name, p.Category, p.Description, p.URL} {
		lower := strings.ToLower(s)
		if strings.Contains(lower, "black friday") || strings.Contains(lower, "black-friday") {
			return true
		}
	}
	return false
}

// maxSubstituteBlackFriday bounds the sale-item substitute list used when the
// site signals Black Friday but no individual item was tagged.
const maxSubstituteBlackFriday = 8

// BuildSnapshot derives the filtered views of a snapshot from a deduplicated
// product list plus the site-wide signals detected during the crawl. The
// signal booleans are authoritative even when no product carries a discount.
func BuildSnapshot(products []Product, defaultCategories []string, pageCategories []string, saleSignal, blackFridaySignal, promoSignal bool) *CatalogSnapshot {
	products = DedupeProducts(products)

	snap := &CatalogSnapshot{
		Products:  products,
		FetchedAt: time.Now(),
	}

	seenCat := make(map[string]bool)
	for _, c := range defaultCategories {
		if c != "" && !seenCat[strings.ToLower(c)] {
			seenCat[strings.ToLower(c)] = true
			snap.Categories = append(snap.Categories, c)
		}
	}
	for _, c := range pageCategories {
		if c != "" && !seenCat[strings.ToLower(c)] {
			seenCat[strings.ToLower(c)] = true
			snap.Categories = append(snap.Categories, c)
		}
	}

	for _, p := range products {
		if p.Category != "" && !seenCat[strings.ToLower(p.Category)] {
			seenCat[strings.ToLower(p.Category)] = true
			snap.Categories = append(snap.Categories, p.Category)
		}
		if p.OnSale() {
			snap.Sales = append(snap.Sales, p)
		}
		if blackFridayMention(p) {
			snap.BlackFriday = append(snap.BlackFriday, p)
		}
	}

	snap.HasSales = saleSignal || len(snap.Sales) > 0
	snap.HasBlackFriday = blackFridaySignal || len(snap.BlackFriday) > 0

	// Site-wide Black Friday signal with zero tagged items: fall back to the
	// sale list, bounded.
	if blackFridaySignal && len(snap.BlackFriday) == 0 {
		n := len(snap.Sales)
		if n > maxSubstituteBlackFriday {
			n = maxSubstituteBlackFriday
		}
		snap.BlackFriday = append(snap.BlackFriday, snap.Sales[:n]...)
	}

	// Promotions are the superset: every sale item plus anything the site
	// explicitly marked promotional (approximated by the Black Friday list
	// when the promo signal fired).
	snap.Promotions = append(snap.Promotions, snap.Sales...)
	if promoSignal || blackFridaySignal {
		promoKeys := make(map[string]bool, len(snap.Promotions))
		for _, p := range snap.Promotions {
			promoKeys[p.Key()] = true
		}
		for _, p := range snap.BlackFriday {
			if !promoKeys[p.Key()] {
				snap.Promotions = append(snap.Promotions, p)
				promoKeys[p.Key()] = true
			}
		}
	}

	return snap
}

// EmptySnapshot returns the default snapshot served when no crawl has ever
// succeeded: the known top-level categories with no products.
func EmptySnapshot(categories []string) *CatalogSnapshot {
	return &CatalogSnapshot{
		Products:   []Product{},
		Categories: append([]string(nil), categories...),
		FetchedAt:  time.Now(),
	}
}
