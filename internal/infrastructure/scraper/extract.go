package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shoptalk/backend/internal/domain"
)

// Extractor is one product-extraction heuristic applied to a fetched page.
// Extractors run in order and share the seen set, so a later heuristic can
// never re-add a product an earlier one already found on the same page.
type Extractor interface {
	Name() string
	Extract(page *Page, resolve func(href string) string, seen map[string]bool) []domain.Product
}

// Package-level compiled regex patterns for extraction
var (
	priceTokenRegex  = regexp.MustCompile(`[$£€]\s?\d[\d,]*(?:\.\d{1,2})?`)
	productPathRegex = regexp.MustCompile(`(?i)/(?:products?|items?|p|shop)/[\w\-]+`)
	saleVocabRegex   = regexp.MustCompile(`(?i)\b(?:sale|discount|promotion|promo|deal|offer|clearance)s?\b|\bwas\b[^.]{0,30}\bnow\b`)
	blackFridayRegex = regexp.MustCompile(`(?i)black[\s\-]?friday`)
)

// extractPrices pulls up to two currency tokens from a price-bearing region.
// First token is the current price; a second one is treated as the original
// pre-discount price. This "first = now, second = was" rule is a heuristic,
// not a guarantee.
func extractPrices(text string) (price, originalPrice string) {
	tokens := priceTokenRegex.FindAllString(text, 2)
	if len(tokens) == 0 {
		return domain.PriceUnavailable, ""
	}
	price = strings.ReplaceAll(tokens[0], " ", "")
	if len(tokens) > 1 {
		originalPrice = strings.ReplaceAll(tokens[1], " ", "")
	}
	return price, originalPrice
}

// PageSignals are site-wide indicators detected independently of whether any
// individual product parsed with a discount field.
type PageSignals struct {
	Sale        bool
	BlackFriday bool
	Promotional bool
}

// detectSignals scans both visible text and raw markup for sale and
// Black Friday vocabulary.
func detectSignals(page *Page) PageSignals {
	var sig PageSignals
	for _, body := range []string{page.Text, page.HTML} {
		if saleVocabRegex.MatchString(body) {
			sig.Sale = true
		}
		if blackFridayRegex.MatchString(body) {
			sig.BlackFriday = true
		}
	}
	// Pages reached via an offers/sale path are explicitly promotional.
	lowerURL := strings.ToLower(page.URL)
	if strings.Contains(lowerURL, "sale") || strings.Contains(lowerURL, "offer") || strings.Contains(lowerURL, "promo") {
		sig.Promotional = true
	}
	return sig
}

// markSeen records a product name in the shared dedup set. Returns false if
// the name was already present (or empty).
func markSeen(seen map[string]bool, name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || seen[key] {
		return false
	}
	seen[key] = true
	return true
}

// cardExtractor selects elements whose class or attributes suggest a product
// card and pulls fields from fuzzy sub-selectors.
type cardExtractor struct{}

func (cardExtractor) Name() string { return "card" }

func (cardExtractor) Extract(page *Page, resolve func(string) string, seen map[string]bool) []domain.Product {
	var products []domain.Product

	sel := page.Doc.Find(`[class*="product"], [class*="card"], [class*="item"], [data-product], article`)
	sel.Each(func(_ int, card *goquery.Selection) {
		name := firstText(card, `h1, h2, h3, h4, [class*="title"], [class*="name"]`)
		if name == "" {
			return
		}

		priceText := firstText(card, `[class*="price"]`)
		if priceText == "" {
			priceText = card.Text()
		}
		price, original := extractPrices(priceText)
		// A card with neither a price region nor a product link is likely
		// navigation chrome, not a product.
		href, _ := card.Find("a[href]").First().Attr("href")
		if price == domain.PriceUnavailable && href == "" {
			return
		}
		if !markSeen(seen, name) {
			return
		}

		products = append(products, domain.Product{
			Name:          name,
			Price:         price,
			OriginalPrice: original,
			Description:   firstText(card, `[class*="desc"], [class*="summary"], p`),
			Category:      domain.DefaultCategory,
			URL:           resolve(href),
		})
	})

	return products
}

// genericLinkText is call-to-action copy that never names a product.
var genericLinkText = map[string]bool{
	"view": true, "view product": true, "details": true, "more": true,
	"learn more": true, "see more": true, "shop now": true, "buy": true,
	"buy now": true, "add to cart": true, "add to basket": true,
}

// anchorExtractor finds links pointing at product-shaped paths and infers
// the name from the link text or a nearby heading.
type anchorExtractor struct{}

func (anchorExtractor) Name() string { return "anchor" }

func (anchorExtractor) Extract(page *Page, resolve func(string) string, seen map[string]bool) []domain.Product {
	var products []domain.Product

	page.Doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !productPathRegex.MatchString(href) {
			return
		}

		name := strings.TrimSpace(a.Text())
		if genericLinkText[strings.ToLower(name)] {
			name = ""
		}
		if name == "" {
			name = strings.TrimSpace(a.ParentsFiltered("div, li, section").First().Find("h2, h3, h4").First().Text())
		}
		if name == "" {
			name = a.AttrOr("title", "")
		}
		if !markSeen(seen, name) {
			return
		}

		price, original := extractPrices(a.Parent().Text())
		products = append(products, domain.Product{
			Name:          name,
			Price:         price,
			OriginalPrice: original,
			Category:      domain.DefaultCategory,
			URL:           resolve(href),
		})
	})

	return products
}

// patternExtractor matches known product-family name tokens followed by a
// price token directly against page text. It is the fallback for pages whose
// structural markup is absent or inconsistent.
type patternExtractor struct {
	families []string
	pattern  *regexp.Regexp
}

func newPatternExtractor(families []string) *patternExtractor {
	if len(families) == 0 {
		return &patternExtractor{}
	}
	quoted := make([]string, len(families))
	for i, f := range families {
		quoted[i] = regexp.QuoteMeta(f)
	}
	p := regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)[ \-]?([A-Za-z]*\d+\w*)?[^$£€]{0,40}?([$£€]\s?\d[\d,]*(?:\.\d{1,2})?)`)
	return &patternExtractor{families: families, pattern: p}
}

func (*patternExtractor) Name() string { return "pattern" }

func (e *patternExtractor) Extract(page *Page, resolve func(string) string, seen map[string]bool) []domain.Product {
	if e.pattern == nil {
		return nil
	}

	var products []domain.Product
	for _, m := range e.pattern.FindAllStringSubmatch(page.Text, -1) {
		name := strings.TrimSpace(m[1])
		if m[2] != "" {
			name += " " + m[2]
		} else if familySeen(seen, name) {
			// A bare family token next to a price is usually the tail of a
			// full product name a structural heuristic already captured;
			// emitting it would duplicate that product under a shorter name.
			continue
		}
		if !markSeen(seen, name) {
			continue
		}
		products = append(products, domain.Product{
			Name:     name,
			Price:    strings.ReplaceAll(m[3], " ", ""),
			Category: domain.DefaultCategory,
			URL:      page.URL,
		})
	}
	return products
}

// familySeen reports whether any seen product name already starts with the
// family token.
func familySeen(seen map[string]bool, family string) bool {
	prefix := strings.ToLower(strings.TrimSpace(family))
	if prefix == "" {
		return false
	}
	for key := range seen {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// firstText returns the trimmed text of the first non-empty match.
func firstText(s *goquery.Selection, selector string) string {
	text := ""
	s.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		t := strings.TrimSpace(el.Text())
		if t != "" {
			text = t
			return false
		}
		return true
	})
	return collapseWhitespace(text)
}
