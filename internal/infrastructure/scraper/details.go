package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shoptalk/backend/internal/domain"
)

// Regex backfill patterns for common specification fields scanned from free
// text when the page has no structural spec table.
var specBackfillPatterns = map[string]*regexp.Regexp{
	"weight":     regexp.MustCompile(`(?i)\bweight:?\s*([\d.,]+\s?(?:kg|g|lbs?|oz))\b`),
	"dimensions": regexp.MustCompile(`(?i)\bdimensions:?\s*([\d.,]+\s?[x×]\s?[\d.,]+(?:\s?[x×]\s?[\d.,]+)?\s?(?:mm|cm|in|inches)?)`),
	"power":      regexp.MustCompile(`(?i)\bpower:?\s*([\d.,]+\s?(?:w|watts?|kw))\b`),
	"battery":    regexp.MustCompile(`(?i)\bbattery(?:\s+life)?:?\s*([\d.,]+\s?(?:mah|hours?|hrs?|min(?:utes)?))\b`),
	"capacity":   regexp.MustCompile(`(?i)\bcapacity:?\s*([\d.,]+\s?(?:ml|l|litres?|liters?|oz|cups?))\b`),
}

var specKeySeparators = regexp.MustCompile(`[\s\-/]+`)

// normalizeSpecKey lowercases a spec label and collapses separators to
// underscores ("Battery Life" -> "battery_life").
func normalizeSpecKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.Trim(key, ":")
	return specKeySeparators.ReplaceAllString(key, "_")
}

// parseProductDetails extracts a full product record from a detail page:
// name, prices, description, specification rows from any table-like
// structure, a deduplicated feature list, and regex backfill for common
// spec fields missing from the structure.
func parseProductDetails(page *Page) *domain.Product {
	doc := page.Doc

	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		name = firstText(doc.Selection, `[class*="product-title"], [class*="product-name"], h2`)
	}
	if name == "" {
		name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	name = collapseWhitespace(name)

	priceRegion := firstText(doc.Selection, `[class*="price"]`)
	if priceRegion == "" {
		priceRegion = page.Text
	}
	price, original := extractPrices(priceRegion)

	description := doc.Find(`meta[name="description"]`).AttrOr("content", "")
	if description == "" {
		description = firstText(doc.Selection, `[class*="description"], [class*="desc"]`)
	}
	if description == "" {
		doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			t := collapseWhitespace(strings.TrimSpace(p.Text()))
			if len(t) > 60 {
				description = t
				return false
			}
			return true
		})
	}

	product := &domain.Product{
		Name:          name,
		Price:         price,
		OriginalPrice: original,
		Description:   description,
		Category:      domain.DefaultCategory,
		URL:           page.URL,
		Specs:         parseSpecs(doc),
		Features:      parseFeatures(doc),
	}

	backfillSpecs(product, page.Text)
	return product
}

// parseSpecs collects key-value rows from any table-like structure.
func parseSpecs(doc *goquery.Document) map[string]string {
	specs := make(map[string]string)

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		key := normalizeSpecKey(cells.Eq(0).Text())
		value := collapseWhitespace(strings.TrimSpace(cells.Eq(1).Text()))
		if key != "" && value != "" {
			if _, exists := specs[key]; !exists {
				specs[key] = value
			}
		}
	})

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		terms := dl.Find("dt")
		values := dl.Find("dd")
		n := terms.Length()
		if values.Length() < n {
			n = values.Length()
		}
		for i := 0; i < n; i++ {
			key := normalizeSpecKey(terms.Eq(i).Text())
			value := collapseWhitespace(strings.TrimSpace(values.Eq(i).Text()))
			if key != "" && value != "" {
				if _, exists := specs[key]; !exists {
					specs[key] = value
				}
			}
		}
	})

	if len(specs) == 0 {
		return nil
	}
	return specs
}

// parseFeatures gathers deduplicated list items under feature/benefit
// containers, falling back to any list on the page.
func parseFeatures(doc *goquery.Document) []string {
	var features []string
	seen := make(map[string]bool)

	collect := func(sel *goquery.Selection) {
		sel.Find("li").Each(func(_ int, li *goquery.Selection) {
			t := collapseWhitespace(strings.TrimSpace(li.Text()))
			key := strings.ToLower(t)
			if t == "" || len(t) > 160 || seen[key] {
				return
			}
			seen[key] = true
			features = append(features, t)
		})
	}

	containers := doc.Find(`[class*="feature"], [class*="benefit"], [class*="highlights"]`)
	if containers.Length() > 0 {
		containers.Each(func(_ int, c *goquery.Selection) { collect(c) })
	} else {
		collect(doc.Selection)
	}

	return features
}

// backfillSpecs fills common spec fields from free text when the structural
// parse did not find them.
func backfillSpecs(p *domain.Product, text string) {
	for key, pattern := range specBackfillPatterns {
		if _, ok := p.Specs[key]; ok {
			continue
		}
		if m := pattern.FindStringSubmatch(text); m != nil {
			if p.Specs == nil {
				p.Specs = make(map[string]string)
			}
			p.Specs[key] = strings.TrimSpace(m[1])
		}
	}
}
