package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/shoptalk/backend/internal/domain"
)

var orderVocabRegex = regexp.MustCompile(`(?i)\b(?:order|buy|purchase|checkout|get one|add to (?:cart|basket))\b`)

// fallbackRespond is the deterministic rule-based responder used when the
// generation backend is unconfigured, times out, or errors. It is an
// ordered decision list: first match wins.
func fallbackRespond(message string, pc PromptContext, maxDisplay int, supportEmail string) string {
	if maxDisplay <= 0 {
		maxDisplay = 5
	}

	// 1. Ordering instructions for the current focus.
	if orderVocabRegex.MatchString(message) {
		if p := pc.Focus.LastProduct; p != nil && p.URL != "" {
			return fmt.Sprintf("You can order the %s (%s) directly from its product page: %s", p.Name, p.Price, p.URL)
		}
		if len(pc.Focus.LastProducts) > 0 {
			var b strings.Builder
			b.WriteString("You can order any of these from their product pages:\n")
			writeProductLines(&b, pc.Focus.LastProducts, maxDisplay)
			return b.String()
		}
	}

	// 2. Sale and offer listing.
	if isOfferQuery(message) {
		if pc.SaleSignal.HasSales || pc.SaleSignal.HasBlackFriday {
			var b strings.Builder
			if pc.SaleSignal.HasBlackFriday {
				b.WriteString("Yes - our Black Friday event is on right now!\n")
			} else {
				b.WriteString("Yes, we have a sale running at the moment.\n")
			}
			if pc.SaleSignal.SaleCount > 0 {
				fmt.Fprintf(&b, "There are %d discounted items. ", pc.SaleSignal.SaleCount)
			}
			b.WriteString("Have a look at the offers page for the full list.")
			return b.String()
		}
		return "There's no site-wide sale running right now, but the offers page is always worth a look, and newsletter subscribers hear about discounts first."
	}

	// 3. Single-product detail rendering.
	if len(pc.MatchedProducts) == 1 {
		return renderProductDetail(pc.MatchedProducts[0])
	}

	// 4. Multi-product listing, bounded with an overflow note.
	if len(pc.MatchedProducts) > 1 {
		var b strings.Builder
		b.WriteString("Here's what I found:\n")
		writeProductLines(&b, pc.MatchedProducts, maxDisplay)
		if extra := len(pc.MatchedProducts) - maxDisplay; extra > 0 {
			fmt.Fprintf(&b, "...and %d more. Could you narrow it down?", extra)
		}
		return b.String()
	}

	// 5. Knowledge-base answer when evidence exists.
	if len(pc.KnowledgeHits) > 0 {
		if answer, ok := pc.KnowledgeHits[0].Record["answer"]; ok && answer != "" {
			return answer
		}
		return flattenRecord(pc.KnowledgeHits[0].Record)
	}

	// 6. Generic help.
	return fmt.Sprintf("I can help you find products, check prices and offers, or troubleshoot something that isn't working. "+
		"Tell me what you're looking for, or contact %s for anything else.", supportEmail)
}

// renderProductDetail formats one product's price, description, specs and
// features for display.
func renderProductDetail(p domain.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", p.Name)
	if p.OnSale() {
		fmt.Fprintf(&b, "Now %s (was %s)\n", p.Price, p.OriginalPrice)
	} else {
		fmt.Fprintf(&b, "Price: %s\n", p.Price)
	}
	if p.Description != "" {
		b.WriteString(p.Description)
		b.WriteString("\n")
	}
	if len(p.Features) > 0 {
		b.WriteString("Key features: ")
		b.WriteString(strings.Join(p.Features, "; "))
		b.WriteString("\n")
	}
	if len(p.Specs) > 0 {
		keys := make([]string, 0, len(p.Specs))
		for k := range p.Specs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Specs: ")
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = strings.ReplaceAll(k, "_", " ") + " " + p.Specs[k]
		}
		b.WriteString(strings.Join(pairs, ", "))
		b.WriteString("\n")
	}
	if p.URL != "" {
		fmt.Fprintf(&b, "More details: %s", p.URL)
	}
	return strings.TrimSpace(b.String())
}

func writeProductLines(b *strings.Builder, products []domain.Product, maxDisplay int) {
	n := len(products)
	if n > maxDisplay {
		n = maxDisplay
	}
	for _, p := range products[:n] {
		fmt.Fprintf(b, "- %s (%s)", p.Name, p.Price)
		if p.URL != "" {
			fmt.Fprintf(b, " - %s", p.URL)
		}
		b.WriteString("\n")
	}
}
