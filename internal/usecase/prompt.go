package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shoptalk/backend/internal/domain"
)

// SaleSignal summarizes the snapshot's offer state for the prompt.
type SaleSignal struct {
	HasSales         bool
	HasBlackFriday   bool
	SaleCount        int
	BlackFridayCount int
}

// FocusInfo carries the session's prior product focus into the prompt.
type FocusInfo struct {
	LastProduct  *domain.Product
	LastProducts []domain.Product
	ProblemCode  string
}

// PromptContext is the structured evidence bundle assembled for generation.
// It replaces ad-hoc string concatenation so prompt construction is
// unit-testable independent of any network call.
type PromptContext struct {
	MatchedProducts []domain.Product
	KnowledgeHits   []domain.KnowledgeHit
	SaleSignal      SaleSignal
	Focus           FocusInfo
}

const systemInstruction = `You are a friendly product assistant for an online appliance store.
Answer in plain conversational language. Use markdown links [text](url) when pointing the
customer at a product or page. Never invent products, prices, or stock information: answer
only from the evidence below. If a product's price or specifications are listed in the
evidence, you MUST quote them; never claim they are unavailable when they are present.
If the evidence does not cover the question, say so and suggest contacting support.`

// BuildSystemPrompt serializes the context bundle deterministically:
// same evidence in, same prompt out.
func BuildSystemPrompt(pc PromptContext) string {
	var b strings.Builder
	b.WriteString(systemInstruction)

	if len(pc.MatchedProducts) > 0 {
		b.WriteString("\n\n# MATCHED PRODUCTS\n")
		for _, p := range pc.MatchedProducts {
			writeProduct(&b, p)
		}
	}

	if len(pc.KnowledgeHits) > 0 {
		b.WriteString("\n# STORE KNOWLEDGE\n")
		for _, hit := range pc.KnowledgeHits {
			b.WriteString("- ")
			b.WriteString(flattenRecord(hit.Record))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n# OFFERS\n")
	fmt.Fprintf(&b, "sales running: %v (%d items), black friday: %v (%d items)\n",
		pc.SaleSignal.HasSales, pc.SaleSignal.SaleCount,
		pc.SaleSignal.HasBlackFriday, pc.SaleSignal.BlackFridayCount)

	if pc.Focus.LastProduct != nil {
		b.WriteString("\n# CONVERSATION FOCUS\n")
		b.WriteString("The customer was last looking at this product:\n")
		writeProduct(&b, *pc.Focus.LastProduct)
	} else if len(pc.Focus.LastProducts) > 0 {
		b.WriteString("\n# CONVERSATION FOCUS\n")
		b.WriteString("The customer was last looking at these products:\n")
		for _, p := range pc.Focus.LastProducts {
			fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Price)
		}
	}

	if pc.Focus.ProblemCode != "" {
		fmt.Fprintf(&b, "\nThe customer reported a problem with product code %q. "+
			"Ask a clarifying question about that product if details are missing.\n", pc.Focus.ProblemCode)
	}

	return b.String()
}

// writeProduct serializes one product with explicit fields in a fixed order.
func writeProduct(b *strings.Builder, p domain.Product) {
	fmt.Fprintf(b, "- name: %s\n", p.Name)
	fmt.Fprintf(b, "  price: %s\n", p.Price)
	if p.OriginalPrice != "" {
		fmt.Fprintf(b, "  was: %s\n", p.OriginalPrice)
	}
	if p.Category != "" {
		fmt.Fprintf(b, "  category: %s\n", p.Category)
	}
	if p.URL != "" {
		fmt.Fprintf(b, "  url: %s\n", p.URL)
	}
	if p.Description != "" {
		fmt.Fprintf(b, "  description: %s\n", p.Description)
	}
	if len(p.Features) > 0 {
		fmt.Fprintf(b, "  features: %s\n", strings.Join(p.Features, "; "))
	}
	if len(p.Specs) > 0 {
		keys := make([]string, 0, len(p.Specs))
		for k := range p.Specs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + "=" + p.Specs[k]
		}
		fmt.Fprintf(b, "  specs: %s\n", strings.Join(pairs, ", "))
	}
}

// flattenRecord renders a knowledge record as "key: value" pairs in key order.
func flattenRecord(r domain.KnowledgeRecord) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + r[k]
	}
	return strings.Join(parts, " | ")
}
