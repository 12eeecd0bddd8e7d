package usecase

import (
	"strings"
	"testing"

	"github.com/shoptalk/backend/internal/domain"
)

func samplePromptContext() PromptContext {
	return PromptContext{
		MatchedProducts: []domain.Product{{
			Name:          "AeroDry 2100",
			Price:         "£49.99",
			OriginalPrice: "£79.99",
			Category:      "hair care",
			URL:           "https://shop.example.com/products/aerodry-2100",
			Description:   "Professional-grade ionic dryer.",
			Features:      []string{"Ionic technology", "3 heat settings"},
			Specs:         map[string]string{"weight": "550g", "power": "2100W"},
		}},
		KnowledgeHits: []domain.KnowledgeHit{{
			Record: domain.KnowledgeRecord{"topic": "warranty", "answer": "2-year warranty."},
			Score:  0.8,
		}},
		SaleSignal: SaleSignal{HasSales: true, SaleCount: 3},
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	t.Run("deterministic output", func(t *testing.T) {
		pc := samplePromptContext()
		if BuildSystemPrompt(pc) != BuildSystemPrompt(pc) {
			t.Error("same evidence should produce the same prompt")
		}
	})

	t.Run("product fields are serialized", func(t *testing.T) {
		prompt := BuildSystemPrompt(samplePromptContext())
		for _, want := range []string{
			"name: AeroDry 2100",
			"price: £49.99",
			"was: £79.99",
			"url: https://shop.example.com/products/aerodry-2100",
			"features: Ionic technology; 3 heat settings",
			"specs: power=2100W, weight=550g",
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, prompt)
			}
		}
	})

	t.Run("offer summary always present", func(t *testing.T) {
		prompt := BuildSystemPrompt(PromptContext{})
		if !strings.Contains(prompt, "sales running: false (0 items)") {
			t.Errorf("prompt missing offer summary:\n%s", prompt)
		}
	})

	t.Run("knowledge hits are flattened", func(t *testing.T) {
		prompt := BuildSystemPrompt(samplePromptContext())
		if !strings.Contains(prompt, "answer: 2-year warranty. | topic: warranty") {
			t.Errorf("prompt missing flattened knowledge record:\n%s", prompt)
		}
	})

	t.Run("single focus product included", func(t *testing.T) {
		pc := PromptContext{Focus: FocusInfo{
			LastProduct: &domain.Product{Name: "TrimMax Elite", Price: "£29.00"},
		}}
		prompt := BuildSystemPrompt(pc)
		if !strings.Contains(prompt, "last looking at this product") ||
			!strings.Contains(prompt, "name: TrimMax Elite") {
			t.Errorf("prompt missing focus product:\n%s", prompt)
		}
	})

	t.Run("multi focus listed briefly", func(t *testing.T) {
		pc := PromptContext{Focus: FocusInfo{
			LastProducts: []domain.Product{
				{Name: "TrimMax Elite", Price: "£29.00"},
				{Name: "TrimMax Go", Price: "£19.00"},
			},
		}}
		prompt := BuildSystemPrompt(pc)
		if !strings.Contains(prompt, "- TrimMax Elite (£29.00)") ||
			!strings.Contains(prompt, "- TrimMax Go (£19.00)") {
			t.Errorf("prompt missing focus list:\n%s", prompt)
		}
	})

	t.Run("problem code prompts a clarifying question", func(t *testing.T) {
		pc := PromptContext{Focus: FocusInfo{ProblemCode: "trimmax-200"}}
		prompt := BuildSystemPrompt(pc)
		if !strings.Contains(prompt, `"trimmax-200"`) {
			t.Errorf("prompt missing problem code:\n%s", prompt)
		}
	})
}

func TestFlattenRecord(t *testing.T) {
	got := flattenRecord(domain.KnowledgeRecord{"b": "two", "a": "one"})
	if got != "a: one | b: two" {
		t.Errorf("flattenRecord = %q, want key-sorted pairs", got)
	}
}
