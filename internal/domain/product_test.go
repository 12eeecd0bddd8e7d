package domain

import (
	"testing"
)

func TestProductPredicates(t *testing.T) {
	t.Run("key normalizes name", func(t *testing.T) {
		p := Product{Name: "  AeroDry 2100  "}
		if got := p.Key(); got != "aerodry 2100" {
			t.Errorf("Key() = %q, want %q", got, "aerodry 2100")
		}
	})

	t.Run("on sale requires original price", func(t *testing.T) {
		if (Product{Price: "£49.99"}).OnSale() {
			t.Error("product without original price reported on sale")
		}
		if !(Product{Price: "£49.99", OriginalPrice: "£79.99"}).OnSale() {
			t.Error("discounted product not reported on sale")
		}
		if (Product{OriginalPrice: "   "}).OnSale() {
			t.Error("whitespace original price reported on sale")
		}
	})

	t.Run("has price excludes sentinel", func(t *testing.T) {
		if (Product{Price: PriceUnavailable}).HasPrice() {
			t.Error("sentinel price counted as real")
		}
		if (Product{}).HasPrice() {
			t.Error("empty price counted as real")
		}
		if !(Product{Price: "£12.00"}).HasPrice() {
			t.Error("real price not recognized")
		}
	})
}

func TestProductMerge(t *testing.T) {
	t.Run("first seen wins", func(t *testing.T) {
		p := Product{Name: "TrimMax Elite", Price: "£29.00", Description: "listing copy"}
		p.Merge(Product{Name: "TrimMax Elite", Price: "£35.00", Description: "detail copy"})
		if p.Price != "£29.00" {
			t.Errorf("Price = %q, want first-seen £29.00", p.Price)
		}
		if p.Description != "listing copy" {
			t.Errorf("Description = %q, want first-seen value", p.Description)
		}
	})

	t.Run("backfills missing fields", func(t *testing.T) {
		p := Product{Name: "TrimMax Elite", Price: PriceUnavailable, Category: DefaultCategory}
		p.Merge(Product{
			Price:    "£29.00",
			Category: "grooming",
			URL:      "https://shop.example.com/products/trimmax-elite",
			Features: []string{"Precision blades"},
			Specs:    map[string]string{"battery": "90 minutes"},
		})
		if p.Price != "£29.00" {
			t.Errorf("Price = %q, sentinel should be replaced", p.Price)
		}
		if p.Category != "grooming" {
			t.Errorf("Category = %q, default should be replaced", p.Category)
		}
		if p.URL == "" || len(p.Features) != 1 || p.Specs["battery"] != "90 minutes" {
			t.Errorf("missing fields not backfilled: %+v", p)
		}
	})
}

func TestDedupeProducts(t *testing.T) {
	products := []Product{
		{Name: "AeroDry 2100", Price: "£49.99"},
		{Name: "aerodry 2100", Price: "£55.00", Specs: map[string]string{"power": "2100W"}},
		{Name: "SilkWave Pro", Price: PriceUnavailable},
		{Name: ""},
		{Name: "SilkWave Pro", Price: "£89.00", OriginalPrice: "£119.00"},
	}

	result := DedupeProducts(products)

	if len(result) != 2 {
		t.Fatalf("got %d products, want 2: %+v", len(result), result)
	}
	if result[0].Name != "AeroDry 2100" || result[0].Price != "£49.99" {
		t.Errorf("first record should win: %+v", result[0])
	}
	if result[0].Specs["power"] != "2100W" {
		t.Error("duplicate should backfill specs onto the first record")
	}
	if result[1].Price != "£89.00" || result[1].OriginalPrice != "£119.00" {
		t.Errorf("sentinel price should be backfilled from duplicate: %+v", result[1])
	}
}
