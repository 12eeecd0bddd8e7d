package scraper

import (
	"testing"
)

func TestParseProductDetails(t *testing.T) {
	page := mustPage(t, "https://shop.example.com/products/aerodry-2100", `<html>
	<head>
		<title>AeroDry 2100 | Shop</title>
		<meta name="description" content="Professional-grade ionic hair dryer.">
	</head>
	<body>
		<h1>AeroDry 2100</h1>
		<div class="price">£49.99 <s>£79.99</s></div>
		<table>
			<tr><th>Power</th><td>2100W</td></tr>
			<tr><td>Weight</td><td>550g</td></tr>
			<tr><td>only one cell</td></tr>
		</table>
		<dl>
			<dt>Cable Length</dt><dd>2.5m</dd>
		</dl>
		<div class="features">
			<ul>
				<li>Ionic technology</li>
				<li>Ionic technology</li>
				<li>3 heat settings</li>
			</ul>
		</div>
	</body></html>`)

	p := parseProductDetails(page)

	if p.Name != "AeroDry 2100" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Price != "£49.99" || p.OriginalPrice != "£79.99" {
		t.Errorf("prices = (%q, %q)", p.Price, p.OriginalPrice)
	}
	if p.Description != "Professional-grade ionic hair dryer." {
		t.Errorf("Description = %q, want the meta description", p.Description)
	}
	if p.URL != page.URL {
		t.Errorf("URL = %q", p.URL)
	}

	wantSpecs := map[string]string{
		"power":        "2100W",
		"weight":       "550g",
		"cable_length": "2.5m",
	}
	for k, v := range wantSpecs {
		if p.Specs[k] != v {
			t.Errorf("Specs[%q] = %q, want %q", k, p.Specs[k], v)
		}
	}

	if len(p.Features) != 2 {
		t.Fatalf("Features = %v, want deduplicated pair", p.Features)
	}
	if p.Features[0] != "Ionic technology" || p.Features[1] != "3 heat settings" {
		t.Errorf("Features = %v", p.Features)
	}
}

func TestParseProductDetailsFallbacks(t *testing.T) {
	t.Run("title as name and long paragraph as description", func(t *testing.T) {
		page := mustPage(t, "https://shop.example.com/products/puremist-compact", `<html>
		<head><title>PureMist Compact</title></head>
		<body>
			<p>Short.</p>
			<p>The PureMist Compact keeps the air in any room comfortable with a whisper-quiet fan and an easy-fill tank.</p>
		</body></html>`)

		p := parseProductDetails(page)
		if p.Name != "PureMist Compact" {
			t.Errorf("Name = %q, want the page title", p.Name)
		}
		if p.Price != "price unavailable" {
			t.Errorf("Price = %q, want the sentinel", p.Price)
		}
		if len(p.Description) < 60 {
			t.Errorf("Description = %q, want the first substantial paragraph", p.Description)
		}
	})

	t.Run("spec backfill from free text", func(t *testing.T) {
		page := mustPage(t, "https://shop.example.com/products/trimmax-elite", `<html><body>
			<h1>TrimMax Elite</h1>
			<p>Weight: 180g. Battery life: 90 minutes on a full charge.</p>
		</body></html>`)

		p := parseProductDetails(page)
		if p.Specs["weight"] != "180g" {
			t.Errorf("Specs[weight] = %q", p.Specs["weight"])
		}
		if p.Specs["battery"] != "90 minutes" {
			t.Errorf("Specs[battery] = %q", p.Specs["battery"])
		}
	})

	t.Run("structural spec wins over backfill", func(t *testing.T) {
		page := mustPage(t, "https://shop.example.com/products/voltshave-5", `<html><body>
			<h1>VoltShave 5</h1>
			<table><tr><td>Battery</td><td>Li-ion, 60 min runtime</td></tr></table>
			<p>Battery: 45 minutes when using the trimmer head.</p>
		</body></html>`)

		p := parseProductDetails(page)
		if p.Specs["battery"] != "Li-ion, 60 min runtime" {
			t.Errorf("Specs[battery] = %q, table row should win", p.Specs["battery"])
		}
	})
}

func TestNormalizeSpecKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Battery Life", "battery_life"},
		{"  Power: ", "power"},
		{"cable-length", "cable_length"},
		{"Water/Tank Capacity", "water_tank_capacity"},
	}
	for _, tt := range tests {
		if got := normalizeSpecKey(tt.in); got != tt.want {
			t.Errorf("normalizeSpecKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
