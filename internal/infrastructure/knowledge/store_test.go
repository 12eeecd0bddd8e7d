package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shoptalk/backend/internal/domain"
)

func TestSearch(t *testing.T) {
	store := NewStore(DefaultRecords())

	t.Run("best overlap first", func(t *testing.T) {
		hits := store.Search("how long does shipping take", 3)
		if len(hits) == 0 {
			t.Fatal("expected at least one hit")
		}
		if hits[0].Record["topic"] != "shipping" {
			t.Errorf("top hit = %q, want shipping", hits[0].Record["topic"])
		}
		if hits[0].Score <= 0 {
			t.Errorf("Score = %f, want positive", hits[0].Score)
		}
	})

	t.Run("limit is respected", func(t *testing.T) {
		hits := store.Search("product support and warranty and returns", 1)
		if len(hits) != 1 {
			t.Errorf("got %d hits, want 1", len(hits))
		}
	})

	t.Run("no overlap means no hits", func(t *testing.T) {
		if hits := store.Search("quantum flux capacitor", 3); len(hits) != 0 {
			t.Errorf("hits = %+v, want none", hits)
		}
	})

	t.Run("stop-word-only query matches nothing", func(t *testing.T) {
		if hits := store.Search("what is it for", 3); len(hits) != 0 {
			t.Errorf("hits = %+v, want none", hits)
		}
	})
}

func TestNewStoreFromFile(t *testing.T) {
	t.Run("loaded records extend the defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "knowledge.json")
		content := `[{"topic": "gift wrapping", "answer": "Gift wrapping is available at checkout for £2.50."}]`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		store, err := NewStoreFromFile(path)
		if err != nil {
			t.Fatalf("NewStoreFromFile: %v", err)
		}

		hits := store.Search("do you offer gift wrapping", 1)
		if len(hits) != 1 || hits[0].Record["topic"] != "gift wrapping" {
			t.Errorf("hits = %+v, want the loaded record", hits)
		}
		if len(store.Search("shipping times", 1)) == 0 {
			t.Error("default records should still be searchable")
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := NewStoreFromFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("malformed json errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewStoreFromFile(path); err == nil {
			t.Error("expected an error for malformed json")
		}
	})
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("What is YOUR return policy?")
	if tokens["what"] || tokens["is"] || tokens["your"] {
		t.Errorf("stop words should be dropped: %v", tokens)
	}
	if !tokens["return"] || !tokens["policy"] {
		t.Errorf("content words missing: %v", tokens)
	}
}

func TestSearchCustomRecords(t *testing.T) {
	store := NewStore([]domain.KnowledgeRecord{
		{"q": "store hours", "a": "Open 9 to 5."},
	})
	hits := store.Search("store hours", 5)
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Score != 1.0 {
		t.Errorf("Score = %f, want full overlap", hits[0].Score)
	}
}
