package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/shoptalk/backend/internal/domain"
)

var tokenSplitRegex = regexp.MustCompile(`[^\w]+`)

// stopWords excluded from overlap scoring; without this, filler words
// dominate every match.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "is": true,
	"it": true, "as": true, "be": true, "was": true, "are": true,
	"do": true, "does": true, "can": true, "i": true, "you": true,
	"my": true, "your": true, "what": true, "how": true, "where": true,
}

// Store is the static knowledge base: opaque key-value records searched by
// token-overlap scoring. Read-only after construction.
type Store struct {
	records   []domain.KnowledgeRecord
	flattened []string // lowercase flattened values, parallel to records
}

// NewStore builds a store over the given records.
func NewStore(records []domain.KnowledgeRecord) *Store {
	s := &Store{records: records}
	s.flattened = make([]string, len(records))
	for i, r := range records {
		s.flattened[i] = flatten(r)
	}
	return s
}

// NewStoreFromFile loads records from a JSON file (an array of objects) and
// appends them to the default seed records.
func NewStoreFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}

	var loaded []domain.KnowledgeRecord
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file: %w", err)
	}

	return NewStore(append(DefaultRecords(), loaded...)), nil
}

// DefaultRecords is the built-in seed knowledge about the store itself.
func DefaultRecords() []domain.KnowledgeRecord {
	return []domain.KnowledgeRecord{
		{
			"topic":  "shipping",
			"answer": "Standard delivery takes 3-5 working days. Orders over £50 ship free.",
		},
		{
			"topic":  "returns",
			"answer": "Products can be returned within 30 days of delivery in their original packaging for a full refund.",
		},
		{
			"topic":  "warranty",
			"answer": "All appliances carry a 2-year manufacturer warranty. Register your product online to extend it to 3 years.",
		},
		{
			"topic":  "payment",
			"answer": "We accept all major cards, PayPal, and Apple Pay. Payment is taken when your order ships.",
		},
		{
			"topic":  "newsletter",
			"answer": "Subscribe to the newsletter at /newsletter for early access to sales and exclusive discount codes.",
		},
		{
			"topic":  "contact",
			"answer": "Reach customer support at support@shoptalk.example or via the chat widget, Monday to Friday 9am-6pm.",
		},
	}
}

// Search scores every record by token overlap with the query and returns up
// to limit hits, best first. Zero-overlap records are excluded.
func (s *Store) Search(query string, limit int) []domain.KnowledgeHit {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	var hits []domain.KnowledgeHit
	for i, flat := range s.flattened {
		overlap := 0
		for token := range queryTokens {
			if strings.Contains(flat, token) {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		hits = append(hits, domain.KnowledgeHit{
			Record: s.records[i],
			Score:  float64(overlap) / float64(len(queryTokens)),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// flatten joins all values of a record into one lowercase string.
func flatten(r domain.KnowledgeRecord) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, r[k])
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// tokenize splits a query into a set of lowercase tokens, dropping stop
// words and single characters.
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, w := range tokenSplitRegex.Split(strings.ToLower(s), -1) {
		if len(w) <= 1 || stopWords[w] {
			continue
		}
		tokens[w] = true
	}
	return tokens
}
