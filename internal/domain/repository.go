package domain

import "context"

// CatalogProvider is the live catalog fetcher. Implementations degrade to
// empty or stale data rather than returning transport errors to callers.
type CatalogProvider interface {
	// FetchCatalog returns the current snapshot, crawling if the cached one
	// has expired. Errors surface only when nothing (fresh, stale, or
	// default) can be served, which implementations avoid.
	FetchCatalog(ctx context.Context) (*CatalogSnapshot, error)

	// FetchProductDetails retrieves and parses a single product page.
	FetchProductDetails(ctx context.Context, url string) (*Product, error)

	// SearchProducts returns products matching the query, best first.
	SearchProducts(ctx context.Context, query string) ([]Product, error)
}

// KnowledgeSearcher searches the static knowledge store.
type KnowledgeSearcher interface {
	Search(query string, limit int) []KnowledgeHit
}

// SessionStore holds per-session conversational state.
type SessionStore interface {
	// Get returns a copy of the session context, creating it on first use.
	Get(id string) SessionContext
	AppendTurn(id string, turn Turn)
	SetFocus(id string, single *Product, multi []Product)
	SetProblem(id string, code string, open bool)
}

// GenerateStatus classifies the outcome of a generation attempt. Fallback
// selection is a visible branch on this value, not an exception path.
type GenerateStatus int

const (
	GenerateOK GenerateStatus = iota
	GenerateEmpty
	GenerateTimeout
	GenerateFailed
)

// GenerateRequest is the contract with the text-generation backend.
type GenerateRequest struct {
	System  string
	History []Turn
	Message string
}

// GenerateOutcome carries either generated text or the failure class.
type GenerateOutcome struct {
	Status GenerateStatus
	Text   string
	Err    error
}

// Generator is the external natural-language generation capability.
// Non-deterministic, latency-bounded, fallible; its output is untrusted and
// must be sanitized before rendering.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) GenerateOutcome
}
