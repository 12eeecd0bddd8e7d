package domain

// KnowledgeRecord is an opaque key-value row from the static knowledge store.
// The schema is arbitrary; search flattens all values into one string.
type KnowledgeRecord map[string]string

// KnowledgeHit pairs a record with its token-overlap score for a query.
type KnowledgeHit struct {
	Record KnowledgeRecord `json:"record"`
	Score  float64         `json:"score"`
}
