package domain

import "time"

// DefaultSessionID is used when a request carries no session identifier.
const DefaultSessionID = "default"

// ChatRequest is the inbound contract from the HTTP boundary.
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"sessionId,omitempty"`
}

// Option is a selectable follow-up presented to the user. Selecting one
// re-submits a message of the form "action:<value>".
type Option struct {
	Label  string `json:"label"`
	Value  string `json:"value"`
	Action string `json:"action"`
}

// ChatResponse is the outbound contract for the rendering collaborator.
// Response is HTML-safe; Options are populated only for the problem-report flow.
type ChatResponse struct {
	Response    string   `json:"response"`
	Options     []Option `json:"options,omitempty"`
	ShowOptions bool     `json:"showOptions,omitempty"`
	SessionID   string   `json:"sessionId"`
}

// Turn is a single conversation exchange entry.
type Turn struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// SessionContext holds per-session conversational state. History is
// unbounded in storage; only a suffix window is ever sent for generation.
type SessionContext struct {
	ID           string
	LastProduct  *Product
	LastProducts []Product
	ProblemCode  string // product-code token extracted from a problem report
	ProblemOpen  bool   // a problem was reported, guide selection may follow
	History      []Turn
}

// HistoryWindow returns the last n turns of the conversation.
func (s *SessionContext) HistoryWindow(n int) []Turn {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}
