package core

import (
	"strings"
	"time"
)

// Route identifies which backend answers a query. The set is closed:
// dispatch is a total function over these three values and nothing else.
type Route string

const (
	RouteGeneral       Route = "general"
	RouteWeb           Route = "web"
	RouteKnowledgeBase Route = "knowledge_base"
)

// Routes lists every valid route in a stable order.
func Routes() []Route {
	return []Route{RouteGeneral, RouteWeb, RouteKnowledgeBase}
}

// ParseRoute accepts only an exact, case-insensitive match against the
// three known labels. Anything else is rejected so an unknown route can
// never reach the dispatcher.
func ParseRoute(s string) (Route, bool) {
	switch Route(strings.ToLower(strings.TrimSpace(s))) {
	case RouteGeneral:
		return RouteGeneral, true
	case RouteWeb:
		return RouteWeb, true
	case RouteKnowledgeBase:
		return RouteKnowledgeBase, true
	}
	return "", false
}

// Valid reports whether r is one of the three known routes.
func (r Route) Valid() bool {
	_, ok := ParseRoute(string(r))
	return ok
}

// RouteDecision is the router's output. Confidence is always populated,
// either from classification or from a fixed fallback value.
type RouteDecision struct {
	Route      Route   `json:"route"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Source points at material a backend used to produce its answer.
// Locator is a URL for web results or a document name for retrieval hits.
type Source struct {
	Label     string  `json:"label"`
	Locator   string  `json:"locator"`
	Relevance float64 `json:"relevance,omitempty"`
}

// Turn is one completed query/response cycle. It is created once per
// query and never mutated after it is appended to a session's history.
type Turn struct {
	ID          string        `json:"id"`
	Query       string        `json:"query"`
	Decision    RouteDecision `json:"decision"`
	BackendText string        `json:"backend_text"`
	Sources     []Source      `json:"sources"`
	FinalText   string        `json:"final_text"`
	ErrorNote   string        `json:"error_note,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// ErrorInfo carries a short machine-readable code plus human text. It is
// the only error shape callers ever see.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Machine-readable error codes surfaced in QueryResult.Error.
const (
	ErrCodeBackendUnavailable     = "backend_unavailable"
	ErrCodeClassificationDegraded = "classification_degraded"
	ErrCodeNoRelevantContent      = "no_relevant_content"
)

// QueryResult is the caller-facing outcome of a single workflow run.
// Every run produces one, degraded or not.
type QueryResult struct {
	FinalText  string     `json:"final_text"`
	Route      Route      `json:"route"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
	Sources    []Source   `json:"sources"`
	ElapsedMS  int64      `json:"elapsed_ms"`
	Error      *ErrorInfo `json:"error,omitempty"`
}
