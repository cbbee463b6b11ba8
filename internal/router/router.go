package router

import (
	"context"
	"fmt"
	"strings"

	"agent_orchestrator/internal/config"
	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/llm"
	"agent_orchestrator/internal/logger"
	"agent_orchestrator/internal/memory"

	"github.com/cloudwego/eino/schema"
)

// Reasoning strings attached to rule and fallback decisions.
const (
	reasonRecencyRule = "recency keyword matched"
	reasonEntityRule  = "entity keyword matched"
	reasonFallback    = "fallback: classification unavailable"
)

// Router classifies a query into one of the three routes. Tier one is
// a deterministic keyword pre-filter; tier two asks the model and
// parses its answer strictly. Classify never fails: every degradation
// path ends in a well-formed fallback decision.
type Router struct {
	gen llm.Generator
	cfg config.RouterConfig
}

// New creates a Router with the given classification model.
func New(gen llm.Generator, cfg config.RouterConfig) *Router {
	return &Router{gen: gen, cfg: cfg}
}

// Classify returns a route decision for the query given the session's
// context window.
func (r *Router) Classify(ctx context.Context, query string, win memory.ContextWindow) core.RouteDecision {
	// Tier one: pure string matching, cannot fail. Recency is checked
	// before entity on purpose: a query asking for TechNova's latest
	// numbers needs the web, not a stale document.
	queryLower := strings.ToLower(query)

	if matchAny(queryLower, r.cfg.RecencyKeywords) {
		return core.RouteDecision{
			Route:      core.RouteWeb,
			Confidence: r.cfg.RuleConfidence,
			Reasoning:  reasonRecencyRule,
		}
	}
	if matchAny(queryLower, r.cfg.EntityKeywords) {
		return core.RouteDecision{
			Route:      core.RouteKnowledgeBase,
			Confidence: r.cfg.RuleConfidence,
			Reasoning:  reasonEntityRule,
		}
	}

	// Tier two: model-based classification.
	route, err := r.classifyWithModel(ctx, query, win)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("code", core.ErrCodeClassificationDegraded).
			Msg("Classification degraded, using fallback route")
		return r.fallback()
	}

	return core.RouteDecision{
		Route:      route,
		Confidence: r.confidenceFor(queryLower, route),
		Reasoning:  reasoningFor(route),
	}
}

func (r *Router) classifyWithModel(ctx context.Context, query string, win memory.ContextWindow) (core.Route, error) {
	var user strings.Builder
	user.WriteString("Query: " + query + "\n")
	if !win.Empty() {
		user.WriteString("\nConversation context:\n" + win.Render() + "\n")
	}
	user.WriteString("\nRouting decision:")

	messages := []*schema.Message{
		schema.SystemMessage(routingSystemPrompt),
		schema.UserMessage(user.String()),
	}

	out, err := r.gen.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("routing model call failed: %w", err)
	}

	route, ok := core.ParseRoute(out)
	if !ok {
		return "", fmt.Errorf("unparseable route label %q", out)
	}
	return route, nil
}

// fallback is the decision used whenever classification is unavailable.
func (r *Router) fallback() core.RouteDecision {
	return core.RouteDecision{
		Route:      core.RouteGeneral,
		Confidence: r.cfg.FallbackConfidence,
		Reasoning:  reasonFallback,
	}
}

// confidenceFor scores a successful model classification: a base of
// 0.7 plus 0.1 per supporting keyword, capped at 1.0. Plain general
// answers sit at 0.75.
func (r *Router) confidenceFor(queryLower string, route core.Route) float64 {
	var keywords []string
	switch route {
	case core.RouteWeb:
		keywords = r.cfg.RecencyKeywords
	case core.RouteKnowledgeBase:
		keywords = r.cfg.EntityKeywords
	default:
		return 0.75
	}

	matches := 0
	for _, kw := range keywords {
		if strings.Contains(queryLower, strings.ToLower(kw)) {
			matches++
		}
	}

	confidence := 0.7 + float64(matches)*0.1
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

func reasoningFor(route core.Route) string {
	switch route {
	case core.RouteWeb:
		return "Query requires current/recent information from the web"
	case core.RouteKnowledgeBase:
		return "Query is about company information from the knowledge base"
	default:
		return "General knowledge query that can be answered directly"
	}
}

func matchAny(queryLower string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(queryLower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
