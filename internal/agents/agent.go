package agents

import (
	"context"
	"fmt"

	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/memory"
)

// Result is a backend's raw answer before synthesis.
type Result struct {
	Text    string
	Sources []core.Source
}

// Agent is the single capability all three backends implement: answer
// a query given the session's context window. A service failure or
// absence of usable content is returned as an error; the workflow
// engine owns what happens next.
type Agent interface {
	Route() core.Route
	Answer(ctx context.Context, query string, win memory.ContextWindow) (Result, error)
}

// Dispatch maps each route to exactly one agent. The enumeration is
// closed: adding a backend means adding a route constant, not open
// registration, which keeps the one-dispatch-per-query invariant
// checkable.
type Dispatch map[core.Route]Agent

// NewDispatch builds a dispatch table and verifies it is total: one
// agent per route, no duplicates, no gaps.
func NewDispatch(agents ...Agent) (Dispatch, error) {
	d := make(Dispatch, len(agents))
	for _, agent := range agents {
		route := agent.Route()
		if !route.Valid() {
			return nil, fmt.Errorf("agent registered for unknown route %q", route)
		}
		if _, dup := d[route]; dup {
			return nil, fmt.Errorf("duplicate agent for route %q", route)
		}
		d[route] = agent
	}
	for _, route := range core.Routes() {
		if _, ok := d[route]; !ok {
			return nil, fmt.Errorf("no agent registered for route %q", route)
		}
	}
	return d, nil
}

// For returns the agent handling the given route.
func (d Dispatch) For(route core.Route) (Agent, bool) {
	agent, ok := d[route]
	return agent, ok
}
