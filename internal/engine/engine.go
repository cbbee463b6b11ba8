package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"agent_orchestrator/internal/agents"
	"agent_orchestrator/internal/config"
	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/logger"
	"agent_orchestrator/internal/memory"
	"agent_orchestrator/internal/router"
	"agent_orchestrator/internal/synthesizer"

	"github.com/google/uuid"
)

// state names one position in a query's lifecycle. Each query is one
// run of the machine; Failed is reachable from any state.
type state string

const (
	stateStart           state = "start"
	stateRouted          state = "routed"
	stateBackendExecuted state = "backend_executed"
	stateSynthesized     state = "synthesized"
	stateDone            state = "done"
	stateFailed          state = "failed"
)

// run is the per-query execution record. The engine owns it until the
// turn is appended to the session; after that the session owns the
// turn exclusively.
type run struct {
	state    state
	decision core.RouteDecision
	backend  agents.Result
	path     []state
}

func (r *run) transition(next state) {
	r.state = next
	r.path = append(r.path, next)
}

// Engine sequences router, backend dispatch, synthesis and memory for
// one query at a time per session. Queries within a session are
// serialized; independent sessions run concurrently with no shared
// mutable state beyond the store.
type Engine struct {
	router   *router.Router
	dispatch agents.Dispatch
	synth    *synthesizer.Synthesizer
	store    memory.Store
	timeouts config.TimeoutConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires an engine from its collaborators.
func New(rt *router.Router, dispatch agents.Dispatch, synth *synthesizer.Synthesizer, store memory.Store, timeouts config.TimeoutConfig) *Engine {
	return &Engine{
		router:   rt,
		dispatch: dispatch,
		synth:    synth,
		store:    store,
		timeouts: timeouts,
		locks:    make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing runs for a session.
func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[sessionID] = lock
	}
	return lock
}

// ProcessQuery runs one query through the state machine and always
// returns a well-formed result: every per-query error is converted
// into a degraded response here and propagated no further.
func (e *Engine) ProcessQuery(ctx context.Context, sessionID, query string) core.QueryResult {
	started := time.Now()

	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	r := &run{state: stateStart, path: []state{stateStart}}
	log := logger.Get().With().Str("session_id", sessionID).Logger()

	window, err := e.store.Window(ctx, sessionID)
	if err != nil {
		// The window is an optimization, not a requirement: classify
		// and answer without context rather than failing the run.
		log.Warn().Err(err).Msg("Failed to load context window, continuing without context")
		window = memory.ContextWindow{}
	}

	// Start -> Routed. Classification may call the generation service,
	// so it gets the same per-call bound as any other external call; on
	// expiry the router's own fallback guarantees a decision.
	classifyCtx, cancel := context.WithTimeout(ctx, e.timeouts.Generate.Std())
	r.decision = e.router.Classify(classifyCtx, query, window)
	cancel()
	r.transition(stateRouted)
	log.Info().
		Str("route", string(r.decision.Route)).
		Float64("confidence", r.decision.Confidence).
		Str("reasoning", r.decision.Reasoning).
		Msg("Query routed")

	// Routed -> BackendExecuted: exactly one dispatch, never zero,
	// never a silent substitute on failure.
	agent, ok := e.dispatch.For(r.decision.Route)
	if !ok {
		// Unreachable with a validated dispatch table.
		r.transition(stateFailed)
		return e.failedResult(ctx, sessionID, query, r, started,
			fmt.Errorf("%w: no agent for route %s", core.ErrBackendUnavailable, r.decision.Route))
	}

	backendCtx, cancel := context.WithTimeout(ctx, e.timeouts.Backend.Std())
	result, err := agent.Answer(backendCtx, query, window)
	cancel()
	if err != nil {
		r.transition(stateFailed)
		log.Error().Err(err).Str("route", string(r.decision.Route)).Msg("Backend failed")
		return e.failedResult(ctx, sessionID, query, r, started, err)
	}
	r.backend = result
	r.transition(stateBackendExecuted)

	// BackendExecuted -> Synthesized. Synthesis degrades internally
	// and cannot fail the run.
	synthCtx, cancel := context.WithTimeout(ctx, e.timeouts.Generate.Std())
	finalText := e.synth.Synthesize(synthCtx, r.decision.Route, query, result.Text, result.Sources)
	cancel()
	r.transition(stateSynthesized)

	// Synthesized -> Done: the single atomic append. A run abandoned
	// earlier never reaches this point, so no half-formed turn is ever
	// recorded.
	turn := core.Turn{
		ID:          uuid.NewString(),
		Query:       query,
		Decision:    r.decision,
		BackendText: result.Text,
		Sources:     result.Sources,
		FinalText:   finalText,
		Timestamp:   time.Now(),
	}
	if err := e.store.Append(ctx, sessionID, turn); err != nil {
		log.Error().Err(err).Msg("Failed to append turn to session history")
	}
	r.transition(stateDone)

	elapsed := time.Since(started)
	log.Info().
		Str("route", string(r.decision.Route)).
		Int("sources", len(result.Sources)).
		Dur("elapsed", elapsed).
		Interface("execution_path", r.path).
		Msg("Query completed")

	return core.QueryResult{
		FinalText:  finalText,
		Route:      r.decision.Route,
		Confidence: r.decision.Confidence,
		Reasoning:  r.decision.Reasoning,
		Sources:    result.Sources,
		ElapsedMS:  elapsed.Milliseconds(),
	}
}

// failedResult converts a backend failure into a degraded response.
// The turn is still recorded, with an error note in place of an
// answer, so conversation continuity survives the failure.
func (e *Engine) failedResult(ctx context.Context, sessionID, query string, r *run, started time.Time, cause error) core.QueryResult {
	note := cause.Error()
	message := fmt.Sprintf("The %s backend could not be reached to answer this query. Please try again.", r.decision.Route)
	if errors.Is(cause, context.DeadlineExceeded) {
		message = fmt.Sprintf("The %s backend timed out before producing an answer. Please try again.", r.decision.Route)
	}

	turn := core.Turn{
		ID:        uuid.NewString(),
		Query:     query,
		Decision:  r.decision,
		ErrorNote: note,
		Timestamp: time.Now(),
	}
	if err := e.store.Append(ctx, sessionID, turn); err != nil {
		logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to append degraded turn")
	}

	return core.QueryResult{
		FinalText:  message,
		Route:      r.decision.Route,
		Confidence: r.decision.Confidence,
		Reasoning:  r.decision.Reasoning,
		ElapsedMS:  time.Since(started).Milliseconds(),
		Error: &core.ErrorInfo{
			Code:    core.ErrCodeBackendUnavailable,
			Message: message,
		},
	}
}

// ResetSession clears a session's history. Idempotent.
func (e *Engine) ResetSession(ctx context.Context, sessionID string) error {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()
	return e.store.Reset(ctx, sessionID)
}

// SessionStats returns the session's turn and route counts.
func (e *Engine) SessionStats(ctx context.Context, sessionID string) (memory.Stats, error) {
	return e.store.Stats(ctx, sessionID)
}
