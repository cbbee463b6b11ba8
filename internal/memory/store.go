package memory

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"agent_orchestrator/internal/core"
)

// maxRenderedContent bounds how much of a message the rendered context
// window carries into a prompt.
const maxRenderedContent = 200

// ContextWindow is a read-only snapshot of the last N completed turns
// of a session, oldest first. It never includes an in-flight turn.
type ContextWindow struct {
	Turns []core.Turn
}

// Empty reports whether the window holds no turns.
func (w ContextWindow) Empty() bool {
	return len(w.Turns) == 0
}

// Render produces the compact transcript injected into prompts: one
// User/Assistant line pair per turn, content truncated so a long answer
// cannot crowd out the query.
func (w ContextWindow) Render() string {
	if w.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, turn := range w.Turns {
		b.WriteString("User: " + truncate(turn.Query) + "\n")
		answer := turn.FinalText
		if answer == "" && turn.ErrorNote != "" {
			answer = "(no answer: " + turn.ErrorNote + ")"
		}
		b.WriteString("Assistant: " + truncate(answer) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxRenderedContent {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRenderedContent]) + "..."
}

// Stats is a read-only aggregate over a session's full history.
type Stats struct {
	TurnCount   int                `json:"turn_count"`
	RouteCounts map[core.Route]int `json:"route_counts"`
}

// Store holds ordered conversation turns per session and exposes the
// bounded recent-window view over each session's tail.
//
// Append adds a completed turn to the full history. Window returns a
// snapshot, not a live view, so a classification in flight sees a
// consistent context even if appends happen concurrently. Reset clears
// a session and is idempotent.
type Store interface {
	Append(ctx context.Context, sessionID string, turn core.Turn) error
	Window(ctx context.Context, sessionID string) (ContextWindow, error)
	Reset(ctx context.Context, sessionID string) error
	Stats(ctx context.Context, sessionID string) (Stats, error)
}

// New builds a Store for the configured backend name.
func New(ctx context.Context, kind string, windowTurns int, opts RedisOptions) (Store, error) {
	switch kind {
	case "memory":
		return NewMemoryStore(windowTurns), nil
	case "redis":
		return NewRedisStore(ctx, windowTurns, opts)
	default:
		return nil, fmt.Errorf("%w: unknown memory store '%s'", core.ErrConfiguration, kind)
	}
}

func statsOf(turns []core.Turn) Stats {
	stats := Stats{
		TurnCount:   len(turns),
		RouteCounts: make(map[core.Route]int),
	}
	for _, turn := range turns {
		if turn.Decision.Route.Valid() {
			stats.RouteCounts[turn.Decision.Route]++
		}
	}
	return stats
}

func tail(turns []core.Turn, n int) []core.Turn {
	if len(turns) <= n {
		n = len(turns)
	}
	window := make([]core.Turn, n)
	copy(window, turns[len(turns)-n:])
	return window
}
