package synthesizer

import (
	"context"
	"errors"
	"testing"

	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/llm"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedGen(reply string, err error) llm.Generator {
	return llm.GenerateFunc(func(ctx context.Context, messages []*schema.Message) (string, error) {
		return reply, err
	})
}

func TestSynthesizeEmptyRawText(t *testing.T) {
	s := New(fixedGen("should not run", nil), true)

	for _, raw := range []string{"", "   ", "\n\t"} {
		got := s.Synthesize(context.Background(), core.RouteGeneral, "query", raw, nil)
		assert.Equal(t, UnableToAnswerMessage, got)
	}
}

func TestSynthesizeWithoutPolish(t *testing.T) {
	s := New(fixedGen("should not run", nil), false)

	got := s.Synthesize(context.Background(), core.RouteGeneral, "query", "raw answer", nil)
	assert.Equal(t, "raw answer", got)
}

func TestSynthesizePolished(t *testing.T) {
	s := New(fixedGen("## Polished\n\nA structured answer.", nil), true)

	got := s.Synthesize(context.Background(), core.RouteGeneral, "query", "raw answer", nil)
	assert.Equal(t, "## Polished\n\nA structured answer.", got)
}

func TestSynthesizePolishFailureUsesRawText(t *testing.T) {
	s := New(fixedGen("", errors.New("model down")), true)

	got := s.Synthesize(context.Background(), core.RouteWeb, "query", "raw answer", nil)
	assert.Equal(t, "raw answer", got)
}

func TestSynthesizeAppendsCitations(t *testing.T) {
	s := New(nil, false)

	sources := []core.Source{
		{Label: "Bitcoin price today", Locator: "https://example.com/btc"},
		{Label: "Crypto markets", Locator: "https://example.com/markets"},
	}
	got := s.Synthesize(context.Background(), core.RouteWeb, "query", "answer", sources)

	require.Contains(t, got, "answer\n\nSources:\n")
	assert.Contains(t, got, "1. Bitcoin price today (https://example.com/btc)")
	assert.Contains(t, got, "2. Crypto markets (https://example.com/markets)")
}

func TestCitationsDeduplicatedInFirstOccurrenceOrder(t *testing.T) {
	s := New(nil, false)

	sources := []core.Source{
		{Label: "B report", Locator: "b.txt"},
		{Label: "A report", Locator: "a.txt"},
		{Label: "B report again", Locator: "b.txt"},
		{Label: "A report again", Locator: "a.txt"},
	}
	got := s.Synthesize(context.Background(), core.RouteKnowledgeBase, "query", "answer", sources)

	assert.Contains(t, got, "1. B report (b.txt)")
	assert.Contains(t, got, "2. A report (a.txt)")
	assert.NotContains(t, got, "3.")
	assert.NotContains(t, got, "again")
}

func TestCitationsLabelEqualsLocator(t *testing.T) {
	s := New(nil, false)

	sources := []core.Source{{Label: "q1_2024_earnings.txt", Locator: "q1_2024_earnings.txt"}}
	got := s.Synthesize(context.Background(), core.RouteKnowledgeBase, "query", "answer", sources)

	// No redundant "label (locator)" when they are the same string.
	assert.Contains(t, got, "1. q1_2024_earnings.txt")
	assert.NotContains(t, got, "(q1_2024_earnings.txt)")
}

func TestCitationsSkipEmptyLocators(t *testing.T) {
	s := New(nil, false)

	sources := []core.Source{{Label: "nameless", Locator: ""}}
	got := s.Synthesize(context.Background(), core.RouteGeneral, "query", "answer", sources)

	assert.Equal(t, "answer", got)
}
