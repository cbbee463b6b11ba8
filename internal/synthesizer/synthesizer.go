package synthesizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/llm"
	"agent_orchestrator/internal/logger"

	"github.com/cloudwego/eino/schema"
)

// UnableToAnswerMessage replaces fabricated content when a backend
// produced nothing.
const UnableToAnswerMessage = "I'm unable to answer this query right now. Please try again."

const summarySystemPrompt = `You are an expert at synthesizing information into clear, well-structured responses.

Your task is to take the information gathered by a specialized backend and create a comprehensive, user-friendly final answer.

Guidelines:
- Organize information logically with clear structure
- Use markdown formatting for readability (headers, lists, bold text)
- Be concise but thorough
- Highlight key insights and important numbers
- Maintain a professional yet conversational tone
- DO NOT mention AI training dates or knowledge limitations`

// Synthesizer turns a backend's raw answer and sources into the final
// formatted response with a normalized citation list.
type Synthesizer struct {
	gen    llm.Generator
	polish bool
}

// New creates a Synthesizer. With polish enabled the raw answer is
// restructured by the model first; the deterministic citation block is
// appended either way.
func New(gen llm.Generator, polish bool) *Synthesizer {
	return &Synthesizer{gen: gen, polish: polish}
}

// Synthesize produces the final response text. It degrades internally
// and never fails: a polish error falls back to the raw answer, and an
// empty raw answer yields a clear unable-to-answer message.
func (s *Synthesizer) Synthesize(ctx context.Context, route core.Route, query, rawText string, sources []core.Source) string {
	if strings.TrimSpace(rawText) == "" {
		return UnableToAnswerMessage
	}

	text := rawText
	if s.polish {
		if polished, err := s.polishText(ctx, route, query, rawText); err != nil {
			logger.Warn().Err(err).Msg("Synthesis polish failed, using raw backend answer")
		} else if polished != "" {
			text = polished
		}
	}

	if citations := formatCitations(sources); citations != "" {
		text += "\n\n" + citations
	}
	return text
}

func (s *Synthesizer) polishText(ctx context.Context, route core.Route, query, rawText string) (string, error) {
	var user strings.Builder
	user.WriteString("Original Query: " + query + "\n\n")
	user.WriteString(routeContext(route) + "\n\n")
	user.WriteString("Information Gathered:\n" + rawText + "\n\n")
	user.WriteString("Please provide a well-structured, comprehensive answer.")

	messages := []*schema.Message{
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage(user.String()),
	}

	return s.gen.Generate(ctx, messages)
}

func routeContext(route core.Route) string {
	switch route {
	case core.RouteWeb:
		return fmt.Sprintf("This information was gathered from LIVE WEB SEARCH on %s. Present it as current, without mentioning knowledge cutoffs.", time.Now().Format("January 2, 2006"))
	case core.RouteKnowledgeBase:
		return "This information is from internal company documents. Reference the specific documents where possible."
	default:
		return "This information is from general knowledge."
	}
}

// formatCitations builds the normalized citation list: deduplicated by
// locator, first-occurrence order preserved.
func formatCitations(sources []core.Source) string {
	if len(sources) == 0 {
		return ""
	}

	seen := make(map[string]bool, len(sources))
	var b strings.Builder
	n := 0
	for _, src := range sources {
		if src.Locator == "" || seen[src.Locator] {
			continue
		}
		seen[src.Locator] = true
		n++
		label := src.Label
		if label == "" {
			label = src.Locator
		}
		if n == 1 {
			b.WriteString("Sources:\n")
		}
		if src.Label != "" && src.Label != src.Locator {
			fmt.Fprintf(&b, "%d. %s (%s)\n", n, label, src.Locator)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", n, label)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
