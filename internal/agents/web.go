package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/llm"
	"agent_orchestrator/internal/logger"
	"agent_orchestrator/internal/memory"
	"agent_orchestrator/internal/search"

	"github.com/cloudwego/eino/schema"
)

const webSystemPrompt = `You are a research assistant that synthesizes web search results into clear, informative answers.

CRITICAL INSTRUCTIONS:
- You are synthesizing LIVE WEB SEARCH RESULTS from %s
- These results contain CURRENT, UP-TO-DATE information
- DO NOT use your training data or mention any knowledge cutoff dates
- DO NOT say "as of my last update" or "I don't have information after [date]"
- Base your answer ENTIRELY on the search results provided
- Present information as current and factual

Guidelines:
- Provide accurate information based ONLY on the search results
- Cite sources when relevant
- Present information in a structured, easy-to-read format
- If results are insufficient or conflicting, acknowledge this
- Focus on the most recent and authoritative sources
- Use present tense for current information`

// WebAgent answers by searching the web and asking the model to
// synthesize the retained results, citing them.
type WebAgent struct {
	client     search.Client
	gen        llm.Generator
	maxResults int
}

// NewWebAgent creates the web-research backend.
func NewWebAgent(client search.Client, gen llm.Generator, maxResults int) *WebAgent {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebAgent{client: client, gen: gen, maxResults: maxResults}
}

func (a *WebAgent) Route() core.Route {
	return core.RouteWeb
}

// Answer searches, synthesizes and returns the retained results as
// sources. Zero results and search failures both mean the backend
// could not produce usable content.
func (a *WebAgent) Answer(ctx context.Context, query string, win memory.ContextWindow) (Result, error) {
	results, err := a.client.Search(ctx, query, a.maxResults)
	if err != nil {
		return Result{}, fmt.Errorf("%w: web search failed: %w", core.ErrBackendUnavailable, err)
	}
	if len(results) == 0 {
		return Result{}, fmt.Errorf("%w: web search returned no results", core.ErrBackendUnavailable)
	}

	logger.Debug().Int("results", len(results)).Str("query", query).Msg("Web search completed")

	system := fmt.Sprintf(webSystemPrompt, time.Now().Format("January 2, 2006"))
	if !win.Empty() {
		system += "\n\n" + win.Render()
	}

	var user strings.Builder
	user.WriteString("Query: " + query + "\n\nSearch Results:\n")
	user.WriteString(formatResults(results))
	user.WriteString("\nProvide a comprehensive answer based on these search results.")

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user.String()),
	}

	text, err := a.gen.Generate(ctx, messages)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", core.ErrBackendUnavailable, err)
	}
	if text == "" {
		return Result{}, fmt.Errorf("%w: model returned empty output", core.ErrBackendUnavailable)
	}

	return Result{Text: text, Sources: sourcesFrom(results)}, nil
}

// formatResults renders search hits for the synthesis prompt. The
// provider's aggregated summary is included as grounding text but
// carries no URL line.
func formatResults(results []search.Result) string {
	var b strings.Builder
	for i, r := range results {
		if r.URL == search.SummaryLocator {
			fmt.Fprintf(&b, "%d. %s\n\n", i+1, r.Content)
			continue
		}
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintf(&b, "%d. **%s**\n   Source: %s\n   %s\n\n", i+1, title, r.URL, r.Content)
	}
	return b.String()
}

// sourcesFrom keeps only citable results, dropping the summary
// pseudo-result.
func sourcesFrom(results []search.Result) []core.Source {
	var sources []core.Source
	for _, r := range results {
		if r.URL == search.SummaryLocator {
			continue
		}
		sources = append(sources, core.Source{
			Label:     r.Title,
			Locator:   r.URL,
			Relevance: r.Score,
		})
	}
	return sources
}
