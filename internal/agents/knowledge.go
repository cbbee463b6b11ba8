package agents

import (
	"context"
	"fmt"
	"strings"

	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/llm"
	"agent_orchestrator/internal/logger"
	"agent_orchestrator/internal/memory"
	"agent_orchestrator/internal/retrieval"

	"github.com/cloudwego/eino/schema"
)

// NoRelevantDocumentsAnswer is returned verbatim when nothing in the
// knowledge base clears the relevance threshold. An honest miss, not
// an error.
const NoRelevantDocumentsAnswer = "I couldn't find any relevant documents in the knowledge base for this query. Please try rephrasing it or ask about a different topic."

const knowledgeSystemPrompt = `You are an AI assistant with access to TechNova Inc.'s financial documents and company information.

Guidelines:
- Answer questions based ONLY on the provided context from company documents
- If the context doesn't contain the answer, say so honestly
- Cite specific reports when possible (e.g., "According to the Q1 2024 Earnings Report...")
- Provide specific numbers, dates, and details when available
- If asked about trends, analyze across multiple time periods if available`

// KnowledgeBaseAgent answers from retrieved document chunks, and only
// from them.
type KnowledgeBaseAgent struct {
	store        *retrieval.VectorStore
	gen          llm.Generator
	topK         int
	minRelevance float64
}

// NewKnowledgeBaseAgent creates the retrieval backend.
func NewKnowledgeBaseAgent(store *retrieval.VectorStore, gen llm.Generator, topK int, minRelevance float64) *KnowledgeBaseAgent {
	if topK <= 0 {
		topK = 3
	}
	return &KnowledgeBaseAgent{
		store:        store,
		gen:          gen,
		topK:         topK,
		minRelevance: minRelevance,
	}
}

func (a *KnowledgeBaseAgent) Route() core.Route {
	return core.RouteKnowledgeBase
}

// Answer retrieves the topK chunks above the relevance threshold and
// asks the model to answer using only those as grounding. When nothing
// clears the threshold the agent answers honestly instead of
// hallucinating.
func (a *KnowledgeBaseAgent) Answer(ctx context.Context, query string, win memory.ContextWindow) (Result, error) {
	scored, err := a.store.Query(ctx, query, a.topK)
	if err != nil {
		return Result{}, fmt.Errorf("%w: retrieval failed: %w", core.ErrBackendUnavailable, err)
	}

	relevant := scored[:0:0]
	for _, s := range scored {
		if s.Score >= a.minRelevance {
			relevant = append(relevant, s)
		}
	}

	if len(relevant) == 0 {
		logger.Info().
			Str("code", core.ErrCodeNoRelevantContent).
			Float64("threshold", a.minRelevance).
			Msg("No knowledge-base chunk cleared the relevance threshold")
		return Result{Text: NoRelevantDocumentsAnswer}, nil
	}

	system := knowledgeSystemPrompt
	if !win.Empty() {
		system += "\n\n" + win.Render()
	}

	var user strings.Builder
	user.WriteString("Query: " + query + "\n\nRelevant Context from Company Documents:\n")
	for i, s := range relevant {
		fmt.Fprintf(&user, "[Document %d - %s]\n%s\n\n", i+1, s.Source, s.Text)
	}
	user.WriteString("Please answer the query based on the above context.")

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

	return Result{Text: text, Sources: sourcesFromChunks(relevant)}, nil
}

// sourcesFromChunks deduplicates retrieved chunks by document, keeping
// the best score and first-occurrence order.
func sourcesFromChunks(chunks []retrieval.Scored) []core.Source {
	var sources []core.Source
	index := make(map[string]int)

	for _, chunk := range chunks {
		if i, seen := index[chunk.Source]; seen {
			if chunk.Score > sources[i].Relevance {
				sources[i].Relevance = chunk.Score
			}
			continue
		}
		index[chunk.Source] = len(sources)
		sources = append(sources, core.Source{
			Label:     chunk.Source,
			Locator:   chunk.Source,
			Relevance: chunk.Score,
		})
	}
	return sources
}
