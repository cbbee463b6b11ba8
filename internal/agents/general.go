package agents

import (
	"context"
	"fmt"

	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/llm"
	"agent_orchestrator/internal/memory"

	"github.com/cloudwego/eino/schema"
)

const generalSystemPrompt = `You are a helpful AI assistant that provides accurate and informative answers to general knowledge questions.

Guidelines:
- Provide clear, concise, and accurate information
- Use examples when helpful
- If you're not certain, acknowledge limitations
- Structure responses for readability
- Be conversational but professional`

// GeneralAgent answers from the model's own knowledge with no external
// retrieval. Its sources are always empty.
type GeneralAgent struct {
	gen llm.Generator
}

// NewGeneralAgent creates the general-knowledge backend.
func NewGeneralAgent(gen llm.Generator) *GeneralAgent {
	return &GeneralAgent{gen: gen}
}

func (a *GeneralAgent) Route() core.Route {
	return core.RouteGeneral
}

// Answer forwards the query plus condensed context to the model.
func (a *GeneralAgent) Answer(ctx context.Context, query string, win memory.ContextWindow) (Result, error) {
	system := generalSystemPrompt
	if !win.Empty() {
		system += "\n\n" + win.Render()
	}

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(query),
	}

	text, err := a.gen.Generate(ctx, messages)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", core.ErrBackendUnavailable, err)
	}
	if text == "" {
		return Result{}, fmt.Errorf("%w: model returned empty output", core.ErrBackendUnavailable)
	}

	return Result{Text: text}, nil
}
