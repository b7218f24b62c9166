package content

import (
	"github.com/tmc/langchaingo/llms"

	"github.com/paceline/paceline/pkg/agents"
	"github.com/paceline/paceline/pkg/processors"
)

const summarizerPrompt = "You condense articles into tight, faithful summaries. " +
	"Keep every load-bearing fact, drop the filler, and answer with the summary alone."

const editorPrompt = "You are a copy editor. Improve clarity and flow without " +
	"changing meaning, and answer with the edited text alone."

// NewSummarizerAgent is the summarization chat agent: clamped history,
// normalized input, low temperature.
func NewSummarizerAgent(model llms.Model) *agents.LLMAgent {
	pipe := processors.NewPipeline().
		WithInput(processors.NormalizeWhitespace(), processors.ClampHistory(12)).
		WithOutput(processors.TrimOutput())
	return agents.NewLLMAgent("summarizer", model,
		agents.WithSystemPrompt(summarizerPrompt),
		agents.WithProcessors(pipe),
		agents.WithCallOptions(llms.WithTemperature(0.2), llms.WithMaxTokens(400)),
	)
}

// NewEditorAgent is the copy-editing chat agent.
func NewEditorAgent(model llms.Model) *agents.LLMAgent {
	pipe := processors.NewPipeline().
		WithInput(processors.NormalizeWhitespace(), processors.ClampHistory(12)).
		WithOutput(processors.TrimOutput(), processors.TruncateOutput(4000))
	return agents.NewLLMAgent("editor", model,
		agents.WithSystemPrompt(editorPrompt),
		agents.WithProcessors(pipe),
		agents.WithCallOptions(llms.WithTemperature(0.4)),
	)
}

// DemoAgents returns the named demo agents, keyed by agent name.
func DemoAgents(model llms.Model) map[string]*agents.LLMAgent {
	summarizer := NewSummarizerAgent(model)
	editor := NewEditorAgent(model)
	return map[string]*agents.LLMAgent{
		summarizer.Name(): summarizer,
		editor.Name():     editor,
	}
}
