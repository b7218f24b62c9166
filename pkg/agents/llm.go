package agents

import (
	"context"

	"github.com/paceline/paceline/pkg/processors"
	"github.com/paceline/paceline/pkg/state"
	"github.com/paceline/paceline/pkg/types"
	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// LLMAgent turns one model round-trip into a workflow step. The message
// history flows through the input processors, the model answers, the
// answer flows through the output processors and comes back as a delta
// holding only the new AI message.
type LLMAgent struct {
	name     string
	model    llms.Model
	system   string
	pipeline *processors.Pipeline
	callOpts []llms.CallOption
	metadata map[string]any
}

// LLMOption configures an LLMAgent.
type LLMOption func(*LLMAgent)

// WithSystemPrompt prepends a system message to every model call.
func WithSystemPrompt(prompt string) LLMOption {
	return func(a *LLMAgent) {
		a.system = prompt
	}
}

// WithProcessors attaches an input/output processor pipeline.
func WithProcessors(pipeline *processors.Pipeline) LLMOption {
	return func(a *LLMAgent) {
		a.pipeline = pipeline
	}
}

// WithCallOptions forwards langchaingo call options to every generation.
func WithCallOptions(opts ...llms.CallOption) LLMOption {
	return func(a *LLMAgent) {
		a.callOpts = append(a.callOpts, opts...)
	}
}

// WithAgentMetadata sets the metadata the DSL attaches to the node.
func WithAgentMetadata(meta map[string]any) LLMOption {
	return func(a *LLMAgent) {
		a.metadata = meta
	}
}

// NewLLMAgent builds an agent backed by the given model.
func NewLLMAgent(name string, model llms.Model, opts ...LLMOption) *LLMAgent {
	a := &LLMAgent{name: name, model: model}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *LLMAgent) Name() string {
	return a.name
}

func (a *LLMAgent) Metadata() map[string]any {
	return a.metadata
}

func (a *LLMAgent) Execute(ctx context.Context, s state.MessagesState, _ types.Config[state.MessagesState]) (types.NodeResponse[state.MessagesState], error) {
	failed := types.NodeResponse[state.MessagesState]{State: s, Status: types.StatusFailed}

	messages, err := a.pipeline.RunInput(ctx, s.Messages)
	if err != nil {
		return failed, errors.Wrapf(err, "llm agent %s", a.name)
	}

	if a.system != "" {
		messages = append([]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, a.system),
		}, messages...)
	}
	if len(messages) == 0 {
		return failed, errors.Errorf("llm agent %s: no messages to send", a.name)
	}

	resp, err := a.model.GenerateContent(ctx, messages, a.callOpts...)
	if err != nil {
		return failed, errors.Wrapf(err, "llm agent %s: generate", a.name)
	}
	if len(resp.Choices) == 0 {
		return failed, errors.Errorf("llm agent %s: model returned no choices", a.name)
	}

	text, err := a.pipeline.RunOutput(ctx, resp.Choices[0].Content)
	if err != nil {
		return failed, errors.Wrapf(err, "llm agent %s", a.name)
	}

	// Only the new AI message goes back, the engine appends it to the
	// accumulated history
	return types.NodeResponse[state.MessagesState]{
		State:  state.WithAIMessage(text),
		Status: types.StatusCompleted,
	}, nil
}
