// Package processors provides hooks that shape what goes into a language
// model and what comes back out. Input processors rewrite the outgoing
// message history, output processors rewrite the generated text. A
// Pipeline runs them in registration order and aborts on the first error.
package processors

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
)

// Input transforms the message history before it reaches the model.
type Input func(ctx context.Context, messages []llms.MessageContent) ([]llms.MessageContent, error)

// Output transforms the generated text before it enters the state.
type Output func(ctx context.Context, text string) (string, error)

// Pipeline is an ordered chain of input and output processors.
type Pipeline struct {
	inputs  []Input
	outputs []Output
}

// NewPipeline builds an empty pipeline. Processors are appended with
// WithInput and WithOutput and run in the order they were added.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// WithInput appends input processors to the chain.
func (p *Pipeline) WithInput(procs ...Input) *Pipeline {
	p.inputs = append(p.inputs, procs...)
	return p
}

// WithOutput appends output processors to the chain.
func (p *Pipeline) WithOutput(procs ...Output) *Pipeline {
	p.outputs = append(p.outputs, procs...)
	return p
}

// RunInput feeds the messages through every input processor.
func (p *Pipeline) RunInput(ctx context.Context, messages []llms.MessageContent) ([]llms.MessageContent, error) {
	if p == nil {
		return messages, nil
	}
	var err error
	for i, proc := range p.inputs {
		messages, err = proc(ctx, messages)
		if err != nil {
			return nil, errors.Wrapf(err, "input processor %d", i)
		}
	}
	return messages, nil
}

// RunOutput feeds the generated text through every output processor.
func (p *Pipeline) RunOutput(ctx context.Context, text string) (string, error) {
	if p == nil {
		return text, nil
	}
	var err error
	for i, proc := range p.outputs {
		text, err = proc(ctx, text)
		if err != nil {
			return "", errors.Wrapf(err, "output processor %d", i)
		}
	}
	return text, nil
}
