package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// ScriptedCall records one generation request received by a ScriptedModel.
type ScriptedCall struct {
	At       time.Time
	Messages []llms.MessageContent
}

// ScriptedModel is an in-process model that replays canned responses in
// order. Once the script runs out it repeats the last line, and with no
// script at all it synthesizes a numbered placeholder. Safe for
// concurrent use, which makes it the workhorse for tests and offline
// demos.
type ScriptedModel struct {
	mu        sync.Mutex
	responses []string
	next      int
	calls     []ScriptedCall
	now       func() time.Time
}

// ScriptedOption configures a ScriptedModel.
type ScriptedOption func(*ScriptedModel)

// WithScriptedClock overrides the clock used to stamp recorded calls.
func WithScriptedClock(now func() time.Time) ScriptedOption {
	return func(m *ScriptedModel) {
		if now != nil {
			m.now = now
		}
	}
}

// NewScriptedModel builds a model that answers with the given responses
// in order.
func NewScriptedModel(responses ...string) *ScriptedModel {
	return &ScriptedModel{
		responses: responses,
		now:       time.Now,
	}
}

// NewScriptedModelWith builds a scripted model with options applied.
func NewScriptedModelWith(responses []string, opts ...ScriptedOption) *ScriptedModel {
	m := NewScriptedModel(responses...)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ llms.Model = (*ScriptedModel)(nil)

// GenerateContent records the request and returns the next scripted line.
func (m *ScriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]llms.MessageContent, len(messages))
	copy(recorded, messages)
	m.calls = append(m.calls, ScriptedCall{At: m.now(), Messages: recorded})

	var text string
	switch {
	case len(m.responses) == 0:
		text = fmt.Sprintf("scripted response %d", len(m.calls))
	case m.next < len(m.responses):
		text = m.responses[m.next]
		m.next++
	default:
		text = m.responses[len(m.responses)-1]
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: text}},
	}, nil
}

// Call implements the legacy completion surface of llms.Model.
func (m *ScriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// Calls returns a copy of every recorded request, in arrival order.
func (m *ScriptedModel) Calls() []ScriptedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ScriptedCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many generations the model has served.
func (m *ScriptedModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
