// Package content holds the demo configuration: a nested content pipeline
// and a pair of conversational agents, all expressed through the workflow
// DSL. The steps are plain string manipulation; the only model calls are
// the optional polish step and the demo agents themselves.
package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"

	"github.com/paceline/paceline/pkg/agents"
	"github.com/paceline/paceline/pkg/types"
	"github.com/paceline/paceline/pkg/workflow"
)

// NewIngestAgent normalizes whitespace and stamps word and token counts.
func NewIngestAgent() *agents.BaseAgent[ContentState] {
	return agents.NewSimpleAgent("ingest",
		func(_ context.Context, s ContentState, _ types.Config[ContentState]) (types.NodeResponse[ContentState], error) {
			normalized := strings.Join(strings.Fields(s.Text), " ")
			return types.NodeResponse[ContentState]{
				State: ContentState{
					Text:       normalized,
					WordCount:  countWords(normalized),
					TokenCount: countTokens(normalized),
				},
				Status: types.StatusCompleted,
			}, nil
		}, nil)
}

// NewSentimentAgent classifies the text with the keyword lexicons.
func NewSentimentAgent() *agents.BaseAgent[ContentState] {
	return agents.NewSimpleAgent("sentiment",
		func(_ context.Context, s ContentState, _ types.Config[ContentState]) (types.NodeResponse[ContentState], error) {
			label, score := scoreSentiment(s.Text)
			return types.NodeResponse[ContentState]{
				State:  ContentState{Sentiment: label, SentimentScore: score},
				Status: types.StatusCompleted,
			}, nil
		}, nil)
}

// NewReadingTimeAgent estimates reading minutes from the word count,
// counting words itself when no earlier step recorded them.
func NewReadingTimeAgent() *agents.BaseAgent[ContentState] {
	return agents.NewSimpleAgent("reading-time",
		func(_ context.Context, s ContentState, _ types.Config[ContentState]) (types.NodeResponse[ContentState], error) {
			words := s.WordCount
			if words == 0 {
				words = countWords(s.Text)
			}
			return types.NodeResponse[ContentState]{
				State:  ContentState{ReadingTime: readingTime(words)},
				Status: types.StatusCompleted,
			}, nil
		}, nil)
}

// NewSummaryAgent truncates the text to a word budget on word boundaries.
func NewSummaryAgent(maxWords int) *agents.BaseAgent[ContentState] {
	return agents.NewSimpleAgent("summary",
		func(_ context.Context, s ContentState, _ types.Config[ContentState]) (types.NodeResponse[ContentState], error) {
			summary, truncated := summarize(s.Text, maxWords)
			return types.NodeResponse[ContentState]{
				State:  ContentState{Summary: summary, Truncated: truncated},
				Status: types.StatusCompleted,
			}, nil
		}, nil)
}

// NewPolishAgent rewrites the extractive summary with the model.
func NewPolishAgent(model llms.Model, callOpts ...llms.CallOption) *agents.BaseAgent[ContentState] {
	return agents.NewSimpleAgent("polish",
		func(ctx context.Context, s ContentState, _ types.Config[ContentState]) (types.NodeResponse[ContentState], error) {
			prompt := fmt.Sprintf(
				"Rewrite the following summary as one polished paragraph. Keep every fact, drop nothing, add nothing:\n\n%s",
				s.Summary,
			)
			polished, err := llms.GenerateFromSinglePrompt(ctx, model, prompt, callOpts...)
			if err != nil {
				return types.NodeResponse[ContentState]{State: s, Status: types.StatusFailed},
					errors.Wrap(err, "polish step")
			}
			return types.NodeResponse[ContentState]{
				State:  ContentState{Summary: strings.TrimSpace(polished)},
				Status: types.StatusCompleted,
			}, nil
		}, map[string]any{"llm": true})
}

// NewAnalysisWorkflow builds the nested analysis flow: sentiment, then
// reading time.
func NewAnalysisWorkflow() (*workflow.Builder[ContentState], error) {
	wf := workflow.NewBuilder[ContentState]("analysis")
	err := wf.AddAgent(NewSentimentAgent()).
		AsEntryPoint().
		Then(NewReadingTimeAgent()).
		End()
	if err != nil {
		return nil, errors.Wrap(err, "analysis workflow")
	}
	return wf, nil
}

// NewPipeline builds the demo pipeline: ingest, the nested analysis
// workflow, then the summary step. When a model is supplied, a polish
// step rewrites the summary before the run ends; callOpts are forwarded
// to that model call.
func NewPipeline(model llms.Model, callOpts ...llms.CallOption) (*workflow.Builder[ContentState], error) {
	analysis, err := NewAnalysisWorkflow()
	if err != nil {
		return nil, err
	}

	wf := workflow.NewBuilder[ContentState]("content-pipeline")
	flow := wf.AddAgent(NewIngestAgent()).
		AsEntryPoint().
		ThenSubWorkflow(analysis).
		Then(NewSummaryAgent(DefaultSummaryWords))
	if model != nil {
		flow = flow.Then(NewPolishAgent(model, callOpts...))
	}
	if err := flow.End(); err != nil {
		return nil, errors.Wrap(err, "content pipeline")
	}
	return wf, nil
}
