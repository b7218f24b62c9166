// The demo content pipeline end to end: ingest, the nested analysis
// sub-workflow, an extractive summary and a scripted polish pass. Runs
// fully offline.
package main

import (
	"context"
	"fmt"

	"github.com/paceline/paceline/pkg/checkpoints"
	"github.com/paceline/paceline/pkg/content"
	"github.com/paceline/paceline/pkg/llm"
	"github.com/paceline/paceline/pkg/workflow"
)

const draft = `The paceline release brings excellent workflow primitives
and a wonderful approach to sharing one model budget. Every agent call is
spaced on a single timeline, so bursts from parallel branches drain at a
controlled rate instead of slamming the provider. The demo pipeline walks
a draft through sentiment analysis and reading time estimation inside a
nested sub-workflow, then cuts an extractive summary on a word budget.
With a model attached, a final polish pass rewrites that summary into one
smooth paragraph. Everything here runs offline against a scripted model,
which makes the whole flow fast, clear and reliable to poke at.`

func main() {
	model := llm.NewScriptedModel(
		"Paceline spaces every agent call on one shared timeline and walks drafts through analysis, summary and polish without touching a real provider.",
	)

	wf, err := content.NewPipeline(model)
	if err != nil {
		panic(fmt.Sprintf("Failed building pipeline: %v", err))
	}

	app, err := workflow.NewApp(wf,
		workflow.WithCheckpointStore[content.ContentState](checkpoints.NewMemoryStore[content.ContentState]()),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed creating app: %v", err))
	}

	app.PrintGraph()

	result, err := app.Invoke(context.Background(),
		content.ContentState{Text: draft},
		workflow.WithThreadID[content.ContentState]("pipeline-demo"),
	)
	if err != nil {
		fmt.Println("Invoke failed:", err)
		return
	}

	fmt.Printf("Sentiment:    %s (score %d)\n", result.Sentiment, result.SentimentScore)
	fmt.Printf("Words:        %d (%d tokens)\n", result.WordCount, result.TokenCount)
	fmt.Printf("Reading time: %d min\n", result.ReadingTime)
	fmt.Printf("Truncated:    %t\n", result.Truncated)
	fmt.Printf("Summary:      %s\n", result.Summary)
	fmt.Printf("Model calls:  %d\n", model.CallCount())
}
