package content

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/paceline/paceline/pkg/llm"
	"github.com/paceline/paceline/pkg/workflow"
)

func TestScoreSentiment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		label string
		score int
	}{
		{
			name:  "positive",
			text:  "The release was excellent and the support team is helpful.",
			label: "positive",
			score: 2,
		},
		{
			name:  "negative",
			text:  "A terrible, buggy build. The upgrade was frustrating.",
			label: "negative",
			score: -3,
		},
		{
			name:  "neutral",
			text:  "The service restarts every night at two.",
			label: "neutral",
			score: 0,
		},
		{
			name:  "mixed_cancels_out",
			text:  "Great hardware, awful software.",
			label: "neutral",
			score: 0,
		},
		{
			name:  "case_and_punctuation",
			text:  "GOOD. Really GOOD!",
			label: "positive",
			score: 2,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			label, score := scoreSentiment(tc.text)
			assert.Equal(t, tc.label, label)
			assert.Equal(t, tc.score, score)
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("short_text_untouched", func(t *testing.T) {
		t.Parallel()
		summary, truncated := summarize("just a few words", 10)
		assert.Equal(t, "just a few words", summary)
		assert.False(t, truncated)
	})

	t.Run("cuts_on_word_boundary", func(t *testing.T) {
		t.Parallel()
		summary, truncated := summarize("one two three four five", 3)
		assert.Equal(t, "one two three...", summary)
		assert.True(t, truncated)
	})

	t.Run("zero_budget_uses_default", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("word ", DefaultSummaryWords+5)
		summary, truncated := summarize(long, 0)
		assert.True(t, truncated)
		assert.Len(t, strings.Fields(summary), DefaultSummaryWords)
	})
}

func TestReadingTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, readingTime(1))
	assert.Equal(t, 1, readingTime(200))
	assert.Equal(t, 2, readingTime(201))
	assert.Equal(t, 5, readingTime(1000))
	assert.Equal(t, 1, readingTime(0))
}

func TestCountTokens(t *testing.T) {
	t.Parallel()

	// Exact counts depend on whether the encoding could be loaded, so only
	// the shape of the estimate is asserted.
	n := countTokens("The quick brown fox jumps over the lazy dog near the river bank.")
	assert.Positive(t, n)
}

func TestContentState(t *testing.T) {
	t.Parallel()

	t.Run("validate_requires_text", func(t *testing.T) {
		t.Parallel()
		require.Error(t, ContentState{}.Validate())
		require.Error(t, ContentState{Text: "   "}.Validate())
		require.NoError(t, ContentState{Text: "hello"}.Validate())
	})

	t.Run("merge_keeps_neutral_score", func(t *testing.T) {
		t.Parallel()
		base := ContentState{Text: "t", Sentiment: "positive", SentimentScore: 3}
		merged := base.Merge(ContentState{Sentiment: "neutral", SentimentScore: 0})
		assert.Equal(t, "neutral", merged.Sentiment)
		assert.Equal(t, 0, merged.SentimentScore)
	})

	t.Run("merge_truncated_is_sticky", func(t *testing.T) {
		t.Parallel()
		base := ContentState{Text: "t", Truncated: true}
		merged := base.Merge(ContentState{Summary: "rewritten"})
		assert.True(t, merged.Truncated)
		assert.Equal(t, "rewritten", merged.Summary)
	})
}

func TestAnalysisWorkflow(t *testing.T) {
	t.Parallel()

	wf, err := NewAnalysisWorkflow()
	require.NoError(t, err)

	app, err := workflow.NewApp(wf)
	require.NoError(t, err)

	out, err := app.Invoke(context.Background(), ContentState{
		Text: "An excellent and reliable tool, a delightful surprise.",
	})
	require.NoError(t, err)
	assert.Equal(t, "positive", out.Sentiment)
	assert.Equal(t, 3, out.SentimentScore)
	assert.Equal(t, 1, out.ReadingTime)
}

func TestPipelineWithoutModel(t *testing.T) {
	t.Parallel()

	wf, err := NewPipeline(nil)
	require.NoError(t, err)

	app, err := workflow.NewApp(wf)
	require.NoError(t, err)

	text := "The new release is excellent and the team did a wonderful job.\n" +
		strings.Repeat("Another paragraph keeps adding plain filler words here. ", 12)

	out, err := app.Invoke(context.Background(), ContentState{Text: text})
	require.NoError(t, err)

	assert.Equal(t, "positive", out.Sentiment)
	assert.Positive(t, out.WordCount)
	assert.Positive(t, out.TokenCount)
	assert.Equal(t, 1, out.ReadingTime)
	assert.True(t, out.Truncated)
	assert.True(t, strings.HasPrefix(out.Summary, "The new release is excellent"))
	assert.True(t, strings.HasSuffix(out.Summary, "..."))
	assert.Len(t, strings.Fields(out.Summary), DefaultSummaryWords)
	// Ingest normalized the line break away
	assert.NotContains(t, out.Text, "\n")
}

func TestPipelineWithPolish(t *testing.T) {
	t.Parallel()

	model := llm.NewScriptedModel("A calm, polished summary.")
	wf, err := NewPipeline(model)
	require.NoError(t, err)

	app, err := workflow.NewApp(wf)
	require.NoError(t, err)

	text := strings.Repeat("Plenty of descriptive words flow through this passage today. ", 8)
	out, err := app.Invoke(context.Background(), ContentState{Text: text})
	require.NoError(t, err)

	assert.Equal(t, "A calm, polished summary.", out.Summary)
	assert.Equal(t, 1, model.CallCount())
	require.Len(t, model.Calls(), 1)
	assert.Contains(t, textOfCall(t, model.Calls()[0]), "Rewrite the following summary")
}

func textOfCall(t *testing.T, call llm.ScriptedCall) string {
	t.Helper()
	var sb strings.Builder
	for _, msg := range call.Messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				sb.WriteString(text.Text)
			}
		}
	}
	return sb.String()
}
