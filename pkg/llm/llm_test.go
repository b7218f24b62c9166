package llm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeLimiter struct {
	mu    sync.Mutex
	waits int
	err   error
}

func (f *fakeLimiter) Wait(_ context.Context) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits++
	return 0, f.err
}

func (f *fakeLimiter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waits
}

func TestPacedModelWaitsBeforeEachCall(t *testing.T) {
	t.Parallel()

	limiter := &fakeLimiter{}
	scripted := NewScriptedModel("alpha", "beta")
	model := NewPacedModel(scripted, limiter)

	resp, err := model.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, "one"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alpha", resp.Choices[0].Content)

	out, err := model.Call(context.Background(), "two")
	require.NoError(t, err)
	assert.Equal(t, "beta", out)

	assert.Equal(t, 2, limiter.count())
	assert.Equal(t, 2, scripted.CallCount())
}

func TestPacedModelStopsOnLimiterError(t *testing.T) {
	t.Parallel()

	limiter := &fakeLimiter{err: errors.New("slot cancelled")}
	scripted := NewScriptedModel("never")
	model := NewPacedModel(scripted, limiter)

	_, err := model.GenerateContent(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pacing wait aborted")
	assert.Zero(t, scripted.CallCount(), "model must not be called when the limiter refuses")
}

func TestPacedModelNilLimiter(t *testing.T) {
	t.Parallel()

	scripted := NewScriptedModel("free")
	model := NewPacedModel(scripted, nil)

	out, err := model.Call(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "free", out)
}

func TestScriptedModelPlaysResponsesInOrder(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	model := NewScriptedModelWith([]string{"first", "second"}, WithScriptedClock(clock))

	for _, want := range []string{"first", "second", "second"} {
		resp, err := model.GenerateContent(context.Background(), []llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeHuman, "prompt"),
		})
		require.NoError(t, err)
		assert.Equal(t, want, resp.Choices[0].Content)
	}

	calls := model.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, base.Add(time.Second), calls[0].At)
	assert.Equal(t, base.Add(3*time.Second), calls[2].At)
	require.Len(t, calls[0].Messages, 1)
}

func TestScriptedModelSynthesizesWithoutScript(t *testing.T) {
	t.Parallel()

	model := NewScriptedModel()
	out, err := model.Call(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "scripted response 1", out)
}

func TestNewProvider(t *testing.T) {
	t.Run("defaults_to_scripted", func(t *testing.T) {
		model, err := New(ProviderConfig{})
		require.NoError(t, err)
		_, ok := model.(*ScriptedModel)
		assert.True(t, ok)
	})

	t.Run("openai_without_key_degrades", func(t *testing.T) {
		model, err := New(ProviderConfig{
			Provider:  ProviderOpenAI,
			APIKeyEnv: "PACELINE_TEST_KEY_THAT_IS_NOT_SET",
		})
		require.NoError(t, err)
		_, ok := model.(*ScriptedModel)
		assert.True(t, ok, "missing key should fall back to the scripted model")
	})

	t.Run("unknown_provider", func(t *testing.T) {
		_, err := New(ProviderConfig{Provider: "carrier-pigeon"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown model provider")
	})
}
