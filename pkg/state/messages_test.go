package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func TestMessagesStateValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, MessagesState{}.Validate(), ErrNoMessages)
	require.NoError(t, WithHumanMessage("hello").Validate())
}

func TestMessagesStateMergeAppends(t *testing.T) {
	t.Parallel()

	conv := WithHumanMessage("what is pacing?")
	conv = conv.Merge(WithAIMessage("spacing calls apart"))
	conv = conv.Merge(WithHumanMessage("why?"))

	require.Len(t, conv.Messages, 3)
	assert.Equal(t, schema.ChatMessageTypeHuman, conv.Messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, conv.Messages[1].Role)
	assert.Equal(t, "why?", conv.LastText())
}

func TestMessagesStateMergeLeavesOriginal(t *testing.T) {
	t.Parallel()

	original := WithHumanMessage("one")
	merged := original.Merge(WithAIMessage("two"))

	require.Len(t, original.Messages, 1)
	require.Len(t, merged.Messages, 2)
}

func TestMessagesStateDumpLoad(t *testing.T) {
	t.Parallel()

	conv := WithHumanMessage("hello").Merge(WithAIMessage("hi"))

	data, err := conv.Dump()
	require.NoError(t, err)

	restored, err := MessagesState{}.Load(data)
	require.NoError(t, err)
	require.Len(t, restored.Messages, 2)
	assert.Equal(t, "hi", restored.LastText())
}

func TestMessagesStateLastTextEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", MessagesState{}.LastText())
}
