package state

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

var ErrNoMessages = errors.New("no messages")

// MessagesState carries a conversation as an ordered message list.
// Merging appends, so nodes should return only the messages they added.
type MessagesState struct {
	Messages []llms.MessageContent `json:"messages"`
}

// NewMessagesState builds a state from an initial set of messages.
func NewMessagesState(messages ...llms.MessageContent) MessagesState {
	return MessagesState{Messages: messages}
}

// WithHumanMessage builds a single-message state from a user prompt.
func WithHumanMessage(text string) MessagesState {
	return NewMessagesState(llms.TextParts(schema.ChatMessageTypeHuman, text))
}

// WithAIMessage builds a single-message state from a model reply.
func WithAIMessage(text string) MessagesState {
	return NewMessagesState(llms.TextParts(schema.ChatMessageTypeAI, text))
}

func (m MessagesState) Validate() error {
	// TODO add proper llms.MessageContent sequence validation
	if len(m.Messages) == 0 {
		return ErrNoMessages
	}
	return nil
}

// Merge appends the other conversation after this one.
func (m MessagesState) Merge(other MessagesState) MessagesState {
	merged := make([]llms.MessageContent, 0, len(m.Messages)+len(other.Messages))
	merged = append(merged, m.Messages...)
	merged = append(merged, other.Messages...)
	return MessagesState{Messages: merged}
}

// Clone returns an independent copy of the conversation.
func (m MessagesState) Clone() MessagesState {
	return MessagesState{
		Messages: append([]llms.MessageContent{}, m.Messages...),
	}
}

// LastText returns the text of the most recent message, or "" when the
// conversation is empty or the last message has no text part.
func (m MessagesState) LastText() string {
	if len(m.Messages) == 0 {
		return ""
	}
	last := m.Messages[len(m.Messages)-1]
	for _, part := range last.Parts {
		if tc, ok := part.(llms.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func (m MessagesState) Dump() ([]byte, error) {
	return json.Marshal(m)
}

func (m MessagesState) Load(data []byte) (MessagesState, error) {
	var st MessagesState
	if err := json.Unmarshal(data, &st); err != nil {
		return MessagesState{}, errors.Wrap(err, "load messages state")
	}
	return st, nil
}
