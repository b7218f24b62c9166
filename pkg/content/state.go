package content

import (
	"strings"

	"github.com/pkg/errors"
)

// ContentState carries a piece of text through the pipeline. Steps return
// deltas with only the fields they produced; Merge folds them in.
type ContentState struct {
	Text           string `json:"text"`
	Summary        string `json:"summary,omitempty"`
	Sentiment      string `json:"sentiment,omitempty"`
	SentimentScore int    `json:"sentiment_score,omitempty"`
	WordCount      int    `json:"word_count,omitempty"`
	ReadingTime    int    `json:"reading_time_minutes,omitempty"`
	TokenCount     int    `json:"token_count,omitempty"`
	Truncated      bool   `json:"truncated,omitempty"`
}

func (s ContentState) Validate() error {
	if strings.TrimSpace(s.Text) == "" {
		return errors.New("text cannot be empty")
	}
	return nil
}

// Merge folds a step's delta into the accumulated state. The sentiment
// score travels with its label so a neutral zero score survives the merge.
func (s ContentState) Merge(other ContentState) ContentState {
	if other.Text != "" {
		s.Text = other.Text
	}
	if other.Summary != "" {
		s.Summary = other.Summary
	}
	if other.Sentiment != "" {
		s.Sentiment = other.Sentiment
		s.SentimentScore = other.SentimentScore
	}
	if other.WordCount != 0 {
		s.WordCount = other.WordCount
	}
	if other.ReadingTime != 0 {
		s.ReadingTime = other.ReadingTime
	}
	if other.TokenCount != 0 {
		s.TokenCount = other.TokenCount
	}
	if other.Truncated {
		s.Truncated = true
	}
	return s
}
