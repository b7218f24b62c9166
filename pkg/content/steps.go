package content

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultSummaryWords is the word budget for the extractive summary step.
	DefaultSummaryWords = 40

	// Average adult reading speed used for the reading-time estimate.
	wordsPerMinute = 200

	// Rough bytes-per-token ratio used when no encoding is available.
	fallbackBytesPerToken = 4

	wordCutset = ".,!?;:'\"()[]"
)

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "amazing": {}, "wonderful": {},
	"fantastic": {}, "love": {}, "happy": {}, "delightful": {}, "impressive": {},
	"helpful": {}, "reliable": {}, "smooth": {}, "fast": {}, "clear": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "horrible": {}, "poor": {},
	"hate": {}, "sad": {}, "broken": {}, "slow": {}, "confusing": {},
	"buggy": {}, "unreliable": {}, "worst": {}, "frustrating": {}, "useless": {},
}

// scoreSentiment matches words against small positive and negative lexicons
// and classifies the text by the net score.
func scoreSentiment(text string) (string, int) {
	score := 0
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, wordCutset)
		if _, ok := positiveWords[word]; ok {
			score++
		}
		if _, ok := negativeWords[word]; ok {
			score--
		}
	}

	switch {
	case score > 0:
		return "positive", score
	case score < 0:
		return "negative", score
	default:
		return "neutral", score
	}
}

// summarize keeps the first maxWords words of the text, cutting on word
// boundaries only. The second return reports whether anything was dropped.
func summarize(text string, maxWords int) (string, bool) {
	if maxWords <= 0 {
		maxWords = DefaultSummaryWords
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.Join(words, " "), false
	}
	return strings.Join(words[:maxWords], " ") + "...", true
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

// readingTime estimates whole minutes at wordsPerMinute, never below one.
func readingTime(words int) int {
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// countTokens counts cl100k_base tokens. When the encoding cannot be
// loaded (offline environments), it falls back to a bytes/4 estimate.
func countTokens(text string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return
		}
		encoding = enc
	})
	if encoding == nil {
		return len(text) / fallbackBytesPerToken
	}
	return len(encoding.Encode(text, nil, nil))
}
