package processors

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
)

const redactedMarker = "[REDACTED]"

// NormalizeWhitespace collapses runs of whitespace in every text part to
// single spaces and trims the ends.
func NormalizeWhitespace() Input {
	return func(_ context.Context, messages []llms.MessageContent) ([]llms.MessageContent, error) {
		out := make([]llms.MessageContent, len(messages))
		for i, msg := range messages {
			out[i] = mapTextParts(msg, func(text string) string {
				return strings.Join(strings.Fields(text), " ")
			})
		}
		return out, nil
	}
}

// ClampHistory keeps only the most recent max messages. A non-positive
// max passes the history through untouched.
func ClampHistory(max int) Input {
	return func(_ context.Context, messages []llms.MessageContent) ([]llms.MessageContent, error) {
		if max <= 0 || len(messages) <= max {
			return messages, nil
		}
		return messages[len(messages)-max:], nil
	}
}

// RedactPatterns replaces every match of the given regular expressions
// with a redaction marker. An invalid pattern surfaces as an error on
// first use.
func RedactPatterns(patterns ...string) Input {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	var compileErr error
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			compileErr = errors.Wrapf(err, "redact pattern %q", pattern)
			break
		}
		compiled = append(compiled, re)
	}

	return func(_ context.Context, messages []llms.MessageContent) ([]llms.MessageContent, error) {
		if compileErr != nil {
			return nil, compileErr
		}
		out := make([]llms.MessageContent, len(messages))
		for i, msg := range messages {
			out[i] = mapTextParts(msg, func(text string) string {
				for _, re := range compiled {
					text = re.ReplaceAllString(text, redactedMarker)
				}
				return text
			})
		}
		return out, nil
	}
}

// TrimOutput strips leading and trailing whitespace from the response.
func TrimOutput() Output {
	return func(_ context.Context, text string) (string, error) {
		return strings.TrimSpace(text), nil
	}
}

// TruncateOutput clamps the response to maxRunes runes. A non-positive
// limit passes the text through untouched.
func TruncateOutput(maxRunes int) Output {
	return func(_ context.Context, text string) (string, error) {
		if maxRunes <= 0 {
			return text, nil
		}
		runes := []rune(text)
		if len(runes) <= maxRunes {
			return text, nil
		}
		return string(runes[:maxRunes]), nil
	}
}

// mapTextParts applies fn to every text part of a message, leaving other
// part kinds alone.
func mapTextParts(msg llms.MessageContent, fn func(string) string) llms.MessageContent {
	parts := make([]llms.ContentPart, len(msg.Parts))
	for i, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			parts[i] = llms.TextContent{Text: fn(text.Text)}
		} else {
			parts[i] = part
		}
	}
	return llms.MessageContent{Role: msg.Role, Parts: parts}
}
