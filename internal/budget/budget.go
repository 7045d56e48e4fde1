// Package budget provides token budget estimation for prompts built from
// retrieved passages. Because several LLM backends with different tokenizers
// are supported, this package uses a conservative character-based heuristic:
// 1 token ≈ 4 characters (English prose and code).
package budget

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation.
	charsPerToken = 4

	// messageOverhead approximates the per-message framing most chat APIs add.
	messageOverhead = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// It fits 8k-context models while leaving room for the output.
	DefaultMaxContextTokens = 6000

	// PassageSeparator joins passages into a single context block.
	PassageSeparator = "\n\n"
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		total += messageOverhead
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// FitPassages drops passages from the end of the ranked slice until fixed
// plus the joined passages fits within maxTokens. passages must be ordered
// most relevant first. fixed holds the prompt without its context block and
// is never trimmed. A maxTokens of zero or less disables trimming.
//
// The returned slice shares its backing array with passages. When even a
// single passage does not fit, the result is empty.
func FitPassages(fixed []*schema.Message, passages []string, maxTokens int) []string {
	if maxTokens <= 0 || len(passages) == 0 {
		return passages
	}

	fixedTokens := EstimateMessages(fixed)
	for len(passages) > 0 {
		if fixedTokens+Estimate(strings.Join(passages, PassageSeparator)) <= maxTokens {
			break
		}
		passages = passages[:len(passages)-1]
	}
	return passages
}

// JoinPassages concatenates passages into the context block of a prompt.
func JoinPassages(passages []string) string {
	return strings.Join(passages, PassageSeparator)
}
