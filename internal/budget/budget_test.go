package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 1},
		{"abcdefgh", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Estimate(tc.input), "Estimate(%q)", tc.input)
	}
}

func TestEstimateMessages(t *testing.T) {
	t.Parallel()

	// 4 overhead + 1 role + 2 content per message.
	msgs := []*schema.Message{
		schema.UserMessage("rated power"),
		schema.UserMessage("rated power"),
	}
	assert.Equal(t, 14, EstimateMessages(msgs))
}

func TestFitPassages_AllFit(t *testing.T) {
	t.Parallel()

	fixed := []*schema.Message{schema.UserMessage("Question: rated power?")}
	got := FitPassages(fixed, []string{"80 kVA rated", "IP67 enclosure"}, DefaultMaxContextTokens)
	assert.Len(t, got, 2)
}

func TestFitPassages_DropsLowestRanked(t *testing.T) {
	t.Parallel()

	// 40 chars is 10 tokens per passage. The fixed prompt costs 5, so a
	// budget of 26 leaves room for two passages and their separator.
	passages := []string{
		strings.Repeat("a", 40),
		strings.Repeat("b", 40),
		strings.Repeat("c", 40),
	}
	fixed := []*schema.Message{schema.UserMessage("")}

	got := FitPassages(fixed, passages, 26)
	require.Len(t, got, 2)
	assert.Equal(t, passages[:2], got)
}

func TestFitPassages_FixedExceedsBudget(t *testing.T) {
	t.Parallel()

	fixed := []*schema.Message{schema.UserMessage(strings.Repeat("x", 4*7000))}
	assert.Empty(t, FitPassages(fixed, []string{"a", "b"}, 6000))
}

func TestFitPassages_NoLimit(t *testing.T) {
	t.Parallel()

	got := FitPassages(nil, []string{strings.Repeat("x", 100000)}, 0)
	assert.Len(t, got, 1, "a zero budget disables trimming")
}

func TestJoinPassages(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "one\n\ntwo", JoinPassages([]string{"one", "two"}))
}
