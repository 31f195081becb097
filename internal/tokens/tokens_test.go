package tokens_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppgranger/token-saver/internal/tokens"
)

func TestFromCharsRoundsToNearest(t *testing.T) {
	e := tokens.NewEstimator(4)

	assert.Equal(t, 0, e.FromChars(0))
	assert.Equal(t, 0, e.FromChars(-5))
	assert.Equal(t, 1, e.FromChars(1))
	assert.Equal(t, 1, e.FromChars(4))
	assert.Equal(t, 2, e.FromChars(6))
	assert.Equal(t, 25, e.FromChars(100))
}

func TestFromCharsClampsDivisor(t *testing.T) {
	e := tokens.NewEstimator(0)
	assert.Equal(t, 100, e.FromChars(100))
}

func TestCountNeverZeroForText(t *testing.T) {
	e := tokens.NewEstimator(4)
	// Exact or heuristic, some text is always at least one token.
	assert.GreaterOrEqual(t, e.Count("hello world"), 1)
	assert.Equal(t, 0, e.Count(""))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 tokens"},
		{512, "512 tokens"},
		{999, "999 tokens"},
		{1_000, "1.0k tokens"},
		{3_400, "3.4k tokens"},
		{999_949, "999.9k tokens"},
		{1_200_000, "1.2M tokens"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tokens.Format(tc.n), "n=%d", tc.n)
	}
}
