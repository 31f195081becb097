// Package tokens estimates token counts for savings reporting.
//
// DESIGN: Exact counts come from tiktoken (cl100k_base). Loading the encoding
// can touch the network on first use, so the estimator initializes lazily and
// degrades to the chars-per-token heuristic when the encoding is unavailable.
// Token counts here feed stats display only, never compression decisions, so
// the heuristic is an acceptable floor.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Estimator converts text and character counts into token estimates.
type Estimator struct {
	charsPerToken int

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewEstimator returns an estimator that divides by charsPerToken whenever
// the tiktoken encoding cannot be loaded.
func NewEstimator(charsPerToken int) *Estimator {
	if charsPerToken < 1 {
		charsPerToken = 1
	}
	return &Estimator{charsPerToken: charsPerToken}
}

func (e *Estimator) encoding() *tiktoken.Tiktoken {
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding(encodingName)
		if err != nil {
			return
		}
		e.enc = enc
	})
	return e.enc
}

// Count returns the token count of text: exact when the encoding loaded,
// otherwise the character heuristic.
func (e *Estimator) Count(text string) int {
	if enc := e.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return e.FromChars(len(text))
}

// Exact reports whether Count returns real tiktoken counts rather than the
// chars-per-token heuristic.
func (e *Estimator) Exact() bool {
	return e.encoding() != nil
}

// FromChars estimates tokens from a character count alone. Used for stored
// savings totals, where the original text is gone.
func (e *Estimator) FromChars(chars int) int {
	if chars <= 0 {
		return 0
	}
	n := (chars + e.charsPerToken/2) / e.charsPerToken
	if n < 1 {
		return 1
	}
	return n
}

// Format renders a token count for humans: 512 tokens, 3.4k tokens,
// 1.2M tokens.
func Format(n int) string {
	switch {
	case n < 1_000:
		return fmt.Sprintf("%d tokens", n)
	case n < 1_000_000:
		return fmt.Sprintf("%.1fk tokens", float64(n)/1_000)
	default:
		return fmt.Sprintf("%.1fM tokens", float64(n)/1_000_000)
	}
}
