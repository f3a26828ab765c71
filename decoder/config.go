// Package decoder implements a lexicon-constrained, frame-synchronous beam
// search over acoustic emission scores, with language model fusion and
// streaming prune/backtrack support.
package decoder

import "github.com/ieee0824/lexbeam-go/internal/mathutil"

// CriterionType selects how emission frames extend hypotheses.
type CriterionType int

const (
	// CTC emits a dedicated blank token and collapses repeated tokens.
	CTC CriterionType = iota
	// ASG has no blank; token-to-token transitions carry a trained score.
	ASG
)

// Config holds beam search parameters.
type Config struct {
	BeamSize      int     // hypotheses kept per frame after merging
	BeamSizeToken int     // emission tokens expanded per frame
	BeamThreshold float64 // score gap below the frame best beyond which candidates are dropped
	LMWeight      float64 // language model scaling factor
	WordScore     float64 // bonus applied at word emission
	UnkScore      float64 // bonus at unknown-word emission; LogZero disables it
	SilScore      float64 // bonus whenever the silence token is emitted
	LogAdd        bool    // merge equivalent hypotheses by log-add instead of max
	Criterion     CriterionType
}

// DefaultConfig returns reasonable default parameters.
func DefaultConfig() Config {
	return Config{
		BeamSize:      500,
		BeamSizeToken: 30,
		BeamThreshold: 100.0,
		LMWeight:      1.0,
		WordScore:     0.0,
		UnkScore:      mathutil.LogZero,
		SilScore:      0.0,
		LogAdd:        false,
		Criterion:     CTC,
	}
}
