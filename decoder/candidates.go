package decoder

import (
	"sort"

	"github.com/ieee0824/lexbeam-go/internal/mathutil"
	"github.com/ieee0824/lexbeam-go/language"
	"github.com/ieee0824/lexbeam-go/lexicon"
)

// candidateBuffer stages the raw candidates of one frame before pruning,
// merging and top-K selection. It is reused across frames: reset clears it
// without freeing.
type candidateBuffer struct {
	cands     []State
	ptrs      []*State
	best      float64
	threshold float64
}

func (c *candidateBuffer) reset(threshold float64) {
	c.cands = c.cands[:0]
	c.ptrs = c.ptrs[:0]
	c.best = mathutil.LogZero
	c.threshold = threshold
}

// add stages one candidate if it is within threshold of the best score
// offered so far this frame. Rejected candidates are dropped silently. The
// running best is the maximum ever offered, accepted or not.
func (c *candidateBuffer) add(lmState language.State, lex *lexicon.TrieNode, parent *State, score float64, token, word int, prevBlank bool) {
	if score > c.best {
		c.best = score
	}
	if !(score > mathutil.LogZero && score >= c.best-c.threshold) {
		return
	}
	c.cands = append(c.cands, State{
		Score:     score,
		LMState:   lmState,
		Lex:       lex,
		Parent:    parent,
		Token:     token,
		Word:      word,
		PrevBlank: prevBlank,
	})
}

// store prunes, merges and selects the beam for one frame into dst, in
// descending score order. dst is reused; the returned states are freshly
// allocated so later frames can hold them as parents.
func (c *candidateBuffer) store(dst []*State, beamSize int, logAdd bool) []*State {
	dst = dst[:0]
	if len(c.cands) == 0 {
		return dst
	}

	// The best may have improved after earlier appends; re-apply the
	// threshold over the whole staging vector.
	thr := c.best - c.threshold
	c.ptrs = c.ptrs[:0]
	for i := range c.cands {
		if c.cands[i].Score >= thr {
			c.ptrs = append(c.ptrs, &c.cands[i])
		}
	}

	// Sort by the equivalence key, score-descending within a run, then
	// sweep and collapse each run into its first (best-scoring) entry.
	sort.Slice(c.ptrs, func(i, j int) bool {
		cmp := compareNoScore(c.ptrs[i], c.ptrs[j])
		if cmp != 0 {
			return cmp > 0
		}
		return c.ptrs[i].Score > c.ptrs[j].Score
	})
	w := 1
	for i := 1; i < len(c.ptrs); i++ {
		if compareNoScore(c.ptrs[i], c.ptrs[w-1]) != 0 {
			c.ptrs[w] = c.ptrs[i]
			w++
		} else {
			mergeStates(c.ptrs[w-1], c.ptrs[i], logAdd)
		}
	}
	c.ptrs = c.ptrs[:w]

	// Top-K by score. Ties fall back to the equivalence key so two runs
	// over the same input produce identical beams.
	sort.Slice(c.ptrs, func(i, j int) bool {
		if c.ptrs[i].Score != c.ptrs[j].Score {
			return c.ptrs[i].Score > c.ptrs[j].Score
		}
		return compareNoScore(c.ptrs[i], c.ptrs[j]) > 0
	})
	n := len(c.ptrs)
	if n > beamSize {
		n = beamSize
	}
	for _, p := range c.ptrs[:n] {
		s := new(State)
		*s = *p
		dst = append(dst, s)
	}
	return dst
}
