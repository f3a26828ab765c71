package decoder

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ieee0824/lexbeam-go/internal/mathutil"
	"github.com/ieee0824/lexbeam-go/language"
	"github.com/ieee0824/lexbeam-go/lexicon"
)

// LexiconDecoder is a frame-synchronous beam search constrained by a lexicon
// trie with language model fusion. Drive it as DecodeBegin, any number of
// DecodeStep (optionally interleaved with Prune for streaming), then
// DecodeEnd.
//
// A decoder instance must be used by one goroutine at a time. Independent
// instances may run in parallel and share the trie.
type LexiconDecoder struct {
	cfg         Config
	trie        *lexicon.Trie
	lm          language.Model
	sil         int
	blank       int
	unk         int
	transitions []float64 // N x N, indexed [to*N + from]; ASG only
	tokenLM     bool      // LM is queried over tokens instead of words

	// hyp[f] is the beam at decoded frame f relative to the prune base.
	// Frame 0 holds the initial (or rebased) states.
	hyp      [][]*State
	cands    candidateBuffer
	lmStates []language.State
	tokIdx   []int

	nDecodedFrames int
	nPrunedFrames  int
}

// NewLexiconDecoder creates a decoder. transitions is the row-major N x N
// ASG transition matrix; it is ignored under CTC. tokenLM selects whether
// the language model is queried over acoustic tokens or over words.
func NewLexiconDecoder(cfg Config, trie *lexicon.Trie, lm language.Model, sil, blank, unk int, transitions []float64, tokenLM bool) (*LexiconDecoder, error) {
	if cfg.BeamSize <= 0 {
		return nil, fmt.Errorf("beam size must be positive, got %d", cfg.BeamSize)
	}
	if cfg.BeamSizeToken <= 0 {
		return nil, fmt.Errorf("token beam size must be positive, got %d", cfg.BeamSizeToken)
	}
	if cfg.Criterion == ASG && len(transitions) == 0 {
		return nil, errors.New("ASG criterion requires a transition matrix")
	}
	return &LexiconDecoder{
		cfg:         cfg,
		trie:        trie,
		lm:          lm,
		sil:         sil,
		blank:       blank,
		unk:         unk,
		transitions: transitions,
		tokenLM:     tokenLM,
	}, nil
}

// DecodeBegin seeds the buffer with the initial hypothesis and resets the
// frame counters.
func (d *LexiconDecoder) DecodeBegin() {
	d.hyp = d.hyp[:0]
	d.hyp = append(d.hyp, []*State{{
		Score:   0,
		LMState: d.lm.Start(false),
		Lex:     d.trie.Root(),
		Token:   d.sil,
		Word:    -1,
	}})
	d.nDecodedFrames = 0
	d.nPrunedFrames = 0
}

// DecodeStep consumes T frames of a row-major T x N emission matrix,
// appending one decoded frame per time step.
func (d *LexiconDecoder) DecodeStep(emissions []float64, T, N int) {
	start := d.nDecodedFrames - d.nPrunedFrames
	d.ensureFrames(start + T + 2)

	if cap(d.tokIdx) < N {
		d.tokIdx = make([]int, N)
	}
	idx := d.tokIdx[:N]

	for t := 0; t < T; t++ {
		frame := emissions[t*N : (t+1)*N]

		// Expansion considers only the strongest BeamSizeToken tokens of
		// this frame.
		for i := range idx {
			idx[i] = i
		}
		if N > d.cfg.BeamSizeToken {
			sort.Slice(idx, func(a, b int) bool {
				return frame[idx[a]] > frame[idx[b]]
			})
		}
		nTok := d.cfg.BeamSizeToken
		if nTok > N {
			nTok = N
		}

		d.cands.reset(d.cfg.BeamThreshold)
		for _, p := range d.hyp[start+t] {
			d.expand(p, frame, N, idx[:nTok], d.nDecodedFrames+t)
		}
		d.hyp[start+t+1] = d.cands.store(d.hyp[start+t+1], d.cfg.BeamSize, d.cfg.LogAdd)
		d.warmLMCache(d.hyp[start+t+1])
	}

	d.nDecodedFrames += T
}

// expand applies the three expansion rules to one previous-frame hypothesis.
func (d *LexiconDecoder) expand(p *State, emit []float64, N int, topTokens []int, step int) {
	root := d.trie.Root()
	prevLex := p.Lex
	prevTok := p.Token

	lexMax := 0.0
	if prevLex != root {
		lexMax = prevLex.MaxScore
	}

	// (1) Advance into the trie.
	for _, n := range topTokens {
		c, ok := prevLex.Children[n]
		if !ok {
			continue
		}

		score := p.Score + emit[n]
		if step > 0 && d.cfg.Criterion == ASG {
			score += d.transitions[n*N+prevTok]
		}
		if n == d.sil {
			score += d.cfg.SilScore
		}

		var lmState language.State
		var lmScore float64
		if d.tokenLM {
			lmState, lmScore = d.lm.Score(p.LMState, n)
		}

		// Under CTC a repeated token without an intervening blank stays
		// on its node via rule (2); consuming it again is suppressed.
		if d.cfg.Criterion != CTC || p.PrevBlank || n != prevTok {
			// Keep spelling the word.
			if len(c.Children) > 0 {
				if !d.tokenLM {
					lmState = p.LMState
					lmScore = c.MaxScore - lexMax
				}
				d.cands.add(lmState, c, p, score+d.cfg.LMWeight*lmScore, n, -1, false)
			}

			// Words whose spelling completes at this node.
			for _, w := range c.Labels {
				if !d.tokenLM {
					lmState, lmScore = d.lm.Score(p.LMState, w)
					lmScore -= lexMax
				}
				d.cands.add(lmState, root, p, score+d.cfg.LMWeight*lmScore+d.cfg.WordScore, n, w, false)
			}

			// No word ends here: optionally emit the unknown word.
			if len(c.Labels) == 0 && d.cfg.UnkScore > mathutil.LogZero {
				if !d.tokenLM {
					lmState, lmScore = d.lm.Score(p.LMState, d.unk)
					lmScore -= lexMax
				}
				d.cands.add(lmState, root, p, score+d.cfg.LMWeight*lmScore+d.cfg.UnkScore, n, d.unk, false)
			}
		}
	}

	// (2) Stay on the current trie node. Under CTC this is how a repeated
	// token extends the hypothesis; it is skipped right after a blank.
	if d.cfg.Criterion != CTC || !p.PrevBlank {
		n := prevTok
		score := p.Score + emit[n]
		if step > 0 && d.cfg.Criterion == ASG {
			score += d.transitions[n*N+prevTok]
		}
		if n == d.sil {
			score += d.cfg.SilScore
		}
		d.cands.add(p.LMState, prevLex, p, score, n, -1, false)
	}

	// (3) Blank, CTC only. No transition, silence or LM contribution.
	if d.cfg.Criterion == CTC {
		d.cands.add(p.LMState, prevLex, p, p.Score+emit[d.blank], d.blank, -1, true)
	}
}

// DecodeEnd expands the last beam once more with the LM finish score. When
// some hypothesis sits at the trie root, only root hypotheses are extended;
// otherwise every mid-word hypothesis is.
func (d *LexiconDecoder) DecodeEnd() {
	cur := d.nDecodedFrames - d.nPrunedFrames
	d.ensureFrames(cur + 2)
	d.cands.reset(d.cfg.BeamThreshold)

	root := d.trie.Root()
	hasNiceEnding := false
	for _, p := range d.hyp[cur] {
		if p.Lex == root {
			hasNiceEnding = true
			break
		}
	}

	for _, p := range d.hyp[cur] {
		if !hasNiceEnding || p.Lex == root {
			lmState, s := d.lm.Finish(p.LMState)
			d.cands.add(lmState, p.Lex, p, p.Score+d.cfg.LMWeight*s, d.sil, -1, false)
		}
	}

	d.hyp[cur+1] = d.cands.store(d.hyp[cur+1], d.cfg.BeamSize, d.cfg.LogAdd)
	d.nDecodedFrames++
}

// NHypothesis returns the number of hypotheses in the current beam.
func (d *LexiconDecoder) NHypothesis() int {
	return len(d.hyp[d.nDecodedFrames-d.nPrunedFrames])
}

// NDecodedFramesInBuffer returns the number of frames currently held,
// including the initial one.
func (d *LexiconDecoder) NDecodedFramesInBuffer() int {
	return d.nDecodedFrames - d.nPrunedFrames + 1
}

// GetAllFinalHypothesis returns every hypothesis of the final beam, best
// first.
func (d *LexiconDecoder) GetAllFinalHypothesis() []Result {
	finalFrame := d.nDecodedFrames - d.nPrunedFrames
	if finalFrame < 1 {
		return nil
	}
	return getAllHypothesis(d.hyp[finalFrame], finalFrame)
}

// GetBestHypothesis returns the best decoding decision lookBack frames
// behind the current one. Within a streaming window this decision is stable:
// later frames can no longer change it once Prune has passed it.
func (d *LexiconDecoder) GetBestHypothesis(lookBack int) Result {
	if d.nDecodedFrames-d.nPrunedFrames-lookBack < 1 {
		return Result{}
	}
	cur := d.nDecodedFrames - d.nPrunedFrames
	best := findBestAncestor(d.hyp[cur], lookBack)
	return getHypothesis(best, cur-lookBack)
}

// Prune drops frames older than lookBack behind the current one, rebasing
// the buffer on the best ancestor and subtracting its score so ongoing
// arithmetic stays bounded. With insufficient history it returns without
// effect.
func (d *LexiconDecoder) Prune(lookBack int) {
	if d.nDecodedFrames-d.nPrunedFrames-lookBack < 1 {
		return
	}
	cur := d.nDecodedFrames - d.nPrunedFrames
	base := findBestAncestor(d.hyp[cur], lookBack)
	if base == nil {
		return
	}
	baseScore := base.Score

	start := cur - lookBack
	copy(d.hyp, d.hyp[start:cur+1])
	for i := lookBack + 1; i < len(d.hyp); i++ {
		d.hyp[i] = nil
	}
	d.hyp = d.hyp[:lookBack+1]

	for _, s := range d.hyp[0] {
		s.Parent = nil
	}
	for _, frame := range d.hyp {
		for _, s := range frame {
			s.Score -= baseScore
		}
	}

	d.nPrunedFrames = d.nDecodedFrames - lookBack
}

func (d *LexiconDecoder) ensureFrames(n int) {
	for len(d.hyp) < n {
		d.hyp = append(d.hyp, nil)
	}
}

// warmLMCache hands the LM the states of the freshly formed beam so it can
// precompute what the next frame will ask for.
func (d *LexiconDecoder) warmLMCache(beam []*State) {
	d.lmStates = d.lmStates[:0]
	for _, s := range beam {
		d.lmStates = append(d.lmStates, s.LMState)
	}
	d.lm.UpdateCache(d.lmStates)
}
