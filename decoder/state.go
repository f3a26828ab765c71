package decoder

import (
	"github.com/ieee0824/lexbeam-go/internal/mathutil"
	"github.com/ieee0824/lexbeam-go/language"
	"github.com/ieee0824/lexbeam-go/lexicon"
)

// State is one partial hypothesis: the accumulated log score, the language
// model context, the position in the lexicon trie, and the token and word
// emitted at this frame (Word is -1 on frames without a word emission).
// Parent links the hypothesis at the previous frame; walking the chain
// recovers the alignment.
type State struct {
	Score     float64
	LMState   language.State
	Lex       *lexicon.TrieNode
	Parent    *State
	Token     int
	Word      int
	PrevBlank bool
}

// compareNoScore orders states by (LM state, lexicon node, token, prevBlank).
// This is the merge equivalence key: states comparing equal describe the same
// decoding future and are collapsed into one.
func compareNoScore(a, b *State) int {
	if c := a.LMState.Compare(b.LMState); c != 0 {
		return c
	}
	if a.Lex != b.Lex {
		if a.Lex.ID() > b.Lex.ID() {
			return 1
		}
		return -1
	}
	if a.Token != b.Token {
		if a.Token > b.Token {
			return 1
		}
		return -1
	}
	if a.PrevBlank != b.PrevBlank {
		if a.PrevBlank {
			return 1
		}
		return -1
	}
	return 0
}

// mergeStates folds b into a. Callers order runs score-descending, so a is
// the higher-scoring representative and keeps its parent.
func mergeStates(a, b *State, logAdd bool) {
	if logAdd {
		a.Score = mathutil.LogAdd(a.Score, b.Score)
	} else if b.Score > a.Score {
		a.Score = b.Score
	}
}
