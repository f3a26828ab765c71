package language

// ZeroModel is the trivial language model: every extension has log
// probability zero. Decoding with it degenerates to a Viterbi search over
// the lexicon trie.
type ZeroModel struct{}

type zeroState struct{}

func (zeroState) Compare(State) int { return 0 }
func (zeroState) Key() string       { return "" }

// Start implements Model.
func (ZeroModel) Start(bool) State { return zeroState{} }

// Score implements Model.
func (ZeroModel) Score(s State, _ int) (State, float64) { return s, 0 }

// Finish implements Model.
func (ZeroModel) Finish(s State) (State, float64) { return s, 0 }

// UpdateCache implements Model.
func (ZeroModel) UpdateCache([]State) {}
