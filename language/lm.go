// Package language defines the language-model contract used by the decoder
// and provides implementations of it: a trivial uniform model and a backoff
// n-gram model loadable from ARPA files.
package language

// State identifies the conditioning context of a Model. States are opaque
// value handles: the decoder orders them to merge equivalent hypotheses and
// uses Key as a map key when caching scores.
type State interface {
	// Compare returns a negative, zero or positive value; it is a total
	// order over the states of one Model.
	Compare(other State) int
	// Key returns a stable identity string. Two states have equal keys
	// exactly when Compare returns zero.
	Key() string
}

// Model scores token or word sequences incrementally. An implementation must
// tolerate serial reuse by a single decoder; distinct decoders should hold
// distinct Model values unless the implementation documents otherwise.
type Model interface {
	// Start returns the initial state. With withNothing false the state
	// carries the sentence-begin context; with true it is empty.
	Start(withNothing bool) State
	// Score extends s with the vocabulary index idx and returns the new
	// state together with the log probability of the extension.
	Score(s State, idx int) (State, float64)
	// Finish applies the sentence-end probability to s.
	Finish(s State) (State, float64)
	// UpdateCache offers the states of a freshly formed beam so the model
	// can precompute scores the next frame will ask for. Models whose
	// lookups are already cheap ignore it.
	UpdateCache(states []State)
}
