package language

import (
	"strings"

	"github.com/ieee0824/lexbeam-go/internal/mathutil"
)

// Reserved words in the n-gram vocabulary.
const (
	SentenceBegin = "<s>"
	SentenceEnd   = "</s>"
	UnknownWord   = "<unk>"
)

// NGramModel is a backoff n-gram language model over an indexed vocabulary.
// Probabilities are natural-log. The decoder-facing state is the truncated
// word history.
type NGramModel struct {
	Order    int                   // 2 for bigram, 3 for trigram
	Unigrams map[string]ngramEntry // word -> entry
	Bigrams  map[[2]string]ngramEntry
	Trigrams map[[3]string]ngramEntry

	// Vocab maps decoder indices to words. Indices outside the slice
	// (the decoder's unknown-word index in particular) resolve to
	// UnknownWord.
	Vocab []string

	// OOVLogProb is returned for words without a unigram entry. The
	// default LogZero makes out-of-vocabulary extensions unviable.
	OOVLogProb float64
}

type ngramEntry struct {
	LogProb    float64
	LogBackoff float64
}

// NewNGramModel creates an empty n-gram model.
func NewNGramModel(order int) *NGramModel {
	return &NGramModel{
		Order:      order,
		Unigrams:   make(map[string]ngramEntry),
		Bigrams:    make(map[[2]string]ngramEntry),
		Trigrams:   make(map[[3]string]ngramEntry),
		OOVLogProb: mathutil.LogZero,
	}
}

// ngramState holds the last Order-1 words of one hypothesis, oldest first.
// The joined key doubles as the cache identity and the comparison order.
type ngramState struct {
	hist []string
	key  string
}

func (s *ngramState) Compare(other State) int {
	return strings.Compare(s.key, other.(*ngramState).key)
}

func (s *ngramState) Key() string { return s.key }

func (m *NGramModel) newState(hist []string) *ngramState {
	return &ngramState{hist: hist, key: strings.Join(hist, "\x1f")}
}

// extend appends word to hist, keeping at most Order-1 entries (at least
// one). The result never aliases hist.
func (m *NGramModel) extend(hist []string, word string) []string {
	keep := m.Order - 1
	if keep < 1 {
		keep = 1
	}
	out := make([]string, 0, keep)
	if n := len(hist) - (keep - 1); n > 0 {
		hist = hist[n:]
	}
	out = append(out, hist...)
	return append(out, word)
}

// Word resolves a decoder index to its vocabulary word.
func (m *NGramModel) Word(idx int) string {
	if idx < 0 || idx >= len(m.Vocab) {
		return UnknownWord
	}
	return m.Vocab[idx]
}

// Start implements Model.
func (m *NGramModel) Start(withNothing bool) State {
	if withNothing {
		return m.newState(nil)
	}
	return m.newState([]string{SentenceBegin})
}

// Score implements Model.
func (m *NGramModel) Score(s State, idx int) (State, float64) {
	st := s.(*ngramState)
	w := m.Word(idx)
	p := m.LogProb(st.hist, w)
	return m.newState(m.extend(st.hist, w)), p
}

// Finish implements Model.
func (m *NGramModel) Finish(s State) (State, float64) {
	st := s.(*ngramState)
	p := m.LogProb(st.hist, SentenceEnd)
	return m.newState(m.extend(st.hist, SentenceEnd)), p
}

// UpdateCache implements Model. Backoff lookups are two map probes, so there
// is nothing worth precomputing.
func (m *NGramModel) UpdateCache([]State) {}

// LogProb returns the log probability of a word given its history, backing
// off when the exact n-gram is not found.
func (m *NGramModel) LogProb(history []string, word string) float64 {
	if m.Order >= 3 && len(history) >= 2 {
		key := [3]string{history[len(history)-2], history[len(history)-1], word}
		if e, ok := m.Trigrams[key]; ok {
			return e.LogProb
		}
		biKey := [2]string{history[len(history)-2], history[len(history)-1]}
		if e, ok := m.Bigrams[biKey]; ok {
			return e.LogBackoff + m.logProbBigram(history[len(history)-1], word)
		}
	}

	if m.Order >= 2 && len(history) >= 1 {
		return m.logProbBigram(history[len(history)-1], word)
	}

	return m.logProbUnigram(word)
}

func (m *NGramModel) logProbBigram(prev, word string) float64 {
	key := [2]string{prev, word}
	if e, ok := m.Bigrams[key]; ok {
		return e.LogProb
	}
	if e, ok := m.Unigrams[prev]; ok {
		return e.LogBackoff + m.logProbUnigram(word)
	}
	return m.logProbUnigram(word)
}

func (m *NGramModel) logProbUnigram(word string) float64 {
	if e, ok := m.Unigrams[word]; ok {
		return e.LogProb
	}
	return m.OOVLogProb
}

// SentenceLogProb returns the total log probability of a word sequence with
// SentenceBegin and SentenceEnd added automatically.
func (m *NGramModel) SentenceLogProb(words []string) float64 {
	total := 0.0
	history := []string{SentenceBegin}
	for _, w := range words {
		total += m.LogProb(history, w)
		history = append(history, w)
	}
	total += m.LogProb(history, SentenceEnd)
	return total
}
