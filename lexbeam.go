// Package lexbeam turns acoustic emission matrices into word sequences,
// constrained by a pronunciation lexicon and scored by an n-gram language
// model.
package lexbeam

import (
	"fmt"

	"github.com/ieee0824/lexbeam-go/decoder"
	"github.com/ieee0824/lexbeam-go/language"
	"github.com/ieee0824/lexbeam-go/lexicon"
)

// Transcriber is the top-level decoder front end. It owns the smeared
// lexicon trie, the language model and the decoder configuration, and is
// safe to reuse across utterances.
type Transcriber struct {
	Trie  *lexicon.Trie
	LM    *language.NGramModel
	Dict  *lexicon.Dictionary
	Words []string

	Cfg         decoder.Config
	Tokens      []string // emission column order
	SilToken    string
	BlankToken  string
	Smearing    lexicon.SmearMode
	Transitions []float64 // ASG only

	sil   int
	blank int
	unk   int
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithDecoderConfig sets custom beam search parameters.
func WithDecoderConfig(cfg decoder.Config) Option {
	return func(t *Transcriber) {
		t.Cfg = cfg
	}
}

// WithSilToken sets the silence token string (default "|").
func WithSilToken(tok string) Option {
	return func(t *Transcriber) {
		t.SilToken = tok
	}
}

// WithBlankToken sets the CTC blank token string (default "<blank>").
func WithBlankToken(tok string) Option {
	return func(t *Transcriber) {
		t.BlankToken = tok
	}
}

// WithSmearMode sets how word scores are folded through the trie.
func WithSmearMode(m lexicon.SmearMode) Option {
	return func(t *Transcriber) {
		t.Smearing = m
	}
}

// WithTransitions sets the ASG transition matrix, row-major N x N.
func WithTransitions(trans []float64) Option {
	return func(t *Transcriber) {
		t.Transitions = trans
	}
}

// New creates a Transcriber from a lexicon file, an ARPA language model file
// and the acoustic model's token set in emission column order.
func New(lexiconPath, lmPath string, tokens []string, opts ...Option) (*Transcriber, error) {
	dict, err := lexicon.LoadFile(lexiconPath)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	lm, err := language.LoadARPAFile(lmPath)
	if err != nil {
		return nil, fmt.Errorf("load language model: %w", err)
	}
	return NewFromModels(dict, lm, tokens, opts...)
}

// NewFromModels creates a Transcriber from pre-loaded models.
func NewFromModels(dict *lexicon.Dictionary, lm *language.NGramModel, tokens []string, opts ...Option) (*Transcriber, error) {
	t := &Transcriber{
		Dict:       dict,
		LM:         lm,
		Tokens:     tokens,
		SilToken:   "|",
		BlankToken: "<blank>",
		Smearing:   lexicon.SmearMax,
		Cfg:        decoder.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}

	tokenIdx := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		tokenIdx[tok] = i
	}

	sil, ok := tokenIdx[t.SilToken]
	if !ok {
		return nil, fmt.Errorf("silence token %q not in token set", t.SilToken)
	}
	t.sil = sil

	if t.Cfg.Criterion == decoder.CTC {
		blank, ok := tokenIdx[t.BlankToken]
		if !ok {
			return nil, fmt.Errorf("blank token %q not in token set", t.BlankToken)
		}
		t.blank = blank
	} else {
		t.blank = -1
	}

	t.Words = dict.Words()
	t.unk = len(t.Words)
	lm.Vocab = t.Words

	// Insertion scores are the words' LM scores from the start state, so
	// the smeared MaxScore keeps mid-word hypotheses comparable to
	// completed ones.
	start := lm.Start(false)
	trie, err := dict.BuildTrie(tokenIdx, func(idx int, word string) float64 {
		_, s := lm.Score(start, idx)
		return s
	}, t.Smearing)
	if err != nil {
		return nil, fmt.Errorf("build trie: %w", err)
	}
	t.Trie = trie

	return t, nil
}

// Decode runs beam search over a row-major T x N emission matrix and returns
// the best transcript.
func (t *Transcriber) Decode(emissions []float64, T, N int) (*Transcript, error) {
	if len(emissions) < T*N {
		return nil, fmt.Errorf("emissions too short: have %d values, need %d", len(emissions), T*N)
	}
	if N != len(t.Tokens) {
		return nil, fmt.Errorf("emission width %d does not match token set size %d", N, len(t.Tokens))
	}

	dec, err := decoder.NewLexiconDecoder(t.Cfg, t.Trie, t.LM, t.sil, t.blank, t.unk, t.Transitions, false)
	if err != nil {
		return nil, err
	}

	dec.DecodeBegin()
	dec.DecodeStep(emissions, T, N)
	dec.DecodeEnd()

	all := dec.GetAllFinalHypothesis()
	if len(all) == 0 {
		return &Transcript{}, nil
	}
	return t.transcript(all[0]), nil
}

func (t *Transcriber) wordText(idx int) string {
	if idx >= 0 && idx < len(t.Words) {
		return t.Words[idx]
	}
	return language.UnknownWord
}
