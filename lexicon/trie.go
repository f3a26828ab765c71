// Package lexicon builds the prefix trie of allowed word spellings that
// constrains the beam search, and loads the pronunciation dictionaries the
// trie is built from.
package lexicon

import "github.com/ieee0824/lexbeam-go/internal/mathutil"

// SmearMode selects how Smear folds word scores upward through the trie.
type SmearMode int

const (
	SmearNone SmearMode = iota
	SmearMax
	SmearLogAdd
)

// TrieNode is one spelling prefix. Children are keyed by acoustic token
// index. Labels lists the words whose spelling ends at this node and Scores
// their insertion scores. MaxScore is filled by Smear with the best score of
// any word reachable through the node; the decoder uses it to keep mid-word
// hypotheses comparable to between-word ones.
type TrieNode struct {
	Children map[int]*TrieNode
	Labels   []int
	Scores   []float64
	MaxScore float64
	id       int
}

// ID returns an identity unique within the owning trie and stable for its
// lifetime. The decoder orders nodes by it when merging hypotheses.
func (n *TrieNode) ID() int { return n.id }

// Trie is a prefix tree over word spellings. Once built and smeared it is
// read-only and may be shared by any number of decoders.
type Trie struct {
	root   *TrieNode
	nNodes int
}

// NewTrie creates a trie holding only the root.
func NewTrie() *Trie {
	t := &Trie{}
	t.root = t.newNode()
	return t
}

func (t *Trie) newNode() *TrieNode {
	n := &TrieNode{
		Children: make(map[int]*TrieNode),
		MaxScore: mathutil.LogZero,
		id:       t.nNodes,
	}
	t.nNodes++
	return n
}

// Root returns the root node, which denotes "between words".
func (t *Trie) Root() *TrieNode { return t.root }

// NumNodes returns the number of nodes in the trie.
func (t *Trie) NumNodes() int { return t.nNodes }

// Insert adds one spelling for word with the given insertion score and
// returns the terminal node.
func (t *Trie) Insert(spelling []int, word int, score float64) *TrieNode {
	n := t.root
	for _, tok := range spelling {
		c, ok := n.Children[tok]
		if !ok {
			c = t.newNode()
			n.Children[tok] = c
		}
		n = c
	}
	n.Labels = append(n.Labels, word)
	n.Scores = append(n.Scores, score)
	return n
}

// Search returns the node reached by spelling, or nil if the prefix is not
// in the trie.
func (t *Trie) Search(spelling []int) *TrieNode {
	n := t.root
	for _, tok := range spelling {
		c, ok := n.Children[tok]
		if !ok {
			return nil
		}
		n = c
	}
	return n
}

// Smear fills MaxScore bottom-up: each node combines its own word scores and
// every child's MaxScore, by max or log-add.
func (t *Trie) Smear(mode SmearMode) {
	if mode == SmearNone {
		return
	}
	smearNode(t.root, mode)
}

func smearNode(n *TrieNode, mode SmearMode) {
	n.MaxScore = mathutil.LogZero
	for _, s := range n.Scores {
		n.MaxScore = combine(n.MaxScore, s, mode)
	}
	for _, c := range n.Children {
		smearNode(c, mode)
		n.MaxScore = combine(n.MaxScore, c.MaxScore, mode)
	}
}

func combine(a, b float64, mode SmearMode) float64 {
	if mode == SmearLogAdd {
		return mathutil.LogAdd(a, b)
	}
	if b > a {
		return b
	}
	return a
}
