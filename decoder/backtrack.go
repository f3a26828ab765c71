package decoder

// getHypothesis reconstructs the path ending at node, which sits at
// finalFrame of the buffer, by walking parent pointers back to the base.
func getHypothesis(node *State, finalFrame int) Result {
	if node == nil {
		return Result{}
	}
	res := Result{
		Score:  node.Score,
		Tokens: make([]int, finalFrame+1),
		Words:  make([]int, finalFrame+1),
	}
	i := 0
	for n := node; n != nil; n = n.Parent {
		res.Tokens[finalFrame-i] = n.Token
		res.Words[finalFrame-i] = n.Word
		i++
	}
	return res
}

// getAllHypothesis maps getHypothesis over one frame's beam.
func getAllHypothesis(frame []*State, finalFrame int) []Result {
	out := make([]Result, 0, len(frame))
	for _, s := range frame {
		out = append(out, getHypothesis(s, finalFrame))
	}
	return out
}

// findBestAncestor returns the lookBack-th ancestor of the highest-scoring
// state in frame, or nil when the parent chain is shorter than that.
func findBestAncestor(frame []*State, lookBack int) *State {
	if len(frame) == 0 {
		return nil
	}
	best := frame[0]
	for _, s := range frame[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	for n := 0; n < lookBack && best != nil; n++ {
		best = best.Parent
	}
	return best
}
