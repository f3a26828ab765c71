package lexbeam

import (
	"strings"

	"github.com/ieee0824/lexbeam-go/decoder"
)

// Transcript holds the decoding output.
type Transcript struct {
	Text     string     // recognized text
	Words    []WordSpan // word-level details
	LogScore float64    // total log probability
}

// WordSpan holds per-word frame alignment.
type WordSpan struct {
	Text       string
	StartFrame int
	EndFrame   int
}

// transcript maps a decoded result back to words and frame spans. A word is
// recorded on the frame where its spelling completes; its span starts after
// the previous word's end.
func (t *Transcriber) transcript(res decoder.Result) *Transcript {
	out := &Transcript{LogScore: res.Score}

	prevEnd := 0
	var texts []string
	for i, w := range res.Words {
		if w < 0 {
			continue
		}
		text := t.wordText(w)
		out.Words = append(out.Words, WordSpan{
			Text:       text,
			StartFrame: prevEnd,
			EndFrame:   i,
		})
		prevEnd = i + 1
		texts = append(texts, text)
	}
	out.Text = strings.Join(texts, " ")
	return out
}
