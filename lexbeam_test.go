package lexbeam

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ieee0824/lexbeam-go/decoder"
	"github.com/ieee0824/lexbeam-go/language"
	"github.com/ieee0824/lexbeam-go/lexicon"
)

// Token columns for the tiny test acoustic model.
var testTokens = []string{"|", "<blank>", "a", "b"}

const (
	colSil = iota
	colBlank
	colA
	colB
)

const tinyARPA = `\data\
ngram 1=4
ngram 2=3

\1-grams:
-1.0	</s>
-1.0	<s>	0.0
-0.5	ab	0.0
-0.9	ba	0.0

\2-grams:
-0.2	<s>	ab
-0.9	<s>	ba
-0.2	ab	ba

\end\
`

const tinyLexicon = "ab\ta b |\nba\tb a |\n"

func buildTestTranscriber(t *testing.T, opts ...Option) *Transcriber {
	t.Helper()
	dict, err := lexicon.Load(strings.NewReader(tinyLexicon))
	if err != nil {
		t.Fatalf("load lexicon: %v", err)
	}
	lm, err := language.LoadARPA(strings.NewReader(tinyARPA))
	if err != nil {
		t.Fatalf("load LM: %v", err)
	}
	cfg := decoder.DefaultConfig()
	cfg.BeamSize = 50
	cfg.BeamSizeToken = len(testTokens)
	opts = append([]Option{WithDecoderConfig(cfg)}, opts...)
	tr, err := NewFromModels(dict, lm, testTokens, opts...)
	if err != nil {
		t.Fatalf("NewFromModels: %v", err)
	}
	return tr
}

func emissionRow(hot int, hotVal, coldVal float64) []float64 {
	row := make([]float64, len(testTokens))
	for i := range row {
		row[i] = coldVal
	}
	row[hot] = hotVal
	return row
}

func emissionMatrix(hots ...int) []float64 {
	var out []float64
	for _, h := range hots {
		out = append(out, emissionRow(h, -0.1, -10)...)
	}
	return out
}

func TestTranscriberSingleWord(t *testing.T) {
	tr := buildTestTranscriber(t)

	em := emissionMatrix(colA, colB, colSil)
	res, err := tr.Decode(em, 3, len(testTokens))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if res.Text != "ab" {
		t.Errorf("Text = %q, want %q", res.Text, "ab")
	}
	if len(res.Words) != 1 {
		t.Fatalf("Words = %+v, want one span", res.Words)
	}
	w := res.Words[0]
	if w.Text != "ab" || w.StartFrame != 0 || w.EndFrame != 3 {
		t.Errorf("span = %+v, want {ab 0 3}", w)
	}
	if math.IsNaN(res.LogScore) || math.IsInf(res.LogScore, 0) || res.LogScore >= 0 {
		t.Errorf("LogScore = %f, want negative and finite", res.LogScore)
	}
}

func TestTranscriberTwoWords(t *testing.T) {
	tr := buildTestTranscriber(t)

	em := emissionMatrix(colA, colB, colSil, colB, colA, colSil)
	res, err := tr.Decode(em, 6, len(testTokens))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if res.Text != "ab ba" {
		t.Errorf("Text = %q, want %q", res.Text, "ab ba")
	}
	if len(res.Words) != 2 {
		t.Fatalf("Words = %+v, want two spans", res.Words)
	}
	if res.Words[0].EndFrame >= res.Words[1].StartFrame {
		t.Errorf("spans overlap: %+v", res.Words)
	}
}

func TestTranscriberEmptyInput(t *testing.T) {
	tr := buildTestTranscriber(t)
	res, err := tr.Decode(nil, 0, len(testTokens))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty", res.Text)
	}
}

func TestTranscriberInputValidation(t *testing.T) {
	tr := buildTestTranscriber(t)
	if _, err := tr.Decode(make([]float64, 3), 1, len(testTokens)); err == nil {
		t.Error("expected error for short emission slice")
	}
	if _, err := tr.Decode(make([]float64, 10), 2, 5); err == nil {
		t.Error("expected error for mismatched emission width")
	}
}

func TestTranscriberMissingTokens(t *testing.T) {
	dict, _ := lexicon.Load(strings.NewReader(tinyLexicon))
	lm, _ := language.LoadARPA(strings.NewReader(tinyARPA))

	if _, err := NewFromModels(dict, lm, []string{"a", "b", "<blank>"}); err == nil {
		t.Error("expected error for missing silence token")
	}
	if _, err := NewFromModels(dict, lm, []string{"a", "b", "|"}); err == nil {
		t.Error("expected error for missing blank token under CTC")
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	lexPath := filepath.Join(dir, "lexicon.txt")
	lmPath := filepath.Join(dir, "lm.arpa")
	if err := os.WriteFile(lexPath, []byte(tinyLexicon), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(lmPath, []byte(tinyARPA), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := New(lexPath, lmPath, testTokens)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := tr.Decode(emissionMatrix(colA, colB, colSil), 3, len(testTokens))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "ab" {
		t.Errorf("Text = %q, want %q", res.Text, "ab")
	}
}
