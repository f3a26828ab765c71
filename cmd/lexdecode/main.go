package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	lexbeam "github.com/ieee0824/lexbeam-go"
	"github.com/ieee0824/lexbeam-go/decoder"
)

func main() {
	lexPath := flag.String("lexicon", "", "path to lexicon file (word<TAB>token spelling)")
	lmPath := flag.String("lm", "", "path to language model (ARPA format)")
	tokensPath := flag.String("tokens", "", "path to token set file, one token per line in emission column order")
	emitPath := flag.String("emissions", "", "path to emission matrix file, one frame of log scores per line")
	beamSize := flag.Int("beam-size", 500, "beam width after merging")
	beamSizeToken := flag.Int("beam-size-token", 30, "tokens expanded per frame")
	beamThreshold := flag.Float64("beam-threshold", 100.0, "pruning threshold below the frame best")
	lmWeight := flag.Float64("lm-weight", 1.0, "language model weight")
	wordScore := flag.Float64("word-score", 0.0, "word insertion bonus")
	silScore := flag.Float64("sil-score", 0.0, "silence emission bonus")
	logAdd := flag.Bool("log-add", false, "merge hypotheses by log-add instead of max")
	silTok := flag.String("sil", "|", "silence token")
	blankTok := flag.String("blank", "<blank>", "CTC blank token")
	verbose := flag.Bool("v", false, "verbose output")

	flag.Parse()

	if *lexPath == "" || *lmPath == "" || *tokensPath == "" || *emitPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: lexdecode -lexicon LEX -lm LM -tokens TOKENS -emissions EMIT")
		flag.PrintDefaults()
		os.Exit(1)
	}

	tokens, err := readTokens(*tokensPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tr, err := lexbeam.New(*lexPath, *lmPath, tokens,
		lexbeam.WithSilToken(*silTok),
		lexbeam.WithBlankToken(*blankTok),
		lexbeam.WithDecoderConfig(decoder.Config{
			BeamSize:      *beamSize,
			BeamSizeToken: *beamSizeToken,
			BeamThreshold: *beamThreshold,
			LMWeight:      *lmWeight,
			WordScore:     *wordScore,
			SilScore:      *silScore,
			LogAdd:        *logAdd,
			Criterion:     decoder.CTC,
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	emissions, T, N, err := readEmissions(*emitPath, len(tokens))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := tr.Decode(emissions, T, N)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result.Text)

	if *verbose {
		fmt.Fprintf(os.Stderr, "Score: %.4f\n", result.LogScore)
		for _, w := range result.Words {
			fmt.Fprintf(os.Stderr, "  [%d-%d] %s\n", w.StartFrame, w.EndFrame, w.Text)
		}
	}
}

func readTokens(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tok := strings.TrimSpace(scanner.Text())
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("token set %s is empty", path)
	}
	return tokens, nil
}

func readEmissions(path string, n int) ([]float64, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	var emissions []float64
	frames := 0
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != n {
			return nil, 0, 0, fmt.Errorf("line %d: expected %d scores, got %d", lineNum, n, len(fields))
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, 0, 0, fmt.Errorf("line %d: parse score %q: %w", lineNum, field, err)
			}
			emissions = append(emissions, v)
		}
		frames++
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, 0, err
	}
	return emissions, frames, n, nil
}
