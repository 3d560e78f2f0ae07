// Package rouge computes ROUGE-1, ROUGE-2 and ROUGE-L F-measures between a
// candidate summary and a reference summary. Tokenization follows the usual
// ROUGE recipe: lowercase, drop non-alphanumeric tokens, optional stemming.
package rouge

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball"
)

type Scores struct {
	Rouge1 float64 `json:"rouge1"`
	Rouge2 float64 `json:"rouge2"`
	RougeL float64 `json:"rougeL"`
}

type Scorer struct {
	useStemmer bool
}

func NewScorer(useStemmer bool) *Scorer {
	return &Scorer{useStemmer: useStemmer}
}

// Score never fails: an empty candidate or reference yields all-zero scores,
// which keeps the orchestrator's result counts consistent when the browser
// reported an error instead of a summary.
func (s *Scorer) Score(candidate, reference string) Scores {
	candTokens := s.tokenize(candidate)
	refTokens := s.tokenize(reference)

	if len(candTokens) == 0 || len(refTokens) == 0 {
		return Scores{}
	}

	return Scores{
		Rouge1: ngramFMeasure(candTokens, refTokens, 1),
		Rouge2: ngramFMeasure(candTokens, refTokens, 2),
		RougeL: lcsFMeasure(candTokens, refTokens),
	}
}

func (s *Scorer) tokenize(text string) []string {
	raw := proseTokens(text)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		word := strings.ToLower(tok)
		if !isWord(word) {
			continue
		}
		if s.useStemmer {
			if stemmed, err := snowball.Stem(word, "english", false); err == nil {
				word = stemmed
			}
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func proseTokens(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithTagging(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return strings.Fields(text)
	}

	tokens := doc.Tokens()
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Text)
	}
	return out
}

func isWord(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func ngramFMeasure(candidate, reference []string, n int) float64 {
	candGrams := countNgrams(candidate, n)
	refGrams := countNgrams(reference, n)

	if len(candGrams) == 0 || len(refGrams) == 0 {
		return 0
	}

	var overlap, candTotal, refTotal int
	for gram, count := range candGrams {
		candTotal += count
		if refCount, ok := refGrams[gram]; ok {
			if count < refCount {
				overlap += count
			} else {
				overlap += refCount
			}
		}
	}
	for _, count := range refGrams {
		refTotal += count
	}

	return fMeasure(overlap, candTotal, refTotal)
}

func countNgrams(tokens []string, n int) map[string]int {
	grams := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		grams[strings.Join(tokens[i:i+n], " ")]++
	}
	return grams
}

func lcsFMeasure(candidate, reference []string) float64 {
	lcs := lcsLength(candidate, reference)
	return fMeasure(lcs, len(candidate), len(reference))
}

func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func fMeasure(overlap, candTotal, refTotal int) float64 {
	if overlap == 0 || candTotal == 0 || refTotal == 0 {
		return 0
	}

	precision := float64(overlap) / float64(candTotal)
	recall := float64(overlap) / float64(refTotal)
	return 2 * precision * recall / (precision + recall)
}
