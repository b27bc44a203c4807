package keyword

import (
	"math"
	"strings"
	"unicode"
)

// BM25 ranking parameters. Standard Okapi values.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// CorpusStats holds the per-request document-frequency statistics BM25 needs.
// Stats are computed fresh from the candidate set on every call; nothing is
// cached across requests, so each user's corpus view stays isolated.
type CorpusStats struct {
	DocCount     int
	AvgDocLength float64
	// DocFreq maps a term to the number of candidate texts containing it.
	DocFreq map[string]int
}

// TokenizeBM25 lower-cases, strips non-letter/digit runes to spaces, splits on
// whitespace, and drops tokens of length <= 2. Stricter than Tokenize because
// BM25 frequency statistics are noise-sensitive.
func TokenizeBM25(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// BuildCorpusStats computes document frequencies and average length over the
// given texts.
func BuildCorpusStats(texts []string) CorpusStats {
	stats := CorpusStats{
		DocCount: len(texts),
		DocFreq:  make(map[string]int),
	}
	totalLen := 0
	for _, text := range texts {
		tokens := TokenizeBM25(text)
		totalLen += len(tokens)
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			stats.DocFreq[t]++
		}
	}
	if stats.DocCount > 0 {
		stats.AvgDocLength = float64(totalLen) / float64(stats.DocCount)
	}
	return stats
}

// BM25Score scores text against queryTerms using the Okapi BM25 formula with
// the stats built from the current candidate set. IDF uses the non-negative
// Lucene form log(1 + (N - df + 0.5)/(df + 0.5)).
func BM25Score(queryTerms []string, text string, stats CorpusStats) float64 {
	if stats.DocCount == 0 || stats.AvgDocLength == 0 {
		return 0
	}
	tokens := TokenizeBM25(text)
	if len(tokens) == 0 {
		return 0
	}
	termFreq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		termFreq[t]++
	}
	docLen := float64(len(tokens))
	score := 0.0
	for _, term := range queryTerms {
		tf := float64(termFreq[term])
		if tf == 0 {
			continue
		}
		df := float64(stats.DocFreq[term])
		idf := math.Log(1 + (float64(stats.DocCount)-df+0.5)/(df+0.5))
		norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*docLen/stats.AvgDocLength))
		score += idf * norm
	}
	return score
}
