// Package keyword provides lexical scoring: a permissive substring-containment
// scorer with a configurable domain boost, and a per-request BM25 helper.
package keyword

import "strings"

// BoostPolicy configures the domain boost: a curated list of high-value terms
// (store names, entity names) and the additive bonus applied when one matches.
// The list is data, loaded from configuration, never hard-coded.
type BoostPolicy struct {
	Terms  []string `yaml:"terms" json:"terms"`
	Amount float64  `yaml:"amount" json:"amount"`
}

// Scorer computes lexical match scores between query terms and chunk text.
type Scorer struct {
	policy BoostPolicy
	// lowered boost terms, computed once per scorer
	boostTerms []string
}

// NewScorer creates a scorer with the given boost policy.
func NewScorer(policy BoostPolicy) *Scorer {
	terms := make([]string, 0, len(policy.Terms))
	for _, t := range policy.Terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	return &Scorer{policy: policy, boostTerms: terms}
}

// Tokenize splits a query on whitespace and lower-cases the terms.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}

// Score returns the fraction of query terms literally present as substrings of
// the lower-cased text, plus the domain boost when it applies. The substring
// semantics are deliberate and load-bearing for backward compatibility: short
// terms can match inside longer words. Returns 0 for empty queryTerms. The base
// ratio is at most 1.0; the boost is applied once on top, so the result is at
// most 1.0 + BoostPolicy.Amount. Capping for the pure-keyword evaluation path
// is the caller's decision (see CapScore).
func (s *Scorer) Score(queryTerms []string, text string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matching := 0
	for _, term := range queryTerms {
		if term != "" && strings.Contains(lower, term) {
			matching++
		}
	}
	score := float64(matching) / float64(len(queryTerms))
	if s.HasBoostHit(queryTerms, lower) {
		score += s.policy.Amount
	}
	return score
}

// HasBoostHit reports whether the domain boost applies: the text contains a
// boost term AND at least one query term overlaps the boost list by substring
// containment in either direction.
func (s *Scorer) HasBoostHit(queryTerms []string, text string) bool {
	if len(s.boostTerms) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	inText := false
	for _, bt := range s.boostTerms {
		if strings.Contains(lower, bt) {
			inText = true
			break
		}
	}
	if !inText {
		return false
	}
	for _, qt := range queryTerms {
		for _, bt := range s.boostTerms {
			if strings.Contains(bt, qt) || strings.Contains(qt, bt) {
				return true
			}
		}
	}
	return false
}

// HasExactHit reports whether any query term is a literal substring of text.
func HasExactHit(queryTerms []string, text string) bool {
	lower := strings.ToLower(text)
	for _, term := range queryTerms {
		if term != "" && strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// CapScore clamps score to cap when cap is positive. The pure-keyword
// evaluation path caps; the hybrid merge consumes the raw score.
func CapScore(score, cap float64) float64 {
	if cap > 0 && score > cap {
		return cap
	}
	return score
}
