package classifier

import (
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"
)

// similarity is the ratio 2*matches/(len(a)+len(b)) expressed through the indel distance,
// where a substitution costs one deletion plus one insertion
func similarity(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return float64(total-smetrics.WagnerFischer(a, b, 1, 1, 2)) / float64(total)
}

// fuzzyCandidate keeps the edit test to insertion-style misspellings. Shorter words are
// skipped since dropping one letter of a term often spells an ordinary word ("wore", "hit")
func fuzzyCandidate(term, seg string) bool {
	return len(seg) >= len(term) && len(seg) <= len(term)+2
}

// joined strips whitespace between normalized tokens so split terms ("fu ck", "f u c k")
// read as one run. Allowlisted tokens are masked out and cut the run, so a term can
// never be assembled across "scunthorpe" or "shirt"
func (c *Classifier) joined(tokens []string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, tok := range tokens {
		if c.pack.Allowed(tok) {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteString(tok)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// segments groups tokens into words for the fuzzy test. A single-rune token is glued
// to its neighbours so "f u u c k" reads as one word, while ordinary neighbours stay
// apart so a misspelling is judged against the word it belongs to
func (c *Classifier) segments(tokens []string) []string {
	var (
		out  []string
		cur  strings.Builder
		prev string
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
		prev = ""
	}
	for _, tok := range tokens {
		if c.pack.Allowed(tok) {
			flush()
			continue
		}
		if prev != "" && !(single(prev) || single(tok)) {
			flush()
		}
		cur.WriteString(tok)
		prev = tok
	}
	flush()
	return out
}

func single(s string) bool { return utf8.RuneCountInString(s) == 1 }

// profanity reports the first blocked term found in the blob: exact over the
// whitespace-stripped runs first, then fuzzy per word
func (c *Classifier) profanity(blob string) (Decision, bool) {
	if len(c.terms) == 0 {
		return Decision{}, false
	}
	tokens := c.words.Tokens(blob)

	for _, run := range c.joined(tokens) {
		if _, s, e, ok := c.termAC.find(run, nil); ok {
			return Decision{Matched: true, Category: CategoryProfanity, Rule: RuleTerm, Fragment: run[s:e]}, true
		}
	}
	if !c.opts.Fuzzy {
		return Decision{}, false
	}
	for _, seg := range c.segments(tokens) {
		for _, term := range c.terms {
			if fuzzyCandidate(term, seg) && similarity(term, seg) > c.opts.FuzzyThreshold {
				return Decision{Matched: true, Category: CategoryProfanity, Rule: RuleFuzzy, Fragment: seg}, true
			}
		}
	}
	return Decision{}, false
}
