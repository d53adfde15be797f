// Package normalize provides a deterministic text normalizer used by the classifier
// Pipeline order
// 1 UTF-8 repair, drop control chars, Unicode NFKD, drop combining and format marks
// 2 Case folding and width folding
// 3 Strip joiners (Arabic tatweel)
// 4 Optional confusable folding eg @/4->a 0->o 1/!->i 3->e 5/$->s 7->t
// 5 Remove whitespace
// 6 Collapse runs of 3 or more identical runes to one
// 7 Strip everything but Latin/Arabic letters and digits (Words projection only)
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// tatweel is the Arabic kashida used to stretch words visually
const tatweel = 'ـ'

// Options toggles optional stages
type Options struct {
	// Confusables enables the lookalike substitution table (stage 4)
	Confusables bool
}

// Text bundles the projections of one input. All fields are derived and never mutated
type Text struct {
	Spaced  string // stages 1-4, whitespace runs collapsed to a single space
	Compact string // Spaced without whitespace and with long runs collapsed
	Words   string // Compact restricted to letters and digits
}

// Empty reports whether the input normalized to nothing
func (t Text) Empty() bool { return t.Compact == "" }

// Normalizer is concurrency safe; transformer chains are pooled
type Normalizer struct {
	opts Options
}

var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			runes.Remove(runes.Predicate(isControl)), // NUL, C0 and C1 controls
			cases.Fold(),                             // before NFKD so folded marks get stripped
			norm.NFKD,
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			width.Fold,
			cases.Fold(), // compatibility forms like U+210C decompose to uppercase
			runes.Remove(runes.Predicate(func(r rune) bool { return r == tatweel })),
		)
	},
}

// New constructs a Normalizer without confusable folding
func New() *Normalizer { return &Normalizer{} }

// NewWithOptions constructs a Normalizer with the given options
func NewWithOptions(opts Options) *Normalizer { return &Normalizer{opts: opts} }

// Options returns the options the normalizer was built with
func (n *Normalizer) Options() Options { return n.opts }

// Normalize returns the compact normalized form of s
func (n *Normalizer) Normalize(s string) string { return n.Project(s).Compact }

// Project runs the full pipeline and returns every projection
func (n *Normalizer) Project(s string) Text {
	if s == "" {
		return Text{}
	}

	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		// transform only fails on malformed state; fall back to the repaired input
		ns = strings.ToLower(s)
	}

	if n.opts.Confusables {
		ns = foldConfusables(ns)
	}

	spaced := collapseSpaces(ns)
	compact := Compact(spaced)
	return Text{
		Spaced:  spaced,
		Compact: compact,
		Words:   collapseRuns(stripSymbols(compact)),
	}
}

// Compact derives the compact projection from an already spaced string.
// Callers that edit Spaced (masking) use it to keep both projections in step
func Compact(spaced string) string { return collapseRuns(removeSpaces(spaced)) }

// Tokens splits s on whitespace and normalizes each token, dropping tokens that vanish
func (n *Normalizer) Tokens(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := n.Project(f).Words; w != "" {
			out = append(out, w)
		}
	}
	return out
}

func isControl(r rune) bool {
	switch {
	case r == '\n' || r == '\r' || r == '\t':
		return false
	case r < 0x20 || r == 0x7F:
		return true
	case r >= 0x80 && r <= 0x9F:
		return true
	}
	return false
}

// collapseSpaces converts whitespace runs to a single ASCII space and trims the edges
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func removeSpaces(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// collapseRuns squashes runs of 3 or more identical runes to a single rune.
// Runs of 2 are kept so words like "cool" survive
func collapseRuns(s string) string {
	if s == "" {
		return s
	}
	rs := []rune(s)
	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); {
		j := i + 1
		for j < len(rs) && rs[j] == rs[i] {
			j++
		}
		if j-i >= 3 {
			out = append(out, rs[i])
		} else {
			out = append(out, rs[i:j]...)
		}
		i = j
	}
	return string(out)
}

// stripSymbols keeps Latin and Arabic letters plus digits
func stripSymbols(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keepWordRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepWordRune(r rune) bool {
	if unicode.IsDigit(r) {
		return true
	}
	if !unicode.IsLetter(r) {
		return false
	}
	return unicode.In(r, unicode.Latin, unicode.Arabic)
}
