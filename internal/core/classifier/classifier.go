// Package classifier decides whether a chat message carries a disallowed link, pings the
// community owner or contains profanity. It is pure and safe for concurrent use
package classifier

import (
	"regexp"
	"strings"

	"gatekeeper/internal/core/normalize"
	"gatekeeper/internal/core/rulepack"
)

// Category tags the rule family of a violation
type Category string

const (
	// CategoryNone is the zero value for clean messages
	CategoryNone Category = ""
	// CategoryLink covers raw, obfuscated, shortened and invite links
	CategoryLink Category = "link"
	// CategoryMention covers pings aimed at the community owner
	CategoryMention Category = "mention"
	// CategoryProfanity covers blocked terms, exact or fuzzy
	CategoryProfanity Category = "profanity"
)

// Categories lists every violation category in evaluation order
var Categories = []Category{CategoryLink, CategoryMention, CategoryProfanity}

// Rule names reported in Decision.Rule besides the link pattern ids from the rule pack
const (
	RuleMarkdown     = "markdown"
	RuleShortener    = "shortener"
	RuleAttachment   = "attachment"
	RuleOwnerMention = "owner_mention"
	RuleTerm         = "term"
	RuleFuzzy        = "fuzzy"
)

// Embed is the textual part of a rich embed; empty fields are skipped
type Embed struct {
	URL         string
	Title       string
	Description string
}

// Message is everything the classifier looks at
type Message struct {
	Text            string
	Embeds          []Embed
	AttachmentNames []string
	Mentions        []string // mentioned user ids
	OwnerID         string
}

// Decision is the outcome of one classification
type Decision struct {
	Matched  bool
	Category Category
	Rule     string
	Fragment string // matched text, diagnostics only
}

// Options tunes the classifier
type Options struct {
	// Fuzzy enables the edit-similarity test on top of exact term matching
	Fuzzy bool
	// FuzzyThreshold is the similarity a token must exceed to count as a term (0..1)
	FuzzyThreshold float64
	// Confusables folds lookalike characters before profanity matching
	Confusables bool
}

// DefaultOptions returns the strictest lineage: fuzzy on at 0.8, confusables on
func DefaultOptions() Options {
	return Options{Fuzzy: true, FuzzyThreshold: 0.8, Confusables: true}
}

var markdownLink = regexp.MustCompile(`\[.*?\]\((.*?)\)`)

// Classifier is immutable after construction
type Classifier struct {
	pack *rulepack.Pack
	opts Options

	// links never folds confusables so digits in hostnames survive
	links *normalize.Normalizer
	words *normalize.Normalizer

	tld         rulepack.Pattern
	shortenerAC *matcher
	termAC      *matcher
	terms       []string
}

// New builds a Classifier over a compiled rule pack
func New(p *rulepack.Pack, opts Options) *Classifier {
	c := &Classifier{
		pack:  p,
		opts:  opts,
		links: normalize.New(),
		words: normalize.NewWithOptions(normalize.Options{Confusables: opts.Confusables}),
	}
	c.tld, _ = p.Pattern(rulepack.PatternTLD)
	c.shortenerAC = newMatcher(p.Shorteners)

	seen := make(map[string]struct{}, len(p.Terms))
	for _, t := range p.Terms {
		form := c.words.Project(t).Words
		if form == "" {
			continue
		}
		if _, dup := seen[form]; dup {
			continue
		}
		seen[form] = struct{}{}
		c.terms = append(c.terms, form)
	}
	c.termAC = newMatcher(c.terms)
	return c
}

// Options returns the options the classifier was built with
func (c *Classifier) Options() Options { return c.opts }

// Classify runs every rule family in order and returns the first match
func (c *Classifier) Classify(m Message) Decision {
	blob := aggregate(m)

	if d, ok := c.link(m, blob); ok {
		return d
	}
	if d, ok := c.mention(m); ok {
		return d
	}
	if d, ok := c.profanity(blob); ok {
		return d
	}
	return Decision{}
}

// aggregate joins the message text with embed fields so links hidden in embeds are seen
func aggregate(m Message) string {
	if len(m.Embeds) == 0 {
		return m.Text
	}
	var b strings.Builder
	b.WriteString(m.Text)
	for _, e := range m.Embeds {
		for _, f := range []string{e.URL, e.Description, e.Title} {
			if f != "" {
				b.WriteByte(' ')
				b.WriteString(f)
			}
		}
	}
	return b.String()
}

func (c *Classifier) link(m Message, blob string) (Decision, bool) {
	if d, ok := c.markdown(blob); ok {
		return d, true
	}

	spaced, compact := c.maskWhitelist(c.links.Project(blob).Spaced)
	projections := [2]struct{ scope, text string }{
		{rulepack.ScopeSpaced, spaced},
		{rulepack.ScopeCompact, compact},
	}
	for _, pt := range c.pack.Patterns {
		for _, pr := range projections {
			if !pt.Applies(pr.scope) {
				continue
			}
			if loc := pt.Re.FindStringIndex(pr.text); loc != nil {
				return linkDecision(pt.ID, pr.text[loc[0]:loc[1]]), true
			}
		}
	}

	if frag, ok := c.shortener(spaced, true); ok {
		return linkDecision(RuleShortener, frag), true
	}
	if frag, ok := c.shortener(compact, false); ok {
		return linkDecision(RuleShortener, frag), true
	}

	if c.tld.Re != nil {
		for _, name := range m.AttachmentNames {
			_, masked := c.maskWhitelist(c.links.Project(name).Spaced)
			if loc := c.tld.Re.FindStringIndex(masked); loc != nil {
				return linkDecision(RuleAttachment, masked[loc[0]:loc[1]]), true
			}
		}
	}
	return Decision{}, false
}

// markdown flags [label](target) links whose target names no whitelisted domain
func (c *Classifier) markdown(blob string) (Decision, bool) {
	for _, sm := range markdownLink.FindAllStringSubmatch(blob, -1) {
		target := c.links.Normalize(sm[1])
		if target == "" {
			continue
		}
		if !c.whitelisted(target) {
			return linkDecision(RuleMarkdown, sm[1]), true
		}
	}
	return Decision{}, false
}

func (c *Classifier) whitelisted(s string) bool {
	for _, dom := range c.pack.Whitelist {
		if strings.Contains(s, dom) {
			return true
		}
	}
	return false
}

// shortener finds a shortener domain not followed by more hostname; strict also
// requires a clean left edge, which only the spaced projection can tell
func (c *Classifier) shortener(s string, strict bool) (string, bool) {
	_, start, end, ok := c.shortenerAC.find(s, func(start, end int) bool {
		if strict && !leftBoundary(s, start) {
			return false
		}
		return rightBoundary(s, end)
	})
	if !ok {
		return "", false
	}
	return s[start:end], true
}

func (c *Classifier) mention(m Message) (Decision, bool) {
	if m.OwnerID == "" {
		return Decision{}, false
	}
	for _, id := range m.Mentions {
		if id == m.OwnerID {
			return Decision{Matched: true, Category: CategoryMention, Rule: RuleOwnerMention, Fragment: id}, true
		}
	}
	return Decision{}, false
}

func linkDecision(rule, frag string) Decision {
	return Decision{Matched: true, Category: CategoryLink, Rule: rule, Fragment: frag}
}
