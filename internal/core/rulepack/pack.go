// Package rulepack loads and compiles moderation rules from the embedded rules.json.
// It prepares link patterns, domain lists and blocked terms for the classifier
package rulepack

import (
	_ "embed"
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strings"

	perr "gatekeeper/internal/platform/errors"

	"github.com/go-playground/validator/v10"
)

//go:embed rules.json
var embedded []byte

// Version is the only rules.json schema version this package understands
const Version = 1

// Well known pattern ids referenced by the classifier
const (
	PatternTLD = "tld"
)

// Projection scopes a pattern may be limited to; empty means both
const (
	ScopeSpaced  = "spaced"
	ScopeCompact = "compact"
)

// Source is the JSON shape of rules.json and of any overlay file
type Source struct {
	Version       int          `json:"version" validate:"omitempty,eq=1"`
	Whitelist     []string     `json:"whitelist" validate:"dive,required,fqdn"`
	Shorteners    []string     `json:"shorteners" validate:"dive,required,fqdn"`
	TLDs          []string     `json:"tlds" validate:"dive,required,alphanum,lowercase"`
	InviteMarkers []string     `json:"invite_markers" validate:"dive,required"`
	Patterns      []RawPattern `json:"patterns" validate:"dive"`
	Terms         []string     `json:"terms" validate:"dive,required"`
	Allowlist     []string     `json:"allowlist" validate:"dive,required"`
}

// RawPattern is an uncompiled pattern with {SLOT} placeholders
type RawPattern struct {
	ID      string `json:"id" validate:"required"`
	Pattern string `json:"pattern" validate:"required"`
	// Scope limits the pattern to one projection. Compact text loses word
	// boundaries, so patterns without a right edge are only safe on spaced text
	Scope string `json:"scope,omitempty" validate:"omitempty,oneof=spaced compact"`
}

// Pattern is a compiled link pattern
type Pattern struct {
	ID       string
	Expanded string
	Scope    string
	Re       *regexp.Regexp
}

// Applies reports whether the pattern runs on the given projection scope
func (p Pattern) Applies(scope string) bool { return p.Scope == "" || p.Scope == scope }

// Pack is the immutable compiled rule set shared read-only by the classifier
type Pack struct {
	Version int

	Whitelist     []string // lowercased, longest first
	Shorteners    []string
	TLDs          []string
	InviteMarkers []string
	Terms         []string

	// Allowlist holds tokens that never count as profanity (Scunthorpe problem)
	Allowlist map[string]struct{}

	Patterns []Pattern
	byID     map[string]int
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load returns the compiled pack from the embedded rules.json merged with overlays in order
func Load(overlays ...Source) (*Pack, error) {
	base, err := Parse(embedded)
	if err != nil {
		return nil, err
	}
	if base.Version != Version {
		return nil, perr.Newf(perr.ErrorCodeValidation, "rulepack: unsupported rules.json version %d (want %d)", base.Version, Version)
	}
	for _, o := range overlays {
		base = merge(base, o)
	}
	return Compile(base)
}

// Parse decodes and validates a rules document
func Parse(b []byte) (Source, error) {
	var src Source
	if err := json.Unmarshal(b, &src); err != nil {
		return Source{}, perr.Wrap(err, perr.ErrorCodeJSON, "rulepack: parse rules")
	}
	if err := src.Validate(); err != nil {
		return Source{}, err
	}
	return src, nil
}

// Validate checks list entries; overlays built in code go through it before Load
func (s Source) Validate() error {
	if err := validate.Struct(s); err != nil {
		return validationError(err)
	}
	return nil
}

// ParseFile reads an overlay file from disk
func ParseFile(path string) (Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Source{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "rulepack: read %s", path)
	}
	return Parse(b)
}

// Compile turns a validated Source into a Pack
func Compile(src Source) (*Pack, error) {
	p := &Pack{
		Version:       src.Version,
		Whitelist:     lowerSet(src.Whitelist),
		Shorteners:    lowerSet(src.Shorteners),
		TLDs:          lowerSet(src.TLDs),
		InviteMarkers: lowerSet(src.InviteMarkers),
		Terms:         lowerSet(src.Terms),
		Allowlist:     make(map[string]struct{}, len(src.Allowlist)),
		byID:          make(map[string]int, len(src.Patterns)),
	}
	for _, s := range lowerSet(src.Allowlist) {
		p.Allowlist[s] = struct{}{}
	}

	// longest first so masking and alternations prefer the most specific entry
	byLenDesc(p.Whitelist)
	byLenDesc(p.TLDs)

	slots := map[string][]string{
		"TLDS":    p.TLDs,
		"INVITES": p.InviteMarkers,
	}
	for _, rp := range src.Patterns {
		exp := expandSlots(rp.Pattern, slots)
		re, err := regexp.Compile(exp)
		if err != nil {
			return nil, perr.WithField(
				perr.Wrapf(err, perr.ErrorCodeValidation, "rulepack: compile %q", exp),
				rp.ID,
			)
		}
		if i, dup := p.byID[rp.ID]; dup {
			// overlays may redefine a pattern by id
			p.Patterns[i] = Pattern{ID: rp.ID, Expanded: exp, Scope: rp.Scope, Re: re}
			continue
		}
		p.byID[rp.ID] = len(p.Patterns)
		p.Patterns = append(p.Patterns, Pattern{ID: rp.ID, Expanded: exp, Scope: rp.Scope, Re: re})
	}
	if _, ok := p.byID[PatternTLD]; !ok {
		return nil, perr.WithField(perr.New(perr.ErrorCodeValidation, "rulepack: missing required pattern"), PatternTLD)
	}
	return p, nil
}

// Pattern returns the compiled pattern with the given id
func (p *Pack) Pattern(id string) (Pattern, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Pattern{}, false
	}
	return p.Patterns[i], true
}

// Allowed reports whether a normalized token is allowlisted
func (p *Pack) Allowed(token string) bool {
	_, ok := p.Allowlist[token]
	return ok
}

// merge appends overlay lists onto base; duplicates are removed at compile time
func merge(base, o Source) Source {
	base.Whitelist = append(base.Whitelist, o.Whitelist...)
	base.Shorteners = append(base.Shorteners, o.Shorteners...)
	base.TLDs = append(base.TLDs, o.TLDs...)
	base.InviteMarkers = append(base.InviteMarkers, o.InviteMarkers...)
	base.Patterns = append(base.Patterns, o.Patterns...)
	base.Terms = append(base.Terms, o.Terms...)
	base.Allowlist = append(base.Allowlist, o.Allowlist...)
	return base
}

// expandSlots replaces {NAME} with a non-capturing group of OR'ed, regex-quoted values.
// Unknown {NAME} is left literally so wiring mistakes surface in the compiled pattern
func expandSlots(pattern string, slots map[string][]string) string {
	var b strings.Builder
	rest := pattern
	for {
		i := strings.Index(rest, "{")
		if i < 0 {
			b.WriteString(rest)
			break
		}
		j := strings.Index(rest[i:], "}")
		if j < 0 {
			b.WriteString(rest)
			break
		}
		j += i
		name := rest[i+1 : j]
		values, ok := slots[name]
		if !ok || len(values) == 0 {
			b.WriteString(rest[:j+1])
			rest = rest[j+1:]
			continue
		}
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, regexp.QuoteMeta(v))
		}
		b.WriteString(rest[:i])
		b.WriteString("(?:" + strings.Join(parts, "|") + ")")
		rest = rest[j+1:]
	}
	return b.String()
}

func lowerSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func byLenDesc(xs []string) {
	sort.SliceStable(xs, func(i, j int) bool { return len(xs[i]) > len(xs[j]) })
}

func validationError(err error) error {
	if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
		fe := ves[0]
		return perr.WithField(
			perr.Wrapf(err, perr.ErrorCodeValidation, "rulepack: %s failed %q", fe.Namespace(), fe.Tag()),
			fe.Field(),
		)
	}
	return perr.Wrap(err, perr.ErrorCodeValidation, "rulepack: invalid rules")
}
