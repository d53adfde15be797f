package module

import (
	"time"

	"gatekeeper/internal/core/classifier"
	"gatekeeper/internal/core/escalation"
	"gatekeeper/internal/platform/config"
	perr "gatekeeper/internal/platform/errors"

	"github.com/go-playground/validator/v10"
)

// Options controls the moderation module
type Options struct {
	ExemptChannelID string
	ExemptGrace     time.Duration `validate:"gte=0"`
	Cooldown        time.Duration `validate:"gte=0"`
	LinkMute        time.Duration `validate:"gte=0,lte=672h"`
	MentionMute     time.Duration `validate:"gte=0,lte=672h"`
	ProfanityMute   time.Duration `validate:"gte=0,lte=672h"`

	Fuzzy           bool
	FuzzyThreshold  float64 `validate:"gt=0,lt=1"`
	Confusables     bool
	TrackerCapacity int    `validate:"gte=1"`
	CommandPrefix   string `validate:"max=8"`

	// RulesFile is an optional JSON overlay on the embedded rules
	RulesFile      string
	ExtraTerms     []string
	ExtraWhitelist []string
}

// FromConfig reads with MODERATION_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("MODERATION_")
	def := classifier.DefaultOptions()
	return Options{
		ExemptChannelID: c.MayString("EXEMPT_CHANNEL_ID", ""),
		ExemptGrace:     c.MayDuration("EXEMPT_GRACE", 5*time.Second),
		Cooldown:        c.MayDuration("COOLDOWN", escalation.DefaultCooldown),
		LinkMute:        c.MayDuration("LINK_MUTE", time.Hour),
		MentionMute:     c.MayDuration("MENTION_MUTE", time.Hour),
		ProfanityMute:   c.MayDuration("PROFANITY_MUTE", time.Hour),
		Fuzzy:           c.MayBool("FUZZY", def.Fuzzy),
		FuzzyThreshold:  c.MayFloat64("FUZZY_THRESHOLD", def.FuzzyThreshold),
		Confusables:     c.MayBool("CONFUSABLES", def.Confusables),
		TrackerCapacity: c.MayInt("TRACKER_CAPACITY", escalation.DefaultCapacity),
		CommandPrefix:   c.MayString("COMMAND_PREFIX", "!"),
		RulesFile:       c.MayString("RULES_FILE", ""),
		ExtraTerms:      c.MayCSV("EXTRA_TERMS", nil),
		ExtraWhitelist:  c.MayCSV("EXTRA_WHITELIST", nil),
	}
}

// merge applies non-zero overrides; booleans can only be switched off through config
func (o Options) merge(over Options) Options {
	if over.ExemptChannelID != "" {
		o.ExemptChannelID = over.ExemptChannelID
	}
	if over.ExemptGrace != 0 {
		o.ExemptGrace = over.ExemptGrace
	}
	if over.Cooldown != 0 {
		o.Cooldown = over.Cooldown
	}
	if over.LinkMute != 0 {
		o.LinkMute = over.LinkMute
	}
	if over.MentionMute != 0 {
		o.MentionMute = over.MentionMute
	}
	if over.ProfanityMute != 0 {
		o.ProfanityMute = over.ProfanityMute
	}
	if over.FuzzyThreshold != 0 {
		o.FuzzyThreshold = over.FuzzyThreshold
	}
	if over.TrackerCapacity != 0 {
		o.TrackerCapacity = over.TrackerCapacity
	}
	if over.CommandPrefix != "" {
		o.CommandPrefix = over.CommandPrefix
	}
	if over.RulesFile != "" {
		o.RulesFile = over.RulesFile
	}
	o.ExtraTerms = append(o.ExtraTerms, over.ExtraTerms...)
	o.ExtraWhitelist = append(o.ExtraWhitelist, over.ExtraWhitelist...)
	return o
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	if ves, ok := err.(validator.ValidationErrors); ok && len(ves) > 0 {
		fe := ves[0]
		return perr.WithField(
			perr.Newf(perr.ErrorCodeValidation, "moderation: %s fails %q (%v)", fe.Field(), fe.Tag(), fe.Value()),
			fe.Field(),
		)
	}
	return perr.Wrap(err, perr.ErrorCodeValidation, "moderation: options")
}

func (o Options) mute() map[classifier.Category]time.Duration {
	return map[classifier.Category]time.Duration{
		classifier.CategoryLink:      o.LinkMute,
		classifier.CategoryMention:   o.MentionMute,
		classifier.CategoryProfanity: o.ProfanityMute,
	}
}

func (o Options) classifier() classifier.Options {
	return classifier.Options{Fuzzy: o.Fuzzy, FuzzyThreshold: o.FuzzyThreshold, Confusables: o.Confusables}
}
