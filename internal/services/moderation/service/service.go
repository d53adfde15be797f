// Package service implements the moderation orchestrator: classify a message,
// enforce, escalate and journal
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"gatekeeper/internal/core/classifier"
	"gatekeeper/internal/core/escalation"
	"gatekeeper/internal/platform/logger"
	incdom "gatekeeper/internal/services/incidents/domain"
	"gatekeeper/internal/services/moderation/domain"
)

// Config controls enforcement
type Config struct {
	// ExemptChannelID is the self-cleaning channel; empty disables it
	ExemptChannelID string
	ExemptGrace     time.Duration
	// Mute maps a category to its timeout length; missing categories use DefaultMute
	Mute           map[classifier.Category]time.Duration
	CommandPrefix  string
	JournalTimeout time.Duration
}

// DefaultMute applies to categories without an explicit duration
const DefaultMute = time.Hour

// Parts are the collaborators the orchestrator drives
type Parts struct {
	Classifier *classifier.Classifier
	Tracker    *escalation.Tracker
	Actions    domain.Actions
	// Journal is optional
	Journal incdom.Recorder
	Metrics *Metrics
	Now     func() time.Time
}

// Svc is safe for concurrent use
type Svc struct {
	cfg     Config
	cls     *classifier.Classifier
	tracker *escalation.Tracker
	actions domain.Actions
	journal incdom.Recorder
	metrics *Metrics
	now     func() time.Time

	pending sync.WaitGroup
	done    chan struct{}
	stop    sync.Once
}

// New builds the orchestrator
func New(cfg Config, p Parts) *Svc {
	if p.Now == nil {
		p.Now = time.Now
	}
	if cfg.JournalTimeout <= 0 {
		cfg.JournalTimeout = 3 * time.Second
	}
	return &Svc{
		cfg:     cfg,
		cls:     p.Classifier,
		tracker: p.Tracker,
		actions: p.Actions,
		journal: p.Journal,
		metrics: p.Metrics,
		now:     p.Now,
		done:    make(chan struct{}),
	}
}

// Handle runs the moderation pipeline for one message. It never fails: side effect
// errors are carried in the outcome and logged
func (s *Svc) Handle(ctx context.Context, m domain.Message) domain.Outcome {
	if m.Author.Bot {
		return domain.Outcome{Verdict: domain.VerdictIgnored}
	}
	ctx = logger.WithScope(ctx, logger.Scope{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		MessageID: m.ID,
	})

	out := s.enforce(ctx, m)
	s.metrics.observe(out)
	if out.Verdict.Enforced() {
		s.record(ctx, m, out)
	}
	return out
}

func (s *Svc) enforce(ctx context.Context, m domain.Message) domain.Outcome {
	if m.Author.CanManageMessages || m.Author.IsOwner {
		return domain.Outcome{Verdict: domain.VerdictBypassed, Dispatch: true}
	}

	d := s.cls.Classify(m.Classifiable())
	if !d.Matched {
		return domain.Outcome{Verdict: domain.VerdictClean, Dispatch: true}
	}
	log := logger.C(ctx)
	out := domain.Outcome{Decision: d}

	if s.cfg.ExemptChannelID != "" && m.ChannelID == s.cfg.ExemptChannelID {
		s.deleteLater(ctx, m)
		out.Verdict = domain.VerdictExempt
		log.Info().Str("category", string(d.Category)).Dur("grace", s.cfg.ExemptGrace).Msg("exempt channel, delete scheduled")
		return out
	}

	err := s.actions.DeleteMessage(ctx, m.ChannelID, m.ID)
	out.Actions = append(out.Actions, domain.ActionResult{Kind: domain.ActionDelete, Err: err})
	if err != nil {
		log.Warn().Err(err).Msg("delete failed")
	}

	out.Escalation = s.tracker.OnViolation(m.Author.ID, string(d.Category))
	switch out.Escalation {
	case escalation.Warn:
		out.Verdict = domain.VerdictWarned
		s.notify(ctx, &out, m.ChannelID, warningNotice(d.Category, m.Author.ID))

	case escalation.Mute:
		out.MutedUntil = s.now().Add(s.muteFor(d.Category))
		err := s.actions.TimeoutUser(ctx, m.GuildID, m.Author.ID, out.MutedUntil, muteReason(d.Category))
		out.Actions = append(out.Actions, domain.ActionResult{Kind: domain.ActionTimeout, Err: err})
		if err != nil {
			out.Verdict = domain.VerdictMuteFailed
			log.Warn().Err(err).Str("category", string(d.Category)).Msg("timeout failed")
			s.notify(ctx, &out, m.ChannelID, failureNotice(m.Author.ID))
			break
		}
		out.Verdict = domain.VerdictMuted
		s.notify(ctx, &out, m.ChannelID, sanctionNotice(d.Category, m.Author.ID))
	}

	log.Info().
		Str("verdict", string(out.Verdict)).
		Str("category", string(d.Category)).
		Str("rule", d.Rule).
		Str("fragment", d.Fragment).
		Msg("violation enforced")

	out.Dispatch = s.cfg.CommandPrefix != "" && strings.HasPrefix(m.Text, s.cfg.CommandPrefix)
	return out
}

func (s *Svc) notify(ctx context.Context, out *domain.Outcome, channelID string, n domain.Notice) {
	err := s.actions.SendNotice(ctx, channelID, n)
	out.Actions = append(out.Actions, domain.ActionResult{Kind: domain.ActionNotice, Err: err})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("severity", n.Severity.String()).Msg("notice failed")
	}
}

func (s *Svc) muteFor(c classifier.Category) time.Duration {
	if d, ok := s.cfg.Mute[c]; ok && d > 0 {
		return d
	}
	return DefaultMute
}

// deleteLater removes the message after the grace period, or at once when the
// service is closing
func (s *Svc) deleteLater(ctx context.Context, m domain.Message) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		t := time.NewTimer(s.cfg.ExemptGrace)
		defer t.Stop()
		select {
		case <-t.C:
		case <-s.done:
		}
		if err := s.actions.DeleteMessage(ctx, m.ChannelID, m.ID); err != nil {
			s.metrics.failed(domain.ActionDelayedDelete)
			logger.C(ctx).Warn().Err(err).Msg("delayed delete failed")
		}
	}()
}

// record journals an enforced message; failures are logged only
func (s *Svc) record(ctx context.Context, m domain.Message, out domain.Outcome) {
	if s.journal == nil {
		return
	}
	var errs []error
	for _, a := range out.Failed() {
		errs = append(errs, errors.New(string(a.Kind)+": "+a.Err.Error()))
	}
	var actionErr string
	if err := errors.Join(errs...); err != nil {
		actionErr = err.Error()
	}

	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.JournalTimeout)
	defer cancel()
	err := s.journal.Record(jctx, incdom.Incident{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		UserID:    m.Author.ID,
		Category:  string(out.Decision.Category),
		Rule:      out.Decision.Rule,
		Fragment:  out.Decision.Fragment,
		Verdict:   string(out.Verdict),
		ActionErr: actionErr,
		At:        s.now().UTC(),
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("journal failed")
	}
}

// Close makes pending delayed deletes fire immediately; Handle stays usable
func (s *Svc) Close() { s.stop.Do(func() { close(s.done) }) }

// Wait blocks until every scheduled delete has run
func (s *Svc) Wait() { s.pending.Wait() }

var (
	_ domain.HandlerPort = (*Svc)(nil)
	_ domain.WaiterPort  = (*Svc)(nil)
)
