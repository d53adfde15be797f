// Package service implements the incident journal over the incidents repo
package service

import (
	"context"
	"time"

	"gatekeeper/internal/modkit"
	"gatekeeper/internal/modkit/repokit"
	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/platform/logger"
	"gatekeeper/internal/services/incidents/domain"
	irepo "gatekeeper/internal/services/incidents/repo"

	"github.com/google/uuid"
)

// MaxRecent caps Recent regardless of the requested limit
const MaxRecent = 25

// Svc records and lists incidents
type Svc struct {
	repo  irepo.Repo
	now   func() time.Time
	newID func() (uuid.UUID, error)
	log   *logger.Logger
}

// New binds the Postgres repo to deps.PG; callers check deps.PG first and use Nop otherwise
func New(deps modkit.Deps) *Svc {
	return NewWithRepo(repokit.MustBind(irepo.NewPG(), deps.PG))
}

// NewWithRepo builds the service over any repo implementation
func NewWithRepo(r irepo.Repo) *Svc {
	return &Svc{
		repo:  r,
		now:   time.Now,
		newID: uuid.NewV7,
		log:   logger.Named("incidents"),
	}
}

// Init creates the schema
func (s *Svc) Init(ctx context.Context) error {
	return s.repo.EnsureSchema(ctx)
}

// Record fills ID and At when unset and appends the incident; a transient
// failure is retried once
func (s *Svc) Record(ctx context.Context, in domain.Incident) error {
	if in.UserID == "" || in.Category == "" {
		return perr.New(perr.ErrorCodeValidation, "incident needs a user and a category")
	}
	if in.ID == uuid.Nil {
		id, err := s.newID()
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnknown, "incident id")
		}
		in.ID = id
	}
	if in.At.IsZero() {
		in.At = s.now().UTC()
	}
	err := s.repo.Insert(ctx, in)
	if perr.Retryable(err) && ctx.Err() == nil {
		s.log.Debug().Err(err).Msg("incident insert retry")
		err = s.repo.Insert(ctx, in)
	}
	if err != nil {
		return perr.WithOp(err, "incidents.record")
	}
	s.log.Debug().Str("incident_id", in.ID.String()).Str("category", in.Category).Msg("incident recorded")
	return nil
}

// Recent lists a user's latest incidents; limit is clamped to 1..MaxRecent
func (s *Svc) Recent(ctx context.Context, guildID, userID string, limit int) ([]domain.Incident, error) {
	if guildID == "" || userID == "" {
		return nil, perr.InvalidArgf("recent incidents need a guild and a user")
	}
	limit = min(max(limit, 1), MaxRecent)
	out, err := s.repo.Recent(ctx, guildID, userID, limit)
	return out, perr.WithOp(err, "incidents.recent")
}

// Nop is the journal used when no database is configured
type Nop struct{}

// Record drops the incident
func (Nop) Record(context.Context, domain.Incident) error { return nil }

// Recent reports that the journal is disabled
func (Nop) Recent(context.Context, string, string, int) ([]domain.Incident, error) {
	return nil, perr.Unavailablef("incident journal disabled")
}

var (
	_ domain.Journal = (*Svc)(nil)
	_ domain.Journal = Nop{}
)
