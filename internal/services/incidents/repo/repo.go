// Package repo persists incidents in Postgres
package repo

import (
	"context"

	"gatekeeper/internal/modkit/repokit"
	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/platform/store"
	"gatekeeper/internal/services/incidents/domain"
)

// Repo is the incidents persistence surface used by the service layer
type Repo interface {
	EnsureSchema(ctx context.Context) error
	Insert(ctx context.Context, in domain.Incident) error
	Recent(ctx context.Context, guildID, userID string, limit int) ([]domain.Incident, error)
}

type (
	// PG is a Postgres implementation of the incidents repo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const schema = `
	CREATE TABLE IF NOT EXISTS moderation_incidents (
		incident_id uuid        PRIMARY KEY,
		guild_id    text        NOT NULL,
		channel_id  text        NOT NULL,
		message_id  text        NOT NULL,
		user_id     text        NOT NULL,
		category    text        NOT NULL,
		rule        text        NOT NULL,
		fragment    text        NOT NULL DEFAULT '',
		verdict     text        NOT NULL,
		action_err  text        NOT NULL DEFAULT '',
		created_at  timestamptz NOT NULL
	);
	CREATE INDEX IF NOT EXISTS moderation_incidents_user_idx
		ON moderation_incidents (guild_id, user_id, created_at DESC);
`

// EnsureSchema creates the journal table and index when missing, in one
// transaction when the bound seam supports it
func (r *queries) EnsureSchema(ctx context.Context) error {
	create := func(q repokit.Queryer) error {
		if _, err := q.Exec(ctx, schema); err != nil {
			return perr.FromPostgres(err, "incidents schema")
		}
		return nil
	}
	if tx, ok := r.q.(repokit.TxRunner); ok {
		return repokit.WithTx(ctx, tx, create)
	}
	return create(r.q)
}

// Insert appends one incident; a repeated id is a duplicate key error
func (r *queries) Insert(ctx context.Context, in domain.Incident) error {
	const sql = `
		INSERT INTO moderation_incidents (
			incident_id, guild_id, channel_id, message_id, user_id,
			category, rule, fragment, verdict, action_err, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	return store.ExecOne(ctx, r.q, sql,
		in.ID, in.GuildID, in.ChannelID, in.MessageID, in.UserID,
		in.Category, in.Rule, in.Fragment, in.Verdict, in.ActionErr, in.At,
	)
}

// Recent lists a user's latest incidents in a guild
func (r *queries) Recent(ctx context.Context, guildID, userID string, limit int) ([]domain.Incident, error) {
	const sql = `
		SELECT incident_id, guild_id, channel_id, message_id, user_id,
		       category, rule, fragment, verdict, action_err, created_at
		  FROM moderation_incidents
		 WHERE guild_id = $1 AND user_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3
	`
	return store.Many(ctx, r.q, scanIncident, sql, guildID, userID, limit)
}

func scanIncident(row store.Row) (domain.Incident, error) {
	var in domain.Incident
	err := row.Scan(
		&in.ID, &in.GuildID, &in.ChannelID, &in.MessageID, &in.UserID,
		&in.Category, &in.Rule, &in.Fragment, &in.Verdict, &in.ActionErr, &in.At,
	)
	return in, err
}
