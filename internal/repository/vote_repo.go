package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// Cast persists a vote and applies its weight to the proposal's cached
// aggregate as one transaction. The insert uses ON CONFLICT DO NOTHING on the
// (proposal_id, voter_id) key, so two concurrent casts from the same voter
// race on the row itself and exactly one wins; the loser gets ErrAlreadyVoted.
// The aggregate update is a database-level increment conditional on the
// proposal still being active, so concurrent voters never lose updates and a
// cast cannot land on a proposal the sweep closed mid-flight.
func (r *VoteRepo) Cast(ctx context.Context, v *model.Vote) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Ensure the voter account exists (auto-create with the default role)
	_, err = tx.Exec(ctx, `
		INSERT INTO holders (holder_id) VALUES ($1)
		ON CONFLICT (holder_id) DO UPDATE SET last_active = NOW()`,
		v.VoterID)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO votes (proposal_id, voter_id, support, voting_power, reason, ip_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (proposal_id, voter_id) DO NOTHING`,
		v.ProposalID, v.VoterID, v.Support, v.VotingPower, v.Reason, v.IPHash, v.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyVoted
	}

	var column string
	switch v.Support {
	case model.SupportFor:
		column = "votes_for"
	case model.SupportAgainst:
		column = "votes_against"
	case model.SupportAbstain:
		column = "votes_abstain"
	default:
		return fmt.Errorf("unknown support value %q", v.Support)
	}

	tag, err = tx.Exec(ctx, fmt.Sprintf(`
		UPDATE proposals
		SET %s = %s + $1, total_votes = total_votes + $1
		WHERE id = $2 AND status = 'active'`, column, column),
		v.VotingPower, v.ProposalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Rolls back the vote insert with it; all-or-nothing.
		return model.ErrProposalNotActive
	}

	// Wake the reconcile worker so the cached aggregate is re-verified
	// against the raw vote rows.
	_, err = tx.Exec(ctx, `SELECT pg_notify('vote_changes', $1)`, v.ProposalID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListByProposal returns all votes for a proposal, oldest first.
func (r *VoteRepo) ListByProposal(ctx context.Context, proposalID string) ([]model.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT proposal_id, voter_id, support, voting_power, reason, ip_hash, created_at
		FROM votes
		WHERE proposal_id = $1
		ORDER BY created_at ASC`, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var votes []model.Vote
	for rows.Next() {
		var v model.Vote
		err := rows.Scan(&v.ProposalID, &v.VoterID, &v.Support, &v.VotingPower,
			&v.Reason, &v.IPHash, &v.CreatedAt)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// ReconcileTally recomputes a proposal's cached aggregate from the raw vote
// rows in a single statement, healing any drift left by partial failures.
// The subselects and the write happen under one statement snapshot, so a
// concurrent atomic increment is never half-applied.
func (r *VoteRepo) ReconcileTally(ctx context.Context, proposalID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE proposals p
		SET votes_for = agg.f, votes_against = agg.a, votes_abstain = agg.ab,
		    total_votes = agg.f + agg.a + agg.ab
		FROM (
			SELECT
				COALESCE(SUM(voting_power) FILTER (WHERE support = 'for'), 0)     AS f,
				COALESCE(SUM(voting_power) FILTER (WHERE support = 'against'), 0) AS a,
				COALESCE(SUM(voting_power) FILTER (WHERE support = 'abstain'), 0) AS ab
			FROM votes
			WHERE proposal_id = $1
		) agg
		WHERE p.id = $1`, proposalID)
	return err
}
