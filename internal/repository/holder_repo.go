package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

type HolderRepo struct {
	pool *pgxpool.Pool
}

func NewHolderRepo(pool *pgxpool.Pool) *HolderRepo {
	return &HolderRepo{pool: pool}
}

// FindByHolderID returns a single holder account.
func (r *HolderRepo) FindByHolderID(ctx context.Context, holderID string) (*model.Holder, error) {
	var h model.Holder
	err := r.pool.QueryRow(ctx, `
		SELECT holder_id, role, first_seen, last_active
		FROM holders
		WHERE holder_id = $1`, holderID).Scan(
		&h.HolderID, &h.Role, &h.FirstSeen, &h.LastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrHolderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateIfNotExists inserts a new holder with the default role if one doesn't
// already exist.
func (r *HolderRepo) CreateIfNotExists(ctx context.Context, holderID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO holders (holder_id) VALUES ($1)
		ON CONFLICT (holder_id) DO NOTHING`, holderID)
	return err
}

// GetStats returns aggregate governance statistics from all tables.
func (r *HolderRepo) GetStats(ctx context.Context) (*model.StatsResponse, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM proposals) AS total_proposals,
			(SELECT COUNT(*) FROM votes) AS total_votes,
			(SELECT COUNT(DISTINCT voter_id) FROM votes) AS distinct_voters,
			(SELECT COUNT(*) FROM properties) AS total_properties,
			(SELECT COUNT(*) FROM holders WHERE last_active > NOW() - INTERVAL '24 hours') AS active_voters_24h`

	var stats model.StatsResponse
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalProposals, &stats.TotalVotes, &stats.DistinctVoters,
		&stats.TotalProperties, &stats.ActiveVoters24h,
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM proposals GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats.ProposalsByStatus = make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ProposalsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &stats, nil
}
