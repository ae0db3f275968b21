package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

type ProposalRepo struct {
	pool *pgxpool.Pool
}

func NewProposalRepo(pool *pgxpool.Pool) *ProposalRepo {
	return &ProposalRepo{pool: pool}
}

const proposalColumns = `
	id, scope, title, description, proposer_id,
	quorum_threshold, approval_threshold, start_time, end_time, status,
	votes_for, votes_against, votes_abstain, total_votes,
	actions, created_at, ended_at, executed_at, execution_results`

// openDupIndex is the partial unique index on (scope, title) over open
// proposals. It is what actually serializes concurrent creates; the EXISTS
// pre-check below only short-circuits the common case.
const openDupIndex = "idx_proposals_open_dup"

// Create inserts a new proposal. Fails with ErrDuplicateProposal if another
// proposal with the same scope and title is still open (pending or active).
// Two concurrent creates both pass the EXISTS pre-check under READ COMMITTED;
// the insert that loses the race hits the partial unique index instead.
func (r *ProposalRepo) Create(ctx context.Context, p *model.Proposal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM proposals
			WHERE scope = $1 AND title = $2 AND status IN ('pending', 'active')
		)`, p.Scope, p.Title).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return model.ErrDuplicateProposal
	}

	actions, err := json.Marshal(p.Actions)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO proposals (
			id, scope, title, description, proposer_id,
			quorum_threshold, approval_threshold, start_time, end_time, status,
			actions, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Scope, p.Title, p.Description, p.ProposerID,
		p.QuorumThreshold, p.ApprovalThreshold, p.StartTime, p.EndTime, p.Status,
		actions, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, openDupIndex) {
			return model.ErrDuplicateProposal
		}
		return err
	}

	return tx.Commit(ctx)
}

// isUniqueViolation reports whether err is a PostgreSQL unique violation
// (SQLSTATE 23505) on the named constraint or index.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// FindByID returns a single proposal by its ID.
func (r *ProposalRepo) FindByID(ctx context.Context, id string) (*model.Proposal, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+proposalColumns+` FROM proposals WHERE id = $1`, id)
	p, err := scanProposal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrProposalNotFound
	}
	return p, err
}

// List returns proposals matching the filter, newest first.
func (r *ProposalRepo) List(ctx context.Context, f model.ProposalFilter) ([]model.Proposal, error) {
	query := `SELECT` + proposalColumns + ` FROM proposals WHERE 1=1`
	args := []any{}

	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Scope != "" {
		args = append(args, f.Scope)
		query += fmt.Sprintf(" AND scope = $%d", len(args))
	}
	if f.ProposerID != "" {
		args = append(args, f.ProposerID)
		query += fmt.Sprintf(" AND proposer_id = $%d", len(args))
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []model.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

// ListPendingDue returns pending proposals whose start time has passed.
func (r *ProposalRepo) ListPendingDue(ctx context.Context, now time.Time) ([]model.Proposal, error) {
	return r.listDue(ctx, `status = 'pending' AND start_time <= $1`, now)
}

// ListActiveDue returns active proposals whose voting window has elapsed.
func (r *ProposalRepo) ListActiveDue(ctx context.Context, now time.Time) ([]model.Proposal, error) {
	return r.listDue(ctx, `status = 'active' AND end_time < $1`, now)
}

func (r *ProposalRepo) listDue(ctx context.Context, cond string, now time.Time) ([]model.Proposal, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+proposalColumns+` FROM proposals WHERE `+cond, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []model.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

// TransitionStatus advances a proposal from one status to another. The update
// is conditional on the source status, so a concurrent transition (another
// sweep run, an opportunistic check from a vote cast) can never double-apply
// or overwrite a newer state. Returns false when the proposal was not in the
// expected source status.
func (r *ProposalRepo) TransitionStatus(ctx context.Context, id string, from, to model.ProposalStatus, endedAt *time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals
		SET status = $1, ended_at = COALESCE($2, ended_at)
		WHERE id = $3 AND status = $4`,
		to, endedAt, id, from)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClaimExecution atomically moves a succeeded proposal to executed, claiming
// the right to dispatch its actions. Exactly one caller across all instances
// wins the claim.
func (r *ProposalRepo) ClaimExecution(ctx context.Context, id string, executedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE proposals
		SET status = 'executed', executed_at = $1
		WHERE id = $2 AND status = 'succeeded'`,
		executedAt, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SaveExecutionResults records the per-action outcomes after dispatch.
func (r *ProposalRepo) SaveExecutionResults(ctx context.Context, id string, results []model.ActionResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal execution results: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE proposals SET execution_results = $1 WHERE id = $2`, data, id)
	return err
}

func scanProposal(row pgx.Row) (*model.Proposal, error) {
	var (
		p       model.Proposal
		actions []byte
		results []byte
	)
	err := row.Scan(
		&p.ID, &p.Scope, &p.Title, &p.Description, &p.ProposerID,
		&p.QuorumThreshold, &p.ApprovalThreshold, &p.StartTime, &p.EndTime, &p.Status,
		&p.VotesFor, &p.VotesAgainst, &p.VotesAbstain, &p.TotalVotes,
		&actions, &p.CreatedAt, &p.EndedAt, &p.ExecutedAt, &results,
	)
	if err != nil {
		return nil, err
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &p.Actions); err != nil {
			return nil, fmt.Errorf("unmarshal actions: %w", err)
		}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &p.ExecutionResults); err != nil {
			return nil, fmt.Errorf("unmarshal execution results: %w", err)
		}
	}
	return &p, nil
}
