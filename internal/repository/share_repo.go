package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finsterfurz/coinestate-governance-go/internal/model"
)

// ShareRepo reads the share ledger tables maintained by the NFT platform.
// It is read-only here: mint and transfer mechanics live outside this service.
type ShareRepo struct {
	pool *pgxpool.Pool
}

func NewShareRepo(pool *pgxpool.Pool) *ShareRepo {
	return &ShareRepo{pool: pool}
}

// SharesHeldBy returns the holder's current share count within the scope.
// This is a live read of holdings, not a snapshot; a holder with no rows is
// a legitimate zero, not an error.
func (r *ShareRepo) SharesHeldBy(ctx context.Context, holderID, scope string) (int64, error) {
	var shares int64
	var err error
	if scope == model.ScopeGlobal {
		err = r.pool.QueryRow(ctx, `
			SELECT COALESCE(SUM(shares), 0) FROM share_holdings WHERE holder_id = $1`,
			holderID).Scan(&shares)
	} else {
		err = r.pool.QueryRow(ctx, `
			SELECT COALESCE(SUM(shares), 0) FROM share_holdings
			WHERE holder_id = $1 AND property_id = $2`,
			holderID, scope).Scan(&shares)
	}
	return shares, err
}

// TotalSharesOutstanding returns the issued share total for the scope. An
// unknown property yields zero, which the evaluator resolves as quorum
// unreachable.
func (r *ShareRepo) TotalSharesOutstanding(ctx context.Context, scope string) (int64, error) {
	var total int64
	var err error
	if scope == model.ScopeGlobal {
		err = r.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(total_shares), 0) FROM properties`).Scan(&total)
	} else {
		err = r.pool.QueryRow(ctx, `
			SELECT COALESCE(SUM(total_shares), 0) FROM properties WHERE property_id = $1`,
			scope).Scan(&total)
	}
	return total, err
}
