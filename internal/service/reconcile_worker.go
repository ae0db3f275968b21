package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReconcileWorker listens for PostgreSQL NOTIFY on the 'vote_changes' channel
// and batches tally reconciliations. The cached aggregate on the proposal row
// is maintained by atomic increments at cast time; this worker recomputes it
// from the raw vote rows to self-heal any drift left by partial failures.
// If 50 votes hit proposal X in one window, it reconciles once.
type ReconcileWorker struct {
	pool    *pgxpool.Pool
	votes   VoteStore
	cache   *CacheService
	batchMs time.Duration

	mu      sync.Mutex
	pending map[string]struct{} // proposal IDs waiting for reconciliation
}

// NewReconcileWorker creates a tally reconciliation worker.
func NewReconcileWorker(pool *pgxpool.Pool, votes VoteStore, cache *CacheService, batchWait time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		pool:    pool,
		votes:   votes,
		cache:   cache,
		batchMs: batchWait,
		pending: make(map[string]struct{}),
	}
}

// Start begins listening for vote_changes notifications and processing
// batches.
func (w *ReconcileWorker) Start(ctx context.Context) {
	log.Printf("reconcile-worker: starting (batch window=%s)", w.batchMs)

	for {
		if err := w.listenLoop(ctx); err != nil {
			if ctx.Err() != nil {
				log.Println("reconcile-worker: stopping (context cancelled)")
				return
			}
			log.Printf("reconcile-worker: listen error, reconnecting in 5s: %v", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				log.Println("reconcile-worker: stopping (context cancelled)")
				return
			}
		}
	}
}

// listenLoop acquires a dedicated connection, LISTENs on vote_changes, and
// processes notifications in batched windows.
func (w *ReconcileWorker) listenLoop(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, "LISTEN vote_changes")
	if err != nil {
		return err
	}
	log.Println("reconcile-worker: listening on vote_changes")

	// Start the batch flush goroutine
	flushCtx, flushCancel := context.WithCancel(ctx)
	defer flushCancel()
	go w.flushLoop(flushCtx)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		proposalID := notification.Payload
		if proposalID == "" {
			continue
		}

		w.mu.Lock()
		w.pending[proposalID] = struct{}{}
		w.mu.Unlock()
	}
}

// flushLoop periodically drains the pending set and reconciles tallies.
func (w *ReconcileWorker) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(w.batchMs)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush(ctx)
		case <-ctx.Done():
			// Final flush before exit
			w.flush(context.Background())
			return
		}
	}
}

// flush drains the pending set and reconciles each proposal's tally.
func (w *ReconcileWorker) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	// Swap out the pending map
	batch := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	reconciled := 0
	for proposalID := range batch {
		if err := w.votes.ReconcileTally(ctx, proposalID); err != nil {
			log.Printf("reconcile-worker: reconcile error for %s: %v", proposalID, err)
			continue
		}

		if w.cache != nil {
			if err := w.cache.InvalidateProposal(ctx, proposalID); err != nil {
				log.Printf("reconcile-worker: cache invalidate error for %s: %v", proposalID, err)
			}
		}

		reconciled++
	}

	if reconciled > 0 {
		log.Printf("reconcile-worker: batch complete: %d proposals reconciled (from %d notifications)",
			reconciled, len(batch))
	}
}
