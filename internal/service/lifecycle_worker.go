package service

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleWorker is a periodic background job driving the lifecycle sweep.
// The sweep itself is idempotent, so overlapping runs across instances are
// harmless.
type LifecycleWorker struct {
	svc      *LifecycleService
	interval time.Duration
	sweepDur prometheus.Observer // may be nil
	stopCh   chan struct{}
}

// NewLifecycleWorker creates a worker that sweeps every interval.
func NewLifecycleWorker(svc *LifecycleService, interval time.Duration, sweepDur prometheus.Observer) *LifecycleWorker {
	return &LifecycleWorker{
		svc:      svc,
		interval: interval,
		sweepDur: sweepDur,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep loop. It runs one tick immediately, then
// every interval.
func (w *LifecycleWorker) Start(ctx context.Context) {
	log.Printf("lifecycle-worker: starting (interval=%s)", w.interval)

	// Run once immediately on startup
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Println("lifecycle-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Println("lifecycle-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *LifecycleWorker) Stop() {
	close(w.stopCh)
}

func (w *LifecycleWorker) tick(ctx context.Context) {
	start := time.Now()

	activated, closed, err := w.svc.Sweep(ctx)
	if w.sweepDur != nil {
		w.sweepDur.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		log.Printf("lifecycle-worker: sweep error: %v", err)
		return
	}

	if activated > 0 || closed > 0 {
		log.Printf("lifecycle-worker: tick complete: %d activated, %d closed (%s)",
			activated, closed, time.Since(start).Round(time.Millisecond))
	}
}
