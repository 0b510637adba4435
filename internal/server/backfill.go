package server

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// BackfillConfig holds configuration for the thumbnail backfill job.
type BackfillConfig struct {
	Enabled  bool
	Interval time.Duration
	Server   Config
}

// StartBackfillJob starts a background goroutine that periodically
// derives thumbnails for identifiers that lack one. It restores
// eventual consistency after crashes in the upload pipeline's async
// window, and populates thumbnails for data that predates thumbnail
// support.
func StartBackfillJob(ctx context.Context, cfg BackfillConfig) {
	if !cfg.Enabled {
		log.Printf("service=backfill msg=%q", "disabled")
		return
	}

	log.Printf("service=backfill msg=%q interval=%s", "starting", cfg.Interval)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start
	runBackfill(ctx, cfg.Server)

	for {
		select {
		case <-ctx.Done():
			log.Printf("service=backfill msg=%q", "shutting_down")
			return
		case <-ticker.C:
			runBackfill(ctx, cfg.Server)
		}
	}
}

// RunBackfill performs a single scan and returns how many thumbnails
// were derived. Failures are isolated per identifier: a missing or
// undecodable original is logged and the scan moves on. Safe to run
// concurrently with live uploads; at worst a brand-new upload gets its
// thumbnail derived twice, which is harmless.
func RunBackfill(ctx context.Context, cfg Config) (int, error) {
	var (
		wg      sync.WaitGroup
		derived int64
		failed  int64
	)

	err := cfg.Meta.ScanIDs(ctx, func(id int64) error {
		if cfg.Blobs.HasThumbnail(id) {
			return nil
		}

		wg.Add(1)
		serr := cfg.Pool.Submit(ctx, func() {
			defer wg.Done()
			if derr := cfg.deriveThumbnail(id); derr != nil {
				Error("backfill derivation failed", map[string]any{"id": id}, derr)
				atomic.AddInt64(&failed, 1)
				return
			}
			atomic.AddInt64(&derived, 1)
		})
		if serr != nil {
			wg.Done()
			return serr
		}
		return nil
	})

	wg.Wait()

	if failed > 0 {
		GetMetrics().RecordThumbnailErrors(failed)
	}
	GetMetrics().RecordBackfillRun(derived)
	return int(atomic.LoadInt64(&derived)), err
}

func runBackfill(ctx context.Context, cfg Config) {
	start := time.Now()
	log.Printf("service=backfill msg=%q", "starting_backfill_run")

	derived, err := RunBackfill(ctx, cfg)
	if err != nil {
		log.Printf("service=backfill msg=%q err=%v", "scan_failed", err)
		return
	}

	log.Printf("service=backfill msg=%q derived=%d duration_ms=%d",
		"backfill_complete", derived, time.Since(start).Milliseconds())
}
