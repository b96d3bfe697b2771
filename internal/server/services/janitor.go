package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cmcs/internal/logging"
	"github.com/dmitrijs2005/cmcs/internal/server/repositories/repomanager"
)

// Janitor removes ciphertext files that no claim_documents row refers to.
// Such orphans appear when the process dies between writing a file and
// recording it, or when a post-delete cleanup fails. Files younger than the
// grace period are left alone, since their row may not be committed yet.
type Janitor struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       DocumentStore
	interval    time.Duration
	grace       time.Duration
	logger      logging.Logger
	now         func() time.Time
}

func NewJanitor(db *sql.DB, m repomanager.RepositoryManager, store DocumentStore, interval, grace time.Duration, logger logging.Logger) *Janitor {
	return &Janitor{
		db:          db,
		repomanager: m,
		store:       store,
		interval:    interval,
		grace:       grace,
		logger:      logger,
		now:         time.Now,
	}
}

// Run sweeps every interval until ctx is done. A non-positive interval
// disables the janitor.
func (j *Janitor) Run(ctx context.Context) {
	if j.interval <= 0 {
		j.logger.Info(ctx, "janitor disabled")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := j.Sweep(ctx); err != nil {
				j.logger.Error(ctx, "janitor sweep failed", "error", err)
			} else if n > 0 {
				j.logger.Info(ctx, "janitor removed orphaned ciphertext", "count", n)
			}
		}
	}
}

// Sweep performs one pass and returns the number of files removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	files, err := j.store.List()
	if err != nil {
		return 0, fmt.Errorf("list uploads: %w", err)
	}
	if len(files) == 0 {
		return 0, nil
	}

	known, err := j.repomanager.Documents(j.db).ListStoredNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list stored names: %w", err)
	}

	cutoff := j.now().Add(-j.grace)
	removed := 0
	for _, f := range files {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if _, ok := known[f.Name]; ok || f.ModTime.After(cutoff) {
			continue
		}
		if err := j.store.Remove(f.Name); err != nil {
			j.logger.Warn(ctx, "failed to remove orphan", "stored_name", f.Name, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}
