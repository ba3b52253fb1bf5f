// workers/snapshot_worker.go
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pingpair/services"
	"pingpair/utils"
)

const finalSaveTimeout = 10 * time.Second

// SnapshotSource is the state container being persisted.
type SnapshotSource interface {
	Snapshot() services.Snapshot
	Version() uint64
}

// SnapshotWorker saves the state whenever its version moved, and once more
// on shutdown.
type SnapshotWorker struct {
	source   SnapshotSource
	store    services.SnapshotStore
	interval time.Duration
	log      *utils.Logger

	mu        sync.Mutex
	lastSaved uint64
}

func NewSnapshotWorker(source SnapshotSource, store services.SnapshotStore, interval time.Duration, log *utils.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		source:    source,
		store:     store,
		interval:  interval,
		log:       log,
		lastSaved: source.Version(),
	}
}

// SaveIfChanged persists a snapshot when the version differs from the last save.
func (w *SnapshotWorker) SaveIfChanged(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.source.Version() == w.lastSaved {
		return false, nil
	}
	snap := w.source.Snapshot()
	if err := w.store.Save(ctx, &snap); err != nil {
		return false, err
	}
	w.lastSaved = snap.Version
	return true, nil
}

// Run saves on every tick until ctx is cancelled, then flushes once.
func (w *SnapshotWorker) Run(ctx context.Context) {
	w.log.Info("💾 [SNAPSHOT] worker started", "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), finalSaveTimeout)
			saved, err := w.SaveIfChanged(flushCtx)
			cancel()
			if err != nil {
				w.log.Error("❌ [SNAPSHOT] final save failed", "error", err)
			} else if saved {
				w.log.Info("💾 [SNAPSHOT] final snapshot saved", "version", w.source.Version())
			}
			w.log.Info("⏹️ [SNAPSHOT] worker stopped")
			return
		case <-ticker.C:
			saved, err := w.SaveIfChanged(ctx)
			if err != nil {
				// lastSaved is unchanged, so the next tick retries
				w.log.Error("❌ [SNAPSHOT] save failed", "error", err)
				continue
			}
			if saved {
				w.log.Debug("💾 [SNAPSHOT] saved", "version", w.source.Version())
			}
		}
	}
}

// Restorer accepts a previously saved snapshot.
type Restorer interface {
	Restore(snap services.Snapshot) error
}

// RestoreLatest loads the stored snapshot into target. It reports false when
// nothing was saved yet.
func RestoreLatest(ctx context.Context, store services.SnapshotStore, target Restorer) (bool, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return false, nil
	}
	if err := target.Restore(*snap); err != nil {
		return false, err
	}
	return true, nil
}
