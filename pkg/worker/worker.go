package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/google/uuid"
	"github.com/inkwellnotes/inkwell/pkg/config"
	"github.com/inkwellnotes/inkwell/pkg/metadata"
	"github.com/inkwellnotes/inkwell/pkg/metrics"
	"github.com/inkwellnotes/inkwell/pkg/sandbox"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// Worker periodically removes file records whose file no longer exists on
// disk. Those are left behind by the orphan folder delete policy and by files
// removed outside of the API.
type Worker struct {
	log logger.Logger

	sandbox         *sandbox.Sandbox
	metadataService *metadata.Service

	interval time.Duration
	cancel   context.CancelFunc
	shutdown chan struct{}
	done     chan struct{}
	started  bool
}

func New(cfg *config.Config, db *bun.DB, sb *sandbox.Sandbox) *Worker {
	return &Worker{
		log: logger.New(),

		sandbox:         sb,
		metadataService: metadata.NewService(db),

		interval: time.Duration(cfg.ReconcileIntervalMinutes) * time.Minute,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the reconcile loop in the background. A zero interval disables
// it.
func (w *Worker) Start() {
	if w.interval <= 0 {
		w.log.Info("reconciler disabled")
		return
	}
	w.started = true

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	timer := time.NewTimer(w.interval)

	for {
		select {
		case <-w.shutdown:
			timer.Stop()
			return
		case <-timer.C:
			id, err := uuid.NewRandom()
			if err != nil {
				w.log.Err(err).Error("new uuid error")
				timer.Reset(w.interval)
				continue
			}
			log := w.log.ID(id.String()).Root(logger.Data{"task": "reconcile"})
			removed, err := w.Reconcile(log.WithContext(ctx))
			if err != nil {
				log.Err(err).Error("reconcile error")
			} else {
				log.Info("reconcile finished", logger.Data{"removed": removed})
			}
			timer.Reset(w.interval)
		}
	}
}

// Shutdown stops the loop, cancelling a sweep that is in flight, and waits
// for it to return.
func (w *Worker) Shutdown() {
	if !w.started {
		return
	}
	close(w.shutdown)
	w.cancel()
	<-w.done
}

// Reconcile sweeps every owner that has records and returns how many records
// were removed. An owner whose notes can't be fully listed is skipped so that
// an unreadable folder never looks like a deleted one.
func (w *Worker) Reconcile(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	owners, err := w.metadataService.ListOwners(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return total, errors.WithStack(err)
		}
		removed, err := w.ReconcileOwner(ctx, owner)
		if err != nil {
			log.Err(err).Warn("skipping owner", logger.Data{"owner": owner})
			continue
		}
		total += len(removed)
	}
	return total, nil
}

// ReconcileOwner removes the owner's records whose file is gone and returns
// their paths. Records touched after the sweep started are kept.
func (w *Worker) ReconcileOwner(ctx context.Context, owner string) ([]string, error) {
	log := logger.FromContext(ctx)
	since := time.Now().UTC()

	root, err := w.sandbox.UserRoot(owner)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	present := map[string]struct{}{}

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			metrics.Skipped(metrics.ComponentReconciler, metrics.ReasonPermission)
			return errors.Wrapf(err, "failed to list %s", p)
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return errors.WithStack(err)
		}
		rel = filepath.ToSlash(rel)
		mu.Lock()
		present[rel] = struct{}{}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	removed, err := w.metadataService.Reconcile(ctx, owner, present, since)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		metrics.ReconciledRecords.Add(float64(len(removed)))
		log.Info("removed records for missing files", logger.Data{"owner": owner, "paths": removed})
	}
	return removed, nil
}
