package git

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// ReloadFunc is called when the rule repository head moves and rule
// files changed. It receives the rules directory inside the checkout
// and should load everything from it; returning an error triggers a
// rollback to the previous head.
type ReloadFunc func(rulesPath string) error

// PollWatcher detects remote rule changes by pulling at an interval
// and comparing head hashes. Commits that touch no rule files advance
// the tracked head without a reload; a failed reload rolls the
// checkout back so the on-disk rules match the program still running.
type PollWatcher struct {
	repo     *Repository
	interval time.Duration
	timeout  time.Duration
	reload   ReloadFunc
	logger   *slog.Logger

	mu       sync.RWMutex
	running  bool
	lastHead string
	stopCh   chan struct{}
	stats    WatchStats

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewPollWatcher creates a watcher over an initialized repository. A
// non-positive interval falls back to 30 seconds.
func NewPollWatcher(repo *Repository, interval, timeout time.Duration, reload ReloadFunc) *PollWatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PollWatcher{
		repo:     repo,
		interval: interval,
		timeout:  timeout,
		reload:   reload,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
	}
}

// SetLogger replaces the default logger.
func (w *PollWatcher) SetLogger(logger *slog.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger = logger
}

// Start records the current head and begins polling in the
// background. The context cancels the poll loop.
func (w *PollWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}

	head, err := w.repo.Head()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("failed to read initial head: %w", err)
	}
	w.lastHead = head.SHA
	w.running = true
	w.mu.Unlock()

	w.logger.Info("rule repository watcher started",
		"poll_interval", w.interval,
		"head", shortSHA(head.SHA),
	)

	go w.pollLoop(ctx)
	return nil
}

// Stop ends the poll loop and cancels any pending debounced reload.
func (w *PollWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return fmt.Errorf("watcher not running")
	}

	close(w.stopCh)
	w.running = false

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceMu.Unlock()

	return nil
}

// IsRunning reports whether the poll loop is active.
func (w *PollWatcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *PollWatcher) pollLoop(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rule repository watcher stopped", "reason", "context cancelled")
			return
		case <-w.stopCh:
			w.logger.Info("rule repository watcher stopped")
			return
		case <-ticker.C:
			if err := w.checkForChanges(ctx); err != nil {
				w.logger.Error("rule repository poll failed", "error", err)
			}
		}
	}
}

// checkForChanges pulls and decides whether the new head warrants a
// reload.
func (w *PollWatcher) checkForChanges(ctx context.Context) error {
	w.mu.Lock()
	w.stats.PollCount++
	w.mu.Unlock()

	pullCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		pullCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	result, err := w.repo.Pull(pullCtx)
	if err != nil {
		return fmt.Errorf("failed to pull: %w", err)
	}

	if !result.HadChanges {
		return nil
	}

	w.logger.Info("rule repository head moved",
		"from", shortSHA(result.FromSHA),
		"to", shortSHA(result.ToSHA),
		"changed_files", len(result.ChangedFiles),
	)

	if !hasRuleFileChanges(result.ChangedFiles) {
		w.mu.Lock()
		w.stats.SkippedPolls++
		w.lastHead = result.ToSHA
		w.mu.Unlock()

		w.logger.Info("no rule files changed, skipping reload",
			"head", shortSHA(result.ToSHA),
		)
		return nil
	}

	w.debounceReload(ctx, result.ToSHA)
	return nil
}

// hasRuleFileChanges reports whether any changed path is a rule file.
func hasRuleFileChanges(files []string) bool {
	for _, file := range files {
		if ruleExtensions[filepath.Ext(file)] {
			return true
		}
	}
	return false
}

// debounceReload defers the reload briefly so several quick polls
// collapse into one reload of the final head.
func (w *PollWatcher) debounceReload(ctx context.Context, newSHA string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
		if err := w.performReload(ctx, newSHA); err != nil {
			w.logger.Error("rule reload failed", "error", err)
		}
	})
}

// performReload runs the reload callback and rolls the checkout back
// when the new head does not load.
func (w *PollWatcher) performReload(ctx context.Context, newSHA string) error {
	start := time.Now()
	defer func() {
		w.mu.Lock()
		w.stats.LastReloadDur = time.Since(start)
		w.stats.LastReloadTime = time.Now()
		w.mu.Unlock()
	}()

	w.mu.RLock()
	previousSHA := w.lastHead
	w.mu.RUnlock()

	w.logger.Info("reloading rules", "head", shortSHA(newSHA))

	if err := w.reload(w.repo.RulesPath()); err != nil {
		w.mu.Lock()
		w.stats.FailedReloads++
		w.mu.Unlock()

		w.logger.Error("rule reload failed, rolling back checkout",
			"error", err,
			"head", shortSHA(newSHA),
			"rollback_to", shortSHA(previousSHA),
		)

		if rbErr := w.rollback(ctx, previousSHA); rbErr != nil {
			w.logger.Error("rollback failed",
				"error", rbErr,
				"target", shortSHA(previousSHA),
			)
			return fmt.Errorf("reload failed and rollback failed: %w (rollback: %v)", err, rbErr)
		}

		w.logger.Info("checkout rolled back", "head", shortSHA(previousSHA))
		return fmt.Errorf("rule reload failed: %w", err)
	}

	w.mu.Lock()
	w.lastHead = newSHA
	w.stats.SuccessfulReloads++
	w.mu.Unlock()

	w.logger.Info("rules reloaded",
		"from", shortSHA(previousSHA),
		"to", shortSHA(newSHA),
		"duration", time.Since(start),
	)
	return nil
}

// rollback reverts the checkout and reloads from the reverted tree so
// the working directory and the active program agree.
func (w *PollWatcher) rollback(ctx context.Context, sha string) error {
	if err := w.repo.Rollback(ctx, sha); err != nil {
		return fmt.Errorf("failed to rollback checkout: %w", err)
	}
	if err := w.reload(w.repo.RulesPath()); err != nil {
		return fmt.Errorf("failed to reload rules after rollback: %w", err)
	}
	return nil
}

// ForceCheck polls immediately instead of waiting for the next tick,
// used by hosts that want a sync right after startup.
func (w *PollWatcher) ForceCheck(ctx context.Context) error {
	w.mu.RLock()
	if !w.running {
		w.mu.RUnlock()
		return fmt.Errorf("watcher not running")
	}
	w.mu.RUnlock()

	return w.checkForChanges(ctx)
}

// LastHead returns the commit the rules were last successfully loaded
// from.
func (w *PollWatcher) LastHead() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHead
}

// Stats returns a copy of the watcher counters.
func (w *PollWatcher) Stats() WatchStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}
