package keyword

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const policyDebounce = 400 * time.Millisecond

// LoadPolicy reads a boost policy from a YAML file. The file holds the curated
// term list and boost amount, edited by operators without a redeploy.
func LoadPolicy(path string) (BoostPolicy, error) {
	var policy BoostPolicy
	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("failed to read boost policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("failed to parse boost policy: %w", err)
	}
	return policy, nil
}

// PolicyWatcher watches a boost policy file and invokes a callback with the
// reloaded policy on change. Write events are debounced so editors that write
// in multiple syscalls trigger a single reload.
type PolicyWatcher struct {
	path     string
	onReload func(BoostPolicy)
	watcher  *fsnotify.Watcher
	logger   *zap.Logger

	mu       sync.Mutex
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// PolicyWatcherOption configures a PolicyWatcher.
type PolicyWatcherOption func(*PolicyWatcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) PolicyWatcherOption {
	return func(w *PolicyWatcher) { w.logger = l }
}

// NewPolicyWatcher creates a watcher for the policy file at path. onReload is
// called with each successfully loaded policy.
func NewPolicyWatcher(path string, onReload func(BoostPolicy), opts ...PolicyWatcherOption) *PolicyWatcher {
	w := &PolicyWatcher{
		path:     path,
		onReload: onReload,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts watching. It runs until ctx is cancelled or Stop is called.
// The parent directory is watched rather than the file itself so atomic
// rename-over-write saves are seen.
func (w *PolicyWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()
	if w.logger != nil {
		w.logger.Debug("policy watcher starting", zap.String("path", w.path))
	}
	go w.run(ctx)
	return nil
}

func (w *PolicyWatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				w.debounceReload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("policy watcher error", zap.Error(err))
			}
		}
	}
}

func (w *PolicyWatcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(policyDebounce, w.reload)
}

func (w *PolicyWatcher) reload() {
	policy, err := LoadPolicy(w.path)
	if err != nil {
		// Keep the previous policy on a bad file.
		if w.logger != nil {
			w.logger.Warn("policy reload failed", zap.String("path", w.path), zap.Error(err))
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("boost policy reloaded", zap.String("path", w.path), zap.Int("terms", len(policy.Terms)))
	}
	if w.onReload != nil {
		w.onReload(policy)
	}
}

// Stop stops the watcher and releases resources.
func (w *PolicyWatcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
