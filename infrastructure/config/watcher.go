package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	domainconfig "github.com/felixgeelhaar/plan-go/domain/config"
	"github.com/felixgeelhaar/plan-go/infrastructure/logging"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a configuration file when it or one of its domain
// operator files changes.
type Watcher struct {
	path     string
	loader   *Loader
	debounce time.Duration
	onChange func(*domainconfig.PlannerConfig)
	onError  func(error)

	fsw     *fsnotify.Watcher
	mu      sync.Mutex
	watched map[string]struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the settle delay before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// OnChange registers the callback invoked with every successfully reloaded configuration.
func OnChange(fn func(*domainconfig.PlannerConfig)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// OnError registers the callback invoked when a reload fails. The previous
// configuration stays in effect.
func OnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, loader *Loader, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainconfig.ErrWatchFailed, err)
	}
	if loader == nil {
		loader = NewLoader()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainconfig.ErrWatchFailed, err)
	}

	w := &Watcher{
		path:     abs,
		loader:   loader,
		debounce: DefaultDebounce,
		onChange: func(*domainconfig.PlannerConfig) {},
		onError:  func(error) {},
		fsw:      fsw,
		watched:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Load reads the configuration and refreshes the set of watched files.
func (w *Watcher) Load() (*domainconfig.PlannerConfig, error) {
	cfg, err := w.loader.LoadFile(w.path)
	if err != nil {
		return nil, err
	}
	files := []string{w.path}
	for _, d := range cfg.Domains {
		files = append(files, d.Operators)
	}
	if err := w.track(files); err != nil {
		return nil, err
	}
	return cfg, nil
}

// track watches the parent directories of files, since editors commonly
// replace files instead of writing them in place.
func (w *Watcher) track(files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.watched = make(map[string]struct{}, len(files))
	for _, f := range files {
		w.watched[filepath.Clean(f)] = struct{}{}
		dir := filepath.Dir(f)
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("%w: %s: %v", domainconfig.ErrWatchFailed, dir, err)
		}
	}
	return nil
}

func (w *Watcher) relevant(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.watched[filepath.Clean(name)]
	return ok
}

// Run watches until ctx is done. The first load must succeed.
func (w *Watcher) Run(ctx context.Context) error {
	if _, err := w.Load(); err != nil {
		return err
	}
	logging.Info().Add(logging.Path(w.path)).Msg("watching configuration")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			logging.Debug().
				Add(logging.Path(event.Name)).
				Add(logging.Str("op", event.Op.String())).
				Msg("configuration change detected")
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logging.Warn().Add(logging.ErrorField(err)).Msg("watch error")

		case <-timer.C:
			cfg, err := w.Load()
			if err != nil {
				logging.Warn().Add(logging.Path(w.path)).Add(logging.ErrorField(err)).Msg("configuration reload failed")
				w.onError(err)
				continue
			}
			logging.Info().Add(logging.Path(w.path)).Add(logging.Int("domains", len(cfg.Domains))).Msg("configuration reloaded")
			w.onChange(cfg)
		}
	}
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
