// Package watch reports changes to configuration files.
package watch

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/event"
	"github.com/FragileTech/ml-ops-quickstart-sub000/internal/logging"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithBus publishes a config.changed event for every reported change.
func WithBus(bus *event.Bus) Option {
	return func(w *Watcher) { w.bus = bus }
}

type snapshot struct {
	exists bool
	data   []byte
}

// Watcher watches a fixed set of files. It watches their parent directories,
// so files may be created, replaced or removed while it runs. A change is
// reported only when the content differs from the last snapshot, which lets
// the caller ignore its own writes by calling Refresh after writing.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	bus      *event.Bus

	mu      sync.Mutex
	files   map[string]snapshot
	started bool

	changes chan []string
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a watcher for paths. Paths whose directory does not exist are
// not watched.
func New(paths []string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		debounce: DefaultDebounce,
		files:    make(map[string]snapshot),
		changes:  make(chan []string, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
				logging.Debug().Str("dir", dir).Msg("config directory does not exist, not watched")
				continue
			}
			if err := fw.Add(dir); err != nil {
				fw.Close()
				return nil, err
			}
			dirs[dir] = true
		}
		w.files[abs] = read(abs)
	}
	return w, nil
}

// Paths returns the watched files.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Changes delivers the files whose content changed, once writes settle.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Refresh takes a new snapshot of every file.
func (w *Watcher) Refresh() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p := range w.files {
		w.files[p] = read(p)
	}
}

// Start begins watching.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	select {
	case <-w.stopCh:
		w.mu.Unlock()
		return nil
	default:
		close(w.stopCh)
	}
	w.mu.Unlock()

	if started {
		<-w.doneCh
	}
	return w.watcher.Close()
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	pending := make(map[string]bool)
	var settle <-chan time.Time
	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(ev.Name)
			if !w.tracked(name) {
				continue
			}
			pending[name] = true
			settle = time.After(w.debounce)
		case <-settle:
			settle = nil
			changed := w.compare(pending)
			clear(pending)
			if len(changed) == 0 {
				continue
			}
			logging.Info().Strs("paths", changed).Msg("configuration changed")
			if err := w.bus.Publish(event.ConfigChanged, event.ConfigChangedData{Paths: changed}); err != nil {
				logging.Warn().Err(err).Msg("publish config change")
			}
			select {
			case w.changes <- changed:
			case <-w.stopCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) tracked(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[name]
	return ok
}

// compare updates the snapshots of pending and returns those that changed.
func (w *Watcher) compare(pending map[string]bool) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var changed []string
	for p := range pending {
		now := read(p)
		prev := w.files[p]
		if now.exists == prev.exists && bytes.Equal(now.data, prev.data) {
			continue
		}
		w.files[p] = now
		changed = append(changed, p)
	}
	sort.Strings(changed)
	return changed
}

func read(path string) snapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot{}
	}
	return snapshot{exists: true, data: data}
}
