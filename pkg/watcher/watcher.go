package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched source was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// sourceExts are the file types a directory source is loaded from.
var sourceExts = map[string]bool{
	".json": true, ".jsonl": true, ".ndjson": true,
	".db": true, ".sqlite": true, ".sqlite3": true,
}

// SQLite writers touch these sidecars instead of the database file.
var sqliteSidecars = []string{"-wal", "-journal"}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounceDuration = d }
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnChange sets a callback run on every debounced change, before the
// Changed channel is signalled.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) { w.forcePoll = force }
}

// sourceState is what polling compares between ticks. For a directory it
// aggregates every loadable file in it.
type sourceState struct {
	mtime time.Time
	size  int64
	files int
}

func (s sourceState) zero() bool { return s.mtime.IsZero() && s.files == 0 }

// Watcher monitors one label source, a file or a directory of label files.
// It uses fsnotify on the containing directory and falls back to polling on
// remote filesystems or when TT_FORCE_POLLING is set.
type Watcher struct {
	path             string
	dir              bool
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool
	fsType           FilesystemType

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	last      sourceState

	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// NewWatcher creates a watcher for path. Nothing happens until Start.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:             absPath,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching. A file source that does not exist yet is fine;
// its creation counts as a change.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		w.dir = info.IsDir()
	case os.IsPermission(err):
		return ErrPermission
	}

	state, err := w.stat()
	if os.IsPermission(err) {
		return ErrPermission
	}
	w.last = state

	w.fsType = detectFilesystemTypeFunc(w.path)
	w.polling = w.forcePoll || envBool("TT_FORCE_POLLING") || envBool("TT_FORCE_POLL") || isRemoteFilesystem(w.fsType)

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	if !w.polling {
		if fsw, err := w.newFsnotify(); err == nil {
			w.fsWatcher = fsw
			go w.watchFsnotify(ctx, fsw)
		} else {
			w.polling = true
		}
	}
	if w.polling {
		go w.watchPolling(ctx)
	}

	w.started = true
	return nil
}

// newFsnotify watches the directory holding a file source (editors and
// exporters replace files by rename) or the directory source itself.
func (w *Watcher) newFsnotify() (*fsnotify.Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	target := w.path
	if !w.dir {
		target = filepath.Dir(w.path)
	}
	if err := fsw.Add(target); err != nil {
		fsw.Close()
		return nil, err
	}
	return fsw, nil
}

// Stop stops watching. The Changed channel stays open so a pending receive
// in the UI simply never fires.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// IsDir reports whether the source is a directory. Known after Start.
func (w *Watcher) IsDir() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dir
}

// Changed returns a channel that receives after each debounced change.
// Bursts collapse into a single pending signal.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the watched absolute path.
func (w *Watcher) Path() string {
	return w.path
}

// FilesystemType returns the best-effort filesystem classification for the watched path.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// relevant reports whether an event on name can change the loaded records.
func (w *Watcher) relevant(name string) bool {
	if w.dir {
		if filepath.Dir(name) != w.path {
			return false
		}
		return sourceExts[strings.ToLower(filepath.Ext(trimSidecar(name)))]
	}
	if name == w.path {
		return true
	}
	for _, s := range sqliteSidecars {
		if name == w.path+s {
			return true
		}
	}
	return false
}

func trimSidecar(name string) string {
	for _, s := range sqliteSidecars {
		if strings.HasSuffix(name, s) {
			return strings.TrimSuffix(name, s)
		}
	}
	return name
}

// stat fingerprints the source. A missing file source yields a zero state.
func (w *Watcher) stat() (sourceState, error) {
	if !w.dir {
		info, err := os.Stat(w.path)
		if err != nil {
			return sourceState{}, err
		}
		return sourceState{mtime: info.ModTime(), size: info.Size(), files: 1}, nil
	}

	entries, err := os.ReadDir(w.path)
	if err != nil {
		return sourceState{}, err
	}
	var s sourceState
	for _, e := range entries {
		if e.IsDir() || !w.relevant(filepath.Join(w.path, e.Name())) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.files++
		s.size += info.Size()
		if info.ModTime().After(s.mtime) {
			s.mtime = info.ModTime()
		}
	}
	return s, nil
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(filepath.Clean(event.Name)) {
				continue
			}
			// A removed file inside a directory source changes the record
			// set; a removed file source is an error until it reappears.
			if event.Op&fsnotify.Remove != 0 && !w.dir && filepath.Clean(event.Name) == w.path {
				w.onError(ErrFileRemoved)
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			state, err := w.stat()
			if err != nil {
				switch {
				case os.IsNotExist(err):
					w.mu.Lock()
					had := !w.last.zero()
					w.last = sourceState{}
					w.mu.Unlock()
					if had {
						w.onError(ErrFileRemoved)
					}
				case os.IsPermission(err):
					w.onError(ErrPermission)
				default:
					w.onError(err)
				}
				continue
			}

			w.mu.Lock()
			changed := state != w.last
			w.last = state
			w.mu.Unlock()

			if changed {
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	w.onChange()

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
