package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler is invoked once per qualifying change with the changed path.
// Each call runs on its own goroutine; ctx ends when the watcher stops.
type Handler func(ctx context.Context, path string)

// Options configures the watch behaviour.
type Options struct {
	// Root is the directory to watch recursively.
	Root string

	// Ext is the suffix a changed path must end with to qualify.
	Ext string

	// Ignore lists directory base names that are not descended into.
	Ignore []string

	// Debounce is the quiet period before a change is handed on. Zero
	// hands every qualifying change on immediately.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *slog.Logger

	// Ready, when set, is called once every directory is under watch.
	Ready func(root string)

	// Stopped, when set, is called on shutdown by context or signal.
	Stopped func()
}

// Run starts the file watcher and blocks until the context is cancelled,
// a SIGINT/SIGTERM signal is received, or the watcher fails. Shutdown
// returns nil; a watcher failure is returned as an error.
func Run(ctx context.Context, opts Options, handle Handler) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Ext == "" {
		return errors.New("watch: empty extension filter")
	}

	if handle == nil {
		return errors.New("watch: nil handler")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	ignore := newIgnoreSet(opts.Ignore)
	known := make(fileSet)
	record := known.recorder(opts.Ext)

	if err := addRecursive(watcher, opts.Root, ignore, record); err != nil {
		return fmt.Errorf("watching root %s: %w", opts.Root, err)
	}

	opts.Logger.Debug("watch established",
		slog.String("root", opts.Root),
		slog.Int("directories", len(watcher.WatchList())),
		slog.Int("knownFiles", len(known)),
	)

	// Trap SIGINT / SIGTERM for graceful shutdown.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithCancel(sigCtx)

	d := &dispatcher{ctx: runCtx, handle: handle}

	submit := d.submit
	var debouncer *Debouncer

	if opts.Debounce > 0 {
		debouncer = NewDebouncer(opts.Debounce, opts.Logger, d.submit)
		submit = debouncer.Trigger
	}

	defer func() {
		if debouncer != nil {
			debouncer.Stop()
		}

		cancel()
		d.close()
	}()

	if opts.Ready != nil {
		opts.Ready(opts.Root)
	}

	loop := &eventLoop{
		ext:     opts.Ext,
		logger:  opts.Logger,
		submit:  submit,
		stopped: opts.Stopped,
		known:   known,
		created: func(path string) { watchNewDir(watcher, path, ignore, opts.Logger, record) },
	}

	return loop.run(sigCtx, watcher.Events, watcher.Errors)
}

// eventLoop turns raw watcher events into handler submissions.
type eventLoop struct {
	ext     string
	logger  *slog.Logger
	submit  func(path string)
	created func(path string)
	stopped func()

	// known holds suffix-matching files that exist, so a file replaced by
	// rename can be told apart from a brand-new one. Only the loop
	// goroutine touches it once run starts.
	known fileSet
}

func (l *eventLoop) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			if l.stopped != nil {
				l.stopped()
			}

			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}

			// New directories join the watch so nested changes keep arriving.
			if event.Has(fsnotify.Create) && l.created != nil {
				l.created(event.Name)
			}

			if !l.qualifies(event) {
				continue
			}

			l.logger.Debug("qualifying change", slog.String("path", event.Name))
			l.submit(event.Name)

		case watchErr, ok := <-errs:
			if !ok {
				return nil
			}

			return fmt.Errorf("watcher error: %w", watchErr)
		}
	}
}

// qualifies extends IsQualifying with replace-by-rename saves: a Create
// landing on a suffix-matching path that already existed is a change of
// that file. Removals and renames away drop the path from the known set,
// so a file deleted and created again does not qualify.
func (l *eventLoop) qualifies(event fsnotify.Event) bool {
	if l.known == nil {
		l.known = make(fileSet)
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(l.known, event.Name)
		return false
	case event.Has(fsnotify.Create):
		if !strings.HasSuffix(event.Name, l.ext) {
			return false
		}

		_, existed := l.known[event.Name]
		l.known[event.Name] = struct{}{}

		return existed
	}

	return IsQualifying(event, l.ext)
}

// IsQualifying reports whether event is an in-place content change of a
// path ending in ext. Creates, removals, renames and permission changes
// never qualify on their own; see eventLoop.qualifies for replaced files.
func IsQualifying(event fsnotify.Event, ext string) bool {
	if !event.Has(fsnotify.Write) {
		return false
	}

	if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
		return false
	}

	return strings.HasSuffix(event.Name, ext)
}

// dispatcher runs each handler call on its own goroutine and lets the
// watcher wait for all of them on shutdown.
type dispatcher struct {
	ctx    context.Context
	handle Handler

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (d *dispatcher) submit(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()
		d.handle(d.ctx, path)
	}()
}

func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
}

type ignoreSet map[string]struct{}

func newIgnoreSet(names []string) ignoreSet {
	s := make(ignoreSet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[n] = struct{}{}
		}
	}

	return s
}

func (s ignoreSet) has(name string) bool {
	_, ok := s[name]
	return ok
}

// fileSet records file paths by name.
type fileSet map[string]struct{}

// recorder returns a callback adding paths that end in ext.
func (s fileSet) recorder(ext string) func(path string) {
	return func(path string) {
		if strings.HasSuffix(path, ext) {
			s[path] = struct{}{}
		}
	}
}

// addRecursive walks root and adds every directory not excluded by ignore.
// Files found along the way are passed to seen when it is non-nil.
func addRecursive(watcher *fsnotify.Watcher, root string, ignore ignoreSet, seen func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			if seen != nil {
				seen(path)
			}

			return nil
		}

		if path != root && ignore.has(d.Name()) {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}

func watchNewDir(watcher *fsnotify.Watcher, path string, ignore ignoreSet, logger *slog.Logger, seen func(string)) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || ignore.has(filepath.Base(path)) {
		return
	}

	if err := addRecursive(watcher, path, ignore, seen); err != nil {
		logger.Warn("watching new directory failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
