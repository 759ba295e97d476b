// Package watch rebuilds documentation when sources change and, optionally,
// on a fixed interval. Builds never overlap: triggers that arrive while a
// build runs collapse into a single follow-up build.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	derrors "git.home.luguber.info/inful/docstage/internal/errors"
	"git.home.luguber.info/inful/docstage/internal/logfields"
)

// Trigger reasons passed to BuildFunc.
const (
	ReasonInitial  = "initial"
	ReasonChange   = "change"
	ReasonInterval = "interval"
)

const defaultDebounce = 500 * time.Millisecond

// BuildFunc runs one build. Errors are logged; watching continues.
type BuildFunc func(ctx context.Context, reason string) error

// Options configures a Watcher.
type Options struct {
	// Paths are watched recursively. Files are watched through their directory.
	Paths []string
	// Exclude names directories that are never watched.
	Exclude []string
	// Ignore holds absolute paths whose events never trigger a build, such as
	// the output directory.
	Ignore []string
	// Filter, when set, limits file events to the paths it accepts.
	// Directory events always pass.
	Filter   func(path string) bool
	Debounce time.Duration
	// Interval schedules periodic rebuilds; zero disables them.
	Interval time.Duration
	Logger   *slog.Logger
}

// Watcher owns the fsnotify watcher and the interval scheduler.
type Watcher struct {
	build   BuildFunc
	opts    Options
	logger  *slog.Logger
	fsw     *fsnotify.Watcher
	trigger chan string

	mu     sync.Mutex
	builds int
}

// New creates a Watcher. Nothing is watched until Run.
func New(build BuildFunc, opts Options) (*Watcher, error) {
	if build == nil {
		return nil, derrors.ConfigInvalid("watch", "a build function is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	for i, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			opts.Ignore[i] = abs
		}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityFatal, "failed to create file watcher")
	}
	return &Watcher{
		build:   build,
		opts:    opts,
		logger:  opts.Logger,
		fsw:     fsw,
		trigger: make(chan string, 1),
	}, nil
}

// Builds returns how many builds have run.
func (w *Watcher) Builds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.builds
}

// Trigger requests a build. It never blocks; a pending request absorbs it.
func (w *Watcher) Trigger(reason string) {
	select {
	case w.trigger <- reason:
	default:
	}
}

// Run performs an initial build and then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	for _, p := range w.opts.Paths {
		if err := w.addRecursive(p); err != nil {
			return err
		}
	}

	if w.opts.Interval > 0 {
		sched, err := w.schedule()
		if err != nil {
			return err
		}
		defer func() { _ = sched.Shutdown() }()
	}

	go w.watchLoop(ctx)

	w.Trigger(ReasonInitial)
	w.logger.Info("Watching for changes",
		logfields.Count(len(w.opts.Paths)),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("interval", w.opts.Interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-w.trigger:
			w.runBuild(ctx, reason)
		}
	}
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityFatal, "failed to create scheduler")
	}
	if _, err := sched.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(w.Trigger, ReasonInterval),
		gocron.WithName("periodic-rebuild"),
	); err != nil {
		_ = sched.Shutdown()
		return nil, derrors.Wrap(err, derrors.CategoryRuntime, derrors.SeverityFatal, "failed to schedule periodic rebuild")
	}
	sched.Start()
	return sched, nil
}

func (w *Watcher) runBuild(ctx context.Context, reason string) {
	w.mu.Lock()
	w.builds++
	w.mu.Unlock()

	w.logger.Info("Rebuilding documentation", slog.String("reason", reason))
	if err := w.build(ctx, reason); err != nil && ctx.Err() == nil {
		w.logger.Error("Rebuild failed", slog.String("reason", reason), logfields.Error(err))
	}
}

// watchLoop turns file events into debounced triggers.
func (w *Watcher) watchLoop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(ev.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
					}
				}
			}
			w.logger.Debug("Source change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.AfterFunc(w.opts.Debounce, func() { w.Trigger(ReasonChange) })
			} else {
				timer.Reset(w.opts.Debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	for _, ig := range w.opts.Ignore {
		if name == ig || strings.HasPrefix(name, ig+string(filepath.Separator)) {
			return false
		}
	}
	if w.excluded(filepath.Base(name)) {
		return false
	}
	if w.opts.Filter == nil || w.opts.Filter(name) {
		return true
	}
	if info, err := os.Stat(name); err == nil {
		return info.IsDir()
	}
	// removed or renamed: a path without an extension is taken to be a directory
	return filepath.Ext(name) == ""
}

func (w *Watcher) excluded(name string) bool {
	return slices.Contains(w.opts.Exclude, name)
}

// addRecursive watches dir and every directory below it. A file path watches
// its parent directory.
func (w *Watcher) addRecursive(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return derrors.WorkspaceError("watch", err).WithContext("path", path)
	}
	if !info.IsDir() {
		return w.fsw.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && w.excluded(d.Name()) {
			return filepath.SkipDir
		}
		for _, ig := range w.opts.Ignore {
			if abs, _ := filepath.Abs(p); abs == ig {
				return filepath.SkipDir
			}
		}
		return w.fsw.Add(p)
	})
}
