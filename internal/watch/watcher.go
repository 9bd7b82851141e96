// Package watch reruns a function when files under a set of roots change.
// Reruns are serialized: changes that arrive while a run is in progress
// are coalesced into one follow-up run.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is how long the tree must be quiet before a rerun.
const debounceDefault = 300 * time.Millisecond

// pollDefault is the polling interval when fsnotify is unavailable.
const pollDefault = 2 * time.Second

// Func is invoked once per batch of changes.
type Func func(ctx context.Context)

// Watcher watches directory trees and single files using fsnotify.
// fsnotify is not recursive, so every directory under a root is added,
// and directories created later are added as they appear.
type Watcher struct {
	roots    []string
	ignore   []string
	run      Func
	debounce time.Duration
	onError  func(error)
}

// Option configures a Watcher or PollWatcher.
type Option func(*options)

type options struct {
	ignore   []string
	debounce time.Duration
	interval time.Duration
	onError  func(error)
}

// Ignore excludes paths at or below prefix, e.g. a results directory
// nested inside the watched source tree.
func Ignore(prefix string) Option {
	return func(o *options) { o.ignore = append(o.ignore, filepath.Clean(prefix)) }
}

// Debounce sets the quiet period before a rerun.
func Debounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// Interval sets the PollWatcher scan interval.
func Interval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// OnError receives watcher errors that do not stop watching.
func OnError(fn func(error)) Option {
	return func(o *options) { o.onError = fn }
}

func buildOptions(opts []Option) options {
	o := options{debounce: debounceDefault, interval: pollDefault, onError: func(error) {}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates a watcher over roots. A root may be a directory (watched
// recursively) or a file (its parent is watched, filtered to the file).
func New(roots []string, run Func, opts ...Option) *Watcher {
	o := buildOptions(opts)
	return &Watcher{
		roots:    roots,
		ignore:   o.ignore,
		run:      run,
		debounce: o.debounce,
		onError:  o.onError,
	}
}

// Run blocks until ctx is cancelled, calling the watcher's Func after
// each quiet period that follows a change.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	files := make(map[string]bool)
	for _, root := range w.roots {
		root = filepath.Clean(root)
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := w.addTree(fw, root); err != nil {
				return err
			}
			continue
		}
		files[root] = true
		if err := fw.Add(filepath.Dir(root)); err != nil {
			return err
		}
	}

	// A single timer reset on each event; when it fires, one run starts.
	// Events that queue up during the run restart it afterwards.
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			w.run(ctx)

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name, files) {
				continue
			}
			if event.Has(fsnotify.Create) && !files[event.Name] {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name); err != nil {
						w.onError(err)
					}
				}
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)
		}
	}
}

// relevant reports whether an event path should trigger a rerun. Events
// in the parent of a watched file only count for that file.
func (w *Watcher) relevant(path string, files map[string]bool) bool {
	if ignored(path, w.ignore) {
		return false
	}
	if files[path] {
		return true
	}
	for _, root := range w.roots {
		if within(path, filepath.Clean(root)) && !files[filepath.Clean(root)] {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if ignored(path, w.ignore) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

// PollWatcher detects changes by periodically fingerprinting the roots.
// Used where fsnotify does not work (network filesystems, some containers).
type PollWatcher struct {
	roots    []string
	ignore   []string
	run      Func
	interval time.Duration
	onError  func(error)
}

// NewPollWatcher creates a polling watcher over roots.
func NewPollWatcher(roots []string, run Func, opts ...Option) *PollWatcher {
	o := buildOptions(opts)
	return &PollWatcher{
		roots:    roots,
		ignore:   o.ignore,
		run:      run,
		interval: o.interval,
		onError:  o.onError,
	}
}

// Run polls until ctx is cancelled. The initial state is the baseline;
// only later changes trigger a run.
func (w *PollWatcher) Run(ctx context.Context) error {
	last, err := w.snapshot()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cur, err := w.snapshot()
			if err != nil {
				w.onError(err)
				continue
			}
			if !sameSnapshot(last, cur) {
				last = cur
				w.run(ctx)
			}
		}
	}
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

func (w *PollWatcher) snapshot() (map[string]fileStamp, error) {
	snap := make(map[string]fileStamp)
	for _, root := range w.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if ignored(path, w.ignore) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			snap[path] = fileStamp{size: info.Size(), modTime: info.ModTime()}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func sameSnapshot(a, b map[string]fileStamp) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w.size != v.size || !w.modTime.Equal(v.modTime) {
			return false
		}
	}
	return true
}

func ignored(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if within(path, p) {
			return true
		}
	}
	return false
}

// within reports whether path is dir or below it.
func within(path, dir string) bool {
	path = filepath.Clean(path)
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
