package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Debounce is how long repeated events for one path are collapsed into one.
const Debounce = 100 * time.Millisecond

// Watcher reports changes to room, rule-set and script files in a set of
// directories.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once

	mu    sync.Mutex
	trees []string
}

// New watches dirs. Subdirectories are not followed unless added with
// AddTree.
func New(logger *zap.Logger, dirs ...string) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		logger:  logger,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// AddTree watches root and every directory below it, and keeps following
// directories created under root later. Hidden directories are skipped.
func (w *Watcher) AddTree(root string) error {
	root = filepath.Clean(root)
	if err := w.addTree(root); err != nil {
		return err
	}
	w.mu.Lock()
	w.trees = append(w.trees, root)
	w.mu.Unlock()
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// inTree reports whether path lies below a root passed to AddTree.
func (w *Watcher) inTree(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, root := range w.trees {
		if strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// follow starts watching a directory created inside a tree.
func (w *Watcher) follow(path string) bool {
	if !w.inTree(path) {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return false
	}
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("could not watch new directory", zap.String("path", path), zap.Error(err))
	} else {
		w.logger.Debug("watching new directory", zap.String("path", path))
	}
	return true
}

// Close stops the watcher and closes Events and Errors. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()

	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && w.follow(event.Name) {
				continue
			}
			if !Relevant(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < Debounce {
				continue
			}
			last[event.Name] = now
			w.logger.Debug("file changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			select {
			case w.Events <- event.Name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			case <-w.closeCh:
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

// Relevant reports whether a change to path can affect a check run.
func Relevant(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".tengo":
		return true
	}
	return false
}
