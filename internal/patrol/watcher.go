package patrol

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// GridWatcher watches map files on disk and reports edits. It is the
// concrete source of "the walkable-tile set changed" notifications: on
// each event the owner reloads the grid and calls ReinitializeRoute on
// every agent.
type GridWatcher struct {
	watcher *fsnotify.Watcher
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewGridWatcher watches the given directories for YAML map edits.
func NewGridWatcher(dirs ...string) (*GridWatcher, error) {
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
	gw := &GridWatcher{
		watcher: w,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go gw.run()
	return gw, nil
}

// Close stops the watcher. Safe to call more than once.
func (gw *GridWatcher) Close() error {
	var err error
	gw.once.Do(func() {
		close(gw.closeCh)
		err = gw.watcher.Close()
	})
	return err
}

// run forwards debounced map-file events. It owns the output channels and
// closes them on exit.
func (gw *GridWatcher) run() {
	defer close(gw.Events)
	defer close(gw.Errors)
	// Editors fire several events per save; collapse bursts per path.
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-gw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isMapFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now
			select {
			case gw.Events <- event.Name:
			case <-gw.closeCh:
				return
			}
		case err, ok := <-gw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case gw.Errors <- err:
			case <-gw.closeCh:
				return
			}
		case <-gw.closeCh:
			return
		}
	}
}

func isMapFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
