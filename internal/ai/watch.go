package ai

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TuningWatcher reloads a tuning file whenever it changes on disk. Only the
// debug viewer uses this; the core itself never touches the filesystem.
type TuningWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	Tunings chan *Tuning
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// WatchTuning watches the directory containing path and emits a freshly
// parsed Tuning on every write. Events are debounced because editors often
// fire several writes per save.
func WatchTuning(path string) (*TuningWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	tw := &TuningWatcher{
		watcher: w,
		path:    filepath.Clean(path),
		Tunings: make(chan *Tuning, 1),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go tw.run()
	return tw, nil
}

// Close stops the watcher. Idempotent.
func (tw *TuningWatcher) Close() error {
	var err error
	tw.once.Do(func() {
		close(tw.closeCh)
		err = tw.watcher.Close()
	})
	return err
}

func (tw *TuningWatcher) run() {
	var last time.Time
	for {
		select {
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != tw.path {
				continue
			}
			now := time.Now()
			if now.Sub(last) < 100*time.Millisecond {
				continue
			}
			last = now
			t, err := LoadTuning(tw.path)
			if err != nil {
				select {
				case tw.Errors <- err:
				default:
				}
				continue
			}
			select {
			case tw.Tunings <- t:
			default:
			}
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			select {
			case tw.Errors <- err:
			default:
			}
		case <-tw.closeCh:
			return
		}
	}
}
