package converge

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// FileObserver notifies on writes to a local document, so a page being
// regenerated on disk triggers a rescan the same way a mutating tree
// would.
type FileObserver struct {
	Path string
	Log  zerolog.Logger
}

// Subscribe starts watching the file and invokes notify on every write or
// create event until unsubscribed.
func (o *FileObserver) Subscribe(notify func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(o.Path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", o.Path, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					notify()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				o.Log.Debug().Err(err).Msg("file watcher error")
			}
		}
	}()

	return func() {
		close(done)
		watcher.Close()
	}, nil
}
