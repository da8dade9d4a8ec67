package application

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/eugenenazirov/propconf/internal/config"
)

// configWatcher reloads endpoint declarations when the config file changes.
type configWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	once    sync.Once
}

// watchConfig watches the directory holding path so that editors which replace
// the file by rename are still noticed.
func watchConfig(path string, logger *zap.Logger, reload func([]config.EndpointSpec)) (*configWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &configWatcher{watcher: fw, done: make(chan struct{})}
	go w.loop(abs, logger, reload)
	return w, nil
}

func (w *configWatcher) loop(path string, logger *zap.Logger, reload func([]config.EndpointSpec)) {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			specs, err := config.LoadEndpoints(path)
			if err != nil {
				logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
				continue
			}
			reload(specs)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (w *configWatcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
		<-w.done
	})
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}
