package study

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher logs filesystem changes to the model artifact so operators
// can see when the file behind a running service drifts. It never reloads
// the model: the loaded model is immutable for the process lifetime, and the
// health endpoint already exposes the file/model discrepancy.
type ArtifactWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchArtifact watches the directory holding the model artifact. The
// directory must exist; the artifact itself may not.
func WatchArtifact(modelPath string, logger *zap.Logger) (*ArtifactWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(modelPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Clean(modelPath)
	aw := &ArtifactWatcher{watcher: watcher, done: make(chan struct{})}

	go func() {
		defer close(aw.done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				switch {
				case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
					logger.Warn("model artifact removed; running model is unaffected",
						zap.String("path", modelPath))
				case event.Has(fsnotify.Create):
					logger.Info("model artifact appeared; restart to pick it up",
						zap.String("path", modelPath))
				case event.Has(fsnotify.Write):
					logger.Warn("model artifact changed on disk; running model is unaffected",
						zap.String("path", modelPath))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("artifact watcher error", zap.Error(err))
			}
		}
	}()

	return aw, nil
}

func (aw *ArtifactWatcher) Close() error {
	err := aw.watcher.Close()
	<-aw.done
	return err
}
