package intent

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch re-validates the registry document whenever it changes on disk
// and logs any structural problems. The gate itself re-reads the
// document on every check, so this is purely diagnostic: it gives the
// operator immediate feedback on a bad edit instead of a silent
// "no intents available" on the agent's next call.
//
// Watch blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the parent directory: editors commonly replace the file by
	// rename, which drops a watch registered on the file itself.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(s.path)
	s.logger.Debug("watching intent registry", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			reg, errs := s.LoadStrict()
			if len(errs) > 0 {
				for _, e := range errs {
					s.logger.Warn("intent registry edit has problems",
						zap.String("path", target),
						zap.Error(e),
					)
				}
				continue
			}
			s.logger.Info("intent registry reloaded",
				zap.String("path", target),
				zap.Int("intents", len(reg.Intents)),
			)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("intent registry watcher error", zap.Error(err))
		}
	}
}
