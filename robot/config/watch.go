package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/wricardo/mcp-training/cleaningrobot/logging"
)

// Watch invalidates cached scenarios when their files change on disk. It
// blocks until ctx is cancelled. onChange, when non-nil, is called with the
// scenario ID of every changed file.
func (m *Manager) Watch(ctx context.Context, onChange func(id string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(m.scenarioDir); err != nil {
		return fmt.Errorf("failed to watch scenario directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if !isScenarioFile(name) || event.Op == fsnotify.Chmod {
				continue
			}

			id := scenarioID(name)
			m.Invalidate(id)
			logging.Debug().
				Add(logging.Component("scenarios"), logging.Scenario(id), logging.Str("op", event.Op.String())).
				Msg("scenario changed")
			if onChange != nil {
				onChange(id)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn().
				Add(logging.Component("scenarios"), logging.ErrorField(err)).
				Msg("scenario watcher error")
		}
	}
}
