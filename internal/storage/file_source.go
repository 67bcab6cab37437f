package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// FileSource serves settings from a local file and pushes its later edits.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: filepath.Clean(path)}
}

// FetchInitial reads the current file contents.
func (source *FileSource) FetchInitial(context.Context) (map[string]any, error) {
	return LoadRaw(source.Path)
}

// Subscribe watches the file's directory, so editors that replace the file
// are picked up too. Unreadable intermediate states are skipped.
func (source *FileSource) Subscribe(ctx context.Context) (<-chan map[string]any, error) {
	dir := filepath.Dir(source.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan map[string]any, 4)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != source.Path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				raw, err := LoadRaw(source.Path)
				if err != nil {
					log.Warn().Err(err).Str("path", source.Path).Msg("skipping unreadable settings file")
					continue
				}
				if raw == nil {
					continue
				}
				select {
				case out <- raw:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Str("path", source.Path).Msg("settings watcher error")
			}
		}
	}()

	return out, nil
}
