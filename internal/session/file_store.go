package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"

	"github.com/vidfriends/client/internal/logging"
)

// FileStore keeps the token in a single file named after the slot. Writes are
// atomic and fsynced, so a crash never leaves a half written credential.
type FileStore struct {
	dir  string
	slot string
}

// NewFileStore returns a store rooted at dir. An empty slot selects DefaultSlot.
func NewFileStore(dir, slot string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file store: directory is required")
	}
	if slot == "" {
		slot = DefaultSlot
	}
	if slot == "." || slot == ".." || strings.ContainsAny(slot, `/\`) {
		return nil, fmt.Errorf("file store: invalid slot name %q", slot)
	}
	return &FileStore{dir: dir, slot: slot}, nil
}

// Path is the location of the token file.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, s.slot)
}

// Load reads the token file. A missing file is an empty slot.
func (s *FileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save atomically replaces the token file.
func (s *FileStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := renameio.WriteFile(s.Path(), []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the token file.
func (s *FileStore) Clear(_ context.Context) error {
	err := os.Remove(s.Path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Watch calls fn whenever the persisted token changes, for example after a
// login or logout performed by another process. It blocks until ctx is done.
func (s *FileStore) Watch(ctx context.Context, fn func(Info)) error {
	if fn == nil {
		return errors.New("file store: watch callback is required")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// The file itself comes and goes, so watch its directory.
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch token directory: %w", err)
	}

	logger := logging.FromContext(ctx).With("component", "session.watch", "path", s.Path())
	logger.Debug("watching token file")

	last, err := s.Load(ctx)
	if err != nil {
		logger.Warn("initial token read failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != s.slot {
				continue
			}
			token, err := s.Load(ctx)
			if err != nil {
				logger.Warn("token read failed", "error", err, "op", event.Op.String())
				continue
			}
			if token == last {
				continue
			}
			last = token
			fn(infoFor(token))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
