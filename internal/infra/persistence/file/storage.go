package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	domsession "example.com/storefront/internal/domain/session"
)

// Storage keeps every session in one JSON document on disk. It is meant for
// the CLI, where each invocation is a new process.
type Storage struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

func NewStorage(path string, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{path: path, logger: logger}
}

type document map[string]map[string]string

func (s *Storage) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	if sessionID == "" {
		return "", false, domsession.ErrMissingSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok := doc[sessionID][key]
	return v, ok, nil
}

func (s *Storage) Set(ctx context.Context, sessionID, key, value string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(ctx)
	if err != nil {
		return err
	}
	if doc[sessionID] == nil {
		doc[sessionID] = make(map[string]string)
	}
	doc[sessionID][key] = value
	return s.write(doc)
}

func (s *Storage) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if sessionID == "" {
		return domsession.ErrMissingSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		delete(doc[sessionID], key)
	}
	if len(doc[sessionID]) == 0 {
		delete(doc, sessionID)
	}
	return s.write(doc)
}

func (s *Storage) read(ctx context.Context) (document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	doc := document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.WarnContext(ctx, "session file is malformed, starting empty", "path", s.path, "error", err)
		return document{}, nil
	}
	return doc, nil
}

func (s *Storage) write(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, s.path)
}
