// Package store persists the entire service state as one versioned JSON
// document. Every logical operation runs its read-modify-write cycle inside
// Store.Update, which holds the writer lock for the whole cycle; concurrent
// operations on the same user or event therefore cannot lose updates.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/saudievents/server/internal/metrics"
)

// ErrWriteFailed wraps any persistence failure. The in-memory mirror keeps
// the prior state when a write fails, so a subsequent read never observes a
// partial update.
var ErrWriteFailed = errors.New("document write failed")

// Store owns the canonical document. All access goes through View or Update.
type Store struct {
	path   string
	logger zerolog.Logger

	mu  sync.RWMutex
	doc *Document
}

// Open loads the document at path, creating an empty one (and its parent
// directory) if the file does not exist yet.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{
		path:   path,
		logger: logger.With().Str("component", "store").Logger(),
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.doc = newDocument()
		if err := s.persist(s.doc); err != nil {
			return nil, err
		}
		s.logger.Info().Str("path", path).Msg("initialized empty document")
	case err != nil:
		return nil, fmt.Errorf("read document: %w", err)
	default:
		doc := newDocument()
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("parse document %s: %w", path, err)
		}
		s.doc = doc
		s.logger.Info().
			Str("path", path).
			Int64("version", doc.Version).
			Int("users", len(doc.Users)).
			Int("events", len(doc.Events)).
			Msg("document loaded")
	}

	return s, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// View runs fn over the current document under the read lock. fn must not
// mutate the document or retain references past its return.
func (s *Store) View(fn func(doc *Document) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.doc)
}

// Update runs one serialized read-modify-write cycle: fn mutates a private
// copy of the document, and only a successfully persisted copy replaces the
// in-memory mirror. An error from fn aborts the cycle without bumping the
// version; a persistence error surfaces as ErrWriteFailed and leaves the
// prior state intact.
func (s *Store) Update(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.clone()
	if err := fn(next); err != nil {
		return err
	}
	next.Version++

	if err := s.persist(next); err != nil {
		metrics.DocumentWrites.WithLabelValues("error").Inc()
		return err
	}
	s.doc = next
	metrics.DocumentWrites.WithLabelValues("ok").Inc()
	return nil
}

// persist writes the document to a temp file in the same directory and
// renames it over the target, so the old state survives a failed write.
func (s *Store) persist(doc *Document) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrWriteFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".document-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}
