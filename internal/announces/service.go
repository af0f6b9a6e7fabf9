// Package announces runs announce indexation against a local Bleve index and
// exposes it as MCP tools.
package announces

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/sha1n/announce-search/internal/config"
	"github.com/sha1n/announce-search/internal/domain"
	"github.com/sha1n/announce-search/internal/htmltext"
	"github.com/sha1n/announce-search/internal/indexer"
)

var (
	// ErrIndexerDisabled is returned by Reindex when the indexer is switched off
	ErrIndexerDisabled = errors.New("announce indexer is disabled")

	// ErrNotReady is returned when the index has not been opened
	ErrNotReady = errors.New("announce index is not open")
)

// countingWriter forwards documents to the index and counts successful writes.
type countingWriter struct {
	index *Index
	n     int
}

func (w *countingWriter) Write(doc *domain.SearchDocument) error {
	if w.index == nil {
		return ErrNotReady
	}
	if err := w.index.Write(doc); err != nil {
		return err
	}
	w.n++
	return nil
}

// Service coordinates the announce store, the indexer and the index.
type Service struct {
	settings *config.IndexerSettings
	indexer  *indexer.AnnounceIndexer
	writer   *countingWriter
	index    *Index
	lock     *IndexLock
	metrics  *Metrics

	// runMu serializes runs; mu guards the index pointer
	runMu sync.Mutex
	mu    sync.RWMutex
}

// OptionsFromSettings maps indexer settings to indexer options.
func OptionsFromSettings(s *config.IndexerSettings) indexer.Options {
	return indexer.Options{
		Name:            s.Name,
		Description:     s.Description,
		Version:         s.Version,
		Enabled:         s.Enabled,
		TagsLabel:       s.TagsLabel,
		TagsDescription: s.TagsDescription,
		BaseURL:         s.BaseURL,
		SiteName:        s.SiteName,
		Page:            s.Page,
	}
}

// NewService creates the service. metrics may be nil.
func NewService(settings *config.IndexerSettings, store indexer.Store, metrics *Metrics) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}

	if err := os.MkdirAll(settings.IndexDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	writer := &countingWriter{}
	return &Service{
		settings: settings,
		indexer:  indexer.NewAnnounceIndexer(OptionsFromSettings(settings), store, writer, htmltext.Stripper{}),
		writer:   writer,
		lock:     NewIndexLock(settings.IndexDir),
		metrics:  metrics,
	}, nil
}

// Initialize takes the index lock and opens the index.
func (s *Service) Initialize(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	acquired, err := s.lock.TryAcquire()
	if err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}
	if !acquired {
		slog.Info("Index is locked by another process, waiting", "lock", s.lock.Path())
		if err := s.lock.Acquire(ctx, s.settings.LockTimeout); err != nil {
			return fmt.Errorf("failed to acquire index lock: %w", err)
		}
	}

	index, err := OpenIndex(s.settings.IndexDir)
	if err != nil {
		if uerr := s.lock.Release(); uerr != nil {
			slog.Error("Failed to release index lock", "error", uerr)
		}
		return err
	}

	s.mu.Lock()
	s.index = index
	s.writer.index = index
	s.mu.Unlock()

	if count, err := index.DocCount(); err == nil {
		slog.Info("Announce index ready", "documents", count)
	}
	return nil
}

// Reindex clears announce documents and indexes every eligible announce again.
// Per-announce failures are reported in the returned state, not as an error.
func (s *Service) Reindex(ctx context.Context) (*RunState, error) {
	if !s.indexer.IsEnabled() {
		return nil, ErrIndexerDisabled
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	index := s.currentIndex()
	if index == nil {
		return nil, ErrNotReady
	}

	start := time.Now()
	slog.Info("Starting announce indexation", "indexer", s.indexer.Name(), "version", s.indexer.Version())

	removed, err := index.DeleteByType(indexer.PluginName)
	if err != nil {
		return nil, fmt.Errorf("failed to clear announce documents: %w", err)
	}

	s.writer.n = 0
	errs := s.indexer.IndexDocuments(ctx)
	if err := index.Flush(); err != nil {
		slog.Error("Failed to commit announce documents", "error", err)
		errs = append(errs, fmt.Sprintf("failed to commit documents: %v", err))
	}

	elapsed := time.Since(start)
	state := &RunState{
		Version:   StateVersion,
		LastRun:   start.UTC(),
		Duration:  elapsed.String(),
		Documents: s.writer.n,
		Removed:   removed,
		Errors:    errs,
	}

	count, err := index.DocCount()
	if err != nil {
		slog.Warn("Failed to count index documents", "error", err)
	}
	s.metrics.observeRun(state, elapsed.Seconds(), count)

	if err := state.Save(s.statePath()); err != nil {
		slog.Error("Failed to save run state", "error", err)
	}

	slog.Info("Announce indexation complete",
		"documents", state.Documents, "removed", removed, "errors", len(errs), "duration", state.Duration)
	return state, nil
}

// Documents builds the eligible announce documents without writing them.
func (s *Service) Documents(ctx context.Context) ([]*domain.SearchDocument, error) {
	return s.indexer.Documents(ctx, "")
}

// Search queries the index.
func (s *Service) Search(q SearchQuery) (*bleve.SearchResult, error) {
	index := s.currentIndex()
	if index == nil {
		return nil, ErrNotReady
	}
	if q.Size <= 0 {
		q.Size = s.settings.MaxResults
	}
	return index.Search(q)
}

// State returns the outcome of the last run.
func (s *Service) State() (*RunState, error) {
	return LoadState(s.statePath())
}

// Indexer returns the announce indexer.
func (s *Service) Indexer() indexer.Indexer {
	return s.indexer
}

// IsReady returns true once the index is open.
func (s *Service) IsReady() bool {
	return s.currentIndex() != nil
}

func (s *Service) currentIndex() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// GetSettings returns the service settings.
func (s *Service) GetSettings() *config.IndexerSettings {
	return s.settings
}

func (s *Service) statePath() string {
	return filepath.Join(s.settings.IndexDir, StateFilename)
}

// Close closes the index and releases the lock.
func (s *Service) Close() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close index: %w", err))
		}
		s.index = nil
		s.writer.index = nil
	}
	if err := s.lock.Release(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release index lock: %w", err))
	}
	return errors.Join(errs...)
}
