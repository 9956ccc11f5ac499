// Package badger implements the document store on an embedded BadgerDB.
//
// Keys are "<collection>/<normalized key>" and values are JSON objects. Update
// reads, merges and writes inside one read-write transaction; a transaction
// that loses an optimistic conflict is retried.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/leetgroups/groupboard/internal/infrastructure/persistence/documents"
	"github.com/leetgroups/groupboard/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds BadgerDB configuration.
type Config struct {
	// Path is the data directory. Required unless InMemory is set.
	Path string

	// InMemory keeps everything in memory. Used by tests and local runs.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// GCInterval is the value-log GC period. Zero disables GC.
	GCInterval time.Duration

	// GCDiscardRatio is passed to RunValueLogGC.
	GCDiscardRatio float64

	// Logger receives BadgerDB's internal log lines. Nil silences them.
	Logger *slog.Logger
}

// DefaultConfig returns settings for a persistent store at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns settings for an in-memory store.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store is a documents.Store backed by BadgerDB.
type Store struct {
	db      *badger.DB
	retrier *retry.Retrier
	logger  *slog.Logger

	stopGC chan struct{}
	gcDone chan struct{}
}

var _ documents.Store = (*Store)(nil)

// Open opens (or creates) the store described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger: path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("badger: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
		logger = slog.Default()
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}

	s := &Store{
		db:      db,
		retrier: retry.StoreRetrier(),
		logger:  logger.With("component", "document_store", "driver", "badger"),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

func docKey(collection, key string) []byte {
	return []byte(collection + "/" + documents.Key(key))
}

// Get returns the document or documents.ErrDocumentNotFound.
func (s *Store) Get(ctx context.Context, collection, key string) (documents.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc documents.Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = readDoc(txn, docKey(collection, key))
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Set overwrites the document.
func (s *Store) Set(ctx context.Context, collection, key string, doc documents.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("badger: encode %s/%s: %w", collection, key, err)
	}
	return s.write(ctx, func(txn *badger.Txn) error {
		return txn.Set(docKey(collection, key), data)
	})
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, collection, key string, fields documents.Document) error {
	k := docKey(collection, key)
	return s.write(ctx, func(txn *badger.Txn) error {
		doc, err := readDoc(txn, k)
		if err != nil {
			return err
		}
		for f, v := range fields {
			doc[f] = v
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("badger: encode %s: %w", k, err)
		}
		return txn.Set(k, data)
	})
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	return s.write(ctx, func(txn *badger.Txn) error {
		return txn.Delete(docKey(collection, key))
	})
}

// Ping reports whether the database is open.
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

// Close stops GC and closes the database.
func (s *Store) Close() error {
	if s.stopGC != nil {
		close(s.stopGC)
		<-s.gcDone
	}
	return s.db.Close()
}

// write runs fn in a read-write transaction, retrying on conflict.
func (s *Store) write(ctx context.Context, fn func(txn *badger.Txn) error) error {
	return s.retrier.Do(ctx, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return retry.Permanent(err)
		}
		err := s.db.Update(fn)
		if errors.Is(err, badger.ErrConflict) {
			return retry.Retryable(err)
		}
		return err
	})
}

func readDoc(txn *badger.Txn, key []byte) (documents.Document, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, documents.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger: get %s: %w", key, err)
	}

	doc := documents.Document{}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})
	if err != nil {
		return nil, fmt.Errorf("badger: decode %s: %w", key, err)
	}
	if doc == nil {
		doc = documents.Document{}
	}
	return doc, nil
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("value log GC failed", "error", err)
			}
		}
	}
}
