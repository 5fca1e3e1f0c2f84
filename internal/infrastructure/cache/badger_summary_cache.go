package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/kouden/backend/internal/domain/kouden"
	"go.uber.org/zap"
)

// BadgerSummaryCache keeps summary lists in a process-local badger store.
// With an empty directory the store lives in memory.
type BadgerSummaryCache struct {
	db       *badger.DB
	ttl      time.Duration
	inMemory bool
}

// NewBadgerSummaryCache opens the store at dir, or in memory when dir is empty
func NewBadgerSummaryCache(dir string, ttl time.Duration, logger *zap.Logger) (*BadgerSummaryCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{logger.Named("badger").Sugar()})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &BadgerSummaryCache{db: db, ttl: ttl, inMemory: dir == ""}, nil
}

// Get returns the cached summaries for key
func (c *BadgerSummaryCache) Get(_ context.Context, key string) ([]kouden.ReturnManagementSummary, bool, error) {
	var summaries []kouden.ReturnManagementSummary
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(val, &summaries)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read summaries: %w", err)
	}
	return summaries, true, nil
}

// Set stores summaries under key with the cache TTL
func (c *BadgerSummaryCache) Set(_ context.Context, key string, summaries []kouden.ReturnManagementSummary) error {
	raw, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("failed to marshal summaries: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), raw).WithTTL(c.ttl))
	})
}

// Delete evicts key. Deleting an absent key is not an error.
func (c *BadgerSummaryCache) Delete(_ context.Context, key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// RunGC rewrites value log files until badger reports nothing left to
// reclaim. In-memory stores have no value log.
func (c *BadgerSummaryCache) RunGC(ctx context.Context) error {
	if c.inMemory {
		return nil
	}
	for ctx.Err() == nil {
		err := c.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("badger value log gc: %w", err)
		}
	}
	return ctx.Err()
}

// Close releases the store
func (c *BadgerSummaryCache) Close() error {
	return c.db.Close()
}

// badgerLogger routes badger's printf-style logging into zap
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}

var _ kouden.SummaryCache = (*BadgerSummaryCache)(nil)
