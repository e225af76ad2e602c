package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/loopline-ai/loopline/internal/domain"
	"github.com/loopline-ai/loopline/internal/ports"
	"github.com/loopline-ai/loopline/internal/xjson"
)

const (
	runPrefix   = "run:"
	stepPrefix  = "step:"
	toolPrefix  = "tool:"
	usagePrefix = "usage:"
)

// Badger is the durable ledger adapter. Records are stored as JSON under
// prefixed keys: run:<id>, step:<runID>:<seq>, tool:<id>, usage:<userID>:<id>.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger

	mu       sync.Mutex
	seq      map[string]uint64
	stepKeys map[string]string
	closed   bool
}

var _ ports.Ledger = (*Badger)(nil)

func NewBadger(db *badger.DB, logger *slog.Logger) *Badger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Badger{
		db:       db,
		logger:   logger.With("component", "badger-ledger"),
		seq:      make(map[string]uint64),
		stepKeys: make(map[string]string),
	}
}

// OpenBadger opens (or creates) a badger database at dir and wraps it in a
// ledger. An empty dir opens an in-memory database.
func OpenBadger(dir string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	return NewBadger(db, logger), nil
}

// Close releases the underlying database.
func (b *Badger) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()
	return b.db.Close()
}

func (b *Badger) put(key string, value interface{}) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return domain.ErrLedgerClosed
	}
	b.mu.Unlock()

	encoded, err := xjson.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode ledger record %s: %w", key, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encoded)
	})
}

func (b *Badger) get(key string, out interface{}) error {
	return b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrLedgerNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return xjson.Unmarshal(val, out)
		})
	})
}

func (b *Badger) nextSeq(runID string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq[runID]++
	return b.seq[runID]
}

func (b *Badger) CreateRun(_ context.Context, run ports.RunRecord) error {
	return b.put(runPrefix+run.ID, run)
}

func (b *Badger) UpdateRun(_ context.Context, runID string, update ports.RunUpdate) error {
	var run ports.RunRecord
	if err := b.get(runPrefix+runID, &run); err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	run.Status = update.Status
	run.Output = update.Output
	run.Error = update.Error
	run.CompletedAt = update.CompletedAt
	return b.put(runPrefix+runID, run)
}

func (b *Badger) CreateStep(_ context.Context, runID string, step domain.ExecutionStep) error {
	seq := b.nextSeq(runID)
	key := fmt.Sprintf("%s%s:%08d", stepPrefix, runID, seq)

	b.mu.Lock()
	b.stepKeys[runID+"/"+step.ID] = key
	b.mu.Unlock()

	return b.put(key, step)
}

func (b *Badger) UpdateStep(_ context.Context, runID string, step domain.ExecutionStep) error {
	b.mu.Lock()
	key, ok := b.stepKeys[runID+"/"+step.ID]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("update step %s in run %s: %w", step.ID, runID, domain.ErrLedgerNotFound)
	}
	return b.put(key, step)
}

func (b *Badger) RecordToolInvocation(_ context.Context, invocation ports.ToolInvocation) error {
	return b.put(toolPrefix+invocation.ID, invocation)
}

func (b *Badger) RecordUsage(_ context.Context, usage ports.UsageRecord) error {
	return b.put(usagePrefix+usage.UserID+":"+usage.ID, usage)
}

// GetRun reads back a run record; used by operators and tests, never by
// the engine itself.
func (b *Badger) GetRun(runID string) (*ports.RunRecord, error) {
	var run ports.RunRecord
	if err := b.get(runPrefix+runID, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListSteps returns the steps of a run in sequence order.
func (b *Badger) ListSteps(runID string) ([]domain.ExecutionStep, error) {
	var steps []domain.ExecutionStep
	prefix := []byte(stepPrefix + runID + ":")
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var step domain.ExecutionStep
			err := it.Item().Value(func(val []byte) error {
				return xjson.Unmarshal(val, &step)
			})
			if err != nil {
				return err
			}
			steps = append(steps, step)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return steps, nil
}

// ListUsage returns the recorded usage entries for a user.
func (b *Badger) ListUsage(userID string) ([]ports.UsageRecord, error) {
	var records []ports.UsageRecord
	prefix := []byte(usagePrefix + userID + ":")
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record ports.UsageRecord
			err := it.Item().Value(func(val []byte) error {
				return xjson.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
