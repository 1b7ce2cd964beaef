package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"curachain/core/storage"
	"curachain/types/ids"
)

var (
	// ErrConflict means the expected prior state no longer matches the ledger.
	ErrConflict = errors.New("ledger: expected prior state does not match")
	// ErrReadOnly is returned for writes attempted inside View.
	ErrReadOnly = errors.New("ledger: write in read-only view")
	// ErrEntryNotFound is returned by Entry for unknown sequence numbers.
	ErrEntryNotFound = errors.New("ledger: entry not found")
)

// Expectation maps accounts to the version the caller last observed.
// Version 0 means the account must not exist.
type Expectation map[ids.ID]uint64

// Operation is one atomic unit of work. Apply validates and stages writes;
// any error discards everything it staged.
type Operation struct {
	Name   string
	Caller string
	Apply  func(tx *Tx) error
}

// CommitResult describes a committed operation.
type CommitResult struct {
	Seq         uint64    `json:"seq"`
	EntryID     ids.ID    `json:"entryId"`
	PrevID      ids.ID    `json:"prevId"`
	Operation   string    `json:"operation"`
	Caller      string    `json:"caller"`
	Accounts    []ids.ID  `json:"accounts"`
	CommittedAt time.Time `json:"committedAt"`
}

// Ledger serializes operations over a Store. One writer at a time, each
// operation sees the state left by the previous one.
type Ledger struct {
	mu     sync.RWMutex
	store  storage.Store
	head   Entry
	clock  func() time.Time
	logger *slog.Logger
}

type Option func(*Ledger)

// WithClock overrides the commit clock.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New opens a ledger over store, recovering the head entry if one exists.
func New(store storage.Store, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("ledger: store is required")
	}
	l := &Ledger{
		store:  store,
		clock:  func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	raw, err := store.Get([]byte(headKey))
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load ledger head: %w", err)
	default:
		if err := json.Unmarshal(raw, &l.head); err != nil {
			return nil, fmt.Errorf("decode ledger head: %w", err)
		}
	}
	l.logger.Info("ledger opened", "event", "ledger.open", "seq", l.head.Seq, "head", l.head.ID.String())
	return l, nil
}

// Execute runs op against the latest committed state and commits its writes
// atomically. When expect is non-empty and any listed account has moved on,
// Execute returns ErrConflict without running op.
func (l *Ledger) Execute(ctx context.Context, op Operation, expect Expectation) (CommitResult, error) {
	if err := ctx.Err(); err != nil {
		return CommitResult{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return CommitResult{}, err
	}

	tx := newTx(l.store, l.clock(), false)
	for id, want := range expect {
		got, err := tx.Version(id)
		if err != nil {
			return CommitResult{}, err
		}
		if got != want {
			return CommitResult{}, fmt.Errorf("%w: account %s is at version %d, expected %d", ErrConflict, id, got, want)
		}
	}

	if err := op.Apply(tx); err != nil {
		return CommitResult{}, err
	}

	batch := storage.NewBatch()
	leaves, err := tx.stage(batch)
	if err != nil {
		return CommitResult{}, err
	}
	entry := Entry{
		Seq:          l.head.Seq + 1,
		PrevID:       l.head.ID,
		Operation:    op.Name,
		Caller:       op.Caller,
		Accounts:     tx.touched(),
		AccountsRoot: MerkleRoot(leaves),
		CommittedAt:  tx.Now(),
	}
	entry.ID = entry.ComputeID()
	raw, err := json.Marshal(entry)
	if err != nil {
		return CommitResult{}, fmt.Errorf("encode entry: %w", err)
	}
	batch.Put(logKey(entry.Seq), raw)
	batch.Put([]byte(headKey), raw)
	if err := l.store.Write(batch); err != nil {
		return CommitResult{}, fmt.Errorf("commit %s: %w", op.Name, err)
	}
	l.head = entry

	l.logger.Debug("operation committed",
		"event", "ledger.commit",
		"operation", op.Name,
		"seq", entry.Seq,
		"accounts", len(entry.Accounts),
	)
	return CommitResult{
		Seq:         entry.Seq,
		EntryID:     entry.ID,
		PrevID:      entry.PrevID,
		Operation:   entry.Operation,
		Caller:      entry.Caller,
		Accounts:    entry.Accounts,
		CommittedAt: entry.CommittedAt,
	}, nil
}

// View runs fn over a read-only snapshot of the committed state.
func (l *Ledger) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(newTx(l.store, l.clock(), true))
}

// Head returns the most recent entry; the zero Entry before the first commit.
func (l *Ledger) Head() Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.head
}

// Entry loads the entry committed at seq.
func (l *Ledger) Entry(seq uint64) (Entry, error) {
	var e Entry
	raw, err := l.store.Get(logKey(seq))
	if errors.Is(err, storage.ErrNotFound) {
		return e, ErrEntryNotFound
	}
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(raw, &e)
	return e, err
}

// Entries returns up to limit entries starting at seq from.
func (l *Ledger) Entries(from uint64, limit int) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	stop := errors.New("stop")
	err := l.store.Iterate([]byte(logPrefix), func(_, value []byte) error {
		if limit > 0 && len(out) >= limit {
			return stop
		}
		var e Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decode entry: %w", err)
		}
		if e.Seq >= from {
			out = append(out, e)
		}
		return nil
	})
	if err != nil && !errors.Is(err, stop) {
		return nil, err
	}
	return out, nil
}

// VerifyChain walks the log and checks sequence numbers, hashes and links.
func (l *Ledger) VerifyChain() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var (
		prev ids.ID
		seq  uint64
	)
	err := l.store.Iterate([]byte(logPrefix), func(_, value []byte) error {
		var e Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decode entry: %w", err)
		}
		seq++
		if e.Seq != seq {
			return fmt.Errorf("entry %d: expected seq %d", e.Seq, seq)
		}
		if e.PrevID != prev {
			return fmt.Errorf("entry %d: broken link to previous entry", e.Seq)
		}
		if e.ComputeID() != e.ID {
			return fmt.Errorf("entry %d: id does not match contents", e.Seq)
		}
		prev = e.ID
		return nil
	})
	if err != nil {
		return err
	}
	if seq != l.head.Seq {
		return fmt.Errorf("log ends at %d but head is %d", seq, l.head.Seq)
	}
	return nil
}
