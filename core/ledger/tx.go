package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"curachain/core/storage"
	"curachain/types/ids"
)

const (
	accountPrefix = "acct/"
	kindPrefix    = "kind/"
	logPrefix     = "log/"
	headKey       = "meta/head"
)

func accountKey(id ids.ID) []byte {
	return []byte(accountPrefix + id.String())
}

func kindKey(kind string, id ids.ID) []byte {
	return []byte(kindPrefix + kind + "/" + id.String())
}

func logKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", logPrefix, seq))
}

// envelope is the stored form of an account.
type envelope struct {
	Kind    string          `json:"kind"`
	Version uint64          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

type stagedWrite struct {
	kind    string
	data    []byte
	deleted bool
}

// Tx is a view over the latest committed state. Inside Execute it also
// stages writes; reads see the transaction's own staged writes.
type Tx struct {
	store    storage.Store
	readOnly bool
	now      time.Time
	writes   map[ids.ID]*stagedWrite
}

func newTx(store storage.Store, now time.Time, readOnly bool) *Tx {
	return &Tx{
		store:    store,
		readOnly: readOnly,
		now:      now,
		writes:   make(map[ids.ID]*stagedWrite),
	}
}

// Now is the commit clock reading taken when the operation started.
func (tx *Tx) Now() time.Time {
	return tx.now
}

func (tx *Tx) loadEnvelope(id ids.ID) (envelope, bool, error) {
	var env envelope
	raw, err := tx.store.Get(accountKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return env, false, nil
	}
	if err != nil {
		return env, false, fmt.Errorf("load account %s: %w", id, err)
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, false, fmt.Errorf("decode account %s: %w", id, err)
	}
	return env, true, nil
}

// Get decodes the account at id into v. It reports false when the account
// does not exist.
func (tx *Tx) Get(id ids.ID, v any) (bool, error) {
	if w, ok := tx.writes[id]; ok {
		if w.deleted {
			return false, nil
		}
		if err := json.Unmarshal(w.data, v); err != nil {
			return false, fmt.Errorf("decode staged account %s: %w", id, err)
		}
		return true, nil
	}
	env, found, err := tx.loadEnvelope(id)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return false, fmt.Errorf("decode account %s: %w", id, err)
	}
	return true, nil
}

// Has reports whether an account exists at id.
func (tx *Tx) Has(id ids.ID) (bool, error) {
	if w, ok := tx.writes[id]; ok {
		return !w.deleted, nil
	}
	_, found, err := tx.loadEnvelope(id)
	return found, err
}

// Version returns the committed version of id, 0 when absent.
func (tx *Tx) Version(id ids.ID) (uint64, error) {
	env, found, err := tx.loadEnvelope(id)
	if err != nil || !found {
		return 0, err
	}
	return env.Version, nil
}

// Put stages v as the new state of id, tagged with kind for listing.
func (tx *Tx) Put(id ids.ID, kind string, v any) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode account %s: %w", id, err)
	}
	tx.writes[id] = &stagedWrite{kind: kind, data: data}
	return nil
}

// Delete stages removal of id.
func (tx *Tx) Delete(id ids.ID) error {
	if tx.readOnly {
		return ErrReadOnly
	}
	tx.writes[id] = &stagedWrite{deleted: true}
	return nil
}

// List calls fn for every account of kind, ordered by address.
func (tx *Tx) List(kind string, fn func(id ids.ID) error) error {
	seen := make(map[ids.ID]bool)
	err := tx.store.Iterate([]byte(kindPrefix+kind+"/"), func(key, _ []byte) error {
		id, err := ids.FromString(string(key[len(kindPrefix)+len(kind)+1:]))
		if err != nil {
			return fmt.Errorf("bad index key %q: %w", key, err)
		}
		seen[id] = true
		return nil
	})
	if err != nil {
		return err
	}
	for id, w := range tx.writes {
		switch {
		case w.deleted:
			delete(seen, id)
		case w.kind == kind:
			seen[id] = true
		default:
			delete(seen, id)
		}
	}
	out := make([]ids.ID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	for _, id := range out {
		if err := fn(id); err != nil {
			return err
		}
	}
	return nil
}

// touched returns the written accounts sorted by address.
func (tx *Tx) touched() []ids.ID {
	out := make([]ids.ID, 0, len(tx.writes))
	for id := range tx.writes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// stage turns the staged writes into a storage batch and returns the
// Merkle leaves of the resulting account states.
func (tx *Tx) stage(batch *storage.Batch) ([]string, error) {
	var leaves []string
	for _, id := range tx.touched() {
		w := tx.writes[id]
		prev, found, err := tx.loadEnvelope(id)
		if err != nil {
			return nil, err
		}
		if w.deleted {
			if found {
				batch.Delete(accountKey(id))
				batch.Delete(kindKey(prev.Kind, id))
			}
			leaves = append(leaves, leafHash(id, nil))
			continue
		}
		env := envelope{Kind: w.kind, Version: prev.Version + 1, Data: w.data}
		raw, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("encode envelope %s: %w", id, err)
		}
		batch.Put(accountKey(id), raw)
		if found && prev.Kind != w.kind {
			batch.Delete(kindKey(prev.Kind, id))
		}
		batch.Put(kindKey(w.kind, id), []byte(id.String()))
		leaves = append(leaves, leafHash(id, raw))
	}
	return leaves, nil
}
