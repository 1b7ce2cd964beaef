package ledger

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"curachain/core/storage"
	"curachain/types/ids"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Value int `json:"value"`
}

func fixedClock() func() time.Time {
	t := time.Date(2025, 5, 22, 18, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestLedger(t *testing.T) (*Ledger, storage.Store) {
	t.Helper()
	store, err := storage.NewMemLevelStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	l, err := New(store, WithClock(fixedClock()))
	require.NoError(t, err)
	return l, store
}

func put(id ids.ID, v int) Operation {
	return Operation{
		Name:   "put",
		Caller: "tester",
		Apply: func(tx *Tx) error {
			return tx.Put(id, "counter", counter{Value: v})
		},
	}
}

func TestExecuteCommitsAndBumpsVersion(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	id := ids.DeriveString("test", "a")

	res, err := l.Execute(ctx, put(id, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Seq)
	assert.Equal(t, []ids.ID{id}, res.Accounts)
	assert.True(t, res.PrevID.IsEmpty())

	res2, err := l.Execute(ctx, put(id, 2), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res2.Seq)
	assert.Equal(t, res.EntryID, res2.PrevID)

	require.NoError(t, l.View(ctx, func(tx *Tx) error {
		var c counter
		found, err := tx.Get(id, &c)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 2, c.Value)
		v, err := tx.Version(id)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), v)
		return nil
	}))
}

func TestExecuteFailureDiscardsStagedWrites(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := ids.DeriveString("test", "a")
	b := ids.DeriveString("test", "b")
	boom := errors.New("boom")

	_, err := l.Execute(ctx, Operation{
		Name: "partial",
		Apply: func(tx *Tx) error {
			require.NoError(t, tx.Put(a, "counter", counter{Value: 1}))
			require.NoError(t, tx.Put(b, "counter", counter{Value: 1}))
			return boom
		},
	}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(0), l.Head().Seq)

	require.NoError(t, l.View(ctx, func(tx *Tx) error {
		for _, id := range []ids.ID{a, b} {
			found, err := tx.Has(id)
			require.NoError(t, err)
			assert.False(t, found)
		}
		return nil
	}))
}

func TestExecuteExpectationConflict(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	id := ids.DeriveString("test", "a")

	_, err := l.Execute(ctx, put(id, 1), Expectation{id: 0})
	require.NoError(t, err)

	ran := false
	_, err = l.Execute(ctx, Operation{
		Name: "stale",
		Apply: func(tx *Tx) error {
			ran = true
			return nil
		},
	}, Expectation{id: 0})
	assert.ErrorIs(t, err, ErrConflict)
	assert.False(t, ran)

	_, err = l.Execute(ctx, put(id, 5), Expectation{id: 1})
	assert.NoError(t, err)
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Execute(ctx, put(ids.DeriveString("test", "a"), 1), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTxReadsOwnWrites(t *testing.T) {
	l, _ := newTestLedger(t)
	id := ids.DeriveString("test", "a")
	_, err := l.Execute(context.Background(), Operation{
		Name: "rw",
		Apply: func(tx *Tx) error {
			require.NoError(t, tx.Put(id, "counter", counter{Value: 7}))
			var c counter
			found, err := tx.Get(id, &c)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, 7, c.Value)

			require.NoError(t, tx.Delete(id))
			found, err = tx.Get(id, &c)
			require.NoError(t, err)
			assert.False(t, found)
			return nil
		},
	}, nil)
	require.NoError(t, err)
}

func TestViewIsReadOnly(t *testing.T) {
	l, _ := newTestLedger(t)
	err := l.View(context.Background(), func(tx *Tx) error {
		return tx.Put(ids.DeriveString("test", "a"), "counter", counter{})
	})
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestListByKindTracksDeletes(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := ids.DeriveString("test", "a")
	b := ids.DeriveString("test", "b")
	other := ids.DeriveString("other", "c")

	_, err := l.Execute(ctx, Operation{Name: "seed", Apply: func(tx *Tx) error {
		require.NoError(t, tx.Put(a, "counter", counter{Value: 1}))
		require.NoError(t, tx.Put(b, "counter", counter{Value: 2}))
		return tx.Put(other, "other", counter{Value: 3})
	}}, nil)
	require.NoError(t, err)

	listed := func() []ids.ID {
		var out []ids.ID
		require.NoError(t, l.View(ctx, func(tx *Tx) error {
			return tx.List("counter", func(id ids.ID) error {
				out = append(out, id)
				return nil
			})
		}))
		return out
	}
	assert.ElementsMatch(t, []ids.ID{a, b}, listed())

	_, err = l.Execute(ctx, Operation{Name: "drop", Apply: func(tx *Tx) error {
		return tx.Delete(a)
	}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []ids.ID{b}, listed())
}

func TestChainVerifiesAndSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")
	store, err := storage.NewLevelStore(dir)
	require.NoError(t, err)
	l, err := New(store, WithClock(fixedClock()))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := l.Execute(ctx, put(ids.DeriveString("test", "a"), i), nil)
		require.NoError(t, err)
	}
	require.NoError(t, l.VerifyChain())
	head := l.Head()
	require.NoError(t, store.Close())

	store, err = storage.NewLevelStore(dir)
	require.NoError(t, err)
	defer store.Close()
	reopened, err := New(store)
	require.NoError(t, err)
	assert.Equal(t, head.ID, reopened.Head().ID)
	assert.Equal(t, uint64(5), reopened.Head().Seq)
	require.NoError(t, reopened.VerifyChain())

	entries, err := reopened.Entries(2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(2), entries[0].Seq)
	assert.Equal(t, uint64(3), entries[1].Seq)

	e, err := reopened.Entry(5)
	require.NoError(t, err)
	assert.Equal(t, head.ID, e.ID)
	_, err = reopened.Entry(6)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestVerifyChainDetectsTampering(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := l.Execute(ctx, put(ids.DeriveString("test", "a"), i), nil)
		require.NoError(t, err)
	}
	e, err := l.Entry(2)
	require.NoError(t, err)
	e.Caller = "mallory"
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	b := storage.NewBatch()
	b.Put(logKey(2), raw)
	require.NoError(t, store.Write(b))

	assert.Error(t, l.VerifyChain())
}

func TestMerkleRoot(t *testing.T) {
	assert.Equal(t, "", MerkleRoot(nil))

	leaf := func(s string) []byte { return merkleHash(merkleLeaf, []byte(s)) }
	assert.Equal(t, hex.EncodeToString(leaf("aa")), MerkleRoot([]string{"aa"}))

	two := MerkleRoot([]string{"aa", "bb"})
	assert.Len(t, two, 64)
	assert.Equal(t, hex.EncodeToString(merkleHash(merkleNode, leaf("aa"), leaf("bb"))), two)
	assert.NotEqual(t, two, MerkleRoot([]string{"bb", "aa"}))
	// an inner node fed back in as a leaf hashes differently
	assert.NotEqual(t, two, MerkleRoot([]string{two}))
}

func TestMerkleRootPromotesOddNode(t *testing.T) {
	leaf := func(s string) []byte { return merkleHash(merkleLeaf, []byte(s)) }
	three := MerkleRoot([]string{"aa", "bb", "cc"})
	assert.Len(t, three, 64)

	want := merkleHash(merkleNode, merkleHash(merkleNode, leaf("aa"), leaf("bb")), leaf("cc"))
	assert.Equal(t, hex.EncodeToString(want), three)
	assert.NotEqual(t, three, MerkleRoot([]string{"aa", "bb", "cc", "cc"}))
}
