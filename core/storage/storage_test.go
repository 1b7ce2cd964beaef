package storage

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	level, err := NewLevelStore(filepath.Join(dir, "leveldb"))
	require.NoError(t, err)
	mem, err := NewMemLevelStore()
	require.NoError(t, err)
	lite, err := OpenSQLite(filepath.Join(dir, "ledger.sqlite"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = level.Close()
		_ = mem.Close()
		_ = lite.Close()
	})
	return map[string]Store{"leveldb": level, "memory": mem, "sqlite": lite}
}

func TestStoreGetMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get([]byte("nope"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreBatchAppliesPutsAndDeletes(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b := NewBatch()
			b.Put([]byte("acct:a"), []byte("1"))
			b.Put([]byte("acct:b"), []byte("2"))
			require.NoError(t, s.Write(b))

			b = NewBatch()
			b.Put([]byte("acct:a"), []byte("3"))
			b.Delete([]byte("acct:b"))
			require.Equal(t, 2, b.Len())
			require.NoError(t, s.Write(b))

			v, err := s.Get([]byte("acct:a"))
			require.NoError(t, err)
			assert.Equal(t, []byte("3"), v)
			_, err = s.Get([]byte("acct:b"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreIteratePrefixOrdered(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b := NewBatch()
			b.Put([]byte("kind:case:2"), []byte("b"))
			b.Put([]byte("kind:case:1"), []byte("a"))
			b.Put([]byte("kind:donor:1"), []byte("x"))
			b.Put([]byte("kind:casf"), []byte("y"))
			require.NoError(t, s.Write(b))

			var keys []string
			err := s.Iterate([]byte("kind:case:"), func(key, value []byte) error {
				keys = append(keys, string(key))
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"kind:case:1", "kind:case:2"}, keys)
		})
	}
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("ab"), prefixEnd([]byte("aa")))
	assert.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("postgres", t.TempDir())
	assert.Error(t, err)
}

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestDecodeDataKey(t *testing.T) {
	key := testKey(t)
	dec, err := DecodeDataKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, dec)

	_, err = DecodeDataKey(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)
	_, err = DecodeDataKey("%%%")
	assert.Error(t, err)
}

func TestSealedStoreEncryptsValuesAtRest(t *testing.T) {
	inner, err := NewMemLevelStore()
	require.NoError(t, err)
	sealed, err := NewSealedStore(inner, testKey(t))
	require.NoError(t, err)
	defer sealed.Close()

	b := NewBatch()
	b.Put([]byte("acct:1"), []byte(`{"amountNeeded":1000}`))
	require.NoError(t, sealed.Write(b))

	raw, err := inner.Get([]byte("acct:1"))
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte("amountNeeded")))

	plain, err := sealed.Get([]byte("acct:1"))
	require.NoError(t, err)
	assert.Equal(t, `{"amountNeeded":1000}`, string(plain))

	var seen []string
	require.NoError(t, sealed.Iterate([]byte("acct:"), func(key, value []byte) error {
		seen = append(seen, string(value))
		return nil
	}))
	assert.Equal(t, []string{`{"amountNeeded":1000}`}, seen)
}

func TestSealedStoreRejectsForeignKey(t *testing.T) {
	inner, err := NewMemLevelStore()
	require.NoError(t, err)
	a, err := NewSealedStore(inner, testKey(t))
	require.NoError(t, err)
	b, err := NewSealedStore(inner, testKey(t))
	require.NoError(t, err)

	batch := NewBatch()
	batch.Put([]byte("k"), []byte("v"))
	require.NoError(t, a.Write(batch))

	_, err = b.Get([]byte("k"))
	assert.Error(t, err)
}
