package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/neondash/internal/storage"
)

// failingKV fails reads and/or writes on demand.
type failingKV struct {
	*storage.MemoryKV
	failGet bool
	failSet bool
}

func (f *failingKV) Get(key string) (string, error) {
	if f.failGet {
		return "", errors.New("disk on fire")
	}
	return f.MemoryKV.Get(key)
}

func (f *failingKV) Set(key, value string) error {
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.MemoryKV.Set(key, value)
}

func entry(i int) Entry {
	return Entry{
		Kind:      Transfer,
		Amount:    fmt.Sprintf("%d.0", i),
		To:        "0x000000000000000000000000000000000000dEaD",
		TxHash:    fmt.Sprintf("0x%064x", i),
		GasUsed:   "51234",
		Timestamp: "2024-05-01 10:00:00",
	}
}

func TestAppendNewestFirst(t *testing.T) {
	l := New(storage.NewMemoryKV())
	require.NoError(t, l.Load())
	for i := 1; i <= 5; i++ {
		require.NoError(t, l.Append(entry(i)))
	}
	all := l.All()
	require.Len(t, all, 5)
	for i, e := range all {
		assert.Equal(t, entry(5-i).TxHash, e.TxHash)
	}
}

func TestPersistReloadRoundTrip(t *testing.T) {
	kv := storage.NewMemoryKV()
	l := New(kv)
	require.NoError(t, l.Load())
	for i := 1; i <= 3; i++ {
		require.NoError(t, l.Append(entry(i)))
	}

	reloaded := New(kv)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, l.All(), reloaded.All())
}

func TestPersistWritesTrimmedSequence(t *testing.T) {
	kv := storage.NewMemoryKV()
	full := New(kv)
	for i := 1; i <= 4; i++ {
		require.NoError(t, full.Append(entry(i)))
	}

	capped := New(kv, WithMaxEntries(2))
	require.NoError(t, capped.Load())
	require.NoError(t, capped.Persist())

	reloaded := New(kv)
	require.NoError(t, reloaded.Load())
	all := reloaded.All()
	require.Len(t, all, 2)
	assert.Equal(t, entry(4).TxHash, all[0].TxHash)
	assert.Equal(t, entry(3).TxHash, all[1].TxHash)
}

func TestPersistEmptyLedgerWritesEmptyList(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, New(kv).Persist())
	raw, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestPersistDegradedLedger(t *testing.T) {
	assert.ErrorIs(t, New(nil).Persist(), ErrPersistenceUnavailable)
}

func TestPersistedShapeUsesWireKeys(t *testing.T) {
	kv := storage.NewMemoryKV()
	l := New(kv)
	require.NoError(t, l.Append(Entry{Kind: Mint, Amount: "1.0", To: "0xabc", TxHash: "0x1", GasUsed: "21000", Timestamp: "2024-01-01 00:00:00"}))

	raw, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"Mint","amount":"1.0","to":"0xabc","txHash":"0x1","gasUsed":"21000","timestamp":"2024-01-01 00:00:00"}]`, raw)
}

func TestLoadMissingKeyIsEmpty(t *testing.T) {
	l := New(storage.NewMemoryKV())
	require.NoError(t, l.Load())
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Degraded())
}

func TestLoadUnparseableIsEmpty(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(DefaultKey, "{not json"))
	l := New(kv)
	require.NoError(t, l.Load())
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Degraded())
}

func TestLoadReadFailureDegrades(t *testing.T) {
	kv := &failingKV{MemoryKV: storage.NewMemoryKV(), failGet: true}
	l := New(kv)
	err := l.Load()
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.True(t, l.Degraded())

	// appends still land in memory
	assert.ErrorIs(t, l.Append(entry(1)), ErrPersistenceUnavailable)
	assert.Equal(t, 1, l.Len())
}

func TestAppendPersistFailureKeepsEntry(t *testing.T) {
	kv := &failingKV{MemoryKV: storage.NewMemoryKV(), failSet: true}
	l := New(kv)
	require.NoError(t, l.Load())

	err := l.Append(entry(1))
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.True(t, l.Degraded())
	assert.Equal(t, 1, l.Len())

	// recovery of the store does not resume writes for this session
	kv.failSet = false
	assert.ErrorIs(t, l.Append(entry(2)), ErrPersistenceUnavailable)
	_, getErr := kv.Get(DefaultKey)
	assert.ErrorIs(t, getErr, storage.ErrNotFound)
	assert.Equal(t, 2, l.Len())
}

func TestMaxEntriesDropsOldest(t *testing.T) {
	l := New(storage.NewMemoryKV(), WithMaxEntries(2))
	for i := 1; i <= 4; i++ {
		require.NoError(t, l.Append(entry(i)))
	}
	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, entry(4).TxHash, all[0].TxHash)
	assert.Equal(t, entry(3).TxHash, all[1].TxHash)
}

func TestCustomKey(t *testing.T) {
	kv := storage.NewMemoryKV()
	l := New(kv, WithKey("history2"))
	require.NoError(t, l.Append(entry(1)))
	_, err := kv.Get("history2")
	assert.NoError(t, err)
}

func TestAllReturnsCopy(t *testing.T) {
	l := New(storage.NewMemoryKV())
	require.NoError(t, l.Append(entry(1)))
	all := l.All()
	all[0].Amount = "999"
	assert.Equal(t, "1.0", l.All()[0].Amount)
}

func TestNilStoreIsMemoryOnly(t *testing.T) {
	l := New(nil)
	require.NoError(t, l.Load())
	assert.ErrorIs(t, l.Append(entry(1)), ErrPersistenceUnavailable)
	assert.Equal(t, 1, l.Len())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("mint")
	require.NoError(t, err)
	assert.Equal(t, Mint, k)
	_, err = ParseKind("swap")
	assert.Error(t, err)
}

func TestStampLayout(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	assert.Equal(t, "2024-03-09 14:05:07", Stamp(ts))
}
