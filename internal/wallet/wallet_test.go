package wallet

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycitadel/citadel/internal/model"
)

var btc = model.AssetDescriptor{ID: "btc", Ticker: "BTC", Precision: 8, IsNative: true}

type lookup map[string]model.AssetDescriptor

func (l lookup) Lookup(id string) (model.AssetDescriptor, bool) {
	a, ok := l[id]
	return a, ok
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := NewService(t.TempDir(), lookup{btc.ID: btc})
	require.NoError(t, s.Init())
	return s
}

func TestInit_CreatesFiles(t *testing.T) {
	s := newTestService(t)
	data, err := os.ReadFile(filepath.Join(s.dir(), AddressesFile))
	require.NoError(t, err)
	assert.Equal(t, AddressHeader+"\n", string(data))

	// Init is idempotent and keeps existing content.
	_, err = s.AddAddresses([]PoolAddress{{Address: "a1"}})
	require.NoError(t, err)
	require.NoError(t, s.Init())
	pool, err := s.Addresses()
	require.NoError(t, err)
	assert.Len(t, pool, 1)
}

func TestNextReceivingAddress(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	n, err := s.AddAddresses([]PoolAddress{
		{Address: "seg1"},
		{Address: "leg1", Legacy: true},
		{Address: "seg2"},
		{Address: "seg1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.NextReceivingAddress(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "seg1", got)

	got, err = s.NextReceivingAddress(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "leg1", got)

	got, err = s.NextReceivingAddress(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, "seg2", got)

	_, err = s.NextReceivingAddress(ctx, false)
	assert.ErrorIs(t, err, ErrPoolExhausted)

	pool, err := s.Addresses()
	require.NoError(t, err)
	for _, a := range pool {
		assert.True(t, a.Used, a.Address)
	}
}

func TestNextReceivingAddress_Concurrent(t *testing.T) {
	s := newTestService(t)
	var addrs []PoolAddress
	for _, a := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		addrs = append(addrs, PoolAddress{Address: a})
	}
	_, err := s.AddAddresses(addrs)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < len(addrs); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := s.NextReceivingAddress(context.Background(), false)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[a], "address %s handed out twice", a)
			seen[a] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, len(addrs))
}

func TestNextReceivingAddress_Cancelled(t *testing.T) {
	s := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.NextReceivingAddress(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAllocations(t *testing.T) {
	s := newTestService(t)
	var txid chainhash.Hash
	txid[0] = 7

	rows := []AllocationRow{
		{OutPoint: model.OutPoint{TxID: txid, Vout: 0}, Address: "A", AssetID: btc.ID, AtomicAmount: 100},
		{OutPoint: model.OutPoint{TxID: txid, Vout: 1}, AssetID: "rgb1other", AtomicAmount: 5},
		{OutPoint: model.OutPoint{TxID: txid, Vout: 2}, Address: "B", AssetID: btc.ID, AtomicAmount: 10},
	}
	require.NoError(t, s.RecordAllocations(rows))

	got, err := s.CurrentAllocations(context.Background(), btc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Address)
	assert.Equal(t, btc, got[0].Asset)
	assert.Equal(t, uint32(2), got[1].OutPoint.Vout)

	_, err = s.CurrentAllocations(context.Background(), "rgb1other")
	assert.Error(t, err)
}

func TestAllocationCSV(t *testing.T) {
	var txid chainhash.Hash
	txid[31] = 1
	row := AllocationRow{OutPoint: model.OutPoint{TxID: txid, Vout: 3}, Address: "A", AssetID: "btc", AtomicAmount: 42}

	var buf bytes.Buffer
	buf.WriteString(AllocationHeader + "\n")
	require.NoError(t, AppendAllocations(&buf, []AllocationRow{row}))

	got, err := ReadAllocations(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, row, got[0])

	_, err = UnmarshalAllocation([]string{"bad", "A", "btc", "1"})
	assert.Error(t, err)
	_, err = UnmarshalAllocation([]string{txid.String() + ":0", "A", "btc", "-1"})
	assert.Error(t, err)
}
