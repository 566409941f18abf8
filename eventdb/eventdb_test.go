// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/vault"
)

var (
	alice = vault.BytesToAddress([]byte("alice"))
	bob   = vault.BytesToAddress([]byte("bob"))
	poolA = vault.BytesToBytes32([]byte("pool-a"))
	poolB = vault.BytesToBytes32([]byte("pool-b"))
)

func newTestDB(t *testing.T) *EventDB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedEvents(t *testing.T, db *EventDB) {
	require.NoError(t, db.Insert(
		&ledger.Event{Kind: ledger.EventPoolCreated, PoolID: &poolA, RateBps: 100, Active: true, Timestamp: 10},
		&ledger.Event{Kind: ledger.EventStaked, PoolID: &poolA, Account: &alice, Amount: big.NewInt(1000), Timestamp: 20},
		&ledger.Event{Kind: ledger.EventStaked, PoolID: &poolB, Account: &bob, Amount: big.NewInt(2000), Timestamp: 30},
		&ledger.Event{Kind: ledger.EventUnstaked, PoolID: &poolA, Account: &alice, Amount: big.NewInt(400), Timestamp: 40},
		&ledger.Event{Kind: ledger.EventRewardFunded, Account: &bob, Amount: big.NewInt(50), Timestamp: 50},
	))
}

func TestInsertAndRoundTrip(t *testing.T) {
	db := newTestDB(t)
	seedEvents(t, db)

	events, err := db.Filter(nil)
	require.NoError(t, err)
	require.Len(t, events, 5)

	first := events[0]
	assert.Equal(t, ledger.EventPoolCreated, first.Kind)
	assert.Equal(t, poolA, *first.PoolID)
	assert.Nil(t, first.Account)
	assert.Equal(t, uint32(100), first.RateBps)
	assert.True(t, first.Active)
	assert.Equal(t, uint64(10), first.Timestamp)

	staked := events[1]
	assert.Equal(t, alice, *staked.Account)
	assert.Equal(t, big.NewInt(1000), staked.Amount)
}

func TestFilterByKind(t *testing.T) {
	db := newTestDB(t)
	seedEvents(t, db)

	kind := ledger.EventStaked
	events, err := db.Filter(&Filter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, ledger.EventStaked, ev.Kind)
	}
}

func TestFilterByPoolAndAccount(t *testing.T) {
	db := newTestDB(t)
	seedEvents(t, db)

	events, err := db.Filter(&Filter{PoolID: &poolA, Account: &alice})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ledger.EventStaked, events[0].Kind)
	assert.Equal(t, ledger.EventUnstaked, events[1].Kind)
}

func TestFilterRangeAndOrder(t *testing.T) {
	db := newTestDB(t)
	seedEvents(t, db)

	events, err := db.Filter(&Filter{
		Range: &Range{From: 20, To: 40},
		Order: DESC,
	})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, uint64(40), events[0].Timestamp)
	assert.Equal(t, uint64(20), events[2].Timestamp)
}

func TestFilterPagination(t *testing.T) {
	db := newTestDB(t)
	seedEvents(t, db)

	events, err := db.Filter(&Filter{Options: &Options{Offset: 1, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(20), events[0].Timestamp)
	assert.Equal(t, uint64(30), events[1].Timestamp)
}

func TestFilterNoMatch(t *testing.T) {
	db := newTestDB(t)
	seedEvents(t, db)

	other := vault.BytesToBytes32([]byte("other"))
	events, err := db.Filter(&Filter{PoolID: &other})
	require.NoError(t, err)
	assert.Empty(t, events)
}
