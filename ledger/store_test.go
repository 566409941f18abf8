// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/stakevault/lvldb"
	"github.com/stakevault/stakevault/vault"
)

func TestStoreReload(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewPersistentStore(db)
	require.NoError(t, err)
	require.NoError(t, store.Bootstrap([]vault.Address{manager}))

	gw := &testGateway{}
	led := New(store, gw, Config{RewardAsset: rewardID})

	id := createTokenPool(t, led, 100)
	require.NoError(t, led.Stake(alice, id, big.NewInt(1000), nil, 50))
	require.NoError(t, led.Stake(bob, id, big.NewInt(2000), nil, 60))
	require.NoError(t, led.AddManager(manager, bob, 0))
	require.NoError(t, led.FundRewards(manager, big.NewInt(777), 0))

	// a fresh store over the same backing db sees identical state
	reloaded, err := NewPersistentStore(db)
	require.NoError(t, err)

	assert.Equal(t, store.GetPool(id), reloaded.GetPool(id))
	assert.Equal(t, store.GetStake(id, alice), reloaded.GetStake(id, alice))
	assert.Equal(t, store.GetStake(id, bob), reloaded.GetStake(id, bob))
	assert.ElementsMatch(t, store.Managers(), reloaded.Managers())
	assert.Equal(t, big.NewInt(777), reloaded.Reserve())
}

func TestStoreReloadAfterRemoval(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewPersistentStore(db)
	require.NoError(t, err)
	require.NoError(t, store.Bootstrap([]vault.Address{manager}))

	led := New(store, &testGateway{}, Config{})
	require.NoError(t, led.AddManager(manager, alice, 0))
	require.NoError(t, led.RemoveManager(manager, alice, 0))

	reloaded, err := NewPersistentStore(db)
	require.NoError(t, err)
	assert.False(t, reloaded.IsManager(alice))
	assert.True(t, reloaded.IsManager(manager))
}

func TestStoreReloadPreservesNegativeReserve(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewPersistentStore(db)
	require.NoError(t, err)
	require.NoError(t, store.Bootstrap([]vault.Address{manager}))

	led := New(store, &testGateway{}, Config{RewardAsset: rewardID})
	id := createTokenPool(t, led, 100)
	require.NoError(t, led.Stake(alice, id, big.NewInt(100_000_000), nil, 0))

	// an unfunded claim drives the reserve negative
	_, err = led.ClaimRewards(alice, id, 86400)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(-1_000_000), store.Reserve())

	reloaded, err := NewPersistentStore(db)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(-1_000_000), reloaded.Reserve())
}

func TestStoreRevertedOperationNotPersisted(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	store, err := NewPersistentStore(db)
	require.NoError(t, err)
	require.NoError(t, store.Bootstrap([]vault.Address{manager}))

	gw := &testGateway{}
	led := New(store, gw, Config{})
	id := createTokenPool(t, led, 100)

	gw.pushFn = func(vault.Bytes32, bool, vault.Address, *big.Int) error {
		return assert.AnError
	}
	require.NoError(t, led.Stake(alice, id, big.NewInt(1000), nil, 0))
	require.Error(t, led.Unstake(alice, id, big.NewInt(400), 0))

	reloaded, err := NewPersistentStore(db)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), reloaded.GetStake(id, alice).Amount)
	assert.Equal(t, big.NewInt(1000), reloaded.GetPool(id).TotalStaked)
}
