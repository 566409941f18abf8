// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakevault/stakevault/vault"
)

var (
	manager  = vault.BytesToAddress([]byte("manager"))
	alice    = vault.BytesToAddress([]byte("alice"))
	bob      = vault.BytesToAddress([]byte("bob"))
	tokenA   = vault.BytesToBytes32([]byte("token-a"))
	rewardID = vault.BytesToBytes32([]byte("reward"))
)

type gwCall struct {
	op       string // "pull" or "push"
	asset    vault.Bytes32
	isNative bool
	account  vault.Address
	amount   *big.Int
}

// testGateway records transfers and lets tests inject failures and
// recursive calls.
type testGateway struct {
	calls  []gwCall
	pullFn func(asset vault.Bytes32, isNative bool, from vault.Address, amount *big.Int) error
	pushFn func(asset vault.Bytes32, isNative bool, to vault.Address, amount *big.Int) error
}

func (g *testGateway) Pull(asset vault.Bytes32, isNative bool, from vault.Address, amount *big.Int) error {
	g.calls = append(g.calls, gwCall{"pull", asset, isNative, from, new(big.Int).Set(amount)})
	if g.pullFn != nil {
		return g.pullFn(asset, isNative, from, amount)
	}
	return nil
}

func (g *testGateway) Push(asset vault.Bytes32, isNative bool, to vault.Address, amount *big.Int) error {
	g.calls = append(g.calls, gwCall{"push", asset, isNative, to, new(big.Int).Set(amount)})
	if g.pushFn != nil {
		return g.pushFn(asset, isNative, to, amount)
	}
	return nil
}

func newTestLedger(t *testing.T) (*Ledger, *testGateway) {
	gw := &testGateway{}
	store := NewStore()
	require.NoError(t, store.Bootstrap([]vault.Address{manager}))
	led := New(store, gw, Config{RewardAsset: rewardID, RewardIsNative: false})
	return led, gw
}

func createTokenPool(t *testing.T, led *Ledger, rateBps uint32) vault.Bytes32 {
	id, err := led.CreatePool(manager, tokenA, false, rateBps, 0)
	require.NoError(t, err)
	return id
}

func createNativePool(t *testing.T, led *Ledger, rateBps uint32) vault.Bytes32 {
	id, err := led.CreatePool(manager, vault.Bytes32{}, true, rateBps, 0)
	require.NoError(t, err)
	return id
}

func TestStakeTokenPool(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	require.NoError(t, led.Stake(alice, id, big.NewInt(1000), nil, 10))

	stake := led.GetStakeInfo(id, alice)
	require.NotNil(t, stake)
	assert.Equal(t, big.NewInt(1000), stake.Amount)
	assert.Equal(t, uint64(10), stake.StartTime)
	assert.Equal(t, uint64(10), stake.LastRewardTime)
	assert.Equal(t, big.NewInt(1000), led.GetPoolInfo(id).TotalStaked)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, gwCall{"pull", tokenA, false, alice, big.NewInt(1000)}, gw.calls[0])
}

func TestStakeNativePool(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createNativePool(t, led, 100)

	// native value arrives attached, the ledger must not pull
	require.NoError(t, led.Stake(alice, id, big.NewInt(500), big.NewInt(500), 10))
	assert.Empty(t, gw.calls)
	assert.Equal(t, big.NewInt(500), led.GetStakeInfo(id, alice).Amount)
}

func TestStakeValidation(t *testing.T) {
	led, _ := newTestLedger(t)
	tokenPool := createTokenPool(t, led, 100)
	nativePool := createNativePool(t, led, 100)

	tests := []struct {
		name     string
		pool     vault.Bytes32
		amount   *big.Int
		attached *big.Int
		code     Code
	}{
		{"unknown pool", vault.BytesToBytes32([]byte("nope")), big.NewInt(1), nil, CodeInactivePool},
		{"zero amount", tokenPool, big.NewInt(0), nil, CodeInvalidAmount},
		{"negative amount", tokenPool, big.NewInt(-5), nil, CodeInvalidAmount},
		{"nil amount", tokenPool, nil, nil, CodeInvalidAmount},
		{"token pool with attached value", tokenPool, big.NewInt(10), big.NewInt(10), CodeInvalidAmount},
		{"native pool without attached value", nativePool, big.NewInt(10), nil, CodeInvalidAmount},
		{"native pool attached mismatch", nativePool, big.NewInt(10), big.NewInt(9), CodeInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := led.Stake(alice, tt.pool, tt.amount, tt.attached, 10)
			assert.True(t, IsCode(err, tt.code), "got %v", err)
		})
	}

	// nothing was credited by any of the rejected calls
	assert.Nil(t, led.GetStakeInfo(tokenPool, alice))
	assert.Nil(t, led.GetStakeInfo(nativePool, alice))
}

func TestStakeInactivePool(t *testing.T) {
	led, _ := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	require.NoError(t, led.UpdatePool(manager, id, 100, false, 0))
	err := led.Stake(alice, id, big.NewInt(1), nil, 10)
	assert.True(t, IsCode(err, CodeInactivePool))

	// reactivation lifts the rejection
	require.NoError(t, led.UpdatePool(manager, id, 100, true, 0))
	assert.NoError(t, led.Stake(alice, id, big.NewInt(1), nil, 10))
}

func TestStakePullFailureLeavesNoTrace(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	gw.pullFn = func(vault.Bytes32, bool, vault.Address, *big.Int) error {
		return errors.New("allowance exceeded")
	}
	err := led.Stake(alice, id, big.NewInt(1000), nil, 10)
	assert.True(t, IsCode(err, CodeTransferFailed))

	assert.Nil(t, led.GetStakeInfo(id, alice))
	assert.Equal(t, big.NewInt(0), led.GetPoolInfo(id).TotalStaked)
}

func TestRewardAccrualScenario(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createTokenPool(t, led, 100) // 1% per day

	const t0 = uint64(1000)
	require.NoError(t, led.Stake(alice, id, big.NewInt(100_000_000), nil, t0))

	// one full day at 100 bps
	t1 := t0 + 86400
	assert.Equal(t, big.NewInt(1_000_000), led.PendingRewards(id, alice, t1))

	gw.calls = nil
	claimed, err := led.ClaimRewards(alice, id, t1)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), claimed)

	// paid in the reward asset, not the staked asset
	require.Len(t, gw.calls, 1)
	assert.Equal(t, gwCall{"push", rewardID, false, alice, big.NewInt(1_000_000)}, gw.calls[0])

	// an immediate second claim yields zero and moves no funds
	gw.calls = nil
	claimed, err = led.ClaimRewards(alice, id, t1)
	require.NoError(t, err)
	assert.Equal(t, 0, claimed.Sign())
	assert.Empty(t, gw.calls)
}

func TestPendingRewardsMatchesCheckpoint(t *testing.T) {
	led, _ := newTestLedger(t)
	id := createTokenPool(t, led, 250)

	require.NoError(t, led.Stake(alice, id, big.NewInt(12345678), nil, 100))

	now := uint64(100 + 3*86400 + 777)
	pending := led.PendingRewards(id, alice, now)

	claimed, err := led.ClaimRewards(alice, id, now)
	require.NoError(t, err)
	assert.Equal(t, pending, claimed)
}

func TestCheckpointBeforeBalanceChange(t *testing.T) {
	led, _ := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	const t0 = uint64(0)
	require.NoError(t, led.Stake(alice, id, big.NewInt(100_000_000), nil, t0))

	// the second deposit must not earn for the first interval
	t1 := t0 + 86400
	require.NoError(t, led.Stake(alice, id, big.NewInt(100_000_000), nil, t1))

	stake := led.GetStakeInfo(id, alice)
	assert.Equal(t, big.NewInt(1_000_000), stake.AccumulatedRewards)
	assert.Equal(t, t1, stake.LastRewardTime)

	// from t1 on, both deposits earn
	t2 := t1 + 86400
	assert.Equal(t, big.NewInt(3_000_000), led.PendingRewards(id, alice, t2))
}

func TestUnstake(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	require.NoError(t, led.Stake(alice, id, big.NewInt(1000), nil, 0))

	gw.calls = nil
	require.NoError(t, led.Unstake(alice, id, big.NewInt(400), 86400))

	stake := led.GetStakeInfo(id, alice)
	assert.Equal(t, big.NewInt(600), stake.Amount)
	assert.Equal(t, big.NewInt(600), led.GetPoolInfo(id).TotalStaked)
	// rewards for the elapsed interval were checkpointed on the old balance
	assert.Equal(t, big.NewInt(10), stake.AccumulatedRewards)

	require.Len(t, gw.calls, 1)
	assert.Equal(t, gwCall{"push", tokenA, false, alice, big.NewInt(400)}, gw.calls[0])
}

func TestUnstakeValidation(t *testing.T) {
	led, _ := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	err := led.Unstake(alice, id, big.NewInt(1), 0)
	assert.True(t, IsCode(err, CodeNotInitialized))

	require.NoError(t, led.Stake(alice, id, big.NewInt(100), nil, 0))

	err = led.Unstake(alice, id, big.NewInt(101), 0)
	assert.True(t, IsCode(err, CodeInvalidAmount))
	err = led.Unstake(alice, id, big.NewInt(0), 0)
	assert.True(t, IsCode(err, CodeInvalidAmount))

	// a full withdrawal keeps the record; further withdrawals exceed zero
	require.NoError(t, led.Unstake(alice, id, big.NewInt(100), 0))
	require.NotNil(t, led.GetStakeInfo(id, alice))
	err = led.Unstake(alice, id, big.NewInt(1), 0)
	assert.True(t, IsCode(err, CodeInvalidAmount))
}

func TestUnstakePushFailureRevertsEverything(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	require.NoError(t, led.Stake(alice, id, big.NewInt(1000), nil, 0))
	before := led.GetStakeInfo(id, alice)

	gw.pushFn = func(vault.Bytes32, bool, vault.Address, *big.Int) error {
		return errors.New("recipient rejected transfer")
	}
	err := led.Unstake(alice, id, big.NewInt(400), 86400)
	assert.True(t, IsCode(err, CodeTransferFailed))

	// the checkpoint performed inside the failed operation is undone too
	after := led.GetStakeInfo(id, alice)
	assert.Equal(t, before, after)
	assert.Equal(t, big.NewInt(1000), led.GetPoolInfo(id).TotalStaked)
}

func TestClaimPushFailureRevertsEverything(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	require.NoError(t, led.FundRewards(manager, big.NewInt(5_000_000), 0))
	require.NoError(t, led.Stake(alice, id, big.NewInt(100_000_000), nil, 0))

	gw.pushFn = func(vault.Bytes32, bool, vault.Address, *big.Int) error {
		return errors.New("reward asset paused")
	}
	_, err := led.ClaimRewards(alice, id, 86400)
	assert.True(t, IsCode(err, CodeTransferFailed))

	// nothing was zeroed, the next claim can retry the full amount
	assert.Equal(t, big.NewInt(1_000_000), led.PendingRewards(id, alice, 86400))
	assert.Equal(t, big.NewInt(5_000_000), led.Store().Reserve())
}

func TestClaimDebitsReserve(t *testing.T) {
	led, _ := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	require.NoError(t, led.FundRewards(manager, big.NewInt(5_000_000), 0))
	require.NoError(t, led.Stake(alice, id, big.NewInt(100_000_000), nil, 0))

	claimed, err := led.ClaimRewards(alice, id, 86400)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), claimed)
	assert.Equal(t, big.NewInt(4_000_000), led.Store().Reserve())
}

func TestClaimIsNotCheckedAgainstReserve(t *testing.T) {
	led, _ := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	// no funding at all: the claim still succeeds and drives the
	// reserve negative, shortfalls only surface at the gateway
	require.NoError(t, led.Stake(alice, id, big.NewInt(100_000_000), nil, 0))

	claimed, err := led.ClaimRewards(alice, id, 86400)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), claimed)
	assert.Equal(t, big.NewInt(-1_000_000), led.Store().Reserve())
}

func TestFundRewards(t *testing.T) {
	led, gw := newTestLedger(t)

	require.NoError(t, led.FundRewards(manager, big.NewInt(777), 0))
	assert.Equal(t, big.NewInt(777), led.Store().Reserve())
	require.Len(t, gw.calls, 1)
	assert.Equal(t, gwCall{"pull", rewardID, false, manager, big.NewInt(777)}, gw.calls[0])

	err := led.FundRewards(alice, big.NewInt(1), 0)
	assert.True(t, IsCode(err, CodeNotManager))
	err = led.FundRewards(manager, big.NewInt(0), 0)
	assert.True(t, IsCode(err, CodeInvalidAmount))
}

func TestPoolIsolation(t *testing.T) {
	led, _ := newTestLedger(t)
	poolA := createTokenPool(t, led, 100)
	poolB := createNativePool(t, led, 200)

	require.NoError(t, led.Stake(alice, poolA, big.NewInt(1000), nil, 0))
	require.NoError(t, led.Stake(alice, poolB, big.NewInt(500), big.NewInt(500), 0))

	assert.Equal(t, big.NewInt(1000), led.GetStakeInfo(poolA, alice).Amount)
	assert.Equal(t, big.NewInt(500), led.GetStakeInfo(poolB, alice).Amount)
	assert.Equal(t, big.NewInt(1000), led.GetPoolInfo(poolA).TotalStaked)
	assert.Equal(t, big.NewInt(500), led.GetPoolInfo(poolB).TotalStaked)
}

func TestTotalStakedTracksSum(t *testing.T) {
	led, _ := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	require.NoError(t, led.Stake(alice, id, big.NewInt(1000), nil, 0))
	require.NoError(t, led.Stake(bob, id, big.NewInt(2000), nil, 0))
	require.NoError(t, led.Unstake(alice, id, big.NewInt(300), 0))

	sum := new(big.Int)
	led.Store().ForEachStake(id, func(_ vault.Address, stake *Stake) {
		sum.Add(sum, stake.Amount)
	})
	assert.Equal(t, sum, led.GetPoolInfo(id).TotalStaked)
	assert.Equal(t, big.NewInt(2700), sum)
}

func TestReentrantCallRejected(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	require.NoError(t, led.Stake(alice, id, big.NewInt(1000), nil, 0))

	var reentrantErr error
	gw.pushFn = func(vault.Bytes32, bool, vault.Address, *big.Int) error {
		// a malicious recipient tries to reenter during the payout
		reentrantErr = led.Stake(alice, id, big.NewInt(1), nil, 0)
		return nil
	}

	require.NoError(t, led.Unstake(alice, id, big.NewInt(400), 0))
	assert.True(t, IsCode(reentrantErr, CodeReentrantCall))

	// the outer operation completed untouched by the attempt
	assert.Equal(t, big.NewInt(600), led.GetStakeInfo(id, alice).Amount)
	assert.Equal(t, big.NewInt(600), led.GetPoolInfo(id).TotalStaked)
}

func TestReentrantObserverSeesFinalizedState(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	require.NoError(t, led.Stake(alice, id, big.NewInt(1000), nil, 0))

	var observed *big.Int
	gw.pushFn = func(vault.Bytes32, bool, vault.Address, *big.Int) error {
		observed = led.GetStakeInfo(id, alice).Amount
		return nil
	}
	require.NoError(t, led.Unstake(alice, id, big.NewInt(400), 0))

	// reads during the push see the post-debit balance
	assert.Equal(t, big.NewInt(600), observed)
}

func TestEventsEmittedInCommitOrder(t *testing.T) {
	led, _ := newTestLedger(t)

	ch := make(chan *Event, 16)
	sub := led.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	id := createTokenPool(t, led, 100)
	require.NoError(t, led.Stake(alice, id, big.NewInt(1000), nil, 7))
	require.NoError(t, led.Unstake(alice, id, big.NewInt(400), 7))

	expected := []EventKind{EventPoolCreated, EventStaked, EventUnstaked}
	for _, kind := range expected {
		ev := <-ch
		assert.Equal(t, kind, ev.Kind)
		if kind == EventStaked {
			assert.Equal(t, big.NewInt(1000), ev.Amount)
			assert.Equal(t, uint64(7), ev.Timestamp)
			assert.Equal(t, alice, *ev.Account)
		}
	}
}

func TestFailedOperationEmitsNoEvent(t *testing.T) {
	led, gw := newTestLedger(t)
	id := createTokenPool(t, led, 100)

	ch := make(chan *Event, 16)
	sub := led.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	gw.pullFn = func(vault.Bytes32, bool, vault.Address, *big.Int) error {
		return errors.New("nope")
	}
	err := led.Stake(alice, id, big.NewInt(1), nil, 0)
	require.Error(t, err)

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev.Kind)
	default:
	}
}
