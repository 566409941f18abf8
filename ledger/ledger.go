// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements the multi-pool staking ledger: isolated pools
// per asset type, time-proportional reward accrual in a single reward asset,
// and the transfer choreography around deposits, withdrawals and claims.
package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/gateway"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/vault"
)

var logger = log.WithContext("pkg", "ledger")

// SetLogger overrides the package logger.
func SetLogger(l log.Logger) {
	logger = l
}

// Config holds the static ledger configuration.
type Config struct {
	// RewardAsset is the single asset all rewards are denominated in.
	RewardAsset vault.Bytes32
	// RewardIsNative marks the reward asset as the native one.
	RewardIsNative bool
}

// Ledger owns the staking arena and orchestrates every mutation. All
// funds-moving operations run under the reentrancy guard and commit
// all-or-nothing: any error reverts every record the operation touched.
type Ledger struct {
	store  *Store
	gw     gateway.Gateway
	config Config

	guard     guard
	eventFeed event.Feed
}

// New creates a ledger over the given store and transfer gateway.
func New(store *Store, gw gateway.Gateway, config Config) *Ledger {
	return &Ledger{
		store:  store,
		gw:     gw,
		config: config,
	}
}

// Store exposes the underlying arena for read access.
func (l *Ledger) Store() *Store {
	return l.store
}

// Config returns the static configuration.
func (l *Ledger) Config() Config {
	return l.config
}

// Stake deposits amount into the pool for the caller. For native-asset pools
// the attached value must equal amount and is considered already received;
// for token pools attached must be zero and the amount is pulled from the
// caller through the gateway before any balance is credited.
func (l *Ledger) Stake(caller vault.Address, poolID vault.Bytes32, amount, attached *big.Int, now uint64) error {
	release, err := l.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	pool := l.store.GetPool(poolID)
	if pool == nil || !pool.Active {
		return newRuleError(CodeInactivePool, "pool %v is not active", poolID.AbbrevString())
	}
	if amount == nil || amount.Sign() <= 0 {
		return newRuleError(CodeInvalidAmount, "amount must be positive")
	}
	if attached == nil {
		attached = new(big.Int)
	}
	if pool.IsNative {
		if attached.Cmp(amount) != 0 {
			return newRuleError(CodeInvalidAmount, "attached value %v does not match amount %v", attached, amount)
		}
	} else if attached.Sign() != 0 {
		return newRuleError(CodeInvalidAmount, "token pool takes no attached value")
	}

	j := &journal{}
	l.checkpoint(j, poolID, caller, now)

	stake := l.store.GetStake(poolID, caller)
	if stake == nil {
		// lazily create the record on first deposit
		stake = newStake(now)
		l.store.setStake(j, poolID, caller, stake.Copy())
	}

	// Token value requires an explicit pull; native value arrived attached to
	// the call. The pull happens before the balance increment: the credited
	// amount is bounded by what was just received, and the guard blocks any
	// recursive entry during the transfer.
	if !pool.IsNative {
		if err := l.gw.Pull(pool.Asset, false, caller, amount); err != nil {
			j.revert()
			logger.Info("stake pull failed", "pool", poolID, "account", caller, "error", err)
			return &RuleError{Code: CodeTransferFailed, Detail: err.Error()}
		}
	}

	stake.Amount.Add(stake.Amount, amount)
	l.store.setStake(j, poolID, caller, stake)

	pool.TotalStaked.Add(pool.TotalStaked, amount)
	l.store.setPool(j, poolID, pool)

	if err := l.store.commit(j); err != nil {
		j.revert()
		l.refund(pool, caller, amount)
		return errors.Wrap(err, "commit stake")
	}

	logger.Info("staked", "pool", poolID, "account", caller, "amount", amount)
	l.emit(&Event{
		Kind:      EventStaked,
		PoolID:    &poolID,
		Account:   &caller,
		Amount:    new(big.Int).Set(amount),
		Timestamp: now,
	})
	return nil
}

// Unstake withdraws amount of the caller's stake from the pool. Per
// checks-effects-interactions, the balance is debited before the funds are
// pushed out; a failed push aborts the operation with zero net state change.
func (l *Ledger) Unstake(caller vault.Address, poolID vault.Bytes32, amount *big.Int, now uint64) error {
	release, err := l.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	pool := l.store.GetPool(poolID)
	if pool == nil || !pool.Active {
		return newRuleError(CodeInactivePool, "pool %v is not active", poolID.AbbrevString())
	}
	stake := l.store.GetStake(poolID, caller)
	if stake == nil || !stake.Initialized {
		return newRuleError(CodeNotInitialized, "account %v has no stake in pool %v", caller, poolID.AbbrevString())
	}
	if amount == nil || amount.Sign() <= 0 {
		return newRuleError(CodeInvalidAmount, "amount must be positive")
	}
	if amount.Cmp(stake.Amount) > 0 {
		return newRuleError(CodeInvalidAmount, "withdrawal %v exceeds staked %v", amount, stake.Amount)
	}

	j := &journal{}
	l.checkpoint(j, poolID, caller, now)

	stake = l.store.GetStake(poolID, caller)
	stake.Amount.Sub(stake.Amount, amount)
	l.store.setStake(j, poolID, caller, stake)

	pool.TotalStaked.Sub(pool.TotalStaked, amount)
	l.store.setPool(j, poolID, pool)

	if err := l.gw.Push(pool.Asset, pool.IsNative, caller, amount); err != nil {
		j.revert()
		logger.Info("unstake push failed", "pool", poolID, "account", caller, "error", err)
		return &RuleError{Code: CodeTransferFailed, Detail: err.Error()}
	}

	if err := l.store.commit(j); err != nil {
		j.revert()
		l.reclaim(pool, caller, amount)
		return errors.Wrap(err, "commit unstake")
	}

	logger.Info("unstaked", "pool", poolID, "account", caller, "amount", amount)
	l.emit(&Event{
		Kind:      EventUnstaked,
		PoolID:    &poolID,
		Account:   &caller,
		Amount:    new(big.Int).Set(amount),
		Timestamp: now,
	})
	return nil
}

// ClaimRewards checkpoints and pays out the caller's accumulated rewards in
// the configured reward asset. Zero is a valid, non-failing result and emits
// no event.
func (l *Ledger) ClaimRewards(caller vault.Address, poolID vault.Bytes32, now uint64) (*big.Int, error) {
	release, err := l.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	pool := l.store.GetPool(poolID)
	if pool == nil || !pool.Active {
		return nil, newRuleError(CodeInactivePool, "pool %v is not active", poolID.AbbrevString())
	}
	stake := l.store.GetStake(poolID, caller)
	if stake == nil || !stake.Initialized {
		return nil, newRuleError(CodeNotInitialized, "account %v has no stake in pool %v", caller, poolID.AbbrevString())
	}

	j := &journal{}
	l.checkpoint(j, poolID, caller, now)

	stake = l.store.GetStake(poolID, caller)
	claimed := new(big.Int).Set(stake.AccumulatedRewards)
	if claimed.Sign() == 0 {
		return claimed, nil
	}

	stake.AccumulatedRewards = new(big.Int)
	l.store.setStake(j, poolID, caller, stake)
	l.store.setReserve(j, new(big.Int).Sub(l.store.Reserve(), claimed))

	// effects are final before the external push; reward shortfall surfaces
	// here as a gateway failure, not as a ledger-level error
	if err := l.gw.Push(l.config.RewardAsset, l.config.RewardIsNative, caller, claimed); err != nil {
		j.revert()
		logger.Info("claim push failed", "pool", poolID, "account", caller, "error", err)
		return nil, &RuleError{Code: CodeTransferFailed, Detail: err.Error()}
	}

	if err := l.store.commit(j); err != nil {
		j.revert()
		if rerr := l.gw.Pull(l.config.RewardAsset, l.config.RewardIsNative, caller, claimed); rerr != nil {
			logger.Error("failed to reclaim pushed rewards", "account", caller, "amount", claimed, "error", rerr)
		}
		return nil, errors.Wrap(err, "commit claim")
	}

	logger.Info("claimed rewards", "pool", poolID, "account", caller, "amount", claimed)
	l.emit(&Event{
		Kind:      EventRewardClaimed,
		PoolID:    &poolID,
		Account:   &caller,
		Amount:    new(big.Int).Set(claimed),
		Timestamp: now,
	})
	return claimed, nil
}

// FundRewards pulls amount of the reward asset from the caller into the
// vault's reserve. The reserve is not allocated to pools or stakers and
// claims are not checked against it.
func (l *Ledger) FundRewards(caller vault.Address, amount *big.Int, now uint64) error {
	release, err := l.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	if err := l.requireManager(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return newRuleError(CodeInvalidAmount, "amount must be positive")
	}

	if err := l.gw.Pull(l.config.RewardAsset, l.config.RewardIsNative, caller, amount); err != nil {
		logger.Info("fund pull failed", "account", caller, "error", err)
		return &RuleError{Code: CodeTransferFailed, Detail: err.Error()}
	}

	j := &journal{}
	l.store.setReserve(j, new(big.Int).Add(l.store.Reserve(), amount))

	if err := l.store.commit(j); err != nil {
		j.revert()
		if rerr := l.gw.Push(l.config.RewardAsset, l.config.RewardIsNative, caller, amount); rerr != nil {
			logger.Error("failed to refund reward funding", "account", caller, "amount", amount, "error", rerr)
		}
		return errors.Wrap(err, "commit funding")
	}

	logger.Info("funded rewards", "account", caller, "amount", amount)
	l.emit(&Event{
		Kind:      EventRewardFunded,
		Account:   &caller,
		Amount:    new(big.Int).Set(amount),
		Timestamp: now,
	})
	return nil
}

// refund best-effort returns a pulled deposit after a failed commit.
func (l *Ledger) refund(pool *Pool, to vault.Address, amount *big.Int) {
	if pool.IsNative {
		return
	}
	if err := l.gw.Push(pool.Asset, false, to, amount); err != nil {
		logger.Error("failed to refund deposit", "account", to, "amount", amount, "error", err)
	}
}

// reclaim best-effort pulls back a pushed withdrawal after a failed commit.
func (l *Ledger) reclaim(pool *Pool, from vault.Address, amount *big.Int) {
	if err := l.gw.Pull(pool.Asset, pool.IsNative, from, amount); err != nil {
		logger.Error("failed to reclaim withdrawal", "account", from, "amount", amount, "error", err)
	}
}
