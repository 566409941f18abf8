// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/vault"
)

// CreatePool registers a new pool for (asset, isNative). The identity is
// derived deterministically, so a second creation with equal inputs fails.
func (l *Ledger) CreatePool(caller vault.Address, asset vault.Bytes32, isNative bool, rateBps uint32, now uint64) (vault.Bytes32, error) {
	if err := l.requireManager(caller); err != nil {
		return vault.Bytes32{}, err
	}

	id := PoolID(asset, isNative)
	if l.store.GetPool(id) != nil {
		return vault.Bytes32{}, newRuleError(CodePoolExists, "pool %v already exists", id.AbbrevString())
	}

	pool := &Pool{
		Asset:         asset,
		IsNative:      isNative,
		RewardRateBps: rateBps,
		TotalStaked:   new(big.Int),
		Active:        true,
		CreatedAt:     now,
	}

	j := &journal{}
	l.store.setPool(j, id, pool)
	if err := l.store.commit(j); err != nil {
		j.revert()
		return vault.Bytes32{}, errors.Wrap(err, "commit pool creation")
	}

	logger.Info("created pool", "pool", id, "asset", asset, "native", isNative, "rateBps", rateBps)
	l.emit(&Event{
		Kind:      EventPoolCreated,
		PoolID:    &id,
		RateBps:   rateBps,
		Active:    true,
		Timestamp: now,
	})
	return id, nil
}

// UpdatePool overwrites the reward rate and active flag unconditionally.
// It does not checkpoint in-flight accruals for any staker: the new rate
// applies retroactively over each staker's whole unaccrued interval the next
// time their accrual is checkpointed.
func (l *Ledger) UpdatePool(caller vault.Address, poolID vault.Bytes32, rateBps uint32, active bool, now uint64) error {
	if err := l.requireManager(caller); err != nil {
		return err
	}

	pool := l.store.GetPool(poolID)
	if pool == nil {
		return newRuleError(CodeInvalidPool, "pool %v was never created", poolID.AbbrevString())
	}

	pool.RewardRateBps = rateBps
	pool.Active = active

	j := &journal{}
	l.store.setPool(j, poolID, pool)
	if err := l.store.commit(j); err != nil {
		j.revert()
		return errors.Wrap(err, "commit pool update")
	}

	logger.Info("updated pool", "pool", poolID, "rateBps", rateBps, "active", active)
	l.emit(&Event{
		Kind:      EventPoolUpdated,
		PoolID:    &poolID,
		RateBps:   rateBps,
		Active:    active,
		Timestamp: now,
	})
	return nil
}

// GetPoolInfo is a pure read. It never fails: unknown identities yield
// zero-valued fields.
func (l *Ledger) GetPoolInfo(poolID vault.Bytes32) *PoolInfo {
	pool := l.store.GetPool(poolID)
	if pool == nil {
		return &PoolInfo{ID: poolID, TotalStaked: new(big.Int)}
	}
	return &PoolInfo{
		ID:            poolID,
		Asset:         pool.Asset,
		IsNative:      pool.IsNative,
		RewardRateBps: pool.RewardRateBps,
		TotalStaked:   pool.TotalStaked,
		Active:        pool.Active,
	}
}

// GetStakeInfo returns a copy of the caller's stake record, or nil when the
// account never deposited into the pool.
func (l *Ledger) GetStakeInfo(poolID vault.Bytes32, account vault.Address) *Stake {
	return l.store.GetStake(poolID, account)
}
