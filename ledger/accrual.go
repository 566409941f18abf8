// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/stakevault/stakevault/vault"
)

const (
	bpsDenominator = 10000
	secondsPerDay  = 86400
)

var accrualDivisor = big.NewInt(bpsDenominator * secondsPerDay)

// accrue computes the reward earned by a balance at rateBps over elapsed
// seconds, flooring the division. Fractions below the smallest unit are
// permanently lost, bounded by one unit per checkpoint.
func accrue(amount *big.Int, rateBps uint32, elapsed uint64) *big.Int {
	if amount.Sign() == 0 || rateBps == 0 || elapsed == 0 {
		return new(big.Int)
	}
	reward := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(rateBps)))
	reward.Mul(reward, new(big.Int).SetUint64(elapsed))
	return reward.Div(reward, accrualDivisor)
}

// checkpoint commits reward accrual up to now for (pool, account). Nothing
// accrues before the first deposit. Every balance-mutating operation calls
// this before changing the amount, so rewards always accrue on the balance
// that was in effect for the preceding interval.
func (l *Ledger) checkpoint(j *journal, poolID vault.Bytes32, account vault.Address, now uint64) {
	stake := l.store.GetStake(poolID, account)
	if stake == nil || !stake.Initialized {
		return
	}
	if now <= stake.LastRewardTime {
		// the checkpoint time is never set in the future
		return
	}
	pool := l.store.GetPool(poolID)
	if pool == nil {
		return
	}
	reward := accrue(stake.Amount, pool.RewardRateBps, now-stake.LastRewardTime)
	stake.AccumulatedRewards.Add(stake.AccumulatedRewards, reward)
	stake.LastRewardTime = now
	l.store.setStake(j, poolID, account, stake)
}

// PendingRewards previews the reward a checkpoint at now would commit,
// without mutating state. It never diverges from an immediately following
// checkpoint at the same instant.
func (l *Ledger) PendingRewards(poolID vault.Bytes32, account vault.Address, now uint64) *big.Int {
	stake := l.store.GetStake(poolID, account)
	if stake == nil || !stake.Initialized {
		return new(big.Int)
	}
	pending := new(big.Int).Set(stake.AccumulatedRewards)
	if now <= stake.LastRewardTime {
		return pending
	}
	pool := l.store.GetPool(poolID)
	if pool == nil {
		return pending
	}
	return pending.Add(pending, accrue(stake.Amount, pool.RewardRateBps, now-stake.LastRewardTime))
}
