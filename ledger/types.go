// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/stakevault/stakevault/vault"
)

// Pool is an isolated accounting bucket for one asset type.
type Pool struct {
	Asset         vault.Bytes32 // zero for native-asset pools
	IsNative      bool
	RewardRateBps uint32
	TotalStaked   *big.Int
	Active        bool
	CreatedAt     uint64
}

// Copy returns a deep copy of the pool.
func (p *Pool) Copy() *Pool {
	cpy := *p
	cpy.TotalStaked = new(big.Int).Set(p.TotalStaked)
	return &cpy
}

// Stake is a single account's deposit record within one pool.
type Stake struct {
	Amount             *big.Int
	StartTime          uint64
	LastRewardTime     uint64
	AccumulatedRewards *big.Int
	Initialized        bool
}

func newStake(now uint64) *Stake {
	return &Stake{
		Amount:             new(big.Int),
		StartTime:          now,
		LastRewardTime:     now,
		AccumulatedRewards: new(big.Int),
		Initialized:        true,
	}
}

// Copy returns a deep copy of the stake record.
func (s *Stake) Copy() *Stake {
	cpy := *s
	cpy.Amount = new(big.Int).Set(s.Amount)
	cpy.AccumulatedRewards = new(big.Int).Set(s.AccumulatedRewards)
	return &cpy
}

// PoolID derives the deterministic pool identity from (asset, isNative).
// Equal inputs always collide to the same identity, so duplicate creation is
// detected and lookups need no side index.
func PoolID(asset vault.Bytes32, isNative bool) vault.Bytes32 {
	flag := []byte{0}
	if isNative {
		flag[0] = 1
	}
	return vault.Blake2b(asset.Bytes(), flag)
}

// PoolInfo is the read-only projection of a pool.
type PoolInfo struct {
	ID            vault.Bytes32
	Asset         vault.Bytes32
	IsNative      bool
	RewardRateBps uint32
	TotalStaked   *big.Int
	Active        bool
}
