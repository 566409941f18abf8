// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/stakevault/stakevault/ledger"
)

// CreatePoolRequest is the body of POST /pools.
type CreatePoolRequest struct {
	Caller  string `json:"caller"`
	Asset   string `json:"asset"`
	Native  bool   `json:"native"`
	RateBps uint32 `json:"rateBps"`
}

// UpdatePoolRequest is the body of POST /pools/{id}.
type UpdatePoolRequest struct {
	Caller  string `json:"caller"`
	RateBps uint32 `json:"rateBps"`
	Active  bool   `json:"active"`
}

// StakeRequest is the body of POST /pools/{id}/stake. AttachedValue carries
// the native payment for native pools and must stay unset for token pools.
type StakeRequest struct {
	Caller        string                `json:"caller"`
	Amount        *math.HexOrDecimal256 `json:"amount"`
	AttachedValue *math.HexOrDecimal256 `json:"attachedValue"`
}

// UnstakeRequest is the body of POST /pools/{id}/unstake.
type UnstakeRequest struct {
	Caller string                `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// ClaimRequest is the body of POST /pools/{id}/claim.
type ClaimRequest struct {
	Caller string `json:"caller"`
}

// FundRequest is the body of POST /rewards/fund.
type FundRequest struct {
	Caller string                `json:"caller"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

// ManagerRequest is the body of POST /managers/add and /managers/remove.
type ManagerRequest struct {
	Caller  string `json:"caller"`
	Account string `json:"account"`
}

// PoolInfo is the wire form of a pool.
type PoolInfo struct {
	ID          string                `json:"id"`
	Asset       string                `json:"asset"`
	Native      bool                  `json:"native"`
	RateBps     uint32                `json:"rateBps"`
	TotalStaked *math.HexOrDecimal256 `json:"totalStaked"`
	Active      bool                  `json:"active"`
}

// StakeInfo is the wire form of a stake record, with the pending accrual
// computed at read time.
type StakeInfo struct {
	Amount             *math.HexOrDecimal256 `json:"amount"`
	StartTime          uint64                `json:"startTime"`
	LastRewardTime     uint64                `json:"lastRewardTime"`
	AccumulatedRewards *math.HexOrDecimal256 `json:"accumulatedRewards"`
	PendingRewards     *math.HexOrDecimal256 `json:"pendingRewards"`
}

func convertPoolInfo(info *ledger.PoolInfo) *PoolInfo {
	return &PoolInfo{
		ID:          info.ID.String(),
		Asset:       info.Asset.String(),
		Native:      info.IsNative,
		RateBps:     info.RewardRateBps,
		TotalStaked: (*math.HexOrDecimal256)(info.TotalStaked),
		Active:      info.Active,
	}
}

func convertStakeInfo(stake *ledger.Stake, pending *big.Int) *StakeInfo {
	return &StakeInfo{
		Amount:             (*math.HexOrDecimal256)(stake.Amount),
		StartTime:          stake.StartTime,
		LastRewardTime:     stake.LastRewardTime,
		AccumulatedRewards: (*math.HexOrDecimal256)(stake.AccumulatedRewards),
		PendingRewards:     (*math.HexOrDecimal256)(pending),
	}
}
