// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"sync"
	"time"

	"github.com/stakevault/stakevault/gateway"
	"github.com/stakevault/stakevault/metrics"
	"github.com/stakevault/stakevault/vault"
)

var metricOpCount = metrics.LazyLoad(func() metrics.CountVecMeter {
	return metrics.CounterVec("ledger_operation_count", []string{"op", "success"})
})

// Service is the transaction-style front of the ledger. It serializes
// mutating calls the way a hosting execution environment would, stamps them
// with the clock, and performs the native value attach/refund choreography
// at the call boundary.
type Service struct {
	led *Ledger
	gw  gateway.Gateway
	now func() uint64

	mu sync.Mutex // mutating calls execute to completion in program order
}

// NewService creates a service over the ledger. A nil clock defaults to the
// wall clock in unix seconds.
func NewService(led *Ledger, gw gateway.Gateway, now func() uint64) *Service {
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	return &Service{led: led, gw: gw, now: now}
}

// Ledger returns the wrapped ledger.
func (s *Service) Ledger() *Ledger {
	return s.led
}

func (s *Service) count(op string, err error) {
	success := "true"
	if err != nil {
		success = "false"
	}
	metricOpCount().AddWithLabel(1, map[string]string{"op": op, "success": success})
}

// Stake deposits into a pool. A nonzero attached value is moved from the
// caller before the ledger body runs, mirroring value attached to a call,
// and is returned when the body fails.
func (s *Service) Stake(caller vault.Address, poolID vault.Bytes32, amount, attached *big.Int) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.count("stake", err) }()

	if attached == nil {
		attached = new(big.Int)
	}
	if attached.Sign() != 0 {
		if err := s.gw.Pull(vault.Bytes32{}, true, caller, attached); err != nil {
			return &RuleError{Code: CodeTransferFailed, Detail: err.Error()}
		}
	}
	if err := s.led.Stake(caller, poolID, amount, attached, s.now()); err != nil {
		if attached.Sign() != 0 {
			if rerr := s.gw.Push(vault.Bytes32{}, true, caller, attached); rerr != nil {
				logger.Error("failed to return attached value", "account", caller, "amount", attached, "error", rerr)
			}
		}
		return err
	}
	return nil
}

// Unstake withdraws from a pool.
func (s *Service) Unstake(caller vault.Address, poolID vault.Bytes32, amount *big.Int) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.count("unstake", err) }()

	return s.led.Unstake(caller, poolID, amount, s.now())
}

// ClaimRewards pays out accumulated rewards.
func (s *Service) ClaimRewards(caller vault.Address, poolID vault.Bytes32) (claimed *big.Int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.count("claim", err) }()

	return s.led.ClaimRewards(caller, poolID, s.now())
}

// FundRewards supplies reward liquidity.
func (s *Service) FundRewards(caller vault.Address, amount *big.Int) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.count("fund", err) }()

	return s.led.FundRewards(caller, amount, s.now())
}

// CreatePool registers a new pool.
func (s *Service) CreatePool(caller vault.Address, asset vault.Bytes32, isNative bool, rateBps uint32) (id vault.Bytes32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.count("create_pool", err) }()

	return s.led.CreatePool(caller, asset, isNative, rateBps, s.now())
}

// UpdatePool reconfigures a pool.
func (s *Service) UpdatePool(caller vault.Address, poolID vault.Bytes32, rateBps uint32, active bool) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.count("update_pool", err) }()

	return s.led.UpdatePool(caller, poolID, rateBps, active, s.now())
}

// AddManager grows the manager set.
func (s *Service) AddManager(caller, account vault.Address) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.count("add_manager", err) }()

	return s.led.AddManager(caller, account, s.now())
}

// RemoveManager shrinks the manager set.
func (s *Service) RemoveManager(caller, account vault.Address) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.count("remove_manager", err) }()

	return s.led.RemoveManager(caller, account, s.now())
}

// GetPoolInfo is a pure read.
func (s *Service) GetPoolInfo(poolID vault.Bytes32) *PoolInfo {
	return s.led.GetPoolInfo(poolID)
}

// GetPendingRewards previews the claimable reward at the current instant.
func (s *Service) GetPendingRewards(poolID vault.Bytes32, account vault.Address) *big.Int {
	return s.led.PendingRewards(poolID, account, s.now())
}
