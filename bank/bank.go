// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bank keeps per-(asset, account) balances and implements the
// vault's transfer gateway over them: pulls debit the account and credit the
// treasury, pushes go the other way. Every transfer checks the balance and
// reports failure instead of silently truncating.
package bank

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/gateway"
	"github.com/stakevault/stakevault/kv"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/vault"
)

var (
	logger = log.WithContext("pkg", "bank")

	_ gateway.Gateway = (*Bank)(nil)
)

type balanceKey struct {
	asset    vault.Bytes32
	isNative bool
	addr     vault.Address
}

func (k balanceKey) storageKey() []byte {
	flag := byte(0)
	asset := k.asset
	if k.isNative {
		flag = 1
		asset = vault.Bytes32{} // the native asset has a single balance space
	}
	key := make([]byte, 0, 1+32+vault.AddressLength)
	key = append(key, flag)
	key = append(key, asset.Bytes()...)
	return append(key, k.addr.Bytes()...)
}

// Bank is the internal asset ledger.
type Bank struct {
	treasury vault.Address

	mu       sync.RWMutex
	balances map[balanceKey]*big.Int

	db kv.GetPutter // nil for a memory-only bank
}

// New creates a memory-only bank with the given treasury account.
func New(treasury vault.Address) *Bank {
	return &Bank{
		treasury: treasury,
		balances: make(map[balanceKey]*big.Int),
	}
}

// NewPersistent creates a bank backed by db, loading persisted balances.
func NewPersistent(db kv.GetPutter, treasury vault.Address) (*Bank, error) {
	b := New(treasury)
	b.db = db
	iter := db.NewIterator(kv.Range{})
	defer iter.Release()
	for iter.Next() {
		raw := iter.Key()
		if len(raw) != 1+32+vault.AddressLength {
			continue
		}
		key := balanceKey{
			asset:    vault.BytesToBytes32(raw[1 : 1+32]),
			isNative: raw[0] == 1,
			addr:     vault.BytesToAddress(raw[1+32:]),
		}
		var bal big.Int
		if err := rlp.DecodeBytes(iter.Value(), &bal); err != nil {
			return nil, errors.Wrap(err, "decode balance")
		}
		b.balances[key] = &bal
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "load bank")
	}
	return b, nil
}

// Treasury returns the vault's own account.
func (b *Bank) Treasury() vault.Address {
	return b.treasury
}

func normalize(asset vault.Bytes32, isNative bool, addr vault.Address) balanceKey {
	if isNative {
		asset = vault.Bytes32{}
	}
	return balanceKey{asset, isNative, addr}
}

// Balance returns the account's balance of the asset.
func (b *Bank) Balance(asset vault.Bytes32, isNative bool, addr vault.Address) *big.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if bal, ok := b.balances[normalize(asset, isNative, addr)]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Mint credits an account out of thin air. Used for genesis allocations.
func (b *Bank) Mint(asset vault.Bytes32, isNative bool, addr vault.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("mint amount must be non-negative")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	key := normalize(asset, isNative, addr)
	bal := b.balance(key)
	return b.set(map[balanceKey]*big.Int{key: new(big.Int).Add(bal, amount)})
}

// Transfer moves amount between accounts, failing on insufficient balance.
func (b *Bank) Transfer(asset vault.Bytes32, isNative bool, from, to vault.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("transfer amount must be non-negative")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	fromKey := normalize(asset, isNative, from)
	toKey := normalize(asset, isNative, to)
	fromBal := b.balance(fromKey)
	if fromBal.Cmp(amount) < 0 {
		return errors.Errorf("insufficient balance: have %v, need %v", fromBal, amount)
	}
	if from == to || amount.Sign() == 0 {
		return nil
	}
	return b.set(map[balanceKey]*big.Int{
		fromKey: new(big.Int).Sub(fromBal, amount),
		toKey:   new(big.Int).Add(b.balance(toKey), amount),
	})
}

// Pull implements gateway.Gateway, moving value into the treasury.
func (b *Bank) Pull(asset vault.Bytes32, isNative bool, from vault.Address, amount *big.Int) error {
	if err := b.Transfer(asset, isNative, from, b.treasury, amount); err != nil {
		logger.Debug("pull failed", "asset", asset, "native", isNative, "from", from, "error", err)
		if isNative {
			return errors.WithMessage(gateway.ErrNativeTransfer, err.Error())
		}
		return errors.WithMessage(gateway.ErrTokenTransfer, err.Error())
	}
	return nil
}

// Push implements gateway.Gateway, moving value out of the treasury.
func (b *Bank) Push(asset vault.Bytes32, isNative bool, to vault.Address, amount *big.Int) error {
	if to.IsZero() {
		return gateway.ErrZeroRecipient
	}
	if err := b.Transfer(asset, isNative, b.treasury, to, amount); err != nil {
		logger.Debug("push failed", "asset", asset, "native", isNative, "to", to, "error", err)
		if isNative {
			return errors.WithMessage(gateway.ErrNativeTransfer, err.Error())
		}
		return errors.WithMessage(gateway.ErrTokenTransfer, err.Error())
	}
	return nil
}

// balance reads with the lock held.
func (b *Bank) balance(key balanceKey) *big.Int {
	if bal, ok := b.balances[key]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// set persists then applies the new balances, with the lock held. The batch
// write keeps both sides of a transfer durable together.
func (b *Bank) set(updates map[balanceKey]*big.Int) error {
	if b.db != nil {
		batch := b.db.NewBatch()
		for key, bal := range updates {
			raw, err := rlp.EncodeToBytes(bal)
			if err != nil {
				return errors.Wrap(err, "encode balance")
			}
			if err := batch.Put(key.storageKey(), raw); err != nil {
				return err
			}
		}
		if err := batch.Write(); err != nil {
			return errors.Wrap(err, "write balances")
		}
	}
	for key, bal := range updates {
		b.balances[key] = bal
	}
	return nil
}
