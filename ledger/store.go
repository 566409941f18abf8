// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stakevault/stakevault/kv"
	"github.com/stakevault/stakevault/vault"
)

const (
	poolBucket    = kv.Bucket("p")
	stakeBucket   = kv.Bucket("s")
	managerBucket = kv.Bucket("m")
	configBucket  = kv.Bucket("c")
)

var reserveKey = []byte("reserve")

// Store is the arena owning every ledger record: the pool map, each pool's
// nested stake map, the manager set and the reward reserve. It is passed
// explicitly through every operation. When backed by a kv store, records are
// written through after each successful operation and reloaded at startup.
type Store struct {
	mu       sync.RWMutex
	pools    map[vault.Bytes32]*Pool
	stakes   map[vault.Bytes32]map[vault.Address]*Stake
	managers map[vault.Address]bool
	reserve  *big.Int

	db kv.GetPutter // nil for a memory-only store
}

// NewStore creates a memory-only store.
func NewStore() *Store {
	return &Store{
		pools:    make(map[vault.Bytes32]*Pool),
		stakes:   make(map[vault.Bytes32]map[vault.Address]*Stake),
		managers: make(map[vault.Address]bool),
		reserve:  new(big.Int),
	}
}

// NewPersistentStore creates a store backed by db, loading all previously
// persisted records into the arena.
func NewPersistentStore(db kv.GetPutter) (*Store, error) {
	s := NewStore()
	s.db = db
	if err := s.load(); err != nil {
		return nil, errors.Wrap(err, "load ledger store")
	}
	return s, nil
}

func (s *Store) load() error {
	iter := poolBucket.ProxyGetter(s.db).NewIterator(kv.Range{})
	for iter.Next() {
		var pool Pool
		if err := rlp.DecodeBytes(iter.Value(), &pool); err != nil {
			iter.Release()
			return errors.Wrap(err, "decode pool")
		}
		s.pools[vault.BytesToBytes32(iter.Key())] = &pool
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	iter = stakeBucket.ProxyGetter(s.db).NewIterator(kv.Range{})
	for iter.Next() {
		var stake Stake
		if err := rlp.DecodeBytes(iter.Value(), &stake); err != nil {
			iter.Release()
			return errors.Wrap(err, "decode stake")
		}
		key := iter.Key()
		poolID := vault.BytesToBytes32(key[:32])
		addr := vault.BytesToAddress(key[32:])
		if s.stakes[poolID] == nil {
			s.stakes[poolID] = make(map[vault.Address]*Stake)
		}
		s.stakes[poolID][addr] = &stake
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	iter = managerBucket.ProxyGetter(s.db).NewIterator(kv.Range{})
	for iter.Next() {
		s.managers[vault.BytesToAddress(iter.Key())] = true
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	cfg := configBucket.ProxyGetter(s.db)
	raw, err := cfg.Get(reserveKey)
	if err != nil {
		if cfg.IsNotFound(err) {
			return nil
		}
		return err
	}
	reserve, err := decodeReserve(raw)
	if err != nil {
		return err
	}
	s.reserve = reserve
	return nil
}

// GetPool returns a copy of the pool record, or nil if unknown.
func (s *Store) GetPool(id vault.Bytes32) *Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pool, ok := s.pools[id]; ok {
		return pool.Copy()
	}
	return nil
}

// PoolIDs lists identities of all created pools.
func (s *Store) PoolIDs() []vault.Bytes32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]vault.Bytes32, 0, len(s.pools))
	for id := range s.pools {
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) setPool(j *journal, id vault.Bytes32, pool *Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, existed := s.pools[id]
	s.pools[id] = pool
	j.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.pools[id] = old
		} else {
			delete(s.pools, id)
		}
	}, s.dirtyPool(id))
}

func (s *Store) dirtyPool(id vault.Bytes32) func(kv.Batch) error {
	if s.db == nil {
		return nil
	}
	return func(batch kv.Batch) error {
		s.mu.RLock()
		defer s.mu.RUnlock()
		raw, err := rlp.EncodeToBytes(s.pools[id])
		if err != nil {
			return errors.Wrap(err, "encode pool")
		}
		return poolBucket.ProxyPutter(batch).Put(id.Bytes(), raw)
	}
}

// GetStake returns a copy of the stake record, or nil if the account has
// never deposited into the pool.
func (s *Store) GetStake(poolID vault.Bytes32, addr vault.Address) *Stake {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if stake, ok := s.stakes[poolID][addr]; ok {
		return stake.Copy()
	}
	return nil
}

func (s *Store) setStake(j *journal, poolID vault.Bytes32, addr vault.Address, stake *Stake) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stakes[poolID] == nil {
		s.stakes[poolID] = make(map[vault.Address]*Stake)
	}
	old, existed := s.stakes[poolID][addr]
	s.stakes[poolID][addr] = stake
	j.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.stakes[poolID][addr] = old
		} else {
			delete(s.stakes[poolID], addr)
		}
	}, s.dirtyStake(poolID, addr))
}

func (s *Store) dirtyStake(poolID vault.Bytes32, addr vault.Address) func(kv.Batch) error {
	if s.db == nil {
		return nil
	}
	return func(batch kv.Batch) error {
		s.mu.RLock()
		defer s.mu.RUnlock()
		raw, err := rlp.EncodeToBytes(s.stakes[poolID][addr])
		if err != nil {
			return errors.Wrap(err, "encode stake")
		}
		return stakeBucket.ProxyPutter(batch).Put(append(poolID.Bytes(), addr.Bytes()...), raw)
	}
}

// ForEachStake calls fn for every stake record of the pool.
func (s *Store) ForEachStake(poolID vault.Bytes32, fn func(addr vault.Address, stake *Stake)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for addr, stake := range s.stakes[poolID] {
		fn(addr, stake.Copy())
	}
}

// IsManager returns whether addr is a member of the manager set.
func (s *Store) IsManager(addr vault.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.managers[addr]
}

// Managers lists the manager set.
func (s *Store) Managers() []vault.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addrs := make([]vault.Address, 0, len(s.managers))
	for addr := range s.managers {
		addrs = append(addrs, addr)
	}
	return addrs
}

func (s *Store) setManager(j *journal, addr vault.Address, listed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.managers[addr]
	if listed {
		s.managers[addr] = true
	} else {
		delete(s.managers, addr)
	}
	j.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if old {
			s.managers[addr] = true
		} else {
			delete(s.managers, addr)
		}
	}, s.dirtyManager(addr))
}

func (s *Store) dirtyManager(addr vault.Address) func(kv.Batch) error {
	if s.db == nil {
		return nil
	}
	return func(batch kv.Batch) error {
		s.mu.RLock()
		defer s.mu.RUnlock()
		putter := managerBucket.ProxyPutter(batch)
		if s.managers[addr] {
			return putter.Put(addr.Bytes(), []byte{1})
		}
		return putter.Delete(addr.Bytes())
	}
}

// Reserve returns the funded reward liquidity. It is informational only:
// claims are not checked against it.
func (s *Store) Reserve() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.reserve)
}

func (s *Store) setReserve(j *journal, reserve *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.reserve
	s.reserve = reserve
	j.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.reserve = old
	}, s.dirtyReserve())
}

func (s *Store) dirtyReserve() func(kv.Batch) error {
	if s.db == nil {
		return nil
	}
	return func(batch kv.Batch) error {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return configBucket.ProxyPutter(batch).Put(reserveKey, encodeReserve(s.reserve))
	}
}

// The reserve is a signed quantity: claims are not checked against it, so a
// shortfall drives it negative. Encoded as a sign byte followed by the
// absolute value.
func encodeReserve(reserve *big.Int) []byte {
	sign := byte(0)
	if reserve.Sign() < 0 {
		sign = 1
	}
	return append([]byte{sign}, reserve.Bytes()...)
}

func decodeReserve(raw []byte) (*big.Int, error) {
	if len(raw) == 0 {
		return nil, errors.New("reserve record too short")
	}
	reserve := new(big.Int).SetBytes(raw[1:])
	if raw[0] == 1 {
		reserve.Neg(reserve)
	}
	return reserve, nil
}

// Bootstrap seeds the genesis manager set. It only applies to a virgin
// store; a store with existing managers is left untouched.
func (s *Store) Bootstrap(managers []vault.Address) error {
	if len(s.Managers()) > 0 {
		return nil
	}
	j := &journal{}
	for _, addr := range managers {
		if addr.IsZero() {
			return errors.New("zero address in genesis manager set")
		}
		s.setManager(j, addr, true)
	}
	if err := s.commit(j); err != nil {
		j.revert()
		return errors.Wrap(err, "commit genesis managers")
	}
	return nil
}

// commit writes all records touched by the journal through to the backing
// store. A memory-only store commits trivially.
func (s *Store) commit(j *journal) error {
	if s.db == nil {
		return nil
	}
	batch := s.db.NewBatch()
	if err := j.writeTo(batch); err != nil {
		return err
	}
	return batch.Write()
}
