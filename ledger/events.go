// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/event"

	"github.com/stakevault/stakevault/vault"
)

// EventKind identifies a ledger notification.
type EventKind string

const (
	EventPoolCreated    EventKind = "pool_created"
	EventPoolUpdated    EventKind = "pool_updated"
	EventStaked         EventKind = "staked"
	EventUnstaked       EventKind = "unstaked"
	EventRewardClaimed  EventKind = "reward_claimed"
	EventRewardFunded   EventKind = "reward_funded"
	EventManagerAdded   EventKind = "manager_added"
	EventManagerRemoved EventKind = "manager_removed"
)

// Event carries the essential facts of a successful mutation.
type Event struct {
	Kind      EventKind      `json:"kind"`
	PoolID    *vault.Bytes32 `json:"poolID,omitempty"`
	Account   *vault.Address `json:"account,omitempty"`
	Amount    *big.Int       `json:"amount,omitempty"`
	RateBps   uint32         `json:"rateBps,omitempty"`
	Active    bool           `json:"active,omitempty"`
	Timestamp uint64         `json:"timestamp"`
}

// SubscribeEvents subscribes to notifications fired after successful
// mutations. The channel receives events in commit order.
func (l *Ledger) SubscribeEvents(ch chan *Event) event.Subscription {
	return l.eventFeed.Subscribe(ch)
}

func (l *Ledger) emit(ev *Event) {
	l.eventFeed.Send(ev)
}
