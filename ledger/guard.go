// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import "sync"

// guard is the single global execution lock: idle -> busy -> idle around the
// body of every funds-moving operation. It is non-reentrant: entering while
// busy fails immediately, which is what keeps a recursive call triggered by
// an external transfer from observing or mutating ledger state mid-operation.
type guard struct {
	mu sync.Mutex
}

// enter acquires the guard, failing with CodeReentrantCall when it is
// already held. The release function must be called on every exit path.
func (g *guard) enter() (release func(), err error) {
	if !g.mu.TryLock() {
		return nil, newRuleError(CodeReentrantCall, "operation already in progress")
	}
	return g.mu.Unlock, nil
}
