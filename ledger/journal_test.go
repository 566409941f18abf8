// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJournalRevertOrder(t *testing.T) {
	var order []int
	j := &journal{}
	j.record(func() { order = append(order, 1) }, nil)
	j.record(func() { order = append(order, 2) }, nil)
	j.record(func() { order = append(order, 3) }, nil)

	j.revert()
	// undone in reverse, like unwinding a call stack
	assert.Equal(t, []int{3, 2, 1}, order)
}
